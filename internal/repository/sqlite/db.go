package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"bookshelf/internal/repository"
)

// Open opens (or creates) a sqlite database at the given path and ensures directories exist.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	// foreign keys are a per-connection setting; the pragma in the DSN is
	// applied to every connection the pool opens
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return db, nil
}

// Store bundles the repositories backed by a single database handle.
type Store struct {
	Users    repository.UserRepository
	Books    repository.BookRepository
	Comments repository.CommentRepository
}

// NewStore builds the repositories over db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		Users:    NewUserRepository(db),
		Books:    NewBookRepository(db),
		Comments: NewCommentRepository(db),
	}
}

// Init creates the schema. Tables are created parents first so that the
// foreign keys resolve.
func (s *Store) Init(ctx context.Context) error {
	if err := s.Users.Init(ctx); err != nil {
		return fmt.Errorf("init user repository: %w", err)
	}
	if err := s.Books.Init(ctx); err != nil {
		return fmt.Errorf("init book repository: %w", err)
	}
	if err := s.Comments.Init(ctx); err != nil {
		return fmt.Errorf("init comment repository: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}

type rowScanner interface {
	Scan(dest ...any) error
}
