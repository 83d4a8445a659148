package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
)

const createBooksTable = `
CREATE TABLE IF NOT EXISTS books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	author TEXT NOT NULL,
	description TEXT NULL,
	published_date TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) repository.BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createBooksTable); err != nil {
		return fmt.Errorf("create books table: %w", err)
	}
	return nil
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) (int64, error) {
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO books (name, author, description, published_date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		book.Name,
		book.Author,
		nullString(book.Description),
		book.PublishedDate.Format(domain.DateLayout),
		book.CreatedAt,
		book.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	book.ID = id
	return id, nil
}

func (r *BookRepository) Update(ctx context.Context, book *domain.Book) error {
	book.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE books
SET name=?, author=?, description=?, published_date=?, updated_at=?
WHERE id=?`,
		book.Name,
		book.Author,
		nullString(book.Description),
		book.PublishedDate.Format(domain.DateLayout),
		book.UpdatedAt,
		book.ID,
	)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	return expectAffected(res, "book")
}

func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE book_id=?`, id); err != nil {
		return fmt.Errorf("delete book comments: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if err := expectAffected(res, "book"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit book delete: %w", err)
	}
	return nil
}

func (r *BookRepository) Get(ctx context.Context, id int64) (*domain.Book, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, author, description, published_date, created_at, updated_at
FROM books
WHERE id=?`,
		id,
	)
	return scanBook(row)
}

func (r *BookRepository) List(ctx context.Context) ([]domain.Book, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, author, description, published_date, created_at, updated_at
FROM books
ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	books := []domain.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}

	return books, rows.Err()
}

func scanBook(scanner rowScanner) (*domain.Book, error) {
	var (
		book        domain.Book
		description sql.NullString
		published   string
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := scanner.Scan(
		&book.ID,
		&book.Name,
		&book.Author,
		&description,
		&published,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("book: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}

	date, err := time.Parse(domain.DateLayout, published)
	if err != nil {
		return nil, fmt.Errorf("parse published date %q: %w", published, err)
	}
	book.PublishedDate = date
	if description.Valid {
		v := description.String
		book.Description = &v
	}
	book.CreatedAt = createdAt.UTC()
	book.UpdatedAt = updatedAt.UTC()

	return &book, nil
}

func expectAffected(res sql.Result, entity string) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", entity, err)
	}
	if aff == 0 {
		return fmt.Errorf("%s: %w", entity, repository.ErrNotFound)
	}
	return nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
