package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
)

// One comment per (book, user) is enforced by the unique index as well as by
// the service layer, so two racing inserts cannot both land.
const createCommentsTable = `
CREATE TABLE IF NOT EXISTS comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	book_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	body TEXT NOT NULL,
	rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(book_id) REFERENCES books(id) ON DELETE CASCADE,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_comments_book_user ON comments(book_id, user_id);
`

const selectComments = `
SELECT c.id, c.book_id, c.user_id, u.username, c.body, c.rating, c.created_at, c.updated_at
FROM comments c
JOIN users u ON u.id = c.user_id`

type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) repository.CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCommentsTable); err != nil {
		return fmt.Errorf("create comments table: %w", err)
	}
	return nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) (int64, error) {
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO comments (book_id, user_id, body, rating, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		comment.BookID,
		comment.UserID,
		comment.Body,
		comment.Rating,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return 0, fmt.Errorf("comment: %w", repository.ErrConflict)
		case strings.Contains(strings.ToLower(err.Error()), "foreign key"):
			return 0, fmt.Errorf("comment parent: %w", repository.ErrNotFound)
		}
		return 0, fmt.Errorf("insert comment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("comment last insert id: %w", err)
	}
	comment.ID = id
	return id, nil
}

// Update rewrites the body and rating; the book and author of a comment never change.
func (r *CommentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	comment.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE comments
SET body=?, rating=?, updated_at=?
WHERE id=?`,
		comment.Body,
		comment.Rating,
		comment.UpdatedAt,
		comment.ID,
	)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return expectAffected(res, "comment")
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return expectAffected(res, "comment")
}

func (r *CommentRepository) Get(ctx context.Context, id int64) (*domain.Comment, error) {
	row := r.db.QueryRowContext(ctx, selectComments+`
WHERE c.id=?`, id)
	return scanComment(row)
}

func (r *CommentRepository) ListByBook(ctx context.Context, bookID int64) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, selectComments+`
WHERE c.book_id=?
ORDER BY c.id ASC`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *comment)
	}

	return comments, rows.Err()
}

func (r *CommentRepository) Exists(ctx context.Context, bookID, userID int64) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS(SELECT 1 FROM comments WHERE book_id=? AND user_id=?)`,
		bookID,
		userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check existing comment: %w", err)
	}
	return exists == 1, nil
}

func scanComment(scanner rowScanner) (*domain.Comment, error) {
	var (
		comment   domain.Comment
		createdAt time.Time
		updatedAt time.Time
	)
	if err := scanner.Scan(
		&comment.ID,
		&comment.BookID,
		&comment.UserID,
		&comment.Username,
		&comment.Body,
		&comment.Rating,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("comment: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan comment: %w", err)
	}
	comment.CreatedAt = createdAt.UTC()
	comment.UpdatedAt = updatedAt.UTC()
	return &comment, nil
}
