package repository

import (
	"context"

	"bookshelf/internal/domain"
)

// BookRepository exposes persistence operations for Book records.
type BookRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, book *domain.Book) (int64, error)
	Update(ctx context.Context, book *domain.Book) error
	// Delete removes the book and every comment that references it.
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Book, error)
	List(ctx context.Context) ([]domain.Book, error)
}

// CommentRepository manages comments left on books.
type CommentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, comment *domain.Comment) (int64, error)
	Update(ctx context.Context, comment *domain.Comment) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Comment, error)
	ListByBook(ctx context.Context, bookID int64) ([]domain.Comment, error)
	Exists(ctx context.Context, bookID, userID int64) (bool, error)
}
