package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"bookshelf/internal/domain"
	"bookshelf/internal/policy"
	"bookshelf/internal/repository"
)

const maxBookTextLength = 250

// BookInput carries every writable book attribute.
type BookInput struct {
	Name          string
	Author        string
	Description   *string
	PublishedDate time.Time
}

// BookPatch carries the attributes a partial update touches; nil fields are left alone.
// Description is applied only when SetDescription is true, and a nil value clears it.
type BookPatch struct {
	Name           *string
	Author         *string
	Description    *string
	SetDescription bool
	PublishedDate  *time.Time
}

// BookService is the book collection (list, create) and single-book
// (get, update, delete) resource. Every call is gated by the access policy.
type BookService interface {
	ListBooks(ctx context.Context, p domain.Principal) ([]domain.Book, error)
	CreateBook(ctx context.Context, p domain.Principal, in BookInput) (*domain.Book, error)
	GetBook(ctx context.Context, p domain.Principal, id int64) (*domain.Book, error)
	UpdateBook(ctx context.Context, p domain.Principal, id int64, in BookInput) (*domain.Book, error)
	PatchBook(ctx context.Context, p domain.Principal, id int64, patch BookPatch) (*domain.Book, error)
	DeleteBook(ctx context.Context, p domain.Principal, id int64) error
}

type bookService struct {
	books    repository.BookRepository
	comments repository.CommentRepository
}

func NewBookService(books repository.BookRepository, comments repository.CommentRepository) BookService {
	return &bookService{
		books:    books,
		comments: comments,
	}
}

func (s *bookService) ListBooks(ctx context.Context, p domain.Principal) ([]domain.Book, error) {
	if err := policy.BookDecision(p, policy.OpSafe); err != nil {
		return nil, err
	}

	books, err := s.books.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range books {
		comments, err := s.comments.ListByBook(ctx, books[i].ID)
		if err != nil {
			return nil, err
		}
		books[i].Comments = comments
	}
	return books, nil
}

func (s *bookService) CreateBook(ctx context.Context, p domain.Principal, in BookInput) (*domain.Book, error) {
	if err := policy.BookDecision(p, policy.OpUnsafe); err != nil {
		return nil, err
	}

	book := &domain.Book{}
	applyBookInput(book, in)
	if err := validateBook(book); err != nil {
		return nil, err
	}

	if _, err := s.books.Create(ctx, book); err != nil {
		return nil, err
	}
	book.Comments = []domain.Comment{}
	return book, nil
}

func (s *bookService) GetBook(ctx context.Context, p domain.Principal, id int64) (*domain.Book, error) {
	if err := policy.BookDecision(p, policy.OpSafe); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *bookService) UpdateBook(ctx context.Context, p domain.Principal, id int64, in BookInput) (*domain.Book, error) {
	return s.mutate(ctx, p, id, func(book *domain.Book) {
		applyBookInput(book, in)
	})
}

func (s *bookService) PatchBook(ctx context.Context, p domain.Principal, id int64, patch BookPatch) (*domain.Book, error) {
	return s.mutate(ctx, p, id, func(book *domain.Book) {
		if patch.Name != nil {
			book.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Author != nil {
			book.Author = strings.TrimSpace(*patch.Author)
		}
		if patch.SetDescription {
			book.Description = normalizeDescription(patch.Description)
		}
		if patch.PublishedDate != nil {
			book.PublishedDate = *patch.PublishedDate
		}
	})
}

func (s *bookService) DeleteBook(ctx context.Context, p domain.Principal, id int64) error {
	if err := policy.BookDecision(p, policy.OpUnsafe); err != nil {
		return err
	}
	if err := s.books.Delete(ctx, id); err != nil {
		return translateNotFound(err, ErrBookNotFound)
	}
	return nil
}

func (s *bookService) mutate(ctx context.Context, p domain.Principal, id int64, apply func(*domain.Book)) (*domain.Book, error) {
	if err := policy.BookDecision(p, policy.OpUnsafe); err != nil {
		return nil, err
	}

	book, err := s.books.Get(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, ErrBookNotFound)
	}
	apply(book)
	if err := validateBook(book); err != nil {
		return nil, err
	}
	if err := s.books.Update(ctx, book); err != nil {
		return nil, translateNotFound(err, ErrBookNotFound)
	}

	comments, err := s.comments.ListByBook(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	book.Comments = comments
	return book, nil
}

func (s *bookService) load(ctx context.Context, id int64) (*domain.Book, error) {
	book, err := s.books.Get(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, ErrBookNotFound)
	}
	comments, err := s.comments.ListByBook(ctx, id)
	if err != nil {
		return nil, err
	}
	book.Comments = comments
	return book, nil
}

func applyBookInput(book *domain.Book, in BookInput) {
	book.Name = strings.TrimSpace(in.Name)
	book.Author = strings.TrimSpace(in.Author)
	book.Description = normalizeDescription(in.Description)
	book.PublishedDate = in.PublishedDate
}

func validateBook(book *domain.Book) error {
	v := newValidationError()
	v.Check(book.Name != "", "name", "must be provided")
	v.Check(utf8.RuneCountInString(book.Name) <= maxBookTextLength, "name", "must not be more than 250 characters long")
	v.Check(book.Author != "", "author", "must be provided")
	v.Check(utf8.RuneCountInString(book.Author) <= maxBookTextLength, "author", "must not be more than 250 characters long")
	v.Check(!book.PublishedDate.IsZero(), "published_date", "must be provided")
	if !v.Valid() {
		return v
	}
	return nil
}

// blank descriptions are stored as NULL
func normalizeDescription(desc *string) *string {
	if desc == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*desc)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func translateNotFound(err, target error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target
	}
	return err
}
