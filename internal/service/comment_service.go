package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookshelf/internal/domain"
	"bookshelf/internal/policy"
	"bookshelf/internal/repository"
)

// CommentInput is the caller-supplied part of a comment. The book and the
// author are never taken from the payload.
type CommentInput struct {
	Body   string
	Rating int
}

// CommentPatch carries the attributes a partial update touches.
type CommentPatch struct {
	Body   *string
	Rating *int
}

// CommentService handles comment admission and the single-comment resource.
type CommentService interface {
	CreateComment(ctx context.Context, p domain.Principal, bookID int64, in CommentInput) (*domain.Comment, error)
	GetComment(ctx context.Context, p domain.Principal, id int64) (*domain.Comment, error)
	UpdateComment(ctx context.Context, p domain.Principal, id int64, in CommentInput) (*domain.Comment, error)
	PatchComment(ctx context.Context, p domain.Principal, id int64, patch CommentPatch) (*domain.Comment, error)
	DeleteComment(ctx context.Context, p domain.Principal, id int64) error
}

type commentService struct {
	books      repository.BookRepository
	comments   repository.CommentRepository
	editPolicy policy.EditPolicy
}

func NewCommentService(books repository.BookRepository, comments repository.CommentRepository, editPolicy policy.EditPolicy) CommentService {
	if editPolicy == "" {
		editPolicy = policy.EditOwner
	}
	return &commentService{
		books:      books,
		comments:   comments,
		editPolicy: editPolicy,
	}
}

// CreateComment admits a new comment by p on the book identified by bookID.
// The book must exist, the payload must satisfy its field constraints, and p
// must not have commented on the book before.
func (s *commentService) CreateComment(ctx context.Context, p domain.Principal, bookID int64, in CommentInput) (*domain.Comment, error) {
	if err := policy.AllowCommentCreate(p); err != nil {
		return nil, err
	}

	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		return nil, translateNotFound(err, ErrBookNotFound)
	}

	comment := &domain.Comment{
		BookID:   book.ID,
		UserID:   p.UserID,
		Username: p.Username,
		Body:     strings.TrimSpace(in.Body),
		Rating:   in.Rating,
	}
	if err := validateComment(comment); err != nil {
		return nil, err
	}

	exists, err := s.comments.Exists(ctx, book.ID, p.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, duplicateCommentError()
	}

	if _, err := s.comments.Create(ctx, comment); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			// lost a race against a concurrent request by the same user
			return nil, duplicateCommentError()
		case errors.Is(err, repository.ErrNotFound):
			return nil, s.missingParent(ctx, book.ID, p.UserID)
		}
		return nil, err
	}
	return comment, nil
}

// missingParent names the row a rejected foreign key pointed at: the book may
// have been deleted since it was resolved, otherwise the author is gone.
func (s *commentService) missingParent(ctx context.Context, bookID, userID int64) error {
	if _, err := s.books.Get(ctx, bookID); err != nil {
		return translateNotFound(err, ErrBookNotFound)
	}
	return fmt.Errorf("comment author %d: %w", userID, ErrUserNotFound)
}

func (s *commentService) GetComment(ctx context.Context, p domain.Principal, id int64) (*domain.Comment, error) {
	comment, err := s.comments.Get(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, ErrCommentNotFound)
	}
	return comment, nil
}

func (s *commentService) UpdateComment(ctx context.Context, p domain.Principal, id int64, in CommentInput) (*domain.Comment, error) {
	return s.mutate(ctx, p, id, func(c *domain.Comment) {
		c.Body = strings.TrimSpace(in.Body)
		c.Rating = in.Rating
	})
}

func (s *commentService) PatchComment(ctx context.Context, p domain.Principal, id int64, patch CommentPatch) (*domain.Comment, error) {
	return s.mutate(ctx, p, id, func(c *domain.Comment) {
		if patch.Body != nil {
			c.Body = strings.TrimSpace(*patch.Body)
		}
		if patch.Rating != nil {
			c.Rating = *patch.Rating
		}
	})
}

func (s *commentService) DeleteComment(ctx context.Context, p domain.Principal, id int64) error {
	comment, err := s.comments.Get(ctx, id)
	if err != nil {
		return translateNotFound(err, ErrCommentNotFound)
	}
	if err := policy.AllowCommentEdit(p, comment, s.editPolicy); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return translateNotFound(err, ErrCommentNotFound)
	}
	return nil
}

func (s *commentService) mutate(ctx context.Context, p domain.Principal, id int64, apply func(*domain.Comment)) (*domain.Comment, error) {
	comment, err := s.comments.Get(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, ErrCommentNotFound)
	}
	if err := policy.AllowCommentEdit(p, comment, s.editPolicy); err != nil {
		return nil, err
	}

	apply(comment)
	if err := validateComment(comment); err != nil {
		return nil, err
	}
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, translateNotFound(err, ErrCommentNotFound)
	}
	return comment, nil
}

func validateComment(c *domain.Comment) error {
	v := newValidationError()
	v.Check(c.Body != "", "comment", "must be provided")
	v.Check(domain.ValidRating(c.Rating), "rating", "must be between 1 and 5")
	if !v.Valid() {
		return v
	}
	return nil
}
