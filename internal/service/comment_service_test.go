package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/domain"
	"bookshelf/internal/policy"
	"bookshelf/internal/repository"
)

func TestCommentService_CreateComment(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	books := NewBookService(store.Books, store.Comments)
	svc := NewCommentService(store.Books, store.Comments, policy.EditOwner)

	book, err := books.CreateBook(ctx, admin, duneInput())
	require.NoError(t, err)

	comment, err := svc.CreateComment(ctx, reader, book.ID, CommentInput{Body: " loved it ", Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, book.ID, comment.BookID)
	assert.Equal(t, reader.UserID, comment.UserID)
	assert.Equal(t, "reader", comment.Username)
	assert.Equal(t, "loved it", comment.Body)

	got, err := books.GetBook(ctx, domain.Anonymous, book.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, 5, got.Comments[0].Rating)
	assert.Equal(t, "reader", got.Comments[0].Username)
}

func TestCommentService_RejectsSecondCommentBySameUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	books := NewBookService(store.Books, store.Comments)
	svc := NewCommentService(store.Books, store.Comments, policy.EditOwner)

	book, err := books.CreateBook(ctx, admin, duneInput())
	require.NoError(t, err)
	_, err = svc.CreateComment(ctx, reader, book.ID, CommentInput{Body: "great", Rating: 5})
	require.NoError(t, err)

	_, err = svc.CreateComment(ctx, reader, book.ID, CommentInput{Body: "again", Rating: 4})
	require.ErrorIs(t, err, ErrDuplicateComment)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "book")

	// another user and another book are unaffected
	_, err = svc.CreateComment(ctx, critic, book.ID, CommentInput{Body: "fine", Rating: 3})
	require.NoError(t, err)
	other, err := books.CreateBook(ctx, admin, BookInput{Name: "Emma", Author: "Austen", PublishedDate: book.PublishedDate})
	require.NoError(t, err)
	_, err = svc.CreateComment(ctx, reader, other.ID, CommentInput{Body: "witty", Rating: 4})
	require.NoError(t, err)

	comments, err := store.Comments.ListByBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 2)
}

func TestCommentService_RatingBounds(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	books := NewBookService(store.Books, store.Comments)
	svc := NewCommentService(store.Books, store.Comments, policy.EditOwner)

	book, err := books.CreateBook(ctx, admin, duneInput())
	require.NoError(t, err)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.CreateComment(ctx, reader, book.ID, CommentInput{Body: "x", Rating: rating})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "rating %d", rating)
		assert.Contains(t, verr.Fields, "rating")
		assert.NotErrorIs(t, err, ErrDuplicateComment)
	}

	exists, err := store.Comments.Exists(ctx, book.ID, reader.UserID)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = svc.CreateComment(ctx, reader, book.ID, CommentInput{Body: "ok", Rating: domain.MinRating})
	assert.NoError(t, err)
	_, err = svc.CreateComment(ctx, critic, book.ID, CommentInput{Body: "ok", Rating: domain.MaxRating})
	assert.NoError(t, err)
}

func TestCommentService_RatingCheckedBeforeDuplicate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	books := NewBookService(store.Books, store.Comments)
	svc := NewCommentService(store.Books, store.Comments, policy.EditOwner)

	book, err := books.CreateBook(ctx, admin, duneInput())
	require.NoError(t, err)
	_, err = svc.CreateComment(ctx, reader, book.ID, CommentInput{Body: "great", Rating: 5})
	require.NoError(t, err)

	_, err = svc.CreateComment(ctx, reader, book.ID, CommentInput{Body: "again", Rating: 9})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "rating")
	assert.NotContains(t, verr.Fields, "book")
}

func TestCommentService_CreateRequiresBookAndPrincipal(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewCommentService(store.Books, store.Comments, policy.EditOwner)

	_, err := svc.CreateComment(ctx, reader, 404, CommentInput{Body: "x", Rating: 3})
	assert.ErrorIs(t, err, ErrBookNotFound)

	_, err = svc.CreateComment(ctx, domain.Anonymous, 404, CommentInput{Body: "x", Rating: 3})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCommentService_MissingAuthorIsNotReportedAsMissingBook(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	books := NewBookService(store.Books, store.Comments)
	svc := NewCommentService(store.Books, store.Comments, policy.EditOwner)

	book, err := books.CreateBook(ctx, admin, duneInput())
	require.NoError(t, err)

	ghost := domain.Principal{UserID: 99, Username: "ghost"}
	_, err = svc.CreateComment(ctx, ghost, book.ID, CommentInput{Body: "boo", Rating: 3})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NotErrorIs(t, err, ErrBookNotFound)
}

// racingComments reports no existing comment and then fails the insert the
// way the unique index does when a concurrent request got there first.
type racingComments struct {
	repository.CommentRepository
}

func (racingComments) Exists(context.Context, int64, int64) (bool, error) { return false, nil }

func (racingComments) Create(context.Context, *domain.Comment) (int64, error) {
	return 0, fmt.Errorf("comment: %w", repository.ErrConflict)
}

func TestCommentService_ConcurrentDuplicateIsValidationError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	books := NewBookService(store.Books, store.Comments)
	book, err := books.CreateBook(ctx, admin, duneInput())
	require.NoError(t, err)

	svc := NewCommentService(store.Books, racingComments{store.Comments}, policy.EditOwner)
	_, err = svc.CreateComment(ctx, reader, book.ID, CommentInput{Body: "x", Rating: 3})
	assert.ErrorIs(t, err, ErrDuplicateComment)
}

func TestCommentService_EditPolicy(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	books := NewBookService(store.Books, store.Comments)
	owner := NewCommentService(store.Books, store.Comments, policy.EditOwner)
	open := NewCommentService(store.Books, store.Comments, policy.EditUnrestricted)

	book, err := books.CreateBook(ctx, admin, duneInput())
	require.NoError(t, err)
	comment, err := owner.CreateComment(ctx, reader, book.ID, CommentInput{Body: "great", Rating: 5})
	require.NoError(t, err)

	_, err = owner.UpdateComment(ctx, critic, comment.ID, CommentInput{Body: "hijack", Rating: 1})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = owner.PatchComment(ctx, domain.Anonymous, comment.ID, CommentPatch{Rating: intPtr(1)})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, owner.DeleteComment(ctx, critic, comment.ID), ErrForbidden)

	updated, err := owner.UpdateComment(ctx, reader, comment.ID, CommentInput{Body: "still great", Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, "still great", updated.Body)
	assert.Equal(t, 4, updated.Rating)
	assert.Equal(t, "reader", updated.Username)

	patched, err := owner.PatchComment(ctx, admin, comment.ID, CommentPatch{Rating: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, "still great", patched.Body)
	assert.Equal(t, 3, patched.Rating)

	_, err = owner.PatchComment(ctx, reader, comment.ID, CommentPatch{Rating: intPtr(7)})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	patched, err = open.PatchComment(ctx, domain.Anonymous, comment.ID, CommentPatch{Body: strPtr("anyone")})
	require.NoError(t, err)
	assert.Equal(t, "anyone", patched.Body)

	require.NoError(t, open.DeleteComment(ctx, critic, comment.ID))
	_, err = owner.GetComment(ctx, domain.Anonymous, comment.ID)
	assert.ErrorIs(t, err, ErrCommentNotFound)
	assert.ErrorIs(t, open.DeleteComment(ctx, admin, comment.ID), ErrCommentNotFound)
}
