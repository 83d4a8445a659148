package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository/sqlite"
)

var (
	admin  = domain.Principal{UserID: 1, Username: "root", IsAdmin: true}
	reader = domain.Principal{UserID: 2, Username: "reader"}
	critic = domain.Principal{UserID: 3, Username: "critic"}
)

// newTestStore opens a fresh database seeded with the admin, reader and
// critic accounts above.
func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := sqlite.NewStore(db)
	require.NoError(t, store.Init(context.Background()))

	for _, p := range []domain.Principal{admin, reader, critic} {
		user := &domain.User{Username: p.Username, PasswordHash: "x", IsAdmin: p.IsAdmin}
		id, err := store.Users.Create(context.Background(), user)
		require.NoError(t, err)
		require.Equal(t, p.UserID, id)
	}
	return store
}

func newTestUserService(store *sqlite.Store, secret string) UserService {
	svc := NewUserService(store.Users, secret)
	svc.(*userService).hashCost = bcrypt.MinCost
	return svc
}

func duneInput() BookInput {
	return BookInput{
		Name:          "Dune",
		Author:        "Frank Herbert",
		PublishedDate: time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
