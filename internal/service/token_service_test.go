package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/domain"
)

func TestTokenService_IssueAndParse(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	token, expires, err := svc.Issue(&domain.User{ID: 7, Username: "alice", IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expires)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.Admin)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestTokenService_RejectsBadTokens(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService("secret", time.Minute)
	svc.now = func() time.Time { return now }

	token, _, err := svc.Issue(&domain.User{ID: 7, Username: "alice"})
	require.NoError(t, err)

	other := NewTokenService("other-secret", time.Minute)
	other.now = svc.now
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	svc.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = svc.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "7", "iss": tokenIssuer}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewTokenService("secret", time.Minute).Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenClaims_UserID(t *testing.T) {
	claims := &TokenClaims{}
	claims.Subject = "abc"
	_, err := claims.UserID()
	assert.ErrorIs(t, err, ErrInvalidToken)
}
