package domain

import "time"

// User represents an authenticated user of the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the identity acting on a request. The zero value is the
// anonymous principal.
type Principal struct {
	UserID   int64
	Username string
	IsAdmin  bool
}

// Anonymous is the principal of a request carrying no credentials.
var Anonymous = Principal{}

// Authenticated reports whether the principal refers to a known user.
func (p Principal) Authenticated() bool {
	return p.UserID > 0
}

// PrincipalFor builds the principal acting on behalf of user.
func PrincipalFor(user *User) Principal {
	if user == nil {
		return Anonymous
	}
	return Principal{
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	}
}
