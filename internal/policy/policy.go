// Package policy decides whether a principal may perform an operation on a
// catalog resource. Every function here is a pure decision over its inputs.
package policy

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"bookshelf/internal/domain"
)

var (
	// ErrUnauthenticated is returned when an operation needs credentials the request lacks.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the principal is known but lacks the privilege.
	ErrForbidden = errors.New("permission denied")
)

// Operation classifies a request as read-only or mutating.
type Operation int

const (
	OpSafe Operation = iota
	OpUnsafe
)

func (o Operation) String() string {
	if o == OpSafe {
		return "safe"
	}
	return "unsafe"
}

// Classify maps an HTTP method onto its operation kind.
func Classify(method string) Operation {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return OpSafe
	default:
		return OpUnsafe
	}
}

// AllowBook reports whether p may run op against the book collection or a single book.
func AllowBook(p domain.Principal, op Operation) bool {
	return BookDecision(p, op) == nil
}

// BookDecision is AllowBook with the reason for a denial.
func BookDecision(p domain.Principal, op Operation) error {
	if op == OpSafe {
		return nil
	}
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	if !p.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// AllowCommentCreate requires a known user, since every comment is attributed to one.
func AllowCommentCreate(p domain.Principal) error {
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// EditPolicy governs who may update or delete an existing comment.
type EditPolicy string

const (
	// EditOwner lets the comment's author and administrators edit it.
	EditOwner EditPolicy = "owner"
	// EditUnrestricted lets any principal edit any comment.
	EditUnrestricted EditPolicy = "unrestricted"
)

// ParseEditPolicy validates a configured policy name.
func ParseEditPolicy(s string) (EditPolicy, error) {
	switch EditPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", EditOwner:
		return EditOwner, nil
	case EditUnrestricted:
		return EditUnrestricted, nil
	default:
		return "", fmt.Errorf("unknown comment edit policy %q", s)
	}
}

// AllowCommentEdit decides whether p may update or delete comment under mode.
func AllowCommentEdit(p domain.Principal, comment *domain.Comment, mode EditPolicy) error {
	if mode == EditUnrestricted {
		return nil
	}
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	if p.IsAdmin || (comment != nil && comment.UserID == p.UserID) {
		return nil
	}
	return ErrForbidden
}

// RequireAdmin admits administrators only.
func RequireAdmin(p domain.Principal) error {
	return BookDecision(p, OpUnsafe)
}
