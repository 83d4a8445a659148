package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"bookshelf/internal/policy"
)

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrCommentNotFound = errors.New("comment not found")
	// ErrDuplicateComment is wrapped in a *ValidationError; match it with errors.Is.
	ErrDuplicateComment = errors.New("duplicate comment for this book by this user")

	ErrUnauthenticated = policy.ErrUnauthenticated
	ErrForbidden       = policy.ErrForbidden

	// ErrExportDisabled is returned when no object storage is configured.
	ErrExportDisabled = errors.New("catalog export is not configured")
)

// ValidationError lists the payload fields that failed their constraints.
type ValidationError struct {
	Fields map[string]string
	err    error
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

// Check records message for field when ok is false. The first failure per field wins.
func (e *ValidationError) Check(ok bool, field, message string) {
	if ok {
		return
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

func (e *ValidationError) Valid() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

func duplicateCommentError() *ValidationError {
	return &ValidationError{
		Fields: map[string]string{"book": "you have already commented on this book"},
		err:    ErrDuplicateComment,
	}
}
