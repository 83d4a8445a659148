package domain

import "time"

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Book is a catalog entry. Comments are populated by the service layer when
// the book is read, never by the caller.
type Book struct {
	ID            int64
	Name          string
	Author        string
	Description   *string
	PublishedDate time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Comments      []Comment
}

// Comment is a single user's review of a book.
type Comment struct {
	ID        int64
	BookID    int64
	UserID    int64
	Username  string
	Body      string
	Rating    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	MinRating = 1
	MaxRating = 5
)

// ValidRating reports whether r lies within the accepted rating bounds.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
