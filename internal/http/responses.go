package http

import (
	"time"

	"bookshelf/internal/domain"
	"bookshelf/internal/service"
	"bookshelf/internal/storage"
)

// CommentResponse is a comment as rendered on its own or embedded in a book.
// The owning book is implied by context and never repeated.
type CommentResponse struct {
	ID          int64  `json:"id"`
	User        string `json:"user"`
	Comment     string `json:"comment"`
	Rating      int    `json:"rating"`
	CreatedDate string `json:"created_date"`
	UpdatedDate string `json:"updated_date"`
}

type BookResponse struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	Author        string            `json:"author"`
	Description   *string           `json:"description"`
	PublishedDate string            `json:"published_date"`
	CreatedDate   string            `json:"created_date"`
	UpdatedDate   string            `json:"updated_date"`
	Comments      []CommentResponse `json:"comments"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	IsAdmin   bool   `json:"is_admin"`
	CreatedAt string `json:"created_at"`
}

type TokenResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt string       `json:"expires_at"`
	User      UserResponse `json:"user"`
}

type ExportResponse struct {
	Key       string `json:"key"`
	Location  string `json:"location"`
	Books     int    `json:"books"`
	Comments  int    `json:"comments"`
	CreatedAt string `json:"created_at"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func commentToResponse(comment domain.Comment) CommentResponse {
	return CommentResponse{
		ID:          comment.ID,
		User:        comment.Username,
		Comment:     comment.Body,
		Rating:      comment.Rating,
		CreatedDate: comment.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedDate: comment.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func bookToResponse(book domain.Book) BookResponse {
	resp := BookResponse{
		ID:            book.ID,
		Name:          book.Name,
		Author:        book.Author,
		Description:   book.Description,
		PublishedDate: book.PublishedDate.Format(domain.DateLayout),
		CreatedDate:   book.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedDate:   book.UpdatedAt.UTC().Format(time.RFC3339),
		Comments:      make([]CommentResponse, len(book.Comments)),
	}
	for i := range book.Comments {
		resp.Comments[i] = commentToResponse(book.Comments[i])
	}
	return resp
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func exportToResponse(export service.Export) ExportResponse {
	return ExportResponse{
		Key:       export.Key,
		Location:  export.Location,
		Books:     export.Books,
		Comments:  export.Comments,
		CreatedAt: export.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.UTC().Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
