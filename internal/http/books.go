package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookshelf/internal/domain"
	"bookshelf/internal/policy"
	"bookshelf/internal/service"
)

type bookRequest struct {
	Name          string  `json:"name" binding:"required,max=250"`
	Author        string  `json:"author" binding:"required,max=250"`
	Description   *string `json:"description"`
	PublishedDate string  `json:"published_date" binding:"required,datetime=2006-01-02"`
}

type bookPatchRequest struct {
	Name          *string        `json:"name" binding:"omitempty,max=250"`
	Author        *string        `json:"author" binding:"omitempty,max=250"`
	Description   nullableString `json:"description"`
	PublishedDate *string        `json:"published_date" binding:"omitempty,datetime=2006-01-02"`
}

// nullableString tells an absent key apart from an explicit null.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (r bookRequest) input() (service.BookInput, error) {
	date, err := parseDate(r.PublishedDate)
	if err != nil {
		return service.BookInput{}, err
	}
	return service.BookInput{
		Name:          r.Name,
		Author:        r.Author,
		Description:   r.Description,
		PublishedDate: date,
	}, nil
}

func (r bookPatchRequest) patch() (service.BookPatch, error) {
	patch := service.BookPatch{
		Name:           r.Name,
		Author:         r.Author,
		Description:    r.Description.Value,
		SetDescription: r.Description.Set,
	}
	if r.PublishedDate != nil {
		date, err := parseDate(*r.PublishedDate)
		if err != nil {
			return service.BookPatch{}, err
		}
		patch.PublishedDate = &date
	}
	return patch, nil
}

func parseDate(value string) (time.Time, error) {
	date, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("published_date %q: %w", value, err)
	}
	return date, nil
}

func (h *Handler) listBooks(c *gin.Context) {
	books, err := h.books.ListBooks(c.Request.Context(), principal(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]BookResponse, len(books))
	for i := range books {
		resp[i] = bookToResponse(books[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createBook(c *gin.Context) {
	p := principal(c)
	// refuse before looking at the payload so that denial does not depend on it
	if err := bookAccess(c); err != nil {
		h.writeError(c, err)
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	in, err := req.input()
	if err != nil {
		writeFieldError(c, "published_date", dateFieldMessage)
		return
	}

	book, err := h.books.CreateBook(c.Request.Context(), p, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookToResponse(*book))
}

func (h *Handler) getBook(c *gin.Context) {
	id, ok := parseID(c, "book")
	if !ok {
		return
	}

	book, err := h.books.GetBook(c.Request.Context(), principal(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookToResponse(*book))
}

func (h *Handler) updateBook(c *gin.Context) {
	id, ok := parseID(c, "book")
	if !ok {
		return
	}
	p := principal(c)
	if err := bookAccess(c); err != nil {
		h.writeError(c, err)
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	in, err := req.input()
	if err != nil {
		writeFieldError(c, "published_date", dateFieldMessage)
		return
	}

	book, err := h.books.UpdateBook(c.Request.Context(), p, id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookToResponse(*book))
}

func (h *Handler) patchBook(c *gin.Context) {
	id, ok := parseID(c, "book")
	if !ok {
		return
	}
	p := principal(c)
	if err := bookAccess(c); err != nil {
		h.writeError(c, err)
		return
	}

	var req bookPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	patch, err := req.patch()
	if err != nil {
		writeFieldError(c, "published_date", dateFieldMessage)
		return
	}

	book, err := h.books.PatchBook(c.Request.Context(), p, id, patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookToResponse(*book))
}

func (h *Handler) deleteBook(c *gin.Context) {
	id, ok := parseID(c, "book")
	if !ok {
		return
	}

	if err := h.books.DeleteBook(c.Request.Context(), principal(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bookAccess applies the book access policy to the request method.
func bookAccess(c *gin.Context) error {
	return policy.BookDecision(principal(c), policy.Classify(c.Request.Method))
}
