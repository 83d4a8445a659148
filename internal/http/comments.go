package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookshelf/internal/policy"
	"bookshelf/internal/service"
)

// commentRequest has no book or user field: both come from the route and the
// authenticated principal. Field constraints are checked by the service after
// the book has been resolved.
type commentRequest struct {
	Comment string `json:"comment"`
	Rating  int    `json:"rating"`
}

type commentPatchRequest struct {
	Comment *string `json:"comment"`
	Rating  *int    `json:"rating" binding:"omitempty,min=1,max=5"`
}

func (r commentRequest) input() service.CommentInput {
	return service.CommentInput{Body: r.Comment, Rating: r.Rating}
}

func (h *Handler) createComment(c *gin.Context) {
	bookID, ok := parseID(c, "book")
	if !ok {
		return
	}
	if err := policy.AllowCommentCreate(principal(c)); err != nil {
		h.writeError(c, err)
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		h.commentRejected("validation")
		return
	}

	comment, err := h.comments.CreateComment(c.Request.Context(), principal(c), bookID, req.input())
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.Is(err, service.ErrDuplicateComment):
			h.commentRejected("duplicate")
		case errors.As(err, &verr):
			h.commentRejected("validation")
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commentToResponse(*comment))
}

func (h *Handler) getComment(c *gin.Context) {
	id, ok := parseID(c, "comment")
	if !ok {
		return
	}

	comment, err := h.comments.GetComment(c.Request.Context(), principal(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, commentToResponse(*comment))
}

func (h *Handler) updateComment(c *gin.Context) {
	id, ok := parseID(c, "comment")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	comment, err := h.comments.UpdateComment(c.Request.Context(), principal(c), id, req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, commentToResponse(*comment))
}

func (h *Handler) patchComment(c *gin.Context) {
	id, ok := parseID(c, "comment")
	if !ok {
		return
	}

	var req commentPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	comment, err := h.comments.PatchComment(c.Request.Context(), principal(c), id, service.CommentPatch{
		Body:   req.Comment,
		Rating: req.Rating,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, commentToResponse(*comment))
}

func (h *Handler) deleteComment(c *gin.Context) {
	id, ok := parseID(c, "comment")
	if !ok {
		return
	}

	if err := h.comments.DeleteComment(c.Request.Context(), principal(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) commentRejected(reason string) {
	if h.metrics != nil {
		h.metrics.CommentRejected(reason)
	}
}
