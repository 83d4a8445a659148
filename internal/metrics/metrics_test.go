package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := NewRecorder()

	router := gin.New()
	router.Use(rec.Middleware())
	router.GET("/books/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(rec.Handler()))

	for _, path := range []string{"/books/1", "/books/2"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.requests.WithLabelValues(http.MethodGet, "/books/:id", "200")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "bookshelf_http_requests_total"))
}

func TestCommentRejected(t *testing.T) {
	rec := NewRecorder()
	rec.CommentRejected("duplicate")
	rec.CommentRejected("duplicate")
	rec.CommentRejected("validation")

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.commentsRejected.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.commentsRejected.WithLabelValues("validation")))
}
