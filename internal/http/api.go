package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bookshelf/internal/metrics"
	"bookshelf/internal/service"
)

// APIVersion identifies the response schema; it changes whenever a field list does.
const APIVersion = "1"

// Dependencies are the collaborators a Handler serves requests with.
type Dependencies struct {
	Books    service.BookService
	Comments service.CommentService
	Users    service.UserService
	Tokens   *service.TokenService
	Exports  service.ExportService
	Metrics  *metrics.Recorder
	Logger   *logrus.Logger
	// RateLimit and RateBurst configure per-client throttling; RateLimit <= 0 disables it.
	RateLimit float64
	RateBurst int
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	books    service.BookService
	comments service.CommentService
	users    service.UserService
	tokens   *service.TokenService
	exports  service.ExportService
	metrics  *metrics.Recorder
	logger   *logrus.Logger
	limiter  *clientLimiter
}

func NewHandler(deps Dependencies) *Handler {
	registerJSONFieldNames()

	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}
	h := &Handler{
		books:    deps.Books,
		comments: deps.Comments,
		users:    deps.Users,
		tokens:   deps.Tokens,
		exports:  deps.Exports,
		metrics:  deps.Metrics,
		logger:   logger,
	}
	if deps.RateLimit > 0 {
		h.limiter = newClientLimiter(deps.RateLimit, deps.RateBurst)
	}
	return h
}

// NewRouter returns a gin engine that only believes forwarding headers set by
// trustedProxies. With none configured, ClientIP is the connection's peer.
func NewRouter(trustedProxies []string) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	if len(trustedProxies) == 0 {
		trustedProxies = nil
	}
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	return router, nil
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware(), apiVersion())
	if h.metrics != nil {
		router.Use(h.metrics.Middleware())
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
	if h.limiter != nil {
		router.Use(h.limiter.middleware())
	}

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	api := router.Group("/", h.authenticate())
	{
		api.GET("/books/", h.listBooks)
		api.POST("/books/", h.createBook)
		api.GET("/books/:id", h.getBook)
		api.PUT("/books/:id", h.updateBook)
		api.PATCH("/books/:id", h.patchBook)
		api.DELETE("/books/:id", h.deleteBook)
		api.POST("/books/:id/comment", h.createComment)

		api.GET("/comments/:id", h.getComment)
		api.PUT("/comments/:id", h.updateComment)
		api.PATCH("/comments/:id", h.patchComment)
		api.DELETE("/comments/:id", h.deleteComment)

		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
		api.GET("/auth/me", h.me)

		api.POST("/exports", h.createExport)
		api.GET("/exports", h.listExports)
	}
}
