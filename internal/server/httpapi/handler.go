// Package httpapi exposes the token custody operations over HTTP+JSON.
// Handlers are stateless: identity comes from the bearer session credential,
// and every token operation checks subject == target before touching storage.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/tokenvault/internal/common"
	"github.com/dmitrijs2005/tokenvault/internal/logging"
	"github.com/dmitrijs2005/tokenvault/internal/server/models"
	"github.com/dmitrijs2005/tokenvault/internal/server/services"
)

// UserProvider is the slice of UserService the handlers need.
type UserProvider interface {
	Login(ctx context.Context, username, password string) (*services.Session, error)
}

// TokenProvider is the slice of TokenService the handlers need.
type TokenProvider interface {
	Save(ctx context.Context, userID, plaintext string) (*services.SaveResult, error)
	Access(ctx context.Context, subject, userID, application, purpose string) (*services.AccessResult, error)
	Status(ctx context.Context, userID string) (*models.TokenRecord, error)
	Delete(ctx context.Context, userID string) (bool, error)
}

// Handler wires HTTP routes to the domain services.
type Handler struct {
	users         UserProvider
	tokens        TokenProvider
	sessionSecret []byte
	logger        logging.Logger
}

// NewHandler constructs a Handler.
func NewHandler(users UserProvider, tokens TokenProvider, sessionSecret []byte, logger logging.Logger) *Handler {
	return &Handler{
		users:         users,
		tokens:        tokens,
		sessionSecret: sessionSecret,
		logger:        logger.With("component", "httpapi"),
	}
}

// RegisterRoutes attaches all routes. Login and health are public; every
// token route sits behind the session middleware.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/auth/login", h.login)
	router.GET("/health", h.health)

	authorized := router.Group("/tokens")
	authorized.Use(h.sessionMiddleware())
	{
		authorized.POST("", h.saveToken)
		authorized.POST("/access", h.accessToken)
		authorized.GET("/status/:user_id", h.tokenStatus)
		authorized.DELETE("/:user_id", h.deleteToken)
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	session, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": session.AccessToken,
		"token_type":   "bearer",
		"expires_in":   session.ExpiresIn,
	})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError maps domain errors to HTTP statuses. Validation messages are
// written by the service for the caller and are safe to echo; everything
// else gets a fixed body so internal detail (decrypt failures in particular)
// never leaks.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrorUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, common.ErrorForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrorAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, common.ErrCorruptedRecord):
		h.logger.Error(c.Request.Context(), "corrupted record", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		h.logger.Error(c.Request.Context(), "request failed", "error", err.Error())
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	}
}
