package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/tokenvault/internal/common"
	"github.com/dmitrijs2005/tokenvault/internal/server/auth"
)

// subjectKey is the gin context key the middleware stores the authenticated
// subject under.
const subjectKey = "subject"

// sessionMiddleware verifies the bearer session credential and stores the
// authenticated subject in the request context. Expired and invalid
// credentials both come back as 401; only the log tells them apart.
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer credential"})
			return
		}

		subject, err := auth.GetSubjectFromToken(token, h.sessionSecret)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				h.logger.Info(c.Request.Context(), "session expired")
			} else {
				h.logger.Info(c.Request.Context(), "invalid session credential")
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		c.Set(subjectKey, subject)
		c.Next()
	}
}

// subjectFromContext returns the authenticated subject set by the middleware.
func subjectFromContext(c *gin.Context) string {
	return c.GetString(subjectKey)
}
