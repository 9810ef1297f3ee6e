package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/tokenvault/internal/common"
	"github.com/dmitrijs2005/tokenvault/internal/server/models"
)

type saveTokenRequest struct {
	UserID          string `json:"user_id" binding:"required"`
	ApplicationName string `json:"application_name" binding:"required"`
	Purpose         string `json:"purpose" binding:"required"`
	Token           string `json:"token"`
	Method          string `json:"method"`
}

type accessTokenRequest struct {
	UserID          string `json:"user_id" binding:"required"`
	ApplicationName string `json:"application_name" binding:"required"`
	Purpose         string `json:"purpose" binding:"required"`
}

func (h *Handler) saveToken(c *gin.Context) {
	var req saveTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, application_name and purpose are required"})
		return
	}
	if !h.requireOwner(c, req.UserID) {
		return
	}

	// The method is derived from whether a token was supplied; a declared
	// method may only confirm that derivation.
	derived := models.MethodManual
	if req.Token == "" {
		derived = models.MethodAuto
	}
	if req.Method != "" && models.GenerationMethod(req.Method) != derived {
		c.JSON(http.StatusBadRequest, gin.H{"error": "method is inconsistent with the presence of a token value"})
		return
	}

	result, err := h.tokens.Save(c.Request.Context(), req.UserID, req.Token)
	if err != nil {
		h.writeError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"token":             result.Token,
		"generation_method": result.Record.Method,
		"created_at":        result.Record.CreatedAt.Format(time.RFC3339),
		"updated_at":        result.Record.UpdatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) accessToken(c *gin.Context) {
	var req accessTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, application_name and purpose are required"})
		return
	}
	if !h.requireOwner(c, req.UserID) {
		return
	}

	result, err := h.tokens.Access(c.Request.Context(), subjectFromContext(c), req.UserID, req.ApplicationName, req.Purpose)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":             result.Token,
		"generation_method": result.Record.Method,
		"created_at":        result.Record.CreatedAt.Format(time.RFC3339),
		"updated_at":        result.Record.UpdatedAt.Format(time.RFC3339),
		"accessed_at":       result.AccessedAt.Format(time.RFC3339),
	})
}

func (h *Handler) tokenStatus(c *gin.Context) {
	userID := c.Param("user_id")
	if !h.requireOwner(c, userID) {
		return
	}

	record, err := h.tokens.Status(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.JSON(http.StatusOK, gin.H{"has_token": false})
			return
		}
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"has_token":         true,
		"generation_method": record.Method,
		"created_at":        record.CreatedAt.Format(time.RFC3339),
		"updated_at":        record.UpdatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) deleteToken(c *gin.Context) {
	userID := c.Param("user_id")
	if !h.requireOwner(c, userID) {
		return
	}

	deleted, err := h.tokens.Delete(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// requireOwner enforces subject == target before anything reads the store,
// so an unauthorized caller learns nothing about the target's existence.
func (h *Handler) requireOwner(c *gin.Context, userID string) bool {
	if subjectFromContext(c) != userID {
		h.writeError(c, common.ErrorForbidden)
		return false
	}
	return true
}
