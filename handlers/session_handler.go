package handlers

import (
	"errors"
	"net/http"

	"opncheck-backend/models"
	"opncheck-backend/repository"
	"opncheck-backend/service"

	"github.com/gin-gonic/gin"
)

// SessionHandler handles HTTP requests for sessions and their evidence
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// CreateSessionRequest represents the request body for creating a session.
// Document parsing happens on the client side; this endpoint receives the
// already-extracted text.
type CreateSessionRequest struct {
	ProjectText  string              `json:"project_text" binding:"required"`
	Metadata     map[string]string   `json:"metadata"`
	SourceFiles  []models.SourceFile `json:"source_files"`
	Municipality string              `json:"municipality"`
}

// CreateSession handles POST /api/evidence
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	sessionID, err := h.sessionService.CreateSession(c.Request.Context(), service.CreateSessionRequest{
		ProjectText:      req.ProjectText,
		Metadata:         req.Metadata,
		SourceFiles:      req.SourceFiles,
		MunicipalitySlug: req.Municipality,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CREATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"session_id": sessionID,
	})
}

// SaveSessionRequest represents the request body for saving a session
type SaveSessionRequest struct {
	ProjectName string `json:"project_name" binding:"required"`
}

// SaveSession handles POST /api/sessions/:id/save
func (h *SessionHandler) SaveSession(c *gin.Context) {
	var req SaveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	saved, err := h.sessionService.Save(c.Request.Context(), c.Param("id"), req.ProjectName)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SESSION_NOT_FOUND",
					"message": "Session not found or expired",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SAVE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": saved,
	})
}

// ListSessions handles GET /api/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.sessionService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"sessions": sessions,
	})
}

// RestoreSession handles POST /api/sessions/:id/restore
func (h *SessionHandler) RestoreSession(c *gin.Context) {
	sessionID := c.Param("id")
	if err := h.sessionService.Restore(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SESSION_NOT_FOUND",
					"message": "Saved session not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RESTORE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": sessionID,
	})
}

// DeleteSession handles DELETE /api/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.sessionService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DELETE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
