package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"opncheck-backend/service"

	"github.com/gin-gonic/gin"
)

// AnalysisHandler handles HTTP requests for compliance analysis runs
type AnalysisHandler struct {
	analysisService *service.AnalysisService
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// StartAnalysisRequest represents the request body for starting an analysis
type StartAnalysisRequest struct {
	SessionID    string            `json:"session_id" binding:"required"`
	EUPList      []string          `json:"eup_list"`
	LandUseCodes []string          `json:"namenska_raba"`
	SelectedIDs  []string          `json:"selected_ids"`
	KeyData      map[string]string `json:"key_data"`
}

// StartAnalysis handles POST /api/analyze. The analysis runs in the
// background; the client polls the status endpoint for progress.
func (h *AnalysisHandler) StartAnalysis(c *gin.Context) {
	var req StartAnalysisRequest
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

	serviceReq := service.StartAnalysisRequest{
		SessionID:    req.SessionID,
		EUPList:      req.EUPList,
		LandUseCodes: req.LandUseCodes,
		SelectedIDs:  req.SelectedIDs,
		KeyData:      req.KeyData,
	}

	if err := h.analysisService.StartAnalysis(c.Request.Context(), serviceReq); err != nil {
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
				"code":    "START_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	// Detached context: the analysis outlives the HTTP request.
	go func() {
		if err := h.analysisService.Run(context.Background(), serviceReq); err != nil {
			log.Printf("Background analysis for session %s ended with error: %v", serviceReq.SessionID, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"success":    true,
		"session_id": req.SessionID,
		"status":     "processing",
	})
}

// Status handles GET /api/analyze/:id/status. While the run is in flight it
// returns the progress snapshot; once finished it returns the full result
// payload exactly once per poll.
func (h *AnalysisHandler) Status(c *gin.Context) {
	sessionID := c.Param("id")

	progress, found := h.analysisService.Progress().Status(sessionID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SESSION_NOT_FOUND",
				"message": "No analysis known for this session",
			},
		})
		return
	}

	if progress.Error {
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"status":   "error",
			"progress": progress,
		})
		return
	}

	if progress.Completed {
		result, ok, err := h.analysisService.Result(sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RESULT_READ_FAILED",
					"message": err.Error(),
				},
			})
			return
		}
		if ok {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"status":  "completed",
				"result":  result,
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"status":   "processing",
		"progress": progress,
	})
}
