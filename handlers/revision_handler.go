package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"opncheck-backend/service"

	"github.com/gin-gonic/gin"
)

// RevisionHandler handles HTTP requests for supplemental documentation
type RevisionHandler struct {
	revisionService *service.RevisionService
}

// NewRevisionHandler creates a new revision handler
func NewRevisionHandler(revisionService *service.RevisionService) *RevisionHandler {
	return &RevisionHandler{revisionService: revisionService}
}

// AddRevision handles POST /api/revisions (multipart form).
//
// Form fields: session_id (required), requirement_ids (comma-separated),
// note, extracted_text (text pulled from the uploaded documents by the
// client-side parser), plus zero or more files under "files".
func (h *RevisionHandler) AddRevision(c *gin.Context) {
	sessionID := strings.TrimSpace(c.PostForm("session_id"))
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "session_id is required",
			},
		})
		return
	}

	req := service.AddRevisionRequest{
		SessionID:      sessionID,
		RequirementIDs: splitIDs(c.PostForm("requirement_ids")),
		Note:           c.PostForm("note"),
	}

	form, err := c.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FORM",
				"message": err.Error(),
			},
		})
		return
	}

	extracted := c.PostForm("extracted_text")
	if form != nil {
		for _, fh := range form.File["files"] {
			f, err := fh.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "FILE_READ_FAILED",
						"message": err.Error(),
					},
				})
				return
			}
			content, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "FILE_READ_FAILED",
						"message": err.Error(),
					},
				})
				return
			}

			up := service.RevisionUpload{
				Filename: fh.Filename,
				Content:  content,
				IsImage:  isImageFile(fh.Filename),
			}
			// Plain-text uploads carry their own text; the first document
			// upload gets the parser's extracted text.
			switch {
			case strings.EqualFold(filepath.Ext(fh.Filename), ".txt"):
				up.ExtractedText = string(content)
			case !up.IsImage && extracted != "":
				up.ExtractedText = extracted
				extracted = ""
			}
			req.Uploads = append(req.Uploads, up)
		}
	}
	if extracted != "" {
		req.Uploads = append(req.Uploads, service.RevisionUpload{
			Filename:      "izvlecek.txt",
			Content:       []byte(extracted),
			ExtractedText: extracted,
		})
	}

	rec, err := h.revisionService.AddRevision(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SESSION_NOT_FOUND",
					"message": "Session not found or expired",
				},
			})
		case errors.Is(err, service.ErrEmptyRevision):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "EMPTY_REVISION",
					"message": "Revision needs at least one file or a note",
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "REVISION_FAILED",
					"message": err.Error(),
				},
			})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"revision": rec,
	})
}

// History handles GET /api/sessions/:id/revisions
func (h *RevisionHandler) History(c *gin.Context) {
	records, err := h.revisionService.History(c.Request.Context(), c.Param("id"))
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
				"code":    "HISTORY_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"revisions": records,
	})
}

func splitIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func isImageFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return true
	}
	return false
}
