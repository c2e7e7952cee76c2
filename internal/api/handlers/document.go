package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"loanport.io/portal/internal/domain"
	apperrors "loanport.io/portal/internal/pkg/errors"
)

// GetChecklist handles GET /applications/:id/checklist.
func (s *Server) GetChecklist(c *gin.Context) {
	items, err := s.apps.Checklist(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if items == nil {
		items = []domain.ChecklistItem{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

type attachDocumentRequest struct {
	Name    string `json:"name" binding:"required"`
	FileURL string `json:"fileUrl" binding:"required"`
}

// AttachDocument handles POST /applications/:id/documents. File bytes live in
// external storage; the portal records the reference.
func (s *Server) AttachDocument(c *gin.Context) {
	var req attachDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, err.Error()))
		return
	}

	app, err := s.apps.AttachDocument(c.Request.Context(), c.Param("id"), domain.AttachedDocument{
		Name:       req.Name,
		FileURL:    req.FileURL,
		UploadedAt: time.Now().UTC(),
	}, actorFromCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// RemoveDocument handles DELETE /applications/:id/documents/:name.
func (s *Server) RemoveDocument(c *gin.Context) {
	app, err := s.apps.RemoveDocument(c.Request.Context(), c.Param("id"), c.Param("name"), actorFromCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, app)
}

type verifyDocumentRequest struct {
	Verified *bool `json:"verified" binding:"required"`
}

// VerifyDocument handles POST /applications/:id/documents/:name/verify for
// manual verification by a reviewer.
func (s *Server) VerifyDocument(c *gin.Context) {
	var req verifyDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, err.Error()))
		return
	}

	app, err := s.apps.MarkDocumentVerified(c.Request.Context(), c.Param("id"), c.Param("name"), *req.Verified)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, app)
}
