package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"loanport.io/portal/internal/analysis"
	apperrors "loanport.io/portal/internal/pkg/errors"
)

// IngestAnalysisResult handles POST /analysis/results. The merge itself runs
// on the analysis worker pool; the response confirms acceptance, not
// completion.
func (s *Server) IngestAnalysisResult(c *gin.Context) {
	var result analysis.Result
	if err := c.ShouldBindJSON(&result); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, err.Error()))
		return
	}

	if err := s.ingestor.Ingest(c.Request.Context(), result); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}
