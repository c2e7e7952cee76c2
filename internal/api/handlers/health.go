package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "loanport.io/portal/internal/pkg/errors"
	"loanport.io/portal/internal/pkg/logger"
)

// GetLiveness handles GET /health/live.
func (s *Server) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetReadiness handles GET /health/ready.
func (s *Server) GetReadiness(c *gin.Context) {
	checks := make(map[string]string)
	allHealthy := true

	if s.pool != nil {
		if err := s.pool.Ping(c.Request.Context()); err != nil {
			checks["database"] = "error"
			allHealthy = false
		} else {
			checks["database"] = "ok"
		}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, gin.H{"status": status, "checks": checks})
}

// GetWorkerMetrics handles GET /system/workers.
func (s *Server) GetWorkerMetrics(c *gin.Context) {
	if s.pools == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, s.pools.Metrics())
}

type logLevelRequest struct {
	Level string `json:"level" binding:"required"`
}

// SetLogLevel handles PUT /system/log-level. The level changes at runtime
// via the logger's atomic level; no restart needed.
func (s *Server) SetLogLevel(c *gin.Context) {
	var req logLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, err.Error()))
		return
	}

	if err := logger.SetLevel(req.Level); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"level": logger.GetLevel().String()})
}
