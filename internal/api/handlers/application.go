package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"loanport.io/portal/internal/api/middleware"
	"loanport.io/portal/internal/domain"
	apperrors "loanport.io/portal/internal/pkg/errors"
	"loanport.io/portal/internal/repository"
)

type createApplicationRequest struct {
	BrokerID     string `json:"brokerId"`
	LoanCategory string `json:"loanCategory"`
	LoanProgram  string `json:"loanProgram" binding:"required"`
}

// CreateApplication handles POST /applications. The authenticated borrower
// becomes the owner.
func (s *Server) CreateApplication(c *gin.Context) {
	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, err.Error()))
		return
	}

	app, err := s.apps.Create(c.Request.Context(), repository.CreateParams{
		UserID:       actorFromCtx(c),
		BrokerID:     req.BrokerID,
		LoanCategory: req.LoanCategory,
		LoanProgram:  req.LoanProgram,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// GetApplication handles GET /applications/:id.
func (s *Server) GetApplication(c *gin.Context) {
	app, err := s.apps.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// ListApplications handles GET /applications. Brokers see their book;
// borrowers see their own applications. An optional status query filters.
func (s *Server) ListApplications(c *gin.Context) {
	ctx := c.Request.Context()
	actor := actorFromCtx(c)
	status := domain.Status(c.Query("status"))

	var (
		apps []*domain.LoanApplication
		err  error
	)
	if middleware.GetActorKind(ctx) == middleware.KindBroker {
		apps, err = s.apps.ListByBroker(ctx, actor, status)
	} else {
		apps, err = s.apps.ListByUser(ctx, actor, status)
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	if apps == nil {
		apps = []*domain.LoanApplication{}
	}
	c.JSON(http.StatusOK, gin.H{"items": apps, "total": len(apps)})
}

type updateFieldRequest struct {
	Path  string      `json:"path" binding:"required"`
	Value interface{} `json:"value"`
}

// UpdateField handles PATCH /applications/:id/field, a single dot-path
// write, e.g. {"path": "loanDetails.loanAmount", "value": "250000"}.
func (s *Server) UpdateField(c *gin.Context) {
	var req updateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, err.Error()))
		return
	}

	app, err := s.apps.UpdateField(c.Request.Context(), c.Param("id"), req.Path, req.Value, actorFromCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// UpdateSection handles PATCH /applications/:id/sections/:section with a
// partial section object; absent keys are untouched.
func (s *Server) UpdateSection(c *gin.Context) {
	var data map[string]interface{}
	if err := c.ShouldBindJSON(&data); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, err.Error()))
		return
	}

	app, err := s.apps.UpdateSection(c.Request.Context(), c.Param("id"), c.Param("section"), data, actorFromCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, app)
}

type updateNotesRequest struct {
	Notes string `json:"notes"`
}

// UpdateNotes handles PUT /applications/:id/notes.
func (s *Server) UpdateNotes(c *gin.Context) {
	var req updateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, err.Error()))
		return
	}

	app, err := s.apps.UpdateNotes(c.Request.Context(), c.Param("id"), req.Notes, actorFromCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// SubmitApplication handles POST /applications/:id/submit.
func (s *Server) SubmitApplication(c *gin.Context) {
	app, err := s.apps.Submit(c.Request.Context(), c.Param("id"), actorFromCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, app)
}

type assignRequest struct {
	Assignee string `json:"assignee" binding:"required"`
}

// AssignApplication handles POST /applications/:id/assign.
func (s *Server) AssignApplication(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, err.Error()))
		return
	}

	app, err := s.apps.Assign(c.Request.Context(), c.Param("id"), req.Assignee, actorFromCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, app)
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// TransitionApplication handles POST /applications/:id/transition.
func (s *Server) TransitionApplication(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, err.Error()))
		return
	}

	app, err := s.apps.Transition(c.Request.Context(), c.Param("id"), domain.Status(req.Status), actorFromCtx(c), req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// GetHistory handles GET /applications/:id/history.
func (s *Server) GetHistory(c *gin.Context) {
	app, err := s.apps.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": app.History, "total": len(app.History)})
}
