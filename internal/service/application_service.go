// Package service provides the portal's business logic. Services depend on
// the repository interface, never on a concrete store, and own the
// orchestration around it: submit gating, notification triggers, and
// checklist sync enqueueing.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"loanport.io/portal/internal/catalog"
	"loanport.io/portal/internal/domain"
	"loanport.io/portal/internal/notification"
	apperrors "loanport.io/portal/internal/pkg/errors"
	"loanport.io/portal/internal/pkg/logger"
	"loanport.io/portal/internal/repository"
)

// ChecklistEnqueuer schedules an asynchronous checklist reconciliation for
// one application. Jobs carry only the application id; workers reload state.
type ChecklistEnqueuer interface {
	EnqueueChecklistSync(ctx context.Context, applicationID string) error
}

// ApplicationService orchestrates loan application operations.
type ApplicationService struct {
	repo     repository.Repository
	catalog  *catalog.Catalog
	triggers *notification.Triggers
	enqueuer ChecklistEnqueuer

	// minSubmitProgress gates draft → submitted. 100 means every required
	// section must be complete.
	minSubmitProgress int
}

// NewApplicationService creates the application service. Triggers and
// enqueuer may be nil in tests; the corresponding side effects are skipped.
func NewApplicationService(
	repo repository.Repository,
	cat *catalog.Catalog,
	triggers *notification.Triggers,
	enqueuer ChecklistEnqueuer,
	minSubmitProgress int,
) *ApplicationService {
	if minSubmitProgress <= 0 || minSubmitProgress > 100 {
		minSubmitProgress = 100
	}
	return &ApplicationService{
		repo:              repo,
		catalog:           cat,
		triggers:          triggers,
		enqueuer:          enqueuer,
		minSubmitProgress: minSubmitProgress,
	}
}

// Create starts a new draft application.
func (s *ApplicationService) Create(ctx context.Context, params repository.CreateParams) (*domain.LoanApplication, error) {
	app, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	logger.Info("loan application created",
		zap.String("application_id", app.ID),
		zap.String("user_id", app.UserID),
		zap.String("loan_program", app.LoanProgram),
	)
	return app, nil
}

// Get loads one application.
func (s *ApplicationService) Get(ctx context.Context, id string) (*domain.LoanApplication, error) {
	return s.repo.Get(ctx, id)
}

// ListByBroker returns a broker's applications, optionally filtered by status.
func (s *ApplicationService) ListByBroker(ctx context.Context, brokerID string, status domain.Status) ([]*domain.LoanApplication, error) {
	if status != "" && !status.Valid() {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed,
			fmt.Sprintf("unknown status filter %q", status))
	}
	return s.repo.ListByBroker(ctx, brokerID, status)
}

// ListByUser returns a borrower's applications.
func (s *ApplicationService) ListByUser(ctx context.Context, userID string, status domain.Status) ([]*domain.LoanApplication, error) {
	if status != "" && !status.Valid() {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed,
			fmt.Sprintf("unknown status filter %q", status))
	}
	return s.repo.ListByUser(ctx, userID, status)
}

// UpdateField applies one dot-path write.
func (s *ApplicationService) UpdateField(ctx context.Context, id, path string, value interface{}, actor string) (*domain.LoanApplication, error) {
	return s.repo.UpdateField(ctx, id, path, value, actor)
}

// UpdateSection merges a partial section payload.
func (s *ApplicationService) UpdateSection(ctx context.Context, id, section string, data map[string]interface{}, actor string) (*domain.LoanApplication, error) {
	return s.repo.UpdateSection(ctx, id, section, data, actor)
}

// UpdateNotes replaces the free-text notes.
func (s *ApplicationService) UpdateNotes(ctx context.Context, id, notes, actor string) (*domain.LoanApplication, error) {
	return s.repo.UpdateNotes(ctx, id, notes, actor)
}

// Submit moves a draft to submitted. It is the only transition with a
// completeness gate: below the configured progress threshold the submit is
// rejected with field-level detail naming each incomplete section. The gate
// runs inside the repository's locked mutation against the stored state, not
// a caller-side snapshot.
func (s *ApplicationService) Submit(ctx context.Context, id, actor string) (*domain.LoanApplication, error) {
	app, err := s.repo.Submit(ctx, id, actor, s.minSubmitProgress)
	if err != nil {
		return nil, err
	}
	return s.afterTransition(ctx, app, domain.StatusSubmitted, actor, domain.StatusChangedDetail{}), nil
}

// Assign claims a submitted application for review. The assignee is recorded
// on the status_changed detail; there is no separate assignment field.
func (s *ApplicationService) Assign(ctx context.Context, id, assignee, actor string) (*domain.LoanApplication, error) {
	if assignee == "" {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "assignee is required")
	}
	return s.transition(ctx, id, domain.StatusUnderReview, actor, domain.StatusChangedDetail{Assignee: assignee})
}

// Transition moves the application along an arbitrary state-machine edge.
// Submission goes through Submit; everything else goes through here.
func (s *ApplicationService) Transition(ctx context.Context, id string, next domain.Status, actor, reason string) (*domain.LoanApplication, error) {
	if next == domain.StatusSubmitted {
		return s.Submit(ctx, id, actor)
	}
	return s.transition(ctx, id, next, actor, domain.StatusChangedDetail{Reason: reason})
}

func (s *ApplicationService) transition(ctx context.Context, id string, next domain.Status, actor string, detail domain.StatusChangedDetail) (*domain.LoanApplication, error) {
	app, err := s.repo.Transition(ctx, id, next, actor, detail)
	if err != nil {
		return nil, err
	}
	return s.afterTransition(ctx, app, next, actor, detail), nil
}

func (s *ApplicationService) afterTransition(ctx context.Context, app *domain.LoanApplication, next domain.Status, actor string, detail domain.StatusChangedDetail) *domain.LoanApplication {
	logger.Info("application status changed",
		zap.String("application_id", app.ID),
		zap.String("status", string(app.Status)),
		zap.String("actor", actor),
	)

	if s.triggers != nil {
		detail.To = next
		detail.From = lastFrom(app, next)
		s.triggers.OnStatusChanged(ctx, app, detail, actor)
	}
	return app
}

// Checklist reconciles the program's required documents against the attached
// ones. It is computed on read; nothing is stored.
func (s *ApplicationService) Checklist(ctx context.Context, id string) ([]domain.ChecklistItem, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	required, err := s.catalog.RequiredDocuments(ctx, app.LoanProgram)
	if err != nil {
		return nil, err
	}
	return domain.SyncChecklist(required, app.Documents), nil
}

// AttachDocument attaches a document and schedules a checklist sync.
func (s *ApplicationService) AttachDocument(ctx context.Context, id string, doc domain.AttachedDocument, actor string) (*domain.LoanApplication, error) {
	app, err := s.repo.AttachDocument(ctx, id, doc, actor)
	if err != nil {
		return nil, err
	}
	s.enqueueChecklistSync(ctx, id)
	return app, nil
}

// RemoveDocument detaches a document and schedules a checklist sync.
func (s *ApplicationService) RemoveDocument(ctx context.Context, id, name, actor string) (*domain.LoanApplication, error) {
	app, err := s.repo.RemoveDocument(ctx, id, name, actor)
	if err != nil {
		return nil, err
	}
	s.enqueueChecklistSync(ctx, id)
	return app, nil
}

// MarkDocumentVerified records an analysis verdict on a document and
// schedules a checklist sync.
func (s *ApplicationService) MarkDocumentVerified(ctx context.Context, id, name string, verified bool) (*domain.LoanApplication, error) {
	app, err := s.repo.MarkDocumentVerified(ctx, id, name, verified)
	if err != nil {
		return nil, err
	}
	s.enqueueChecklistSync(ctx, id)
	return app, nil
}

// RecordAnalysis appends an analysis_received history entry on behalf of the
// system and notifies the borrower. The merged field values themselves land
// through UpdateField/UpdateSection before this is called.
func (s *ApplicationService) RecordAnalysis(ctx context.Context, id string, detail domain.AnalysisDetail) (*domain.LoanApplication, error) {
	entry, err := domain.NewHistoryEntry(domain.ActionAnalysisReceived,
		fmt.Sprintf("%s analysis result received", detail.Kind), domain.SystemActor, detail)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AppendHistory(ctx, id, entry); err != nil {
		return nil, err
	}

	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.triggers != nil {
		s.triggers.OnAnalysisReady(ctx, app, detail.Kind)
	}
	return app, nil
}

func (s *ApplicationService) enqueueChecklistSync(ctx context.Context, id string) {
	if s.enqueuer == nil {
		return
	}
	// Best effort: the checklist is derived state and the next document
	// change re-enqueues it.
	if err := s.enqueuer.EnqueueChecklistSync(ctx, id); err != nil {
		logger.Error("checklist sync enqueue failed",
			zap.String("application_id", id),
			zap.Error(err),
		)
	}
}

// lastFrom recovers the previous status from the freshly appended
// status_changed history entry.
func lastFrom(app *domain.LoanApplication, next domain.Status) domain.Status {
	for i := len(app.History) - 1; i >= 0; i-- {
		entry := app.History[i]
		switch entry.Action {
		case domain.ActionStatusChanged, domain.ActionSubmitted, domain.ActionAssigned:
			var detail domain.StatusChangedDetail
			if len(entry.Details) > 0 {
				if err := json.Unmarshal(entry.Details, &detail); err != nil {
					continue
				}
			}
			if detail.To == next {
				return detail.From
			}
		}
	}
	return ""
}
