// Package jobs defines the portal's River Queue jobs. Job args follow the
// claim-check pattern: they carry only the application id and workers reload
// current state, so a stale payload can never overwrite a newer write.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"loanport.io/portal/internal/catalog"
	"loanport.io/portal/internal/domain"
	"loanport.io/portal/internal/notification"
	apperrors "loanport.io/portal/internal/pkg/errors"
	"loanport.io/portal/internal/pkg/logger"
	"loanport.io/portal/internal/repository"
)

// ChecklistSyncArgs reconciles one application's document checklist.
type ChecklistSyncArgs struct {
	ApplicationID string `json:"application_id"`
}

// Kind returns the job kind identifier for checklist reconciliation.
func (ChecklistSyncArgs) Kind() string { return "checklist_sync" }

// InsertOpts dedupes pending syncs for the same application: a burst of
// document uploads collapses into one reconciliation.
func (ChecklistSyncArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       "checklist",
		MaxAttempts: 3,
		UniqueOpts: river.UniqueOpts{
			ByArgs:  true,
			ByQueue: true,
		},
	}
}

// ChecklistSyncWorker recomputes the checklist from the current program
// catalog and attached documents, and notifies the broker when every
// required document is verified.
type ChecklistSyncWorker struct {
	river.WorkerDefaults[ChecklistSyncArgs]
	repo     repository.Repository
	catalog  *catalog.Catalog
	triggers *notification.Triggers
}

// NewChecklistSyncWorker creates the worker.
func NewChecklistSyncWorker(repo repository.Repository, cat *catalog.Catalog, triggers *notification.Triggers) *ChecklistSyncWorker {
	return &ChecklistSyncWorker{repo: repo, catalog: cat, triggers: triggers}
}

// Work reconciles one application's checklist.
func (w *ChecklistSyncWorker) Work(ctx context.Context, job *river.Job[ChecklistSyncArgs]) error {
	id := job.Args.ApplicationID

	app, err := w.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// The application disappeared between enqueue and work; retrying
			// cannot help.
			return river.JobCancel(err)
		}
		return fmt.Errorf("load application %s for checklist sync: %w", id, err)
	}

	required, err := w.catalog.RequiredDocuments(ctx, app.LoanProgram)
	if err != nil {
		return river.JobCancel(fmt.Errorf("resolve catalog for %s: %w", id, err))
	}

	items := domain.SyncChecklist(required, app.Documents)

	var missing, uploaded, verified int
	for _, item := range items {
		switch item.Status {
		case domain.ChecklistMissing:
			missing++
		case domain.ChecklistUploaded:
			uploaded++
		case domain.ChecklistVerified:
			verified++
		}
	}

	logger.Info("checklist reconciled",
		zap.String("application_id", id),
		zap.Int("missing", missing),
		zap.Int("uploaded", uploaded),
		zap.Int("verified", verified),
	)

	if len(items) > 0 && verified == len(items) && w.triggers != nil {
		w.triggers.OnChecklistComplete(ctx, app)
	}
	return nil
}
