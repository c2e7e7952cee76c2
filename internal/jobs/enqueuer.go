package jobs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
)

// Enqueuer inserts portal jobs through the shared River client.
type Enqueuer struct {
	client *river.Client[pgx.Tx]
}

// NewEnqueuer creates the enqueuer.
func NewEnqueuer(client *river.Client[pgx.Tx]) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueChecklistSync schedules a checklist reconciliation for one
// application. Duplicate pending syncs collapse via the job's unique opts.
func (e *Enqueuer) EnqueueChecklistSync(ctx context.Context, applicationID string) error {
	if applicationID == "" {
		return fmt.Errorf("application id is required")
	}
	_, err := e.client.Insert(ctx, ChecklistSyncArgs{ApplicationID: applicationID}, nil)
	if err != nil {
		return fmt.Errorf("insert checklist_sync job for %s: %w", applicationID, err)
	}
	return nil
}
