// Package repository is the persistence façade for the loan application
// aggregate. It owns read-modify-write semantics and is the consistency
// boundary: no component writes to storage around it.
//
// Two implementations exist: Postgres (production, jsonb aggregate with row
// locking) and Memory (tests and local development).
package repository

import (
	"context"

	"loanport.io/portal/internal/domain"
)

// CreateParams are the immutable attributes fixed at application creation.
// LoanProgram cannot change afterwards: changing program would invalidate the
// document checklist.
type CreateParams struct {
	UserID       string
	BrokerID     string
	LoanCategory string
	LoanProgram  string
}

// Repository persists loan applications.
//
// All mutating operations are read-modify-write against a single aggregate.
// They surface APPLICATION_NOT_FOUND when the id does not resolve,
// INVALID_TRANSITION from the state machine, and PERSISTENCE_FAILED for
// storage errors, which callers may retry at their own discretion. Field
// and section updates are idempotent; history appends are not (see
// AppendHistory).
type Repository interface {
	// Create stores a new draft application with a single "created" history
	// entry and empty sections.
	Create(ctx context.Context, params CreateParams) (*domain.LoanApplication, error)

	// Get loads the aggregate by id.
	Get(ctx context.Context, id string) (*domain.LoanApplication, error)

	// ListByBroker returns the broker's applications, newest first. An empty
	// status matches all statuses.
	ListByBroker(ctx context.Context, brokerID string, status domain.Status) ([]*domain.LoanApplication, error)

	// ListByUser returns the borrower's applications, newest first.
	ListByUser(ctx context.Context, userID string, status domain.Status) ([]*domain.LoanApplication, error)

	// UpdateField applies one dot-path write ("loanDetails.loanAmount"),
	// recomputes progress, and appends a field_updated history entry, all in
	// one atomic read-modify-write.
	UpdateField(ctx context.Context, id, path string, value interface{}, actor string) (*domain.LoanApplication, error)

	// UpdateSection merges a partial section payload key-by-key, recomputes
	// progress, and appends a section_updated entry.
	UpdateSection(ctx context.Context, id, section string, data map[string]interface{}, actor string) (*domain.LoanApplication, error)

	// UpdateNotes replaces the free-text notes field.
	UpdateNotes(ctx context.Context, id, notes, actor string) (*domain.LoanApplication, error)

	// AppendHistory appends one entry, stamping its timestamp with the server
	// clock. The append is atomic with respect to concurrent appenders; a
	// whole-array read-modify-write is never used. Appends are not
	// idempotent: retrying a failed append may produce a duplicate entry,
	// which is tolerated as the conservative fallback.
	AppendHistory(ctx context.Context, id string, entry domain.HistoryEntry) error

	// Transition moves the application along one state-machine edge,
	// appending the matching history entry. Illegal edges fail without
	// mutating the record.
	Transition(ctx context.Context, id string, next domain.Status, actor string, detail domain.StatusChangedDetail) (*domain.LoanApplication, error)

	// Submit performs draft → submitted, enforcing the completeness gate
	// against the same locked state the transition writes, so a concurrent
	// update cannot carry an incomplete application into submitted.
	Submit(ctx context.Context, id, actor string, minProgress int) (*domain.LoanApplication, error)

	// AttachDocument adds (or replaces, by name) an attached document and
	// appends a document_uploaded entry.
	AttachDocument(ctx context.Context, id string, doc domain.AttachedDocument, actor string) (*domain.LoanApplication, error)

	// RemoveDocument detaches a document by name.
	RemoveDocument(ctx context.Context, id, name, actor string) (*domain.LoanApplication, error)

	// MarkDocumentVerified flips a document's verified flag after an external
	// analysis result arrives.
	MarkDocumentVerified(ctx context.Context, id, name string, verified bool) (*domain.LoanApplication, error)
}
