package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanport.io/portal/internal/domain"
	apperrors "loanport.io/portal/internal/pkg/errors"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newDraft(t *testing.T, repo Repository) *domain.LoanApplication {
	t.Helper()
	app, err := repo.Create(context.Background(), CreateParams{
		UserID:      "user-1",
		BrokerID:    "broker-1",
		LoanProgram: domain.ProgramDSCR,
	})
	require.NoError(t, err)
	return app
}

func TestMemoryCreate(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := NewMemory(fixedClock(now))

	app := newDraft(t, repo)

	assert.NotEmpty(t, app.ID)
	assert.Equal(t, domain.StatusDraft, app.Status)
	assert.Equal(t, "user-1", app.UserID)
	assert.Equal(t, 0, app.Progress.OverallProgress)
	assert.Equal(t, now, app.CreatedAt)

	require.Len(t, app.History, 1)
	assert.Equal(t, domain.ActionCreated, app.History[0].Action)
	assert.Equal(t, domain.SystemActor, app.History[0].PerformedBy)
	assert.Equal(t, now, app.History[0].Timestamp)
}

func TestMemoryCreateValidation(t *testing.T) {
	repo := NewMemory(nil)

	_, err := repo.Create(context.Background(), CreateParams{LoanProgram: domain.ProgramDSCR})
	require.Error(t, err)

	_, err = repo.Create(context.Background(), CreateParams{UserID: "user-1", LoanProgram: "jumbo"})
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeUnknownProgram, appErr.Code)
}

func TestMemoryGetNotFound(t *testing.T) {
	repo := NewMemory(nil)

	_, err := repo.Get(context.Background(), "app-missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestMemoryUpdateField(t *testing.T) {
	repo := NewMemory(nil)
	app := newDraft(t, repo)

	updated, err := repo.UpdateField(context.Background(), app.ID, "loanDetails.loanAmount", "$1,500,000", "user-1")
	require.NoError(t, err)

	assert.Equal(t, float64(1500000), updated.LoanDetails["loanAmount"])
	require.Len(t, updated.History, 2)
	assert.Equal(t, domain.ActionFieldUpdated, updated.History[1].Action)
	assert.Equal(t, "user-1", updated.History[1].PerformedBy)
	assert.True(t, updated.Progress.Sections[domain.SectionLoanDetails])
	assert.Equal(t, 20, updated.Progress.OverallProgress)
}

func TestMemoryUpdateFieldPreservesSiblings(t *testing.T) {
	repo := NewMemory(nil)
	app := newDraft(t, repo)
	ctx := context.Background()

	_, err := repo.UpdateField(ctx, app.ID, "borrowerInfo.fullName", "Dana Smith", "user-1")
	require.NoError(t, err)
	_, err = repo.UpdateField(ctx, app.ID, "borrowerInfo.address.city", "Austin", "user-1")
	require.NoError(t, err)
	updated, err := repo.UpdateField(ctx, app.ID, "borrowerInfo.address.state", "TX", "user-1")
	require.NoError(t, err)

	assert.Equal(t, "Dana Smith", updated.BorrowerInfo["fullName"])
	addr, ok := updated.BorrowerInfo["address"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Austin", addr["city"])
	assert.Equal(t, "TX", addr["state"])
}

func TestMemoryUpdateFieldInvalid(t *testing.T) {
	repo := NewMemory(nil)
	app := newDraft(t, repo)
	ctx := context.Background()

	_, err := repo.UpdateField(ctx, app.ID, "loanAmount", 5, "user-1")
	require.Error(t, err)

	_, err = repo.UpdateField(ctx, app.ID, "garage.loanAmount", 5, "user-1")
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeUnknownSection, appErr.Code)

	// Failed updates leave the stored record untouched.
	stored, err := repo.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Len(t, stored.History, 1)
}

func TestMemoryUpdateSectionMerges(t *testing.T) {
	repo := NewMemory(nil)
	app := newDraft(t, repo)
	ctx := context.Background()

	_, err := repo.UpdateSection(ctx, app.ID, domain.SectionFinancialInfo, map[string]interface{}{
		"monthlyRentalIncome": "4,200",
		"bankName":            "First National",
	}, "user-1")
	require.NoError(t, err)

	updated, err := repo.UpdateSection(ctx, app.ID, domain.SectionFinancialInfo, map[string]interface{}{
		"monthlyRentalIncome": 4500,
	}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, float64(4500), updated.FinancialInfo["monthlyRentalIncome"])
	assert.Equal(t, "First National", updated.FinancialInfo["bankName"])
	assert.Equal(t, domain.ActionSectionUpdated, updated.History[len(updated.History)-1].Action)
}

func TestMemoryTransition(t *testing.T) {
	repo := NewMemory(nil)
	app := newDraft(t, repo)
	ctx := context.Background()

	updated, err := repo.Transition(ctx, app.ID, domain.StatusSubmitted, "user-1", domain.StatusChangedDetail{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, updated.Status)
	assert.Equal(t, domain.ActionSubmitted, updated.History[len(updated.History)-1].Action)

	updated, err = repo.Transition(ctx, app.ID, domain.StatusUnderReview, "broker-1",
		domain.StatusChangedDetail{Assignee: "broker-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionAssigned, updated.History[len(updated.History)-1].Action)
}

func TestMemoryTransitionIllegal(t *testing.T) {
	repo := NewMemory(nil)
	app := newDraft(t, repo)
	ctx := context.Background()

	_, err := repo.Transition(ctx, app.ID, domain.StatusFunded, "user-1", domain.StatusChangedDetail{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	// The record is unchanged: still draft, no new history.
	stored, err := repo.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, stored.Status)
	assert.Len(t, stored.History, 1)
}

func TestMemoryAppendHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := NewMemory(fixedClock(now))
	app := newDraft(t, repo)
	ctx := context.Background()

	entry, err := domain.NewHistoryEntry(domain.ActionAnalysisReceived, "credit report analyzed",
		domain.SystemActor, domain.AnalysisDetail{Kind: "credit_report"})
	require.NoError(t, err)

	require.NoError(t, repo.AppendHistory(ctx, app.ID, entry))

	stored, err := repo.Get(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, stored.History, 2)
	assert.Equal(t, domain.ActionAnalysisReceived, stored.History[1].Action)
	assert.Equal(t, now, stored.History[1].Timestamp)

	err = repo.AppendHistory(ctx, "app-missing", entry)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestMemoryHistoryTimestampsMonotonic(t *testing.T) {
	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := NewMemory(func() time.Time { return current })
	app := newDraft(t, repo)
	ctx := context.Background()

	// Step the clock backwards between writes.
	current = current.Add(-time.Minute)
	updated, err := repo.UpdateField(ctx, app.ID, "loanDetails.loanAmount", 100, "user-1")
	require.NoError(t, err)

	last := updated.History[len(updated.History)-1]
	assert.False(t, last.Timestamp.Before(updated.History[0].Timestamp))
}

func TestMemoryDocuments(t *testing.T) {
	repo := NewMemory(nil)
	app := newDraft(t, repo)
	ctx := context.Background()

	updated, err := repo.AttachDocument(ctx, app.ID, domain.AttachedDocument{
		Name:    "Credit Report",
		FileURL: "s3://docs/credit-1.pdf",
	}, "user-1")
	require.NoError(t, err)
	require.Len(t, updated.Documents, 1)

	// Re-upload under the same name replaces rather than duplicates.
	updated, err = repo.AttachDocument(ctx, app.ID, domain.AttachedDocument{
		Name:    "credit report",
		FileURL: "s3://docs/credit-2.pdf",
	}, "user-1")
	require.NoError(t, err)
	require.Len(t, updated.Documents, 1)
	assert.Equal(t, "s3://docs/credit-2.pdf", updated.Documents[0].FileURL)

	updated, err = repo.MarkDocumentVerified(ctx, app.ID, "Credit Report", true)
	require.NoError(t, err)
	assert.True(t, updated.Documents[0].Verified)

	updated, err = repo.RemoveDocument(ctx, app.ID, "Credit Report", "user-1")
	require.NoError(t, err)
	assert.Empty(t, updated.Documents)

	_, err = repo.RemoveDocument(ctx, app.ID, "Credit Report", "user-1")
	require.Error(t, err)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeDocumentNotFound, appErr.Code)
}

func TestMemoryList(t *testing.T) {
	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := NewMemory(func() time.Time { return current })
	ctx := context.Background()

	first, err := repo.Create(ctx, CreateParams{UserID: "user-1", BrokerID: "broker-1", LoanProgram: domain.ProgramDSCR})
	require.NoError(t, err)
	current = current.Add(time.Minute)
	second, err := repo.Create(ctx, CreateParams{UserID: "user-1", BrokerID: "broker-1", LoanProgram: domain.ProgramConstruction})
	require.NoError(t, err)
	current = current.Add(time.Minute)
	_, err = repo.Create(ctx, CreateParams{UserID: "user-2", BrokerID: "broker-2", LoanProgram: domain.ProgramDSCR})
	require.NoError(t, err)

	_, err = repo.Transition(ctx, second.ID, domain.StatusSubmitted, "user-1", domain.StatusChangedDetail{})
	require.NoError(t, err)

	apps, err := repo.ListByUser(ctx, "user-1", "")
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, second.ID, apps[0].ID)
	assert.Equal(t, first.ID, apps[1].ID)

	drafts, err := repo.ListByBroker(ctx, "broker-1", domain.StatusDraft)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, first.ID, drafts[0].ID)
}

func TestMemoryReturnsClones(t *testing.T) {
	repo := NewMemory(nil)
	app := newDraft(t, repo)
	ctx := context.Background()

	loaded, err := repo.Get(ctx, app.ID)
	require.NoError(t, err)
	loaded.BorrowerInfo["fullName"] = "tampered"
	loaded.History[0].Description = "tampered"

	fresh, err := repo.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.NotContains(t, fresh.BorrowerInfo, "fullName")
	assert.NotEqual(t, "tampered", fresh.History[0].Description)
}

func TestMemorySubmitGateChecksStoredState(t *testing.T) {
	repo := NewMemory(nil)
	app := newDraft(t, repo)
	ctx := context.Background()

	fill := map[string]map[string]interface{}{
		domain.SectionBorrowerInfo:  {"fullName": "Dana Smith", "email": "dana@example.com"},
		domain.SectionBusinessInfo:  {"businessName": "Smith Holdings LLC"},
		domain.SectionLoanDetails:   {"loanAmount": 350000},
		domain.SectionFinancialInfo: {"monthlyRentalIncome": 4200},
		domain.SectionPropertyInfo:  {"propertyAddress": "12 Oak St, Austin TX"},
	}
	for section, data := range fill {
		_, err := repo.UpdateSection(ctx, app.ID, section, data, "user-1")
		require.NoError(t, err)
	}

	// A write landing after a caller's read snapshot empties a required
	// field; the gate evaluates the stored state inside the mutation, so the
	// stale snapshot cannot carry the submit through.
	_, err := repo.UpdateField(ctx, app.ID, "businessInfo.businessName", "", "user-1")
	require.NoError(t, err)

	_, err = repo.Submit(ctx, app.ID, "user-1", 100)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeValidationFailed, appErr.Code)
	require.Len(t, appErr.FieldErrors, 1)
	assert.Equal(t, domain.SectionBusinessInfo, appErr.FieldErrors[0].Field)

	stored, err := repo.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, stored.Status)

	_, err = repo.UpdateField(ctx, app.ID, "businessInfo.businessName", "Smith Holdings LLC", "user-1")
	require.NoError(t, err)

	submitted, err := repo.Submit(ctx, app.ID, "user-1", 100)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, submitted.Status)
	assert.Equal(t, domain.ActionSubmitted, submitted.History[len(submitted.History)-1].Action)
}

func TestMemoryUpdateNotes(t *testing.T) {
	repo := NewMemory(nil)
	app := newDraft(t, repo)

	updated, err := repo.UpdateNotes(context.Background(), app.ID, "rush file", "broker-1")
	require.NoError(t, err)
	assert.Equal(t, "rush file", updated.Notes)
	assert.Equal(t, domain.ActionNotesUpdated, updated.History[len(updated.History)-1].Action)
}
