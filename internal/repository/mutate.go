package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"loanport.io/portal/internal/domain"
	apperrors "loanport.io/portal/internal/pkg/errors"
)

// Mutation helpers shared by the Postgres and Memory implementations. Each
// helper mutates the aggregate in place and returns the unstamped history
// entries describing the change; the implementation stamps and persists them.

func newApplication(params CreateParams, now time.Time) (*domain.LoanApplication, error) {
	if strings.TrimSpace(params.UserID) == "" {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "user id is required")
	}
	if _, ok := domain.ProgramByName(params.LoanProgram); !ok {
		return nil, apperrors.BadRequest(apperrors.CodeUnknownProgram,
			fmt.Sprintf("unknown loan program %q", params.LoanProgram))
	}

	app := &domain.LoanApplication{
		ID:            generateApplicationID(),
		UserID:        params.UserID,
		BrokerID:      params.BrokerID,
		LoanCategory:  params.LoanCategory,
		LoanProgram:   params.LoanProgram,
		Status:        domain.StatusDraft,
		BorrowerInfo:  domain.Section{},
		BusinessInfo:  domain.Section{},
		LoanDetails:   domain.Section{},
		FinancialInfo: domain.Section{},
		PropertyInfo:  domain.Section{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	app.Progress = domain.RecomputeProgress(app)

	entry, err := domain.NewHistoryEntry(domain.ActionCreated, "loan application created", domain.SystemActor,
		domain.CreatedDetail{
			LoanProgram:  params.LoanProgram,
			LoanCategory: params.LoanCategory,
			BrokerID:     params.BrokerID,
		})
	if err != nil {
		return nil, err
	}
	entry.Timestamp = now
	app.History = []domain.HistoryEntry{entry}
	return app, nil
}

func applyFieldUpdate(app *domain.LoanApplication, path string, value interface{}, actor string) (domain.HistoryEntry, error) {
	sectionName, rest, err := domain.SplitPath(path)
	if err != nil {
		return domain.HistoryEntry{}, apperrors.ErrInvalidFieldPathf(path)
	}
	if !domain.KnownSection(sectionName) {
		return domain.HistoryEntry{}, apperrors.BadRequest(apperrors.CodeUnknownSection,
			fmt.Sprintf("unknown section %q", sectionName))
	}

	// User input for amount/score fields arrives as free text; coerce rather
	// than fail the update.
	segs := strings.Split(rest, ".")
	if domain.NumericField(segs[len(segs)-1]) {
		value = domain.CoerceNumber(value)
	}

	section, _ := app.Section(sectionName)
	if section == nil {
		section = domain.Section{}
	}
	if err := domain.ApplyPath(map[string]interface{}(section), rest, value); err != nil {
		return domain.HistoryEntry{}, apperrors.ErrInvalidFieldPathf(path)
	}
	app.SetSection(sectionName, section)
	app.Progress = domain.RecomputeProgress(app)

	return domain.NewHistoryEntry(domain.ActionFieldUpdated, "application field updated", actor,
		domain.FieldUpdatedDetail{Path: path, Section: sectionName})
}

func applySectionUpdate(app *domain.LoanApplication, sectionName string, data map[string]interface{}, actor string) (domain.HistoryEntry, error) {
	if !domain.KnownSection(sectionName) {
		return domain.HistoryEntry{}, apperrors.BadRequest(apperrors.CodeUnknownSection,
			fmt.Sprintf("unknown section %q", sectionName))
	}

	normalized := make(map[string]interface{}, len(data))
	fields := make([]string, 0, len(data))
	for k, v := range data {
		if domain.NumericField(k) {
			v = domain.CoerceNumber(v)
		}
		normalized[k] = v
		fields = append(fields, k)
	}

	section, _ := app.Section(sectionName)
	app.SetSection(sectionName, domain.MergeSection(section, normalized))
	app.Progress = domain.RecomputeProgress(app)

	return domain.NewHistoryEntry(domain.ActionSectionUpdated, "application section updated", actor,
		domain.SectionUpdatedDetail{Section: sectionName, Fields: fields})
}

func applyTransition(app *domain.LoanApplication, next domain.Status, actor string, detail domain.StatusChangedDetail) (domain.HistoryEntry, error) {
	if !next.Valid() {
		return domain.HistoryEntry{}, apperrors.BadRequest(apperrors.CodeValidationFailed,
			fmt.Sprintf("unknown status %q", next))
	}
	if !domain.CanTransition(app.Status, next) {
		return domain.HistoryEntry{}, apperrors.ErrInvalidTransitionf(string(app.Status), string(next))
	}

	detail.From = app.Status
	detail.To = next
	app.Status = next

	action := domain.ActionStatusChanged
	description := fmt.Sprintf("status changed from %s to %s", detail.From, detail.To)
	switch {
	case next == domain.StatusSubmitted:
		action = domain.ActionSubmitted
		description = "application submitted for review"
	case next == domain.StatusUnderReview && detail.Assignee != "":
		action = domain.ActionAssigned
		description = fmt.Sprintf("application assigned to %s", detail.Assignee)
	}

	return domain.NewHistoryEntry(action, description, actor, detail)
}

// applySubmit gates draft → submitted on the aggregate's current progress.
// It runs inside the locked mutation, so the completeness check and the
// transition see the same state; a write landing between a caller's read and
// the submit cannot carry an incomplete application through.
func applySubmit(app *domain.LoanApplication, actor string, minProgress int) (domain.HistoryEntry, error) {
	if app.Progress.OverallProgress < minProgress {
		incomplete := domain.IncompleteSections(app)
		fieldErrors := make([]apperrors.FieldError, 0, len(incomplete))
		for _, name := range incomplete {
			fieldErrors = append(fieldErrors, apperrors.FieldError{
				Field: name,
				Code:  "SECTION_INCOMPLETE",
			})
		}
		return domain.HistoryEntry{}, apperrors.BadRequest(apperrors.CodeValidationFailed,
			"application is not complete enough to submit").
			WithParams(map[string]interface{}{
				"progress": app.Progress.OverallProgress,
				"required": minProgress,
			}).
			WithFieldErrors(fieldErrors)
	}
	return applyTransition(app, domain.StatusSubmitted, actor, domain.StatusChangedDetail{})
}

func applyAttachDocument(app *domain.LoanApplication, doc domain.AttachedDocument, actor string) (domain.HistoryEntry, error) {
	if strings.TrimSpace(doc.Name) == "" {
		return domain.HistoryEntry{}, apperrors.BadRequest(apperrors.CodeValidationFailed, "document name is required")
	}

	replaced := false
	for i, existing := range app.Documents {
		if strings.EqualFold(existing.Name, doc.Name) {
			app.Documents[i] = doc
			replaced = true
			break
		}
	}
	if !replaced {
		app.Documents = append(app.Documents, doc)
	}

	return domain.NewHistoryEntry(domain.ActionDocumentUploaded, "document uploaded", actor,
		domain.DocumentDetail{Name: doc.Name, FileURL: doc.FileURL})
}

func applyRemoveDocument(app *domain.LoanApplication, name, actor string) (domain.HistoryEntry, error) {
	idx := -1
	for i, existing := range app.Documents {
		if strings.EqualFold(existing.Name, name) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.HistoryEntry{}, apperrors.NotFound(apperrors.CodeDocumentNotFound,
			fmt.Sprintf("document %q is not attached", name))
	}
	app.Documents = append(app.Documents[:idx], app.Documents[idx+1:]...)

	return domain.NewHistoryEntry(domain.ActionDocumentRemoved, "document removed", actor,
		domain.DocumentDetail{Name: name})
}

func applyMarkVerified(app *domain.LoanApplication, name string, verified bool) error {
	for i, existing := range app.Documents {
		if strings.EqualFold(existing.Name, name) {
			app.Documents[i].Verified = verified
			return nil
		}
	}
	return apperrors.NotFound(apperrors.CodeDocumentNotFound,
		fmt.Sprintf("document %q is not attached", name))
}

// stampEntry assigns the server timestamp, keeping history monotonic even if
// the wall clock steps backwards between appends.
func stampEntry(entry *domain.HistoryEntry, now time.Time, history []domain.HistoryEntry) {
	ts := now
	if n := len(history); n > 0 && history[n-1].Timestamp.After(ts) {
		ts = history[n-1].Timestamp
	}
	entry.Timestamp = ts
}

func generateApplicationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "app-" + uuid.New().String()
	}
	return "app-" + id.String()
}
