package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"loanport.io/portal/internal/domain"
	apperrors "loanport.io/portal/internal/pkg/errors"
)

// Memory is an in-memory Repository for tests and local development. It
// hands out deep clones so callers can never mutate stored state directly,
// and takes an injected clock so tests control history timestamps.
type Memory struct {
	mu    sync.Mutex
	apps  map[string]*domain.LoanApplication
	clock func() time.Time
}

// NewMemory creates an in-memory repository. A nil clock uses the wall clock.
func NewMemory(clock func() time.Time) *Memory {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Memory{
		apps:  make(map[string]*domain.LoanApplication),
		clock: clock,
	}
}

var _ Repository = (*Memory)(nil)

// Create implements Repository.
func (m *Memory) Create(_ context.Context, params CreateParams) (*domain.LoanApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, err := newApplication(params, m.clock())
	if err != nil {
		return nil, err
	}
	m.apps[app.ID] = app
	return app.Clone(), nil
}

// Get implements Repository.
func (m *Memory) Get(_ context.Context, id string) (*domain.LoanApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok {
		return nil, apperrors.ErrApplicationNotFoundf(id)
	}
	return app.Clone(), nil
}

// ListByBroker implements Repository.
func (m *Memory) ListByBroker(_ context.Context, brokerID string, status domain.Status) ([]*domain.LoanApplication, error) {
	return m.list(func(app *domain.LoanApplication) bool {
		return app.BrokerID == brokerID && (status == "" || app.Status == status)
	}), nil
}

// ListByUser implements Repository.
func (m *Memory) ListByUser(_ context.Context, userID string, status domain.Status) ([]*domain.LoanApplication, error) {
	return m.list(func(app *domain.LoanApplication) bool {
		return app.UserID == userID && (status == "" || app.Status == status)
	}), nil
}

func (m *Memory) list(match func(*domain.LoanApplication) bool) []*domain.LoanApplication {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.LoanApplication
	for _, app := range m.apps {
		if match(app) {
			out = append(out, app.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// UpdateField implements Repository.
func (m *Memory) UpdateField(_ context.Context, id, path string, value interface{}, actor string) (*domain.LoanApplication, error) {
	return m.mutate(id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		entry, err := applyFieldUpdate(app, path, value, actor)
		if err != nil {
			return nil, err
		}
		return []domain.HistoryEntry{entry}, nil
	})
}

// UpdateSection implements Repository.
func (m *Memory) UpdateSection(_ context.Context, id, section string, data map[string]interface{}, actor string) (*domain.LoanApplication, error) {
	return m.mutate(id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		entry, err := applySectionUpdate(app, section, data, actor)
		if err != nil {
			return nil, err
		}
		return []domain.HistoryEntry{entry}, nil
	})
}

// UpdateNotes implements Repository.
func (m *Memory) UpdateNotes(_ context.Context, id, notes, actor string) (*domain.LoanApplication, error) {
	return m.mutate(id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		app.Notes = notes
		entry, err := domain.NewHistoryEntry(domain.ActionNotesUpdated, "application notes updated", actor, nil)
		if err != nil {
			return nil, err
		}
		return []domain.HistoryEntry{entry}, nil
	})
}

// AppendHistory implements Repository.
func (m *Memory) AppendHistory(_ context.Context, id string, entry domain.HistoryEntry) error {
	_, err := m.mutate(id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		return []domain.HistoryEntry{entry}, nil
	})
	return err
}

// Transition implements Repository.
func (m *Memory) Transition(_ context.Context, id string, next domain.Status, actor string, detail domain.StatusChangedDetail) (*domain.LoanApplication, error) {
	return m.mutate(id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		entry, err := applyTransition(app, next, actor, detail)
		if err != nil {
			return nil, err
		}
		return []domain.HistoryEntry{entry}, nil
	})
}

// Submit implements Repository.
func (m *Memory) Submit(_ context.Context, id, actor string, minProgress int) (*domain.LoanApplication, error) {
	return m.mutate(id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		entry, err := applySubmit(app, actor, minProgress)
		if err != nil {
			return nil, err
		}
		return []domain.HistoryEntry{entry}, nil
	})
}

// AttachDocument implements Repository.
func (m *Memory) AttachDocument(_ context.Context, id string, doc domain.AttachedDocument, actor string) (*domain.LoanApplication, error) {
	return m.mutate(id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		entry, err := applyAttachDocument(app, doc, actor)
		if err != nil {
			return nil, err
		}
		return []domain.HistoryEntry{entry}, nil
	})
}

// RemoveDocument implements Repository.
func (m *Memory) RemoveDocument(_ context.Context, id, name, actor string) (*domain.LoanApplication, error) {
	return m.mutate(id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		entry, err := applyRemoveDocument(app, name, actor)
		if err != nil {
			return nil, err
		}
		return []domain.HistoryEntry{entry}, nil
	})
}

// MarkDocumentVerified implements Repository.
func (m *Memory) MarkDocumentVerified(_ context.Context, id, name string, verified bool) (*domain.LoanApplication, error) {
	return m.mutate(id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		if err := applyMarkVerified(app, name, verified); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// mutate runs fn against the stored aggregate under the lock. Mutations are
// applied to a clone first so a failing fn leaves the stored record
// untouched, matching the transactional behavior of the Postgres
// implementation.
func (m *Memory) mutate(id string, fn func(app *domain.LoanApplication) ([]domain.HistoryEntry, error)) (*domain.LoanApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.apps[id]
	if !ok {
		return nil, apperrors.ErrApplicationNotFoundf(id)
	}

	app := stored.Clone()
	entries, err := fn(app)
	if err != nil {
		return nil, err
	}

	now := m.clock()
	for i := range entries {
		stampEntry(&entries[i], now, app.History)
		app.History = append(app.History, entries[i])
	}
	app.UpdatedAt = now

	m.apps[id] = app
	return app.Clone(), nil
}
