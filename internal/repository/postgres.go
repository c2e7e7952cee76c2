package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"loanport.io/portal/internal/domain"
	apperrors "loanport.io/portal/internal/pkg/errors"
)

// Postgres stores each aggregate as one row with jsonb section, progress,
// history, and document columns. Every read-modify-write takes a row lock
// (SELECT ... FOR UPDATE) so the merge is never torn, and history appends go
// through the jsonb || operator rather than whole-array replacement, so
// concurrent appends cannot lose entries.
type Postgres struct {
	pool  *pgxpool.Pool
	clock func() time.Time
}

// NewPostgres creates the Postgres repository over a shared pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		pool:  pool,
		clock: func() time.Time { return time.Now().UTC() },
	}
}

var _ Repository = (*Postgres)(nil)

const appColumns = `id, user_id, broker_id, loan_category, loan_program, status,
	borrower_info, business_info, loan_details, financial_info, property_info,
	progress, history, documents, notes, created_at, updated_at`

// Create implements Repository.
func (r *Postgres) Create(ctx context.Context, params CreateParams) (*domain.LoanApplication, error) {
	app, err := newApplication(params, r.clock())
	if err != nil {
		return nil, err
	}

	cols, err := encodeColumns(app)
	if err != nil {
		return nil, err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO loan_applications (`+appColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		app.ID, app.UserID, app.BrokerID, app.LoanCategory, app.LoanProgram, string(app.Status),
		cols.borrower, cols.business, cols.loan, cols.financial, cols.property,
		cols.progress, cols.history, cols.documents, app.Notes, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.ErrPersistencef(fmt.Errorf("insert application %s: %w", app.ID, err))
	}
	return app, nil
}

// Get implements Repository.
func (r *Postgres) Get(ctx context.Context, id string) (*domain.LoanApplication, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appColumns+` FROM loan_applications WHERE id = $1`, id)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrApplicationNotFoundf(id)
		}
		return nil, apperrors.ErrPersistencef(fmt.Errorf("load application %s: %w", id, err))
	}
	return app, nil
}

// ListByBroker implements Repository.
func (r *Postgres) ListByBroker(ctx context.Context, brokerID string, status domain.Status) ([]*domain.LoanApplication, error) {
	return r.listBy(ctx, "broker_id", brokerID, status)
}

// ListByUser implements Repository.
func (r *Postgres) ListByUser(ctx context.Context, userID string, status domain.Status) ([]*domain.LoanApplication, error) {
	return r.listBy(ctx, "user_id", userID, status)
}

func (r *Postgres) listBy(ctx context.Context, column, value string, status domain.Status) ([]*domain.LoanApplication, error) {
	query := `SELECT ` + appColumns + ` FROM loan_applications WHERE ` + column + ` = $1`
	args := []interface{}{value}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.ErrPersistencef(fmt.Errorf("list applications by %s: %w", column, err))
	}
	defer rows.Close()

	var out []*domain.LoanApplication
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, apperrors.ErrPersistencef(fmt.Errorf("scan application row: %w", err))
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.ErrPersistencef(fmt.Errorf("iterate application rows: %w", err))
	}
	return out, nil
}

// UpdateField implements Repository.
func (r *Postgres) UpdateField(ctx context.Context, id, path string, value interface{}, actor string) (*domain.LoanApplication, error) {
	return r.mutate(ctx, id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		entry, err := applyFieldUpdate(app, path, value, actor)
		if err != nil {
			return nil, err
		}
		return []domain.HistoryEntry{entry}, nil
	})
}

// UpdateSection implements Repository.
func (r *Postgres) UpdateSection(ctx context.Context, id, section string, data map[string]interface{}, actor string) (*domain.LoanApplication, error) {
	return r.mutate(ctx, id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		entry, err := applySectionUpdate(app, section, data, actor)
		if err != nil {
			return nil, err
		}
		return []domain.HistoryEntry{entry}, nil
	})
}

// UpdateNotes implements Repository.
func (r *Postgres) UpdateNotes(ctx context.Context, id, notes, actor string) (*domain.LoanApplication, error) {
	return r.mutate(ctx, id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		app.Notes = notes
		entry, err := domain.NewHistoryEntry(domain.ActionNotesUpdated, "application notes updated", actor, nil)
		if err != nil {
			return nil, err
		}
		return []domain.HistoryEntry{entry}, nil
	})
}

// AppendHistory implements Repository. The append goes through the same
// locked read-modify-write as every other mutation so the server stamp is
// clamped against the last stored entry and timestamps stay non-decreasing
// even if the wall clock steps backwards between appends.
func (r *Postgres) AppendHistory(ctx context.Context, id string, entry domain.HistoryEntry) error {
	_, err := r.mutate(ctx, id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		return []domain.HistoryEntry{entry}, nil
	})
	return err
}

// Transition implements Repository.
func (r *Postgres) Transition(ctx context.Context, id string, next domain.Status, actor string, detail domain.StatusChangedDetail) (*domain.LoanApplication, error) {
	return r.mutate(ctx, id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		entry, err := applyTransition(app, next, actor, detail)
		if err != nil {
			return nil, err
		}
		return []domain.HistoryEntry{entry}, nil
	})
}

// Submit implements Repository.
func (r *Postgres) Submit(ctx context.Context, id, actor string, minProgress int) (*domain.LoanApplication, error) {
	return r.mutate(ctx, id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		entry, err := applySubmit(app, actor, minProgress)
		if err != nil {
			return nil, err
		}
		return []domain.HistoryEntry{entry}, nil
	})
}

// AttachDocument implements Repository.
func (r *Postgres) AttachDocument(ctx context.Context, id string, doc domain.AttachedDocument, actor string) (*domain.LoanApplication, error) {
	return r.mutate(ctx, id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		entry, err := applyAttachDocument(app, doc, actor)
		if err != nil {
			return nil, err
		}
		return []domain.HistoryEntry{entry}, nil
	})
}

// RemoveDocument implements Repository.
func (r *Postgres) RemoveDocument(ctx context.Context, id, name, actor string) (*domain.LoanApplication, error) {
	return r.mutate(ctx, id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		entry, err := applyRemoveDocument(app, name, actor)
		if err != nil {
			return nil, err
		}
		return []domain.HistoryEntry{entry}, nil
	})
}

// MarkDocumentVerified implements Repository.
func (r *Postgres) MarkDocumentVerified(ctx context.Context, id, name string, verified bool) (*domain.LoanApplication, error) {
	return r.mutate(ctx, id, func(app *domain.LoanApplication) ([]domain.HistoryEntry, error) {
		if err := applyMarkVerified(app, name, verified); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// mutate is the read-modify-write core: lock the row, decode, apply the
// mutation, write back the changed columns, and append only the new history
// entries via jsonb concatenation.
func (r *Postgres) mutate(ctx context.Context, id string, fn func(app *domain.LoanApplication) ([]domain.HistoryEntry, error)) (*domain.LoanApplication, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.ErrPersistencef(fmt.Errorf("begin application tx: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `SELECT `+appColumns+` FROM loan_applications WHERE id = $1 FOR UPDATE`, id)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrApplicationNotFoundf(id)
		}
		return nil, apperrors.ErrPersistencef(fmt.Errorf("lock application %s: %w", id, err))
	}

	entries, err := fn(app)
	if err != nil {
		return nil, err
	}

	now := r.clock()
	for i := range entries {
		stampEntry(&entries[i], now, app.History)
		app.History = append(app.History, entries[i])
	}
	app.UpdatedAt = now

	cols, err := encodeColumns(app)
	if err != nil {
		return nil, err
	}
	newEntries, err := encodeNewEntries(entries)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE loan_applications
		SET status = $2,
		    borrower_info = $3, business_info = $4, loan_details = $5,
		    financial_info = $6, property_info = $7,
		    progress = $8, documents = $9, notes = $10,
		    history = history || $11::jsonb,
		    updated_at = $12
		WHERE id = $1`,
		app.ID, string(app.Status),
		cols.borrower, cols.business, cols.loan, cols.financial, cols.property,
		cols.progress, cols.documents, app.Notes, newEntries, app.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.ErrPersistencef(fmt.Errorf("update application %s: %w", app.ID, err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.ErrPersistencef(fmt.Errorf("commit application tx: %w", err))
	}
	return app, nil
}

// encodeNewEntries marshals the entries a mutation appended. A mutation
// that adds no entries encodes as an empty jsonb array: a nil slice would
// encode as the scalar null, which jsonb || treats as a one-element array
// and would append to history as a bogus null entry.
func encodeNewEntries(entries []domain.HistoryEntry) ([]byte, error) {
	raw, err := json.Marshal(orEmptyHistory(entries))
	if err != nil {
		return nil, fmt.Errorf("encode history entries: %w", err)
	}
	return raw, nil
}

type encodedColumns struct {
	borrower, business, loan, financial, property []byte
	progress, history, documents                  []byte
}

func encodeColumns(app *domain.LoanApplication) (encodedColumns, error) {
	var (
		cols encodedColumns
		err  error
	)
	encode := func(dst *[]byte, v interface{}, what string) {
		if err != nil {
			return
		}
		*dst, err = json.Marshal(v)
		if err != nil {
			err = fmt.Errorf("encode %s: %w", what, err)
		}
	}

	encode(&cols.borrower, orEmpty(app.BorrowerInfo), "borrower_info")
	encode(&cols.business, orEmpty(app.BusinessInfo), "business_info")
	encode(&cols.loan, orEmpty(app.LoanDetails), "loan_details")
	encode(&cols.financial, orEmpty(app.FinancialInfo), "financial_info")
	encode(&cols.property, orEmpty(app.PropertyInfo), "property_info")
	encode(&cols.progress, app.Progress, "progress")
	encode(&cols.history, orEmptyHistory(app.History), "history")
	encode(&cols.documents, orEmptyDocs(app.Documents), "documents")
	return cols, err
}

func orEmpty(s domain.Section) domain.Section {
	if s == nil {
		return domain.Section{}
	}
	return s
}

func orEmptyHistory(h []domain.HistoryEntry) []domain.HistoryEntry {
	if h == nil {
		return []domain.HistoryEntry{}
	}
	return h
}

func orEmptyDocs(d []domain.AttachedDocument) []domain.AttachedDocument {
	if d == nil {
		return []domain.AttachedDocument{}
	}
	return d
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*domain.LoanApplication, error) {
	var (
		app    domain.LoanApplication
		status string

		borrower, business, loan, financial, property []byte
		progress, history, documents                  []byte
	)
	if err := row.Scan(
		&app.ID, &app.UserID, &app.BrokerID, &app.LoanCategory, &app.LoanProgram, &status,
		&borrower, &business, &loan, &financial, &property,
		&progress, &history, &documents, &app.Notes, &app.CreatedAt, &app.UpdatedAt,
	); err != nil {
		return nil, err
	}
	app.Status = domain.Status(status)

	decode := func(raw []byte, dst interface{}, what string) error {
		if len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("decode %s: %w", what, err)
		}
		return nil
	}

	if err := decode(borrower, &app.BorrowerInfo, "borrower_info"); err != nil {
		return nil, err
	}
	if err := decode(business, &app.BusinessInfo, "business_info"); err != nil {
		return nil, err
	}
	if err := decode(loan, &app.LoanDetails, "loan_details"); err != nil {
		return nil, err
	}
	if err := decode(financial, &app.FinancialInfo, "financial_info"); err != nil {
		return nil, err
	}
	if err := decode(property, &app.PropertyInfo, "property_info"); err != nil {
		return nil, err
	}
	if err := decode(progress, &app.Progress, "progress"); err != nil {
		return nil, err
	}
	if err := decode(history, &app.History, "history"); err != nil {
		return nil, err
	}
	if err := decode(documents, &app.Documents, "documents"); err != nil {
		return nil, err
	}
	return &app, nil
}
