package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema DDL for the portal. Aggregates live in a single row each; the
// section, progress, history, and document payloads are jsonb so the field
// path updater can stay structural without schema churn.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS loan_applications (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	broker_id      TEXT NOT NULL DEFAULT '',
	loan_category  TEXT NOT NULL DEFAULT '',
	loan_program   TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'draft',
	borrower_info  JSONB NOT NULL DEFAULT '{}'::jsonb,
	business_info  JSONB NOT NULL DEFAULT '{}'::jsonb,
	loan_details   JSONB NOT NULL DEFAULT '{}'::jsonb,
	financial_info JSONB NOT NULL DEFAULT '{}'::jsonb,
	property_info  JSONB NOT NULL DEFAULT '{}'::jsonb,
	progress       JSONB NOT NULL DEFAULT '{}'::jsonb,
	history        JSONB NOT NULL DEFAULT '[]'::jsonb,
	documents      JSONB NOT NULL DEFAULT '[]'::jsonb,
	notes          TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_loan_applications_user
	ON loan_applications (user_id, created_at DESC);

CREATE INDEX IF NOT EXISTS idx_loan_applications_broker
	ON loan_applications (broker_id, created_at DESC);

CREATE INDEX IF NOT EXISTS idx_loan_applications_status
	ON loan_applications (status);

CREATE TABLE IF NOT EXISTS notifications (
	id             TEXT PRIMARY KEY,
	recipient_id   TEXT NOT NULL,
	application_id TEXT NOT NULL,
	kind           TEXT NOT NULL,
	message        TEXT NOT NULL,
	read           BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_recipient
	ON notifications (recipient_id, created_at DESC);
`

// Migrate applies the portal schema. Statements are idempotent so it is safe
// to run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply portal schema: %w", err)
	}
	return nil
}
