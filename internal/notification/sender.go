// Package notification implements the portal's in-app inbox.
//
// Notifications are synchronous DB writes in the caller's context, not queued
// work: a status change the user never hears about is worse than a slightly
// slower transition. Retention is handled by a periodic cleanup job.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"loanport.io/portal/internal/pkg/logger"
)

// Notification kinds.
const (
	KindStatusChange      = "STATUS_CHANGE"
	KindAssigned          = "APPLICATION_ASSIGNED"
	KindChecklistComplete = "CHECKLIST_COMPLETE"
	KindAnalysisReady     = "ANALYSIS_READY"
)

// Notification is one inbox entry.
type Notification struct {
	ID            string    `json:"id"`
	RecipientID   string    `json:"recipientId"`
	ApplicationID string    `json:"applicationId"`
	Kind          string    `json:"kind"`
	Message       string    `json:"message"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Params holds the required fields for creating a notification.
type Params struct {
	RecipientID   string
	ApplicationID string
	Kind          string
	Message       string
}

// Sender delivers notifications. The inbox write is the only V1 channel;
// external push channels would be additional implementations.
type Sender interface {
	// Send creates a notification for a single recipient.
	Send(ctx context.Context, params Params) error

	// SendToMany creates notifications for multiple recipients.
	// Best-effort: logs errors but does not abort on individual failures.
	SendToMany(ctx context.Context, recipientIDs []string, params Params) error
}

// InboxSender writes notifications to the notifications table synchronously
// within the caller's context.
type InboxSender struct {
	pool *pgxpool.Pool
}

// NewInboxSender creates a new inbox sender.
func NewInboxSender(pool *pgxpool.Pool) *InboxSender {
	return &InboxSender{pool: pool}
}

var _ Sender = (*InboxSender)(nil)

// Send stores a single notification.
func (s *InboxSender) Send(ctx context.Context, params Params) error {
	if err := validateParams(params); err != nil {
		return fmt.Errorf("notification params invalid: %w", err)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, recipient_id, application_id, kind, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)`,
		uuid.NewString(), params.RecipientID, params.ApplicationID, params.Kind, params.Message,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("create notification for recipient %s: %w", params.RecipientID, err)
	}

	logger.Debug("notification sent",
		zap.String("recipient", params.RecipientID),
		zap.String("kind", params.Kind),
		zap.String("application_id", params.ApplicationID),
	)
	return nil
}

// SendToMany creates notifications for multiple recipients (best-effort).
func (s *InboxSender) SendToMany(ctx context.Context, recipientIDs []string, params Params) error {
	if len(recipientIDs) == 0 {
		return nil
	}

	var failCount int
	for _, recipientID := range recipientIDs {
		p := params
		p.RecipientID = recipientID
		if err := s.Send(ctx, p); err != nil {
			failCount++
			logger.Error("notification delivery failed",
				zap.String("recipient", recipientID),
				zap.String("kind", params.Kind),
				zap.Error(err),
			)
		}
	}

	if failCount > 0 {
		return fmt.Errorf("notification delivery failed for %d/%d recipients", failCount, len(recipientIDs))
	}
	return nil
}

// List returns the recipient's notifications, newest first.
func (s *InboxSender) List(ctx context.Context, recipientID string, unreadOnly bool) ([]Notification, error) {
	query := `
		SELECT id, recipient_id, application_id, kind, message, read, created_at
		FROM notifications
		WHERE recipient_id = $1`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT 200`

	rows, err := s.pool.Query(ctx, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", recipientID, err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.ApplicationID, &n.Kind, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips one notification to read. The recipient filter keeps users
// from acknowledging each other's inbox entries.
func (s *InboxSender) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND recipient_id = $2`,
		notificationID, recipientID,
	)
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", notificationID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification %s not found for recipient", notificationID)
	}
	return nil
}

// DeleteOlderThan removes read notifications past the retention window and
// returns the number deleted.
func (s *InboxSender) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM notifications WHERE read = TRUE AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete notifications before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

func validateParams(p Params) error {
	if p.RecipientID == "" {
		return fmt.Errorf("recipient_id is required")
	}
	if p.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if p.Message == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}
