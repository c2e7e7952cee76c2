package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"loanport.io/portal/internal/domain"
	"loanport.io/portal/internal/pkg/logger"
)

// Triggers maps lifecycle events to inbox notifications. Delivery failures
// are logged and swallowed: a transition must never roll back because the
// inbox write failed.
type Triggers struct {
	sender Sender
}

// NewTriggers creates the notification trigger service.
func NewTriggers(sender Sender) *Triggers {
	return &Triggers{sender: sender}
}

// OnStatusChanged fires after a successful transition. The borrower always
// hears about it; the broker hears about it too when one is attached and the
// change did not originate with them.
func (t *Triggers) OnStatusChanged(ctx context.Context, app *domain.LoanApplication, detail domain.StatusChangedDetail, actor string) {
	message := fmt.Sprintf("Application %s moved from %s to %s", app.ID, detail.From, detail.To)
	kind := KindStatusChange
	if detail.Assignee != "" {
		kind = KindAssigned
		message = fmt.Sprintf("Application %s was assigned for review", app.ID)
	}

	recipients := make([]string, 0, 2)
	if app.UserID != "" && app.UserID != actor {
		recipients = append(recipients, app.UserID)
	}
	if app.BrokerID != "" && app.BrokerID != actor {
		recipients = append(recipients, app.BrokerID)
	}

	if err := t.sender.SendToMany(ctx, recipients, Params{
		ApplicationID: app.ID,
		Kind:          kind,
		Message:       message,
	}); err != nil {
		logger.Error("status change notification failed",
			zap.String("application_id", app.ID),
			zap.String("to", string(detail.To)),
			zap.Error(err),
		)
	}
}

// OnChecklistComplete fires when every required document is verified.
func (t *Triggers) OnChecklistComplete(ctx context.Context, app *domain.LoanApplication) {
	if app.BrokerID == "" {
		return
	}
	err := t.sender.Send(ctx, Params{
		RecipientID:   app.BrokerID,
		ApplicationID: app.ID,
		Kind:          KindChecklistComplete,
		Message:       fmt.Sprintf("All required documents for application %s are verified", app.ID),
	})
	if err != nil {
		logger.Error("checklist notification failed",
			zap.String("application_id", app.ID),
			zap.Error(err),
		)
	}
}

// OnAnalysisReady fires when an asynchronous document analysis lands.
func (t *Triggers) OnAnalysisReady(ctx context.Context, app *domain.LoanApplication, kind string) {
	if app.UserID == "" {
		return
	}
	err := t.sender.Send(ctx, Params{
		RecipientID:   app.UserID,
		ApplicationID: app.ID,
		Kind:          KindAnalysisReady,
		Message:       fmt.Sprintf("Analysis of your %s for application %s is complete", kind, app.ID),
	})
	if err != nil {
		logger.Error("analysis notification failed",
			zap.String("application_id", app.ID),
			zap.Error(err),
		)
	}
}
