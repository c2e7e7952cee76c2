// Package analysis ingests asynchronous document-analysis results. The
// extraction engines themselves live outside the portal; results arrive over
// HTTP and are merged into the aggregate off the request path on the
// analysis worker pool.
package analysis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"loanport.io/portal/internal/domain"
	apperrors "loanport.io/portal/internal/pkg/errors"
	"loanport.io/portal/internal/pkg/logger"
	"loanport.io/portal/internal/pkg/worker"
	"loanport.io/portal/internal/service"
)

// Analysis result kinds.
const (
	KindCreditReport   = "credit_report"
	KindAssetStatement = "asset_statement"
)

// kindSections maps each result kind to the section its extracted fields
// merge into.
var kindSections = map[string]string{
	KindCreditReport:   domain.SectionFinancialInfo,
	KindAssetStatement: domain.SectionFinancialInfo,
}

// Result is one analysis verdict for an application.
type Result struct {
	ApplicationID string                 `json:"applicationId"`
	Kind          string                 `json:"kind"`
	DocumentName  string                 `json:"documentName,omitempty"`
	Fields        map[string]interface{} `json:"fields,omitempty"`
	Verified      bool                   `json:"verified"`
}

// Validate checks the result envelope before it is accepted for ingestion.
func (r Result) Validate() error {
	if r.ApplicationID == "" {
		return apperrors.BadRequest(apperrors.CodeValidationFailed, "applicationId is required")
	}
	if _, ok := kindSections[r.Kind]; !ok {
		return apperrors.BadRequest(apperrors.CodeValidationFailed,
			fmt.Sprintf("unknown analysis kind %q", r.Kind))
	}
	return nil
}

// Ingestor applies analysis results to applications.
type Ingestor struct {
	svc   *service.ApplicationService
	pools *worker.Pools
}

// NewIngestor creates the ingestor.
func NewIngestor(svc *service.ApplicationService, pools *worker.Pools) *Ingestor {
	return &Ingestor{svc: svc, pools: pools}
}

// Ingest validates the result and hands it to the analysis pool. The merge
// runs detached: the submitting request returns immediately and a client
// navigating away cannot cancel a half-applied result.
func (i *Ingestor) Ingest(ctx context.Context, result Result) error {
	if err := result.Validate(); err != nil {
		return err
	}
	// Fail fast while still on the request path.
	if _, err := i.svc.Get(ctx, result.ApplicationID); err != nil {
		return err
	}

	return i.pools.SubmitDetached("analysis", func(taskCtx context.Context) {
		i.apply(taskCtx, result)
	})
}

func (i *Ingestor) apply(ctx context.Context, result Result) {
	section := kindSections[result.Kind]

	if len(result.Fields) > 0 {
		if _, err := i.svc.UpdateSection(ctx, result.ApplicationID, section, result.Fields, domain.SystemActor); err != nil {
			logger.Error("analysis field merge failed",
				zap.String("application_id", result.ApplicationID),
				zap.String("kind", result.Kind),
				zap.Error(err),
			)
			return
		}
	}

	if result.DocumentName != "" {
		if _, err := i.svc.MarkDocumentVerified(ctx, result.ApplicationID, result.DocumentName, result.Verified); err != nil {
			logger.Error("analysis document verification failed",
				zap.String("application_id", result.ApplicationID),
				zap.String("document", result.DocumentName),
				zap.Error(err),
			)
			return
		}
	}

	if _, err := i.svc.RecordAnalysis(ctx, result.ApplicationID, domain.AnalysisDetail{
		Kind:         result.Kind,
		DocumentName: result.DocumentName,
	}); err != nil {
		logger.Error("analysis history append failed",
			zap.String("application_id", result.ApplicationID),
			zap.String("kind", result.Kind),
			zap.Error(err),
		)
		return
	}

	logger.Info("analysis result applied",
		zap.String("application_id", result.ApplicationID),
		zap.String("kind", result.Kind),
		zap.String("document", result.DocumentName),
	)
}
