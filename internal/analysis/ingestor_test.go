package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanport.io/portal/internal/catalog"
	"loanport.io/portal/internal/domain"
	"loanport.io/portal/internal/pkg/logger"
	"loanport.io/portal/internal/pkg/worker"
	"loanport.io/portal/internal/repository"
	"loanport.io/portal/internal/service"
)

func init() {
	_ = logger.Init("error", "json")
}

func workerPools(t *testing.T) (*worker.Pools, error) {
	t.Helper()
	pools, err := worker.NewPools(context.Background(), worker.PoolConfig{
		GeneralPoolSize:  4,
		AnalysisPoolSize: 4,
	})
	if err == nil {
		t.Cleanup(pools.Shutdown)
	}
	return pools, err
}

func newIngestor(t *testing.T) (*Ingestor, *service.ApplicationService) {
	t.Helper()
	svc := service.NewApplicationService(repository.NewMemory(nil), catalog.New(nil, 0), nil, nil, 100)

	pools, err := workerPools(t)
	require.NoError(t, err)
	return NewIngestor(svc, pools), svc
}

func TestIngestValidates(t *testing.T) {
	ing, _ := newIngestor(t)
	ctx := context.Background()

	err := ing.Ingest(ctx, Result{Kind: KindCreditReport})
	require.Error(t, err)

	err = ing.Ingest(ctx, Result{ApplicationID: "app-1", Kind: "palm_reading"})
	require.Error(t, err)

	err = ing.Ingest(ctx, Result{ApplicationID: "app-missing", Kind: KindCreditReport})
	require.Error(t, err)
}

func TestIngestAppliesResult(t *testing.T) {
	ing, svc := newIngestor(t)
	ctx := context.Background()

	app, err := svc.Create(ctx, repository.CreateParams{
		UserID:      "user-1",
		LoanProgram: domain.ProgramDSCR,
	})
	require.NoError(t, err)

	_, err = svc.AttachDocument(ctx, app.ID, domain.AttachedDocument{
		Name:    "Credit Report",
		FileURL: "s3://docs/credit.pdf",
	}, "user-1")
	require.NoError(t, err)

	err = ing.Ingest(ctx, Result{
		ApplicationID: app.ID,
		Kind:          KindCreditReport,
		DocumentName:  "Credit Report",
		Fields:        map[string]interface{}{"creditScore": "720"},
		Verified:      true,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		loaded, err := svc.Get(ctx, app.ID)
		if err != nil {
			return false
		}
		last := loaded.History[len(loaded.History)-1]
		return last.Action == domain.ActionAnalysisReceived
	}, 2*time.Second, 10*time.Millisecond)

	loaded, err := svc.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(720), loaded.FinancialInfo["creditScore"])
	require.Len(t, loaded.Documents, 1)
	assert.True(t, loaded.Documents[0].Verified)
	assert.Equal(t, domain.SystemActor, loaded.History[len(loaded.History)-1].PerformedBy)
}
