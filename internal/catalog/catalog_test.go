package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanport.io/portal/internal/domain"
	apperrors "loanport.io/portal/internal/pkg/errors"
	"loanport.io/portal/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

func setupCatalog(t *testing.T) (*Catalog, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, time.Minute), mr
}

func TestRequiredDocuments(t *testing.T) {
	c, _ := setupCatalog(t)

	docs, err := c.RequiredDocuments(context.Background(), domain.ProgramDSCR)
	require.NoError(t, err)
	assert.Contains(t, docs.Borrower, "Credit Report")
	assert.Contains(t, docs.SubjectProperty, "Appraisal Report")
}

func TestRequiredDocumentsCaches(t *testing.T) {
	c, mr := setupCatalog(t)
	ctx := context.Background()

	_, err := c.RequiredDocuments(ctx, domain.ProgramConstruction)
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+domain.ProgramConstruction))

	// Second lookup is served from the cache.
	docs, err := c.RequiredDocuments(ctx, domain.ProgramConstruction)
	require.NoError(t, err)
	assert.NotEmpty(t, docs.Company)

	require.NoError(t, c.Invalidate(ctx, domain.ProgramConstruction))
	assert.False(t, mr.Exists(keyPrefix+domain.ProgramConstruction))
}

func TestRequiredDocumentsUnknownProgram(t *testing.T) {
	c, _ := setupCatalog(t)

	_, err := c.RequiredDocuments(context.Background(), "jumbo")
	require.Error(t, err)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeUnknownProgram, appErr.Code)
}

func TestRequiredDocumentsSurvivesRedisOutage(t *testing.T) {
	c, mr := setupCatalog(t)
	mr.Close()

	docs, err := c.RequiredDocuments(context.Background(), domain.ProgramFixAndFlip)
	require.NoError(t, err)
	assert.NotEmpty(t, docs.Borrower)
}

func TestRequiredDocumentsNilClient(t *testing.T) {
	c := New(nil, 0)

	docs, err := c.RequiredDocuments(context.Background(), domain.ProgramDSCR)
	require.NoError(t, err)
	assert.NotEmpty(t, docs.SubjectProperty)
	assert.NoError(t, c.Invalidate(context.Background(), domain.ProgramDSCR))
}
