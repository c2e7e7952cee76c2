// Package catalog resolves per-program document requirements. The static
// program definitions are the source of truth; Redis fronts them with a TTL
// cache so checklist computation stays cheap when the portal later loads
// catalogs from an external product service.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"loanport.io/portal/internal/domain"
	apperrors "loanport.io/portal/internal/pkg/errors"
	"loanport.io/portal/internal/pkg/logger"
)

const keyPrefix = "catalog:requireddocs:"

// Catalog serves required-document lookups by loan program.
type Catalog struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a catalog. A nil client disables caching and serves the static
// definitions directly.
func New(client *redis.Client, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Catalog{client: client, ttl: ttl}
}

// RequiredDocuments returns the document requirements for a loan program.
// Cache failures fall back to the static definitions; a broken Redis must
// never block checklist computation.
func (c *Catalog) RequiredDocuments(ctx context.Context, program string) (domain.RequiredDocuments, error) {
	if c.client != nil {
		cached, err := c.client.Get(ctx, keyPrefix+program).Result()
		switch {
		case err == nil:
			var docs domain.RequiredDocuments
			if err := json.Unmarshal([]byte(cached), &docs); err == nil {
				return docs, nil
			}
			logger.Warn("corrupt catalog cache entry, refetching", zap.String("program", program))
		case err != redis.Nil:
			logger.Warn("catalog cache read failed", zap.String("program", program), zap.Error(err))
		}
	}

	spec, ok := domain.ProgramByName(program)
	if !ok {
		return domain.RequiredDocuments{}, apperrors.BadRequest(apperrors.CodeUnknownProgram,
			fmt.Sprintf("unknown loan program %q", program))
	}

	if c.client != nil {
		raw, err := json.Marshal(spec.Documents)
		if err == nil {
			if err := c.client.Set(ctx, keyPrefix+program, raw, c.ttl).Err(); err != nil {
				logger.Warn("catalog cache write failed", zap.String("program", program), zap.Error(err))
			}
		}
	}
	return spec.Documents, nil
}

// Invalidate drops a program's cached requirements.
func (c *Catalog) Invalidate(ctx context.Context, program string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, keyPrefix+program).Err()
}
