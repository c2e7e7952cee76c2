// Package infrastructure provides database and connection pool setup.
//
// One shared pgxpool serves the repository, the notification inbox, and
// River, so a business write and its job insert can share a transaction.
package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"go.uber.org/zap"

	"loanport.io/portal/internal/config"
	"loanport.io/portal/internal/pkg/logger"
	"loanport.io/portal/internal/repository"
)

// DatabaseClients contains all storage clients. Everything Postgres-side
// shares the single pgxpool.
type DatabaseClients struct {
	// Pool is the shared connection pool.
	Pool *pgxpool.Pool

	// RiverClient is the River job queue client backed by the shared pool.
	RiverClient *river.Client[pgx.Tx]

	// Redis is the optional catalog cache client; nil when disabled.
	Redis *redis.Client
}

// NewDatabaseClients creates storage clients over a shared connection pool.
func NewDatabaseClients(ctx context.Context, cfg config.DatabaseConfig, redisCfg config.RedisConfig) (*DatabaseClients, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = time.Minute

	// Set UTC timezone on each new connection; history timestamps rely on it.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET timezone = 'UTC'")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("Database connection pool created",
		zap.Int32("max_conns", cfg.MaxConns),
		zap.Int32("min_conns", cfg.MinConns),
	)

	var redisClient *redis.Client
	if redisCfg.Address != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:         redisCfg.Address,
			Password:     redisCfg.Password,
			DB:           redisCfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			// The catalog degrades to static definitions without Redis, so a
			// dead cache is a warning, not a startup failure.
			logger.Warn("Redis unreachable, catalog cache disabled",
				zap.String("address", redisCfg.Address),
				zap.Error(err),
			)
			_ = redisClient.Close()
			redisClient = nil
		}
	}

	return &DatabaseClients{
		Pool:  pool,
		Redis: redisClient,
	}, nil
}

// AutoMigrate applies the portal schema and the River queue tables.
func (c *DatabaseClients) AutoMigrate(ctx context.Context) error {
	logger.Info("Running schema migration...")
	if err := repository.Migrate(ctx, c.Pool); err != nil {
		return fmt.Errorf("portal schema migrate: %w", err)
	}
	logger.Info("Schema migration completed")

	logger.Info("Running River migration...")
	migrator, err := rivermigrate.New(riverpgxv5.New(c.Pool), nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return fmt.Errorf("river migrate up: %w", err)
	}
	if len(res.Versions) > 0 {
		logger.Info("River migration completed",
			zap.Int("versions_applied", len(res.Versions)),
		)
	} else {
		logger.Info("River migration: already up-to-date")
	}

	return nil
}

// InitRiverClient creates a River client with registered workers.
// Called after NewDatabaseClients; workers come from bootstrap.
func (c *DatabaseClients) InitRiverClient(workers *river.Workers, cfg config.RiverConfig) error {
	riverClient, err := river.NewClient(riverpgxv5.New(c.Pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.MaxWorkers},
			"checklist":        {MaxWorkers: cfg.MaxWorkers},
		},
		Workers:                     workers,
		CompletedJobRetentionPeriod: cfg.CompletedJobRetentionPeriod,
	})
	if err != nil {
		return fmt.Errorf("create river client: %w", err)
	}
	c.RiverClient = riverClient
	logger.Info("River client initialized", zap.Int("max_workers", cfg.MaxWorkers))
	return nil
}

// Close closes all connections gracefully.
func (c *DatabaseClients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
