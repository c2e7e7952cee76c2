// Package app is the composition root: manual dependency wiring, no DI
// framework. Bootstrap stays orchestration-only.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/riverqueue/river"

	"loanport.io/portal/internal/analysis"
	"loanport.io/portal/internal/api/handlers"
	"loanport.io/portal/internal/api/middleware"
	"loanport.io/portal/internal/catalog"
	"loanport.io/portal/internal/config"
	"loanport.io/portal/internal/infrastructure"
	"loanport.io/portal/internal/jobs"
	"loanport.io/portal/internal/notification"
	"loanport.io/portal/internal/pkg/worker"
	"loanport.io/portal/internal/repository"
	"loanport.io/portal/internal/service"
)

// Application holds composed application dependencies.
type Application struct {
	Config *config.Config
	Router *gin.Engine
	DB     *infrastructure.DatabaseClients
	Pools  *worker.Pools
}

// Bootstrap initializes all dependencies.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("init database clients: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}

	pools, err := worker.NewPools(ctx, worker.PoolConfig{
		GeneralPoolSize:  cfg.Worker.GeneralPoolSize,
		AnalysisPoolSize: cfg.Worker.AnalysisPoolSize,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init worker pools: %w", err)
	}

	repo := repository.NewPostgres(db.Pool)
	cat := catalog.New(db.Redis, cfg.Redis.TTL)
	inbox := notification.NewInboxSender(db.Pool)
	triggers := notification.NewTriggers(inbox)

	workers := river.NewWorkers()
	river.AddWorker(workers, jobs.NewChecklistSyncWorker(repo, cat, triggers))
	river.AddWorker(workers, jobs.NewNotificationCleanupWorker(inbox, cfg.Loan.NotificationRetention))
	if err := db.InitRiverClient(workers, cfg.River); err != nil {
		pools.Shutdown()
		db.Close()
		return nil, fmt.Errorf("init river workers: %w", err)
	}

	// Inbox retention: run daily and once on startup.
	db.RiverClient.PeriodicJobs().Add(
		river.NewPeriodicJob(
			river.PeriodicInterval(24*time.Hour),
			func() (river.JobArgs, *river.InsertOpts) {
				return jobs.NotificationCleanupArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	)

	apps := service.NewApplicationService(repo, cat, triggers,
		jobs.NewEnqueuer(db.RiverClient), cfg.Loan.MinSubmitProgress)
	ingestor := analysis.NewIngestor(apps, pools)

	jwtCfg := middleware.JWTConfig{
		SigningKey: []byte(cfg.Security.JWTSigningKey),
		Issuer:     "loanport",
		ExpiresIn:  cfg.Security.TokenLifetime,
	}

	server := handlers.NewServer(handlers.ServerDeps{
		Apps:     apps,
		Inbox:    inbox,
		Ingestor: ingestor,
		Pools:    pools,
		Pool:     db.Pool,
		JWTCfg:   jwtCfg,
	})

	return &Application{
		Config: cfg,
		Router: newRouter(cfg, server, jwtCfg.SigningKey),
		DB:     db,
		Pools:  pools,
	}, nil
}
