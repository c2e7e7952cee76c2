// Package handlers implements the portal's HTTP API. Handlers bind and
// validate input, delegate to services, and push failures to the centralized
// error-handler middleware via c.Error().
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"loanport.io/portal/internal/analysis"
	"loanport.io/portal/internal/api/middleware"
	"loanport.io/portal/internal/notification"
	"loanport.io/portal/internal/pkg/worker"
	"loanport.io/portal/internal/service"
)

// Server holds all API handlers.
type Server struct {
	apps     *service.ApplicationService
	inbox    *notification.InboxSender
	ingestor *analysis.Ingestor
	pools    *worker.Pools
	pool     *pgxpool.Pool
	jwtCfg   middleware.JWTConfig
}

// ServerDeps holds all dependencies for creating a Server. Manual DI, no
// wire framework.
type ServerDeps struct {
	Apps     *service.ApplicationService
	Inbox    *notification.InboxSender
	Ingestor *analysis.Ingestor
	Pools    *worker.Pools
	Pool     *pgxpool.Pool
	JWTCfg   middleware.JWTConfig
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		apps:     deps.Apps,
		inbox:    deps.Inbox,
		ingestor: deps.Ingestor,
		pools:    deps.Pools,
		pool:     deps.Pool,
		jwtCfg:   deps.JWTCfg,
	}
}

// actorFromCtx extracts the authenticated principal id from the request
// context. The JWT middleware guarantees it is set on protected routes.
func actorFromCtx(c *gin.Context) string {
	return middleware.GetActorID(c.Request.Context())
}
