package app

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"loanport.io/portal/internal/api/handlers"
	"loanport.io/portal/internal/api/middleware"
	"loanport.io/portal/internal/config"
)

// Public routes that do NOT require JWT authentication. Analysis results
// arrive from the internal extraction pipeline, which authenticates at the
// network layer rather than with user tokens.
var publicPrefixes = []string{
	"/api/v1/health/",
	"/api/v1/analysis/",
}

func newRouter(cfg *config.Config, server *handlers.Server, signingKey []byte) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorHandler())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(jwtSkipPublic(signingKey))

	registerRoutes(router, server)
	return router
}

// registerRoutes wires every endpoint explicitly; there is no generated
// registration layer.
func registerRoutes(router *gin.Engine, s *handlers.Server) {
	v1 := router.Group("/api/v1")

	v1.GET("/health/live", s.GetLiveness)
	v1.GET("/health/ready", s.GetReadiness)

	apps := v1.Group("/applications")
	{
		apps.POST("", s.CreateApplication)
		apps.GET("", s.ListApplications)
		apps.GET("/:id", s.GetApplication)
		apps.PATCH("/:id/field", s.UpdateField)
		apps.PATCH("/:id/sections/:section", s.UpdateSection)
		apps.PUT("/:id/notes", s.UpdateNotes)
		apps.POST("/:id/submit", s.SubmitApplication)
		apps.POST("/:id/assign", s.AssignApplication)
		apps.POST("/:id/transition", s.TransitionApplication)
		apps.GET("/:id/history", s.GetHistory)
		apps.GET("/:id/checklist", s.GetChecklist)
		apps.POST("/:id/documents", s.AttachDocument)
		apps.DELETE("/:id/documents/:name", s.RemoveDocument)
		apps.POST("/:id/documents/:name/verify", s.VerifyDocument)
	}

	v1.POST("/analysis/results", s.IngestAnalysisResult)

	v1.GET("/notifications", s.ListNotifications)
	v1.POST("/notifications/:id/read", s.MarkNotificationRead)

	v1.GET("/system/workers", s.GetWorkerMetrics)
	v1.PUT("/system/log-level", s.SetLogLevel)
}

// jwtSkipPublic returns middleware that applies JWT auth only on non-public
// routes.
func jwtSkipPublic(signingKey []byte) gin.HandlerFunc {
	jwtMw := middleware.JWTAuth(signingKey)
	return func(c *gin.Context) {
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}
		jwtMw(c)
	}
}
