// Package http assembles the gin router and server lifecycle wrapper that
// expose the retrieval engine over HTTP: one write-free endpoint
// (POST /v1/retrieve), the additive graph-statistics endpoint, and the
// operational surface (health probes, metrics).
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/graphctx/internal/interfaces/http/handlers"
	"github.com/turtacn/graphctx/internal/interfaces/http/middleware"
)

// RouterConfig aggregates every handler and middleware dependency needed to
// construct the complete route tree.
type RouterConfig struct {
	RetrieveHandler *handlers.RetrieveHandler
	GraphHandler    *handlers.GraphHandler
	HealthHandler   *handlers.HealthHandler

	MetricsHandler http.Handler // typically promhttp, wired from cmd/apiserver

	CORSConfig    middleware.CORSConfig
	LoggingConfig middleware.LoggingConfig

	Logger logging.Logger
}

// NewRouter constructs the complete HTTP route tree from cfg. Health probes
// are mounted outside of any request logging or CORS handling so a
// misconfigured origin policy can never make the process appear down;
// everything else runs behind Recovery -> CORS -> RequestLogging, matching
// the ambient middleware ordering used across the platform's HTTP surfaces.
func NewRouter(cfg RouterConfig) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORSConfig))
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, cfg.LoggingConfig))
	}

	v1 := r.Group("/v1")
	registerRetrievalRoutes(v1, cfg.RetrieveHandler, cfg.GraphHandler)

	return r
}

// registerRetrievalRoutes mounts the retrieval engine's wire contract under
// /v1: the one write-free retrieval endpoint plus the additive read-only
// graph-statistics endpoint.
func registerRetrievalRoutes(r *gin.RouterGroup, retrieve *handlers.RetrieveHandler, graph *handlers.GraphHandler) {
	if retrieve != nil {
		r.POST("/retrieve", retrieve.Handle)
	}
	if graph != nil {
		r.GET("/graph/stats", graph.Stats)
	}
}
