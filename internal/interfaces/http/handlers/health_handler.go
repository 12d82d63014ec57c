package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Checker is a component that can report its own health, satisfied by any
// backend connection wrapper (Neo4j driver, pgx pool, Milvus client, Redis
// client) that exposes a ping-style call.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checkers []Checker
	version  string
	startAt  time.Time
}

// NewHealthHandler constructs a HealthHandler. checkers are consulted only
// by Readiness; Liveness never touches them.
func NewHealthHandler(version string, checkers ...Checker) *HealthHandler {
	return &HealthHandler{checkers: checkers, version: version, startAt: time.Now()}
}

type livenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

type componentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status     string                    `json:"status"`
	Components map[string]componentCheck `json:"components,omitempty"`
}

// Liveness handles GET /healthz. Always 200 while the process is up; it
// never consults backend checkers, so a dependency outage cannot take the
// process out of a Kubernetes rolling restart.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, livenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness handles GET /readyz, returning 503 if any dependency is down.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if len(h.checkers) == 0 {
		c.JSON(http.StatusOK, readinessResponse{Status: "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := h.checkAll(ctx)

	allHealthy := true
	for _, comp := range components {
		if comp.Status != "healthy" {
			allHealthy = false
			break
		}
	}

	resp := readinessResponse{Components: components}
	if allHealthy {
		resp.Status = "ready"
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Status = "not_ready"
	c.JSON(http.StatusServiceUnavailable, resp)
}

func (h *HealthHandler) checkAll(ctx context.Context) map[string]componentCheck {
	results := make(map[string]componentCheck, len(h.checkers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, checker := range h.checkers {
		wg.Add(1)
		go func(ck Checker) {
			defer wg.Done()

			start := time.Now()
			err := ck.Check(ctx)
			latency := time.Since(start)

			cc := componentCheck{Status: "healthy", Latency: latency.Truncate(time.Microsecond).String()}
			if err != nil {
				cc.Status = "unhealthy"
				cc.Error = err.Error()
			}

			mu.Lock()
			results[ck.Name()] = cc
			mu.Unlock()
		}(checker)
	}

	wg.Wait()
	return results
}
