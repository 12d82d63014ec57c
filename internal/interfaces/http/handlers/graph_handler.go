package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/graphctx/pkg/graphmodel"
)

// StatsSource is the narrow slice of store.GraphStore the stats endpoint
// needs. Satisfied by any concrete GraphStore backend.
type StatsSource interface {
	GetStatistics(ctx context.Context) (graphmodel.GraphStats, error)
}

// GraphHandler serves read-only, administrative graph endpoints. It is
// additive to the wire contract (see the graph statistics endpoint) and
// never caches, since callers use it for operational visibility rather than
// hot-path retrieval.
type GraphHandler struct {
	store StatsSource
}

// NewGraphHandler constructs a GraphHandler.
func NewGraphHandler(store StatsSource) *GraphHandler {
	return &GraphHandler{store: store}
}

// Stats handles GET /v1/graph/stats.
func (h *GraphHandler) Stats(c *gin.Context) {
	stats, err := h.store.GetStatistics(c.Request.Context())
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
