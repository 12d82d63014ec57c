package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/graphctx/pkg/errors"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

type fakeStatsSource struct {
	stats graphmodel.GraphStats
	err   error
}

func (f *fakeStatsSource) GetStatistics(_ context.Context) (graphmodel.GraphStats, error) {
	return f.stats, f.err
}

func performStats(h *GraphHandler) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/v1/graph/stats", h.Stats)

	req := httptest.NewRequest(http.MethodGet, "/v1/graph/stats", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGraphHandler_Stats_Success(t *testing.T) {
	fake := &fakeStatsSource{stats: graphmodel.GraphStats{NodeCount: 10, EdgeCount: 20}}
	h := NewGraphHandler(fake)

	rec := performStats(h)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGraphHandler_Stats_StoreError(t *testing.T) {
	fake := &fakeStatsSource{err: errors.New(errors.CodeStoreUnavailable, "down")}
	h := NewGraphHandler(fake)

	rec := performStats(h)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
