package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/graphctx/pkg/errors"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

type fakeOrchestrator struct {
	result graphmodel.RetrievalResult
	err    error
	got    graphmodel.RetrievalRequest
}

func (f *fakeOrchestrator) Retrieve(_ context.Context, req graphmodel.RetrievalRequest) (graphmodel.RetrievalResult, error) {
	f.got = req
	return f.result, f.err
}

func performRetrieve(h *RetrieveHandler, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/retrieve", h.Handle)

	req := httptest.NewRequest(http.MethodPost, "/v1/retrieve", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRetrieveHandler_Handle_Success(t *testing.T) {
	fake := &fakeOrchestrator{result: graphmodel.RetrievalResult{Strategy: graphmodel.StrategyVectorOnly}}
	h := NewRetrieveHandler(fake)

	rec := performRetrieve(h, `{"query":"diabetes","topK":10,"maxGraphNodes":100,"maxTokenBudget":4000}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "diabetes", fake.got.Query)
}

func TestRetrieveHandler_Handle_MalformedBody(t *testing.T) {
	h := NewRetrieveHandler(&fakeOrchestrator{})
	rec := performRetrieve(h, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetrieveHandler_Handle_OrchestratorError(t *testing.T) {
	fake := &fakeOrchestrator{err: errors.New(errors.CodeStoreUnavailable, "backend down")}
	h := NewRetrieveHandler(fake)

	rec := performRetrieve(h, `{"query":"diabetes"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
