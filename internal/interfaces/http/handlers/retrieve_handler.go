package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/graphctx/pkg/errors"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

// Orchestrator is the retrieval entry point the handler delegates to,
// matching *orchestrator.Orchestrator's Retrieve signature. Kept as a narrow
// interface so the handler can be tested against a fake.
type Orchestrator interface {
	Retrieve(ctx context.Context, req graphmodel.RetrievalRequest) (graphmodel.RetrievalResult, error)
}

// RetrieveHandler implements POST /v1/retrieve.
type RetrieveHandler struct {
	orchestrator Orchestrator
}

// NewRetrieveHandler constructs a RetrieveHandler.
func NewRetrieveHandler(orchestrator Orchestrator) *RetrieveHandler {
	return &RetrieveHandler{orchestrator: orchestrator}
}

// Handle decodes the request body, delegates to the orchestrator, and
// writes the response format of section 6 verbatim. Validation and default
// application both live in the orchestrator; this handler only rejects a
// body that does not even parse as JSON.
func (h *RetrieveHandler) Handle(c *gin.Context) {
	var req graphmodel.RetrievalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAppError(c, errors.InvalidRequest("malformed request body"))
		return
	}

	result, err := h.orchestrator.Retrieve(c.Request.Context(), req)
	if err != nil {
		writeAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
