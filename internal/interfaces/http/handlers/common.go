// Package handlers implements the HTTP handlers for the retrieval API:
// request decoding, delegation into the retrieval core, and response
// shaping. No retrieval logic lives here.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/graphctx/pkg/errors"
)

// errorResponse is the standard error response body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeAppError maps an application error to its HTTP status and writes the
// standard error body. Errors outside the *errors.AppError taxonomy are
// treated as internal and their detail is never echoed to the caller.
func writeAppError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := code.HTTPStatus()

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}

	c.JSON(status, errorResponse{
		Code:    code.String(),
		Message: msg,
	})
}
