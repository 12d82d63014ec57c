package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/graphctx/pkg/errors"
)

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"not found", errors.CodeNotFound, "node not found"},
		{"invalid request", errors.CodeInvalidRequest, "query must not be blank"},
		{"cancelled", errors.CodeCancelled, "request timed out"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ae := errors.New(tc.code, tc.message)
			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
		})
	}
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()
	require.Nil(t, errors.Wrap(nil, errors.CodeInternal, "wrapped"))
}

func TestWrap_PreservesOriginalCodeWhenUnknown(t *testing.T) {
	t.Parallel()
	inner := errors.New(errors.CodeStoreUnavailable, "neo4j down")
	wrapped := errors.Wrap(inner, errors.CodeUnknown, "resolver failed")
	require.NotNil(t, wrapped)
	assert.Equal(t, errors.CodeStoreUnavailable, wrapped.Code)
	assert.Equal(t, inner, wrapped.Cause)
}

func TestIsCode_TraversesChain(t *testing.T) {
	t.Parallel()
	inner := errors.New(errors.CodeEmbedderUnavailable, "openai timeout")
	wrapped := errors.Wrap(inner, errors.CodeInternal, "embed failed")
	assert.True(t, errors.IsCode(wrapped, errors.CodeInternal))
	assert.True(t, errors.IsCode(wrapped, errors.CodeEmbedderUnavailable))
	assert.False(t, errors.IsCode(wrapped, errors.CodeNotFound))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()
	assert.True(t, errors.IsNotFound(errors.NotFound("node missing")))
	assert.False(t, errors.IsNotFound(errors.Internal("boom")))
}

func TestGetCode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(errors.NotFound("x")))
}

func TestErrorString_IncludesDetail(t *testing.T) {
	t.Parallel()
	ae := errors.New(errors.CodeInvalidRequest, "bad input").WithDetail("field=topK")
	assert.Contains(t, ae.Error(), "bad input")
	assert.Contains(t, ae.Error(), "field=topK")
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 400, errors.CodeInvalidRequest.HTTPStatus())
	assert.Equal(t, 404, errors.CodeNotFound.HTTPStatus())
	assert.Equal(t, 503, errors.CodeStoreUnavailable.HTTPStatus())
	assert.Equal(t, 500, errors.CodeInternal.HTTPStatus())
}
