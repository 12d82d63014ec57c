package milvus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/graphctx/pkg/graphmodel"
)

func TestRowToChunk_ParsesLinkedNodeAndMetadata(t *testing.T) {
	id := graphmodel.NewID()
	linked := graphmodel.NewID()

	row := map[string]any{
		fieldContent:    "hello world",
		fieldLinkedNode: linked.String(),
		fieldMetadata:   `{"label":"Patient"}`,
	}

	ch, err := rowToChunk(id.String(), row)
	require.NoError(t, err)
	assert.Equal(t, id, ch.ID)
	assert.Equal(t, "hello world", ch.Content)
	require.NotNil(t, ch.LinkedNodeID)
	assert.Equal(t, linked, *ch.LinkedNodeID)
	assert.Equal(t, "Patient", ch.Metadata["label"])
}

func TestRowToChunk_NoLinkedNode(t *testing.T) {
	id := graphmodel.NewID()
	ch, err := rowToChunk(id.String(), map[string]any{fieldLinkedNode: ""})
	require.NoError(t, err)
	assert.Nil(t, ch.LinkedNodeID)
}

func TestEscapeExpr_EscapesQuotesAndBackslashes(t *testing.T) {
	assert.Equal(t, `a\"b\\c`, escapeExpr(`a"b\c`))
}
