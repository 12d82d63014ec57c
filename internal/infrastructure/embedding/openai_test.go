package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsEmptyAPIKey(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestModelDimensions(t *testing.T) {
	assert.Equal(t, 3072, modelDimensions("text-embedding-3-large"))
	assert.Equal(t, 1536, modelDimensions("text-embedding-3-small"))
	assert.Equal(t, 1536, modelDimensions("text-embedding-ada-002"))
	assert.Equal(t, 1536, modelDimensions("some-unknown-model"))
}

func TestFloat64ToFloat32(t *testing.T) {
	out := float64ToFloat32([]float64{1.5, 2.5})
	assert.Equal(t, []float32{1.5, 2.5}, out)
}
