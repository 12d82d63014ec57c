package levenshtein_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/graphctx/internal/retrieval/levenshtein"
)

func TestDistance(t *testing.T) {
	assert.Equal(t, 0, levenshtein.Distance("kitten", "kitten"))
	assert.Equal(t, 3, levenshtein.Distance("kitten", "sitting"))
	assert.Equal(t, 2, levenshtein.Distance("flaw", "lawn"))
	assert.Equal(t, 4, levenshtein.Distance("", "abcd"))
}

func TestFuzzyEquals_ShortStringsRequireExactMatch(t *testing.T) {
	assert.True(t, levenshtein.FuzzyEquals("Low", "Low", 2))
	assert.False(t, levenshtein.FuzzyEquals("Low", "Lew", 2))
	assert.False(t, levenshtein.FuzzyEquals("RA", "RA2", 2))
}

func TestFuzzyEquals_LongerStringsToleratesDistance(t *testing.T) {
	assert.True(t, levenshtein.FuzzyEquals("Diabetes", "Diabettes", 2))
	assert.True(t, levenshtein.FuzzyEquals("Hypertension", "hypertensoin", 2))
	assert.False(t, levenshtein.FuzzyEquals("Hypertension", "Hyperglycemia", 2))
}

func TestFuzzyEquals_CaseInsensitive(t *testing.T) {
	assert.True(t, levenshtein.FuzzyEquals("Diabetes", "DIABETES", 2))
}
