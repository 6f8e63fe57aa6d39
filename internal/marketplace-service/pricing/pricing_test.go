package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggest_EmptyReturnsZero(t *testing.T) {
	s := Suggest(nil)

	assert.Equal(t, 0, s.Samples)
	assert.Equal(t, int64(0), s.SuggestedLamports)
}

func TestSuggest_SingleSampleHasNoDeviation(t *testing.T) {
	s := Suggest([]int64{5_000_000_000})

	assert.Equal(t, 1, s.Samples)
	assert.Equal(t, int64(5_000_000_000), s.SuggestedLamports)
	assert.Equal(t, int64(0), s.StdDevLamports)
}

func TestSuggest_MeanOfRecentSales(t *testing.T) {
	s := Suggest([]int64{1_000_000_000, 2_000_000_000, 3_000_000_000})

	assert.Equal(t, 3, s.Samples)
	assert.Equal(t, int64(2_000_000_000), s.MeanLamports)
	assert.Equal(t, int64(2_000_000_000), s.SuggestedLamports)
	assert.Equal(t, int64(1_000_000_000), s.StdDevLamports)
}
