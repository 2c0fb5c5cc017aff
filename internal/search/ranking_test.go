package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIScore(t *testing.T) {
	assert.InDelta(t, 3.4, AIScore(Candidate{Rating: 5, DistanceKm: 0}), 1e-9)
	assert.InDelta(t, 3.0, AIScore(Candidate{Rating: 5, DistanceKm: 5}), 1e-9)
	assert.InDelta(t, 2.0, AIScore(Candidate{Rating: 4, DistanceKm: 10}), 1e-9)
}

func TestRank_AIScoreOrdering(t *testing.T) {
	in := []Candidate{
		{Rating: 3, DistanceKm: 1},
		{Rating: 5, DistanceKm: 4},
		{Rating: 4.5, DistanceKm: 0.5},
	}

	out := Rank(in, AIScore, 2)
	require.Len(t, out, 2)
	assert.Equal(t, 5.0, out[0].Item.Rating)
	assert.Equal(t, 4.5, out[1].Item.Rating)
	assert.GreaterOrEqual(t, out[0].Score, out[1].Score)
}

func TestRecommendationScore(t *testing.T) {
	near := Candidate{Rating: 3, DistanceKm: 1}
	farEco := Candidate{Rating: 4, DistanceKm: 2, EcoFriendly: true}
	assert.InDelta(t, 5.0, RecommendationScore(near), 1e-9)
	assert.InDelta(t, 6.5, RecommendationScore(farEco), 1e-9)
}

func TestEstimateCost(t *testing.T) {
	assert.Equal(t, 449.0, EstimateCost("Plumbing", 5, nil))
	assert.Equal(t, 299.0, EstimateCost("roofing", 0, nil))
	assert.Equal(t, 299.0, EstimateCost("general", -3, nil))
	// upper median of 300, 500, 700, 900 is 700
	assert.Equal(t, 720.0, EstimateCost("plumbing", 2, []float64{900, 300, 0, 700, 500}))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
}
