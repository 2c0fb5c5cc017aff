package search

import (
	"math"
	"sort"
	"strings"
)

// Candidate is the part of a technician the scores read.
type Candidate struct {
	Rating      float64
	DistanceKm  float64
	EcoFriendly bool
}

// AIScore favours rating and closeness within a 5 km neighbourhood.
// Technicians farther than 5 km get a negative distance term.
func AIScore(c Candidate) float64 {
	return c.Rating*0.6 + ((5-c.DistanceKm)/5)*0.4
}

// RecommendationScore trades one kilometre of distance for half a star.
func RecommendationScore(c Candidate) float64 {
	score := -c.DistanceKm + c.Rating*2
	if c.EcoFriendly {
		score += 0.5
	}
	return score
}

type Scored[T any] struct {
	Item  T
	Score float64
}

// Rank scores items, sorts them best first and keeps at most limit.
// Ties keep input order. limit <= 0 keeps all.
func Rank[T any](items []T, score func(T) float64, limit int) []Scored[T] {
	out := make([]Scored[T], 0, len(items))
	for _, it := range items {
		out = append(out, Scored[T]{Item: it, Score: score(it)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

var BasePrices = map[string]float64{
	"plumbing":    399,
	"electrician": 349,
	"carpenter":   379,
	"ac":          499,
	"general":     299,
}

const travelRatePerKm = 10

// Median returns the upper median of the positive values, or 0.
func Median(values []float64) float64 {
	pos := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			pos = append(pos, v)
		}
	}
	if len(pos) == 0 {
		return 0
	}
	sort.Float64s(pos)
	return pos[len(pos)/2]
}

// EstimateCost prices a visit from recent bookings of the same service,
// falling back to the base price, plus a per-km travel charge.
func EstimateCost(serviceType string, distanceKm float64, recentPrices []float64) float64 {
	base, ok := BasePrices[strings.ToLower(strings.TrimSpace(serviceType))]
	if !ok {
		base = BasePrices["general"]
	}
	if hist := Median(recentPrices); hist > 0 {
		base = hist
	}
	return math.Round(base + math.Max(0, distanceKm)*travelRatePerKm)
}
