package usecase

import (
	"context"
	"strings"

	"fixitnow/internal/domain/job"
	"fixitnow/internal/domain/technician"
	"fixitnow/internal/pkg/geo"
	"fixitnow/internal/search"

	"github.com/rs/zerolog"
)

const (
	recommendationRadiusKm     = 30
	DefaultRecommendationLimit = 8
	maxRecommendationLimit     = 50
	recommendationOverFetch    = 3
	costHistorySize            = 50
	DefaultEstimateDistanceKm  = 5
)

type Recommendation struct {
	technician.Technician
	DistanceKm float64 `json:"dist"`
	Score      float64 `json:"score"`
}

type CostEstimate struct {
	ServiceType string  `json:"serviceType"`
	DistanceKm  float64 `json:"distanceKm"`
	Estimate    float64 `json:"estimate"`
}

type AIUsecase interface {
	Recommendations(ctx context.Context, lat, lng float64, problem string, limit int) ([]Recommendation, error)
	EstimateCost(ctx context.Context, serviceType string, distanceKm *float64) (CostEstimate, error)
}

type AI struct {
	techs technician.Repository
	jobs  job.Repository
	log   zerolog.Logger
}

func NewAIUsecase(techs technician.Repository, jobs job.Repository, log zerolog.Logger) *AI {
	return &AI{techs: techs, jobs: jobs, log: log.With().Str("component", "ai").Logger()}
}

// Recommendations ranks technicians within 30 km whose services mention
// the problem. Closeness dominates; each rating star is worth 2 km.
func (u *AI) Recommendations(ctx context.Context, lat, lng float64, problem string, limit int) ([]Recommendation, error) {
	if !geo.ValidLat(lat) || !geo.ValidLng(lng) {
		return nil, ErrCoordinatesRequired
	}
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}
	if limit > maxRecommendationLimit {
		limit = maxRecommendationLimit
	}

	rows, err := u.techs.Nearby(ctx, technician.GeoFilter{
		Lat:      lat,
		Lng:      lng,
		RadiusKm: recommendationRadiusKm,
		Limit:    searchCandidateLimit,
	})
	if err != nil {
		u.log.Error().Err(err).Msg("recommendation candidates")
		return nil, ErrInternal
	}

	var variants []string
	if needle := strings.ToLower(strings.TrimSpace(problem)); needle != "" {
		variants = []string{needle}
	}
	matched := make([]technician.Nearby, 0, len(rows))
	for _, r := range rows {
		if search.MatchesServices(r.ServiceNames(), variants) {
			matched = append(matched, r)
		}
		if len(matched) == limit*recommendationOverFetch {
			break
		}
	}

	ranked := search.Rank(matched, func(n technician.Nearby) float64 {
		return search.RecommendationScore(search.Candidate{
			Rating:      n.Rating,
			DistanceKm:  n.DistanceKm,
			EcoFriendly: n.EcoFriendly,
		})
	}, limit)

	out := make([]Recommendation, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, Recommendation{Technician: r.Item.Technician, DistanceKm: r.Item.DistanceKm, Score: r.Score})
	}
	return out, nil
}

// EstimateCost never fails on missing history; it falls back to the base
// price table.
func (u *AI) EstimateCost(ctx context.Context, serviceType string, distanceKm *float64) (CostEstimate, error) {
	serviceType = strings.TrimSpace(serviceType)
	if serviceType == "" {
		serviceType = "general"
	}
	dist := float64(DefaultEstimateDistanceKm)
	if distanceKm != nil {
		dist = *distanceKm
	}

	prices, err := u.jobs.RecentPrices(ctx, serviceType, costHistorySize)
	if err != nil {
		u.log.Warn().Err(err).Str("service_type", serviceType).Msg("price history unavailable")
		prices = nil
	}

	return CostEstimate{
		ServiceType: serviceType,
		DistanceKm:  dist,
		Estimate:    search.EstimateCost(serviceType, dist, prices),
	}, nil
}
