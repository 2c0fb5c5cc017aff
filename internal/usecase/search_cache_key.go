package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"

	"fixitnow/internal/domain/technician"
)

const nearbyCachePrefix = "techs:nearby:"

type nearbyCacheKeyInput struct {
	Lat        string   `json:"lat"`
	Lng        string   `json:"lng"`
	RadiusKm   float64  `json:"radius_km"`
	MinRating  float64  `json:"min_rating"`
	ServiceIDs []string `json:"service_ids"`
	Premium    bool     `json:"premium"`
	Limit      int      `json:"limit"`
}

func normalizeSearchValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// NearbyCacheKey hashes a geo filter. Coordinates are rounded to about
// 100 m so neighbouring requests share an entry.
func NearbyCacheKey(f technician.GeoFilter) string {
	ids := make([]string, 0, len(f.ServiceIDs))
	for _, id := range f.ServiceIDs {
		ids = append(ids, id.String())
	}
	slices.Sort(ids)

	in := nearbyCacheKeyInput{
		Lat:        roundCoord(f.Lat),
		Lng:        roundCoord(f.Lng),
		RadiusKm:   f.RadiusKm,
		MinRating:  f.MinRating,
		ServiceIDs: ids,
		Premium:    f.PremiumOnly,
		Limit:      f.Limit,
	}

	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	return nearbyCachePrefix + hex.EncodeToString(sum[:])
}

func roundCoord(v float64) string {
	b, _ := json.Marshal(float64(int64(v*1000)) / 1000)
	return string(b)
}
