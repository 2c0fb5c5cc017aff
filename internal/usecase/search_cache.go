package usecase

import (
	"context"
	"strings"
	"time"

	"fixitnow/internal/domain/technician"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	nearbyCacheTTL  = time.Minute
	nearbyLockTTL   = 5 * time.Second
	nearbyLockWait  = 150 * time.Millisecond
	nearbyLockPolls = 3
)

// SearchCache is the cache used for geo lookups. The lock call keeps
// concurrent misses for the same key from all hitting the database.
type SearchCache interface {
	Cache
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}

// nearbyFinder runs geo lookups through a short-lived cache. Cached rows
// carry no availability; hits are overlaid with the persisted status.
type nearbyFinder struct {
	techs technician.Repository
	cache SearchCache
	log   zerolog.Logger
}

func (f nearbyFinder) find(ctx context.Context, filter technician.GeoFilter) ([]technician.Nearby, error) {
	if f.cache == nil {
		return f.techs.Nearby(ctx, filter)
	}

	key := NearbyCacheKey(filter)
	var cached []technician.Nearby
	if hit, err := f.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		f.log.Debug().Str("key", key).Msg("nearby cache hit")
		return f.withAvailability(ctx, cached)
	}

	lockKey := nearbyLockKey(key)
	locked, err := f.cache.SetIfNotExists(ctx, lockKey, "1", nearbyLockTTL)
	if err == nil && !locked {
		for i := 0; i < nearbyLockPolls; i++ {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(nearbyLockWait):
			}
			if hit, err := f.cache.GetJSON(ctx, key, &cached); err == nil && hit {
				return f.withAvailability(ctx, cached)
			}
		}
		f.log.Debug().Str("key", key).Msg("nearby lock wait fallback")
	}

	rows, err := f.techs.Nearby(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := f.cache.SetJSON(ctx, key, withoutAvailability(rows), nearbyCacheTTL); err != nil {
		f.log.Debug().Err(err).Str("key", key).Msg("nearby cache set failed")
	}
	if locked {
		_ = f.cache.Delete(ctx, lockKey)
	}
	return rows, nil
}

func (f nearbyFinder) withAvailability(ctx context.Context, rows []technician.Nearby) ([]technician.Nearby, error) {
	if len(rows) == 0 {
		return rows, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	live, err := f.techs.AvailabilityOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]technician.Nearby, len(rows))
	copy(out, rows)
	for i := range out {
		a, ok := live[out[i].ID]
		if !ok {
			a = technician.Availability{Status: technician.StatusAvailable}
		}
		out[i].AvailabilityStatus = a.Status
		out[i].NextAvailable = a.NextAvailable
	}
	return out, nil
}

func withoutAvailability(rows []technician.Nearby) []technician.Nearby {
	out := make([]technician.Nearby, len(rows))
	copy(out, rows)
	for i := range out {
		out[i].AvailabilityStatus = ""
		out[i].NextAvailable = nil
	}
	return out
}

func nearbyLockKey(searchKey string) string {
	return "techs:lock:" + strings.TrimPrefix(searchKey, nearbyCachePrefix)
}
