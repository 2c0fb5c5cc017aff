package usecase

import (
	"context"
	"errors"
	"time"

	"fixitnow/internal/domain/technician"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	BookingHold          = 30 * time.Minute
	AcceptHold           = 2 * time.Hour
	DefaultFreezeMinutes = 180
)

func busyKey(techID uuid.UUID) string {
	return "tech:" + techID.String() + ":busy"
}

// Availability coordinates technician busy holds. Redis carries the hold
// with its TTL; the technician row mirrors it so a redis outage falls back
// to the persisted status.
type Availability struct {
	techs technician.Repository
	locks LockStore
	log   zerolog.Logger
	now   func() time.Time
}

func NewAvailability(techs technician.Repository, locks LockStore, log zerolog.Logger) *Availability {
	return &Availability{
		techs: techs,
		locks: locks,
		log:   log.With().Str("component", "availability").Logger(),
		now:   time.Now,
	}
}

func (a *Availability) IsBusy(ctx context.Context, t technician.Technician) bool {
	if a.locks != nil {
		held, err := a.locks.Exists(ctx, busyKey(t.ID))
		if err == nil && held {
			return true
		}
	}
	return t.BusyAt(a.now())
}

// Acquire takes the hold only if no other hold exists. It reports false
// when another booking won the race.
func (a *Availability) Acquire(ctx context.Context, techID uuid.UUID, ttl time.Duration) (bool, error) {
	if a.locks != nil {
		ok, err := a.locks.SetIfNotExists(ctx, busyKey(techID), "busy", ttl)
		switch {
		case err == nil && !ok:
			return false, nil
		case err != nil:
			a.log.Debug().Err(err).Str("tech_id", techID.String()).Msg("busy lock unavailable, using persisted status")
		}
	}
	return true, a.persistBusy(ctx, techID, ttl)
}

// Hold sets or extends the hold unconditionally. ttl <= 0 holds until
// Release.
func (a *Availability) Hold(ctx context.Context, techID uuid.UUID, ttl time.Duration) error {
	if a.locks != nil {
		lockTTL := ttl
		if lockTTL < 0 {
			lockTTL = 0
		}
		if err := a.locks.Set(ctx, busyKey(techID), "busy", lockTTL); err != nil {
			a.log.Debug().Err(err).Str("tech_id", techID.String()).Msg("busy lock unavailable, using persisted status")
		}
	}
	return a.persistBusy(ctx, techID, ttl)
}

func (a *Availability) Release(ctx context.Context, techID uuid.UUID) error {
	if a.locks != nil {
		if err := a.locks.Delete(ctx, busyKey(techID)); err != nil {
			a.log.Warn().Err(err).Str("tech_id", techID.String()).Msg("release busy lock")
		}
	}
	err := a.techs.SetAvailability(ctx, techID, technician.StatusAvailable, nil)
	if errors.Is(err, technician.ErrNotFound) {
		return nil
	}
	return err
}

// Sweep frees technicians whose persisted hold has lapsed.
func (a *Availability) Sweep(ctx context.Context) (int64, error) {
	n, err := a.techs.ReleaseExpired(ctx, a.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		a.log.Info().Int64("released", n).Msg("availability sweep")
	}
	return n, nil
}

func (a *Availability) persistBusy(ctx context.Context, techID uuid.UUID, ttl time.Duration) error {
	var until *time.Time
	if ttl > 0 {
		t := a.now().UTC().Add(ttl)
		until = &t
	}
	return a.techs.SetAvailability(ctx, techID, technician.StatusBusy, until)
}
