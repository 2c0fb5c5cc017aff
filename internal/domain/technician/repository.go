package technician

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("technician not found")
	ErrAlreadyExists = errors.New("technician profile already exists")
)

type Repository interface {
	Create(ctx context.Context, t Technician, serviceIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (Technician, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (Technician, error)
	// Nearby returns approved technicians within the filter radius with the
	// distance to the query point in kilometres, closest first.
	Nearby(ctx context.Context, f GeoFilter) ([]Nearby, error)
	List(ctx context.Context, f ListFilter) ([]Technician, int, error)
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error
	SetPremium(ctx context.Context, id uuid.UUID, premium bool) error
	SetAvailability(ctx context.Context, id uuid.UUID, status AvailabilityStatus, nextAvailable *time.Time) error
	// AvailabilityOf reads the persisted availability of each id. Unknown
	// ids are absent from the result.
	AvailabilityOf(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Availability, error)
	ReleaseExpired(ctx context.Context, now time.Time) (int64, error)
	UpdateRating(ctx context.Context, id uuid.UUID, rating float64, count int) error
	// FoldRating adds one rating to the running average in a single
	// statement.
	FoldRating(ctx context.Context, id uuid.UUID, rating int) error
	CountApproved(ctx context.Context) (int, error)
	AverageRating(ctx context.Context) (float64, error)
}

type Availability struct {
	Status        AvailabilityStatus
	NextAvailable *time.Time
}

type Nearby struct {
	Technician
	DistanceKm float64 `json:"distanceKm"`
}
