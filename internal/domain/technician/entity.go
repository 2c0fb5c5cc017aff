package technician

import (
	"time"

	"github.com/google/uuid"
)

type AvailabilityStatus string

const (
	StatusAvailable AvailabilityStatus = "available"
	StatusBusy      AvailabilityStatus = "busy"
)

type Service struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Technician struct {
	ID                 uuid.UUID          `json:"id"`
	UserID             uuid.UUID          `json:"userId"`
	Name               string             `json:"name"`
	Email              string             `json:"email,omitempty"`
	Phone              string             `json:"phone,omitempty"`
	Services           []Service          `json:"services"`
	Lat                float64            `json:"lat"`
	Lng                float64            `json:"lng"`
	AvailabilityStatus AvailabilityStatus `json:"availabilityStatus"`
	NextAvailable      *time.Time         `json:"nextAvailable,omitempty"`
	Rating             float64            `json:"rating"`
	ReviewsCount       int                `json:"reviewsCount"`
	Premium            bool               `json:"premium"`
	Approved           bool               `json:"approved"`
	EcoFriendly        bool               `json:"ecoFriendly"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// BusyAt reports whether the persisted availability blocks new bookings at
// now. A busy status without a next_available is an indefinite hold.
func (t Technician) BusyAt(now time.Time) bool {
	if t.AvailabilityStatus != StatusBusy {
		return false
	}
	if t.NextAvailable == nil {
		return true
	}
	return t.NextAvailable.After(now)
}

// IncrementalRating folds one new rating into a running average.
func IncrementalRating(current float64, count int, newRating float64) (float64, int) {
	if count < 0 {
		count = 0
	}
	next := (current*float64(count) + newRating) / float64(count+1)
	return clampRating(next), count + 1
}

func clampRating(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 5 {
		return 5
	}
	return r
}

func (t Technician) ServiceNames() []string {
	out := make([]string, 0, len(t.Services))
	for _, s := range t.Services {
		out = append(out, s.Name)
	}
	return out
}

// GeoFilter selects approved technicians around a point. Zero values disable
// the optional filters.
type GeoFilter struct {
	Lat         float64
	Lng         float64
	RadiusKm    float64
	MinRating   float64
	ServiceIDs  []uuid.UUID
	PremiumOnly bool
	Limit       int
}

type ListFilter struct {
	Query     string
	Approved  *bool
	Active    *bool
	MinRating float64
	Limit     int
	Offset    int
}
