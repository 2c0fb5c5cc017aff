package review

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	MaxCommentLength = 500
	MaxImages        = 5
)

var (
	ErrNotFound      = errors.New("review not found")
	ErrAlreadyExists = errors.New("review already submitted")
)

type Review struct {
	ID        uuid.UUID `json:"id"`
	JobID     uuid.UUID `json:"jobId"`
	UserID    uuid.UUID `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	TechID    uuid.UUID `json:"techId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Images    []string  `json:"images"`
	CreatedAt time.Time `json:"createdAt"`
}

type Summary struct {
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}

type Repository interface {
	// Create stores the review and returns ErrAlreadyExists when the job
	// already carries one.
	Create(ctx context.Context, r Review) error
	ListByTech(ctx context.Context, techID uuid.UUID, limit, offset int) ([]Review, int, error)
	Summary(ctx context.Context, techID uuid.UUID) (Summary, error)
}
