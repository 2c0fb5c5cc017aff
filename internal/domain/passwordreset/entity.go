package passwordreset

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const TTL = 15 * time.Minute

var ErrNotFound = errors.New("reset token not found")

type Reset struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (r Reset) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

type Repository interface {
	// Replace drops any outstanding tokens of the user and stores r.
	Replace(ctx context.Context, r Reset) error
	GetByToken(ctx context.Context, token string) (Reset, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
