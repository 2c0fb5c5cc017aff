package job

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("job not found")

type Repository interface {
	Create(ctx context.Context, j Job) error
	GetByID(ctx context.Context, id uuid.UUID) (Job, error)
	List(ctx context.Context, f ListFilter) ([]Job, int, error)
	// UpdateStatus moves the job only if it is still in change.From and
	// records a history row. It returns ErrInvalidTransition when the row
	// changed underneath.
	UpdateStatus(ctx context.Context, change StatusChange) error
	Complete(ctx context.Context, id uuid.UUID, c Completion, change StatusChange) error
	SetVideoCallID(ctx context.Context, id uuid.UUID, callID string) error
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) error
	RecentPrices(ctx context.Context, serviceType string, limit int) ([]float64, error)
	Count(ctx context.Context, status Status) (int, error)
}
