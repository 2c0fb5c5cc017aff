package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusRefunded Status = "refunded"
)

const MethodCOD = "COD"

var ErrNotFound = errors.New("payment not found")

type Payment struct {
	ID          uuid.UUID  `json:"id"`
	JobID       uuid.UUID  `json:"jobId"`
	UserID      uuid.UUID  `json:"userId"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	Method      string     `json:"method"`
	Status      Status     `json:"status"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	ConfirmedBy *uuid.UUID `json:"confirmedBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Repository interface {
	// GetOrCreate returns the job's payment, inserting p when none exists.
	GetOrCreate(ctx context.Context, p Payment) (Payment, error)
	GetByJobID(ctx context.Context, jobID uuid.UUID) (Payment, error)
	MarkPaid(ctx context.Context, jobID uuid.UUID, confirmedBy uuid.UUID, at time.Time) (Payment, error)
}
