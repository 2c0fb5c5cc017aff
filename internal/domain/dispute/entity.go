package dispute

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
)

const MaxMessageLength = 1000

var (
	ErrNotFound      = errors.New("dispute not found")
	ErrAlreadyExists = errors.New("dispute already exists for job")
	ErrResolved      = errors.New("dispute already resolved")
)

type Message struct {
	ID        uuid.UUID `json:"id"`
	SenderID  uuid.UUID `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}

type Dispute struct {
	ID         uuid.UUID  `json:"id"`
	JobID      uuid.UUID  `json:"jobId"`
	OpenedBy   uuid.UUID  `json:"openedBy"`
	Reason     string     `json:"reason"`
	Status     Status     `json:"status"`
	Resolution string     `json:"resolution,omitempty"`
	ResolvedBy *uuid.UUID `json:"resolvedBy,omitempty"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	Messages   []Message  `json:"messages,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type Repository interface {
	Create(ctx context.Context, d Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (Dispute, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]Dispute, error)
	AddMessage(ctx context.Context, disputeID uuid.UUID, m Message) error
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
	Resolve(ctx context.Context, id uuid.UUID, resolvedBy uuid.UUID, resolution string, at time.Time) error
	// CountForTechnician counts complaints: disputes on any job of the
	// technician that the technician did not open.
	CountForTechnician(ctx context.Context, techID uuid.UUID) (int, error)
}
