package job

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusDeclined   Status = "declined"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled, StatusDeclined:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusDeclined
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
)

type Review struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

type Job struct {
	ID               uuid.UUID     `json:"id"`
	UserID           uuid.UUID     `json:"userId"`
	TechID           uuid.UUID     `json:"techId"`
	TechUserID       uuid.UUID     `json:"techUserId"`
	UserName         string        `json:"userName,omitempty"`
	TechName         string        `json:"techName,omitempty"`
	TechRating       float64       `json:"techRating,omitempty"`
	ServiceType      string        `json:"serviceType"`
	Description      string        `json:"description,omitempty"`
	Status           Status        `json:"status"`
	Price            float64       `json:"price"`
	PaymentStatus    PaymentStatus `json:"paymentStatus"`
	BeneficiaryName  string        `json:"beneficiaryName,omitempty"`
	BeneficiaryPhone string        `json:"beneficiaryPhone,omitempty"`
	VideoCallID      string        `json:"videoCallId,omitempty"`
	Review           *Review       `json:"review,omitempty"`
	CompletedAt      *time.Time    `json:"completedAt,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

type ListFilter struct {
	UserID *uuid.UUID
	TechID *uuid.UUID
	Status Status
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type StatusChange struct {
	JobID     uuid.UUID
	From      Status
	To        Status
	ActorID   uuid.UUID
	ActorRole string
}

type Completion struct {
	Review        Review
	PaymentStatus PaymentStatus
	CompletedAt   time.Time
}
