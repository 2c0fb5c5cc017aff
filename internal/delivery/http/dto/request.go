package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user tech admin"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=user tech admin"`
}

type ReferralRequest struct {
	ReferredByCode string `json:"referredByCode" validate:"omitempty,max=32"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type UpdateProfileRequest struct {
	Name    *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Phone   *string  `json:"phone" validate:"omitempty,max=20"`
	Address *string  `json:"address" validate:"omitempty,max=300"`
	Lat     *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng     *float64 `json:"lng" validate:"omitempty,longitude"`
}

type BookJobRequest struct {
	TechID           uuid.UUID `json:"techId" validate:"required"`
	ServiceType      string    `json:"serviceType" validate:"required,max=50"`
	Price            float64   `json:"price" validate:"gte=0"`
	Description      string    `json:"description" validate:"max=1000"`
	BeneficiaryName  string    `json:"beneficiaryName" validate:"max=100"`
	BeneficiaryPhone string    `json:"beneficiaryPhone" validate:"max=20"`
	ReferralCode     string    `json:"referralCode" validate:"max=32"`
}

type LoyaltyRequest struct {
	Action string `json:"action" validate:"required,oneof=earn redeem"`
	Points int    `json:"points" validate:"required,min=1"`
	Source string `json:"source" validate:"max=100"`
}

type RegisterTechRequest struct {
	Services    []uuid.UUID `json:"services" validate:"required,min=1"`
	Lat         *float64    `json:"lat" validate:"omitempty,latitude"`
	Lng         *float64    `json:"lng" validate:"omitempty,longitude"`
	EcoFriendly bool        `json:"ecoFriendly"`
}

type FreezeModeRequest struct {
	Duration int `json:"duration" validate:"gte=0"`
}

type ActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type CreateJobRequest struct {
	UserID           *uuid.UUID `json:"userId"`
	TechID           uuid.UUID  `json:"techId" validate:"required"`
	ServiceType      string     `json:"serviceType" validate:"required,max=50"`
	Price            float64    `json:"price" validate:"gte=0"`
	Description      string     `json:"description" validate:"max=1000"`
	BeneficiaryName  string     `json:"beneficiaryName" validate:"max=100"`
	BeneficiaryPhone string     `json:"beneficiaryPhone" validate:"max=20"`
}

type UpdateJobStatusRequest struct {
	JobID  uuid.UUID `json:"jobId" validate:"required"`
	Status string    `json:"status" validate:"required,oneof=pending in-progress completed cancelled declined"`
}

type JobReview struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=500"`
}

type CompleteJobRequest struct {
	JobID            uuid.UUID `json:"jobId" validate:"required"`
	Review           JobReview `json:"review"`
	PaymentConfirmed bool      `json:"paymentConfirmed"`
}

type SubmitReviewRequest struct {
	JobID   uuid.UUID `json:"jobId" validate:"required"`
	Rating  int       `json:"rating" validate:"required,min=1,max=5"`
	Comment string    `json:"comment" validate:"max=500"`
	Images  []string  `json:"images" validate:"max=5,dive,max=500"`
}

type OpenDisputeRequest struct {
	JobID  uuid.UUID `json:"jobId" validate:"required"`
	Reason string    `json:"reason" validate:"required,max=1000"`
}

type DisputeMessageRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

type CreateChatRequest struct {
	TechID uuid.UUID `json:"techId" validate:"required"`
}

type SendMessageRequest struct {
	ChatID  uuid.UUID `json:"chatId" validate:"required"`
	Content string    `json:"content" validate:"required,min=1,max=1000"`
}

type ChatRequest struct {
	ChatID uuid.UUID `json:"chatId" validate:"required"`
}

type ApproveTechRequest struct {
	TechID   uuid.UUID `json:"techId" validate:"required"`
	Approved *bool     `json:"approved" validate:"required"`
}

type RemoveTechRequest struct {
	TechID uuid.UUID `json:"techId" validate:"required"`
	Reason string    `json:"reason" validate:"max=500"`
}

type ResolveDisputeRequest struct {
	DisputeID  uuid.UUID `json:"disputeId" validate:"required"`
	Resolution string    `json:"resolution" validate:"required,max=1000"`
}

type ManageLoyaltyRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
	Points *int      `json:"points" validate:"required,gte=0"`
}

type SeedTechnicianRequest struct {
	Email string   `json:"email" validate:"required,email"`
	Lat   *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng   *float64 `json:"lng" validate:"omitempty,longitude"`
}

type CategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=50"`
	Description string  `json:"description" validate:"max=500"`
	PriceMin    float64 `json:"basePriceMin" validate:"gte=0"`
	PriceMax    float64 `json:"basePriceMax" validate:"gte=0"`
	Icon        string  `json:"icon" validate:"max=100"`
}

type UpdateCategoryRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=50"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	PriceMin    *float64 `json:"basePriceMin" validate:"omitempty,gte=0"`
	PriceMax    *float64 `json:"basePriceMax" validate:"omitempty,gte=0"`
	Icon        *string  `json:"icon" validate:"omitempty,max=100"`
	Active      *bool    `json:"active"`
}

type JobRequest struct {
	JobID uuid.UUID `json:"jobId" validate:"required"`
}

type EstimateCostRequest struct {
	ServiceType string   `json:"serviceType" validate:"max=50"`
	DistanceKm  *float64 `json:"distanceKm"`
}

type SignalRequest struct {
	RoomID string          `json:"roomId" validate:"required,max=100"`
	Signal json.RawMessage `json:"signal" validate:"required"`
}
