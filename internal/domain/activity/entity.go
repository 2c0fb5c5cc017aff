package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	UserSignedUp           Action = "user_signed_up"
	UserLoggedIn           Action = "user_logged_in"
	TechRegister           Action = "tech_register"
	TechApproved           Action = "tech_approved"
	TechRejected           Action = "tech_rejected"
	TechRemoved            Action = "tech_removed"
	JobBooked              Action = "job_booked"
	JobCreated             Action = "job_created"
	JobStatusUpdated       Action = "job_status_updated"
	JobAccepted            Action = "job_accepted"
	JobDeclined            Action = "job_declined"
	JobCompleted           Action = "job_completed"
	PaymentConfirmed       Action = "payment_confirmed"
	ReviewSubmitted        Action = "review_submitted"
	DisputeOpened          Action = "dispute_opened"
	DisputeResolved        Action = "dispute_resolved"
	ReferralUsed           Action = "referral_used"
	PointsEarned           Action = "points_earned"
	PointsRedeemed         Action = "points_redeemed"
	SearchTech             Action = "search_tech"
	MessageSent            Action = "message_sent"
	FreezeModeSet          Action = "freeze_mode_set"
	PremiumUpgrade         Action = "premium_upgrade"
	TechActiveToggle       Action = "tech_active_toggle"
	PasswordResetRequested Action = "password_reset_requested"
	PasswordResetCompleted Action = "password_reset_completed"
	CategoryCreated        Action = "category_created"
	CategoryUpdated        Action = "category_updated"
	CategoryDeleted        Action = "category_deleted"
	LoyaltyManaged         Action = "loyalty_managed"
)

var known = map[Action]struct{}{
	UserSignedUp: {}, UserLoggedIn: {}, TechRegister: {}, TechApproved: {}, TechRejected: {},
	TechRemoved: {}, JobBooked: {}, JobCreated: {}, JobStatusUpdated: {}, JobAccepted: {},
	JobDeclined: {}, JobCompleted: {}, PaymentConfirmed: {}, ReviewSubmitted: {}, DisputeOpened: {},
	DisputeResolved: {}, ReferralUsed: {}, PointsEarned: {}, PointsRedeemed: {}, SearchTech: {},
	MessageSent: {}, FreezeModeSet: {}, PremiumUpgrade: {}, TechActiveToggle: {},
	PasswordResetRequested: {}, PasswordResetCompleted: {}, CategoryCreated: {}, CategoryUpdated: {},
	CategoryDeleted: {}, LoyaltyManaged: {},
}

var ErrUnknownAction = errors.New("unknown activity action")

func (a Action) Valid() bool {
	_, ok := known[a]
	return ok
}

type Details map[string]any

type Activity struct {
	ID        uuid.UUID  `json:"id"`
	Action    Action     `json:"action"`
	UserID    *uuid.UUID `json:"userId,omitempty"`
	UserName  string     `json:"userName,omitempty"`
	Details   Details    `json:"details"`
	IP        string     `json:"ip,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// New validates the action and stamps id and time.
func New(action Action, userID *uuid.UUID, details Details, ip string) (Activity, error) {
	if !action.Valid() {
		return Activity{}, ErrUnknownAction
	}
	if details == nil {
		details = Details{}
	}
	return Activity{
		ID:        uuid.New(),
		Action:    action,
		UserID:    userID,
		Details:   details,
		IP:        ip,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type ListFilter struct {
	Action Action
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type Count struct {
	Action Action `json:"action"`
	Count  int    `json:"count"`
}

type Repository interface {
	Create(ctx context.Context, a Activity) error
	List(ctx context.Context, f ListFilter) ([]Activity, int, error)
	CountSince(ctx context.Context, actions []Action, since time.Time) ([]Count, error)
}
