package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
	// ErrInsufficientPoints is returned when a debit would make the balance negative.
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrAlreadyReferred    = errors.New("referral already recorded")
)

type Repository interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByReferralCode(ctx context.Context, code string) (User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileUpdate) (User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	SetReferralCode(ctx context.Context, id uuid.UUID, code string) error
	// ApplyReferral records the referrer once and credits it bonus points in
	// the same transaction. Later calls get ErrAlreadyReferred.
	ApplyReferral(ctx context.Context, id, referrerID uuid.UUID, bonus int) error
	// AddLoyaltyPoints applies delta atomically and refuses to go below zero.
	AddLoyaltyPoints(ctx context.Context, id uuid.UUID, delta int) (int, error)
	SetLoyaltyPoints(ctx context.Context, id uuid.UUID, points int) error
	List(ctx context.Context, f ListFilter) ([]User, int, error)
	Count(ctx context.Context) (int, error)
}
