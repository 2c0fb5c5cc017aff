package usecase

import (
	"context"
	"errors"

	ucuser "fixitnow/internal/usecase/user"

	"github.com/google/uuid"
)

type ProfileUsecase interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (ucuser.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in ucuser.UpdateProfileInput) (ucuser.Profile, error)
}

type Profile struct {
	svc *ucuser.Service
}

func NewProfileUsecase(svc *ucuser.Service) *Profile {
	return &Profile{svc: svc}
}

func (u *Profile) GetProfile(ctx context.Context, userID uuid.UUID) (ucuser.Profile, error) {
	p, err := u.svc.GetProfile(ctx, userID)
	return p, mapProfileError(err)
}

func (u *Profile) UpdateProfile(ctx context.Context, userID uuid.UUID, in ucuser.UpdateProfileInput) (ucuser.Profile, error) {
	p, err := u.svc.UpdateProfile(ctx, userID, in)
	return p, mapProfileError(err)
}

func mapProfileError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ucuser.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, ucuser.ErrInvalidInput):
		return ErrInvalidInput
	default:
		return ErrInternal
	}
}
