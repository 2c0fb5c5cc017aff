package user

import (
	"context"
	"errors"
	"strings"

	"fixitnow/internal/domain/technician"
	"fixitnow/internal/domain/user"
	"fixitnow/internal/pkg/geo"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("user not found")
	ErrInternal     = errors.New("internal error")
)

type Profile struct {
	User       user.User              `json:"user"`
	Technician *technician.Technician `json:"technician,omitempty"`
}

// UpdateProfileInput holds the self-editable fields. Email, role, points
// and password are changed through their own flows.
type UpdateProfileInput struct {
	Name    *string
	Phone   *string
	Address *string
	Lat     *float64
	Lng     *float64
}

type Service struct {
	users user.Repository
	techs technician.Repository
}

func NewService(users user.Repository, techs technician.Repository) *Service {
	return &Service{users: users, techs: techs}
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	usr, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, ErrInternal
	}
	return s.withTechnician(ctx, usr)
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (Profile, error) {
	upd := user.ProfileUpdate{Address: in.Address, Lat: in.Lat, Lng: in.Lng}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || len(name) > 100 {
			return Profile{}, ErrInvalidInput
		}
		upd.Name = &name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone == "" {
			return Profile{}, ErrInvalidInput
		}
		upd.Phone = &phone
	}
	if (in.Lat == nil) != (in.Lng == nil) {
		return Profile{}, ErrInvalidInput
	}
	if in.Lat != nil && (!geo.ValidLat(*in.Lat) || !geo.ValidLng(*in.Lng)) {
		return Profile{}, ErrInvalidInput
	}

	usr, err := s.users.UpdateProfile(ctx, userID, upd)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			return Profile{}, ErrNotFound
		case errors.Is(err, user.ErrDuplicate):
			return Profile{}, ErrInvalidInput
		}
		return Profile{}, ErrInternal
	}
	return s.withTechnician(ctx, usr)
}

func (s *Service) withTechnician(ctx context.Context, usr user.User) (Profile, error) {
	p := Profile{User: sanitizeUser(usr)}
	if usr.Role != user.RoleTech || s.techs == nil {
		return p, nil
	}
	t, err := s.techs.GetByUserID(ctx, usr.ID)
	if err != nil {
		if errors.Is(err, technician.ErrNotFound) {
			return p, nil
		}
		return Profile{}, ErrInternal
	}
	p.Technician = &t
	return p, nil
}

func sanitizeUser(u user.User) user.User {
	u.PasswordHash = ""
	return u
}
