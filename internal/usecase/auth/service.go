package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"fixitnow/internal/domain/user"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrRoleMismatch           = errors.New("role mismatch")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInternal               = errors.New("internal error")
)

const (
	MinPasswordLength = 6
	referralCodeBytes = 8
	resetTokenBytes   = 24
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     user.Role
}

type LoginInput struct {
	Email    string
	Password string
	Role     user.Role
}

// Service owns credentials: password hashing, account creation and login.
type Service struct {
	users user.Repository
	cost  int
}

func NewService(users user.Repository) *Service {
	return &Service{users: users, cost: bcrypt.DefaultCost}
}

// NewServiceWithCost lets tests use a cheap bcrypt cost.
func NewServiceWithCost(users user.Repository, cost int) *Service {
	return &Service{users: users, cost: cost}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	email := NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" || !IsValidPassword(in.Password) {
		return user.User{}, ErrInvalidInput
	}
	role := in.Role
	if role == "" {
		role = user.RoleUser
	}
	if !role.Valid() {
		return user.User{}, ErrInvalidInput
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return user.User{}, ErrInternal
	}
	if exists {
		return user.User{}, ErrEmailAlreadyRegistered
	}

	hash, err := s.Hash(in.Password)
	if err != nil {
		return user.User{}, ErrInternal
	}
	code, err := NewReferralCode()
	if err != nil {
		return user.User{}, ErrInternal
	}

	u := user.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        &email,
		PasswordHash: hash,
		Role:         role,
		ReferralCode: &code,
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrDuplicate) {
			return user.User{}, ErrEmailAlreadyRegistered
		}
		return user.User{}, ErrInternal
	}

	created, err := s.users.GetByID(ctx, u.ID)
	if err != nil {
		return user.User{}, ErrInternal
	}
	return Sanitize(created), nil
}

func (s *Service) Login(ctx context.Context, in LoginInput) (user.User, error) {
	email := NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return user.User{}, ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrInvalidCredentials
		}
		return user.User{}, ErrInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return user.User{}, ErrInvalidCredentials
	}
	if in.Role != "" && in.Role != u.Role {
		return user.User{}, ErrRoleMismatch
	}

	return Sanitize(u), nil
}

func (s *Service) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func IsValidPassword(pw string) bool {
	return len(strings.TrimSpace(pw)) >= MinPasswordLength
}

func Sanitize(u user.User) user.User {
	u.PasswordHash = ""
	return u
}

// NewReferralCode returns 16 uppercase hex characters.
func NewReferralCode() (string, error) {
	return randomHex(referralCodeBytes, true)
}

// NewResetToken returns 48 lowercase hex characters.
func NewResetToken() (string, error) {
	return randomHex(resetTokenBytes, false)
}

func randomHex(n int, upper bool) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := hex.EncodeToString(b)
	if upper {
		s = strings.ToUpper(s)
	}
	return s, nil
}
