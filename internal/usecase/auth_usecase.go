package usecase

import (
	"context"
	"errors"
	"time"

	"fixitnow/internal/domain/activity"
	"fixitnow/internal/domain/passwordreset"
	"fixitnow/internal/domain/user"
	"fixitnow/internal/pkg/jwt"
	ucauth "fixitnow/internal/usecase/auth"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	ReferrerBonus       = 50
	referralCodeRetries = 5
)

type AuthResult struct {
	User         user.User `json:"user"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
}

type ReferralResult struct {
	ReferralCode  string     `json:"referralCode,omitempty"`
	PointsAwarded int        `json:"pointsAwarded,omitempty"`
	ReferrerID    *uuid.UUID `json:"referrerId,omitempty"`
	ReferrerName  string     `json:"referrerName,omitempty"`
}

type ResetRequest struct {
	Token     string    `json:"resetToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AuthUsecase interface {
	Signup(ctx context.Context, in ucauth.RegisterInput, ip string) (AuthResult, error)
	Login(ctx context.Context, in ucauth.LoginInput, ip string) (AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (AuthResult, error)
	Referral(ctx context.Context, actor Actor, referredByCode string) (ReferralResult, error)
	RequestPasswordReset(ctx context.Context, email, ip string) (ResetRequest, error)
	ResetPassword(ctx context.Context, token, password, ip string) error
	PurgeExpiredResets(ctx context.Context) (int64, error)
}

type Auth struct {
	authSvc  *ucauth.Service
	users    user.Repository
	resets   passwordreset.Repository
	jwt      jwt.Service
	activity ActivityRecorder
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthUsecase(svc *ucauth.Service, users user.Repository, resets passwordreset.Repository, jwtSvc jwt.Service, rec ActivityRecorder, log zerolog.Logger) *Auth {
	return &Auth{
		authSvc:  svc,
		users:    users,
		resets:   resets,
		jwt:      jwtSvc,
		activity: recorderOrNoop(rec),
		log:      log.With().Str("component", "auth").Logger(),
		now:      time.Now,
	}
}

func (u *Auth) Signup(ctx context.Context, in ucauth.RegisterInput, ip string) (AuthResult, error) {
	usr, err := u.authSvc.Register(ctx, in)
	if err != nil {
		return AuthResult{}, mapCredentialError(err)
	}

	res, err := u.issue(usr)
	if err != nil {
		return AuthResult{}, err
	}
	u.activity.Record(ctx, activity.UserSignedUp, &usr.ID, activity.Details{"role": string(usr.Role)}, ip)
	return res, nil
}

func (u *Auth) Login(ctx context.Context, in ucauth.LoginInput, ip string) (AuthResult, error) {
	usr, err := u.authSvc.Login(ctx, in)
	if err != nil {
		return AuthResult{}, mapCredentialError(err)
	}

	res, err := u.issue(usr)
	if err != nil {
		return AuthResult{}, err
	}
	u.activity.Record(ctx, activity.UserLoggedIn, &usr.ID, activity.Details{"role": string(usr.Role)}, ip)
	return res, nil
}

func (u *Auth) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if refreshToken == "" {
		return AuthResult{}, ErrUnauthorized
	}

	claims, err := u.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return AuthResult{}, ErrRefreshTokenExpired
		}
		return AuthResult{}, ErrInvalidRefreshToken
	}

	usr, err := u.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return AuthResult{}, ErrInvalidRefreshToken
		}
		return AuthResult{}, ErrInternal
	}
	return u.issue(ucauth.Sanitize(usr))
}

// Referral returns the caller's code, generating one on first use. With a
// code it credits that code's owner instead.
func (u *Auth) Referral(ctx context.Context, actor Actor, referredByCode string) (ReferralResult, error) {
	if referredByCode == "" {
		code, err := u.ensureReferralCode(ctx, actor.ID)
		if err != nil {
			return ReferralResult{}, err
		}
		return ReferralResult{ReferralCode: code}, nil
	}

	referrer, err := u.users.GetByReferralCode(ctx, referredByCode)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ReferralResult{}, ErrInvalidReferral
		}
		return ReferralResult{}, ErrInternal
	}
	if referrer.ID == actor.ID {
		return ReferralResult{}, ErrSelfReferral
	}

	if err := u.users.ApplyReferral(ctx, actor.ID, referrer.ID, ReferrerBonus); err != nil {
		switch {
		case errors.Is(err, user.ErrAlreadyReferred):
			return ReferralResult{}, ErrReferralAlreadyUsed
		case errors.Is(err, user.ErrNotFound):
			return ReferralResult{}, ErrUserNotFound
		}
		return ReferralResult{}, ErrInternal
	}

	u.activity.Record(ctx, activity.ReferralUsed, &referrer.ID,
		activity.Details{"referredUser": actor.ID.String(), "points": ReferrerBonus}, actor.IP)

	return ReferralResult{PointsAwarded: ReferrerBonus, ReferrerID: &referrer.ID, ReferrerName: referrer.Name}, nil
}

func (u *Auth) ensureReferralCode(ctx context.Context, userID uuid.UUID) (string, error) {
	usr, err := u.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", ErrInternal
	}
	if usr.ReferralCode != nil && *usr.ReferralCode != "" {
		return *usr.ReferralCode, nil
	}

	for i := 0; i < referralCodeRetries; i++ {
		code, err := ucauth.NewReferralCode()
		if err != nil {
			return "", ErrInternal
		}
		err = u.users.SetReferralCode(ctx, userID, code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, user.ErrDuplicate) {
			return "", ErrInternal
		}
	}
	return "", ErrInternal
}

func (u *Auth) RequestPasswordReset(ctx context.Context, email, ip string) (ResetRequest, error) {
	usr, err := u.users.GetByEmail(ctx, ucauth.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ResetRequest{}, ErrUserNotFound
		}
		return ResetRequest{}, ErrInternal
	}

	token, err := ucauth.NewResetToken()
	if err != nil {
		return ResetRequest{}, ErrInternal
	}
	now := u.now().UTC()
	reset := passwordreset.Reset{
		ID:        uuid.New(),
		UserID:    usr.ID,
		Token:     token,
		ExpiresAt: now.Add(passwordreset.TTL),
		CreatedAt: now,
	}
	if err := u.resets.Replace(ctx, reset); err != nil {
		u.log.Error().Err(err).Msg("store reset token")
		return ResetRequest{}, ErrInternal
	}

	u.activity.Record(ctx, activity.PasswordResetRequested, &usr.ID, nil, ip)
	return ResetRequest{Token: token, ExpiresAt: reset.ExpiresAt}, nil
}

func (u *Auth) ResetPassword(ctx context.Context, token, password, ip string) error {
	if !ucauth.IsValidPassword(password) {
		return ErrInvalidInput
	}

	reset, err := u.resets.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, passwordreset.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return ErrInternal
	}
	if reset.Expired(u.now()) {
		_ = u.resets.DeleteByUser(ctx, reset.UserID)
		return ErrInvalidResetToken
	}

	hash, err := u.authSvc.Hash(password)
	if err != nil {
		return ErrInternal
	}
	if err := u.users.UpdatePassword(ctx, reset.UserID, hash); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return ErrInternal
	}
	if err := u.resets.DeleteByUser(ctx, reset.UserID); err != nil {
		u.log.Warn().Err(err).Msg("delete used reset token")
	}

	u.activity.Record(ctx, activity.PasswordResetCompleted, &reset.UserID, nil, ip)
	return nil
}

// PurgeExpiredResets drops reset tokens past their expiry.
func (u *Auth) PurgeExpiredResets(ctx context.Context) (int64, error) {
	n, err := u.resets.DeleteExpired(ctx, u.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		u.log.Info().Int64("purged", n).Msg("expired reset tokens")
	}
	return n, nil
}

func (u *Auth) issue(usr user.User) (AuthResult, error) {
	access, err := u.jwt.GenerateAccessToken(usr.ID, usr.EmailValue(), string(usr.Role))
	if err != nil {
		return AuthResult{}, ErrInternal
	}
	refresh, err := u.jwt.GenerateRefreshToken(usr.ID, string(usr.Role))
	if err != nil {
		return AuthResult{}, ErrInternal
	}
	return AuthResult{User: usr, Token: access, RefreshToken: refresh}, nil
}

func mapCredentialError(err error) error {
	switch {
	case errors.Is(err, ucauth.ErrEmailAlreadyRegistered):
		return ErrUserExists
	case errors.Is(err, ucauth.ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, ucauth.ErrRoleMismatch):
		return ErrRoleMismatch
	case errors.Is(err, ucauth.ErrInvalidInput):
		return ErrInvalidInput
	default:
		return ErrInternal
	}
}
