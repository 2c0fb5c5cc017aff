package usecase

import (
	"errors"

	"fixitnow/internal/domain/job"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal error")
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserExists          = errors.New("user already exists")
	ErrRoleMismatch        = errors.New("user exists with different role")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrInvalidReferral     = errors.New("invalid referral code")
	ErrSelfReferral        = errors.New("own referral code")
	ErrReferralAlreadyUsed = errors.New("referral already used")
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientPoints  = errors.New("insufficient points")
)

var (
	ErrTechnicianBusy      = errors.New("technician is currently busy")
	ErrTechnicianNotFound  = errors.New("technician not found")
	ErrTechProfileNotFound = errors.New("technician profile not found")
	ErrTechProfileExists   = errors.New("technician profile already exists")
	ErrUnknownService      = errors.New("unknown service category")
	ErrRemovalCriteria     = errors.New("technician does not meet removal criteria")
	ErrCoordinatesRequired = errors.New("lat and lng are required")
)

var (
	ErrInvalidTransition = job.ErrInvalidTransition
	ErrJobNotFound       = errors.New("job not found")
	ErrJobNotAssigned    = errors.New("job not assigned to caller")
	ErrJobNotPending     = errors.New("job is no longer pending")
	ErrNotYourJob        = errors.New("not your job")
	ErrUserMayOnlyCancel = errors.New("users may only cancel jobs")
)

var (
	ErrInvalidReviewJob = errors.New("invalid job for review")
	ErrReviewExists     = errors.New("review already submitted")
	ErrDisputeExists    = errors.New("dispute already exists for job")
	ErrDisputeNotFound  = errors.New("dispute not found")
	ErrDisputeResolved  = errors.New("dispute already resolved")
	ErrNotParticipant   = errors.New("not a participant")
	ErrChatNotFound     = errors.New("chat not found")
	ErrCategoryExists   = errors.New("category name already exists")
	ErrCategoryNotFound = errors.New("category not found")
	ErrPaymentNotFound  = errors.New("payment not found")
)
