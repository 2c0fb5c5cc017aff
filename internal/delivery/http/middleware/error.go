package middleware

import (
	"errors"
	"fmt"

	"fixitnow/internal/domain/activity"
	"fixitnow/internal/pkg/response"
	"fixitnow/internal/pkg/validator"
	"fixitnow/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

type AppError struct {
	StatusCode int
	Message    string
	Data       any
	Cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewAppError(statusCode int, message string, data any, cause error) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Data: data, Cause: cause}
}

// BadRequest wraps a parse failure of a path or query value.
func BadRequest(message string, cause error) *AppError {
	return NewAppError(fiber.StatusBadRequest, message, nil, cause)
}

type ErrorMiddleware struct {
	log zerolog.Logger
}

func NewErrorMiddleware(log zerolog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{log: log.With().Str("component", "http").Logger()}
}

func (m *ErrorMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				m.log.Error().
					Str("path", c.Path()).
					Str("panic", fmt.Sprint(r)).
					Msg("panic recovered")
				err = response.Error(c, fiber.StatusInternalServerError, response.MessageInternalServerError, nil)
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		status, msg, data := normalizeError(err)
		if status >= fiber.StatusInternalServerError {
			m.log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
		}
		return response.Error(c, status, msg, data)
	}
}

type validationData struct {
	Errors validator.Errors `json:"errors"`
}

func normalizeError(err error) (int, string, any) {
	if err == nil {
		return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
	}

	var verrs validator.Errors
	if errors.As(err, &verrs) {
		return fiber.StatusBadRequest, "Validation failed", validationData{Errors: verrs}
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.StatusCode <= 0 || appErr.StatusCode >= 500 {
			return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
		}
		msg := appErr.Message
		if msg == "" {
			msg = defaultMessageForStatus(appErr.StatusCode)
		}
		return appErr.StatusCode, msg, appErr.Data
	}

	if mapped, ok := lookupUsecaseError(err); ok {
		return mapped.status, mapped.message, nil
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status := fiberErr.Code
		if status <= 0 || status >= 500 {
			return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
		}
		msg := fiberErr.Message
		if msg == "" {
			msg = defaultMessageForStatus(status)
		}
		return status, msg, nil
	}

	return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
}

type mappedError struct {
	status  int
	message string
}

// usecaseErrors is checked in order, so specific sentinels come before the
// generic ones they may wrap.
var usecaseErrors = []struct {
	err error
	mappedError
}{
	{usecase.ErrUserExists, mappedError{fiber.StatusBadRequest, "User already exists"}},
	{usecase.ErrInvalidCredentials, mappedError{fiber.StatusUnauthorized, "Invalid credentials"}},
	{usecase.ErrRoleMismatch, mappedError{fiber.StatusBadRequest, "User exists with different role"}},
	{usecase.ErrInvalidRefreshToken, mappedError{fiber.StatusUnauthorized, "Invalid token"}},
	{usecase.ErrRefreshTokenExpired, mappedError{fiber.StatusUnauthorized, "Token expired"}},
	{usecase.ErrInvalidResetToken, mappedError{fiber.StatusBadRequest, "Invalid or expired reset token"}},
	{usecase.ErrInvalidReferral, mappedError{fiber.StatusBadRequest, "Invalid referral code"}},
	{usecase.ErrSelfReferral, mappedError{fiber.StatusBadRequest, "Cannot use your own referral code"}},
	{usecase.ErrReferralAlreadyUsed, mappedError{fiber.StatusBadRequest, "Referral already used"}},
	{usecase.ErrUserNotFound, mappedError{fiber.StatusNotFound, "User not found"}},
	{usecase.ErrInsufficientPoints, mappedError{fiber.StatusBadRequest, "Insufficient points"}},

	{usecase.ErrTechnicianBusy, mappedError{fiber.StatusBadRequest, "Technician is currently busy"}},
	{usecase.ErrTechnicianNotFound, mappedError{fiber.StatusNotFound, "Technician not found"}},
	{usecase.ErrTechProfileNotFound, mappedError{fiber.StatusNotFound, "Technician profile not found"}},
	{usecase.ErrTechProfileExists, mappedError{fiber.StatusConflict, "Technician profile already exists"}},
	{usecase.ErrUnknownService, mappedError{fiber.StatusBadRequest, "Unknown service category"}},
	{usecase.ErrRemovalCriteria, mappedError{fiber.StatusBadRequest, "Technician does not meet removal criteria"}},
	{usecase.ErrCoordinatesRequired, mappedError{fiber.StatusBadRequest, "lat and lng are required"}},

	{usecase.ErrInvalidTransition, mappedError{fiber.StatusBadRequest, "invalid transition"}},
	{usecase.ErrJobNotFound, mappedError{fiber.StatusNotFound, "Job not found"}},
	{usecase.ErrJobNotAssigned, mappedError{fiber.StatusBadRequest, "Invalid job or not assigned to you"}},
	{usecase.ErrJobNotPending, mappedError{fiber.StatusBadRequest, "Job is no longer pending"}},
	{usecase.ErrNotYourJob, mappedError{fiber.StatusForbidden, "Not your job"}},
	{usecase.ErrUserMayOnlyCancel, mappedError{fiber.StatusForbidden, "Users may only cancel jobs"}},

	{usecase.ErrInvalidReviewJob, mappedError{fiber.StatusBadRequest, "Invalid job for review"}},
	{usecase.ErrReviewExists, mappedError{fiber.StatusBadRequest, "Review already submitted"}},
	{usecase.ErrDisputeExists, mappedError{fiber.StatusBadRequest, "Dispute already exists for this job"}},
	{usecase.ErrDisputeNotFound, mappedError{fiber.StatusNotFound, "Dispute not found"}},
	{usecase.ErrDisputeResolved, mappedError{fiber.StatusBadRequest, "Dispute already resolved"}},
	{usecase.ErrNotParticipant, mappedError{fiber.StatusForbidden, "Not a participant"}},
	{usecase.ErrChatNotFound, mappedError{fiber.StatusNotFound, "Chat not found"}},
	{usecase.ErrCategoryExists, mappedError{fiber.StatusConflict, "Category already exists"}},
	{usecase.ErrCategoryNotFound, mappedError{fiber.StatusNotFound, "Category not found"}},
	{usecase.ErrPaymentNotFound, mappedError{fiber.StatusNotFound, "Payment not found"}},
	{activity.ErrUnknownAction, mappedError{fiber.StatusBadRequest, "Unknown activity action"}},

	{usecase.ErrInvalidInput, mappedError{fiber.StatusBadRequest, response.MessageBadRequest}},
	{usecase.ErrNotFound, mappedError{fiber.StatusNotFound, response.MessageNotFound}},
	{usecase.ErrUnauthorized, mappedError{fiber.StatusUnauthorized, response.MessageUnauthorized}},
	{usecase.ErrForbidden, mappedError{fiber.StatusForbidden, response.MessageForbidden}},
	{usecase.ErrConflict, mappedError{fiber.StatusConflict, response.MessageConflict}},
}

func lookupUsecaseError(err error) (mappedError, bool) {
	for _, e := range usecaseErrors {
		if errors.Is(err, e.err) {
			return e.mappedError, true
		}
	}
	return mappedError{}, false
}

func defaultMessageForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return response.MessageBadRequest
	case fiber.StatusUnauthorized:
		return response.MessageUnauthorized
	case fiber.StatusForbidden:
		return response.MessageForbidden
	case fiber.StatusNotFound:
		return response.MessageNotFound
	case fiber.StatusConflict:
		return response.MessageConflict
	case fiber.StatusTooManyRequests:
		return response.MessageTooManyRequests
	default:
		return response.MessageError
	}
}
