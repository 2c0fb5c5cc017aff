package handler

import (
	"fixitnow/internal/delivery/http/dto"
	"fixitnow/internal/delivery/http/middleware"
	"fixitnow/internal/domain/user"
	"fixitnow/internal/pkg/response"
	"fixitnow/internal/usecase"
	ucauth "fixitnow/internal/usecase/auth"

	"github.com/gofiber/fiber/v3"
)

type AuthHandler struct {
	uc usecase.AuthUsecase
}

func NewAuthHandler(uc usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

func (h *AuthHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Post("/request-password-reset", h.RequestPasswordReset)
	r.Post("/reset-password", h.ResetPassword)
	r.Post("/referral-code", auth.Middleware(), h.Referral)
}

func (h *AuthHandler) Signup(c fiber.Ctx) error {
	var req dto.SignupRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	res, err := h.uc.Signup(c.Context(), ucauth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     user.Role(req.Role),
	}, c.IP())
	if err != nil {
		return err
	}
	return response.Created(c, "User registered", res)
}

func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	res, err := h.uc.Login(c.Context(), ucauth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     user.Role(req.Role),
	}, c.IP())
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Login successful", res)
}

func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	tok, ok := middleware.BearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "No token provided", nil, nil)
	}

	res, err := h.uc.Refresh(c.Context(), tok)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *AuthHandler) Referral(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ReferralRequest
	if len(c.Body()) > 0 {
		if err := bindBody(c, &req); err != nil {
			return err
		}
	}

	res, err := h.uc.Referral(c.Context(), actor, req.ReferredByCode)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *AuthHandler) RequestPasswordReset(c fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	res, err := h.uc.RequestPasswordReset(c.Context(), req.Email, c.IP())
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Password reset token generated", res)
}

func (h *AuthHandler) ResetPassword(c fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	if err := h.uc.ResetPassword(c.Context(), req.Token, req.Password, c.IP()); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Password has been reset", nil)
}
