package handler

import (
	"fixitnow/internal/delivery/http/dto"
	"fixitnow/internal/delivery/http/middleware"
	"fixitnow/internal/domain/user"
	"fixitnow/internal/pkg/response"
	"fixitnow/internal/usecase"
	useruc "fixitnow/internal/usecase/user"

	"github.com/gofiber/fiber/v3"
)

// ProfileHandler serves the caller's own account.
type ProfileHandler struct {
	uc usecase.ProfileUsecase
}

func NewProfileHandler(uc usecase.ProfileUsecase) *ProfileHandler {
	return &ProfileHandler{uc: uc}
}

func (h *ProfileHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	r.Get("/", auth.Middleware(), h.Get)
	r.Put("/", auth.Middleware(), h.Update)
}

func (h *ProfileHandler) Get(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	prof, err := h.uc.GetProfile(c.Context(), actor.ID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, prof)
}

func (h *ProfileHandler) Update(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req dto.UpdateProfileRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if req.Name == nil && req.Phone == nil && req.Address == nil && req.Lat == nil && req.Lng == nil {
		return middleware.BadRequest("Invalid request payload", nil)
	}

	prof, err := h.uc.UpdateProfile(c.Context(), actor.ID, useruc.UpdateProfileInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Lat:     req.Lat,
		Lng:     req.Lng,
	})
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Profile updated", prof)
}

// CustomerHandler serves /api/user for the customer role.
type CustomerHandler struct {
	uc usecase.CustomerUsecase
}

func NewCustomerHandler(uc usecase.CustomerUsecase) *CustomerHandler {
	return &CustomerHandler{uc: uc}
}

func (h *CustomerHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	g := r.Group("", auth.Middleware(user.RoleUser))
	g.Get("/search-techs", h.SearchTechs)
	g.Post("/book-job", h.BookJob)
	g.Get("/track-job/:jobId", h.TrackJob)
	g.Post("/loyalty", h.Loyalty)
}

func (h *CustomerHandler) SearchTechs(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	lat, lng, err := requiredCoordinates(c)
	if err != nil {
		return err
	}
	radius, err := queryFloat(c, "radius", 10)
	if err != nil {
		return err
	}
	minRating, err := queryFloat(c, "minRating", 0)
	if err != nil {
		return err
	}
	services, err := queryUUIDs(c, "services")
	if err != nil {
		return err
	}
	premium, err := queryBool(c, "premium")
	if err != nil {
		return err
	}

	matches, err := h.uc.SearchTechs(c.Context(), actor, usecase.SearchParams{
		Query:      c.Query("query"),
		Lat:        lat,
		Lng:        lng,
		RadiusKm:   radius,
		MinRating:  minRating,
		ServiceIDs: services,
		Premium:    premium != nil && *premium,
	})
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, matches)
}

func (h *CustomerHandler) BookJob(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.BookJobRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	j, err := h.uc.BookJob(c.Context(), actor, usecase.BookJobInput{
		TechID:           req.TechID,
		ServiceType:      req.ServiceType,
		Price:            req.Price,
		Description:      req.Description,
		BeneficiaryName:  req.BeneficiaryName,
		BeneficiaryPhone: req.BeneficiaryPhone,
		ReferralCode:     req.ReferralCode,
	})
	if err != nil {
		return err
	}
	return response.Created(c, "Job booked", j)
}

func (h *CustomerHandler) TrackJob(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	jobID, err := paramUUID(c, "jobId")
	if err != nil {
		return err
	}

	j, err := h.uc.TrackJob(c.Context(), actor, jobID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, j)
}

func (h *CustomerHandler) Loyalty(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.LoyaltyRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	res, err := h.uc.Loyalty(c.Context(), actor, usecase.LoyaltyAction(req.Action), req.Points, req.Source)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}
