package handler

import (
	"fixitnow/internal/delivery/http/dto"
	"fixitnow/internal/delivery/http/middleware"
	"fixitnow/internal/domain/user"
	"fixitnow/internal/pkg/response"
	"fixitnow/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type TechnicianHandler struct {
	uc usecase.TechnicianUsecase
}

func NewTechnicianHandler(uc usecase.TechnicianUsecase) *TechnicianHandler {
	return &TechnicianHandler{uc: uc}
}

func (h *TechnicianHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	r.Get("/nearby", h.Nearby)

	g := r.Group("", auth.Middleware(user.RoleTech))
	g.Post("/register", h.Register)
	g.Post("/accept-job/:jobId", h.AcceptJob)
	g.Post("/decline-job/:jobId", h.DeclineJob)
	g.Post("/freeze-mode", h.FreezeMode)
	g.Post("/video-call/:jobId", h.VideoCall)
	g.Post("/premium", h.Premium)
	g.Post("/active", h.SetActive)
}

func (h *TechnicianHandler) Nearby(c fiber.Ctx) error {
	lat, lng, err := requiredCoordinates(c)
	if err != nil {
		return err
	}
	radius, err := queryFloat(c, "radius", 0)
	if err != nil {
		return err
	}
	minRating, err := queryFloat(c, "minRating", 0)
	if err != nil {
		return err
	}
	service, err := queryUUID(c, "service")
	if err != nil {
		return err
	}

	rows, err := h.uc.Nearby(c.Context(), usecase.NearbyParams{
		Lat:       lat,
		Lng:       lng,
		RadiusM:   radius,
		ServiceID: service,
		MinRating: minRating,
		Query:     c.Query("q"),
	})
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, rows)
}

func (h *TechnicianHandler) Register(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.RegisterTechRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	tech, err := h.uc.Register(c.Context(), actor, usecase.RegisterTechInput{
		Services:    req.Services,
		Lat:         req.Lat,
		Lng:         req.Lng,
		EcoFriendly: req.EcoFriendly,
	})
	if err != nil {
		return err
	}
	return response.Created(c, "Technician registered, pending approval", tech)
}

func (h *TechnicianHandler) AcceptJob(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	jobID, err := paramUUID(c, "jobId")
	if err != nil {
		return err
	}

	j, err := h.uc.AcceptJob(c.Context(), actor, jobID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Job accepted", j)
}

func (h *TechnicianHandler) DeclineJob(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	jobID, err := paramUUID(c, "jobId")
	if err != nil {
		return err
	}

	j, err := h.uc.DeclineJob(c.Context(), actor, jobID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Job declined", j)
}

func (h *TechnicianHandler) FreezeMode(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.FreezeModeRequest
	if len(c.Body()) > 0 {
		if err := bindBody(c, &req); err != nil {
			return err
		}
	}

	res, err := h.uc.FreezeMode(c.Context(), actor, req.Duration)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Freeze mode enabled", res)
}

func (h *TechnicianHandler) VideoCall(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	jobID, err := paramUUID(c, "jobId")
	if err != nil {
		return err
	}

	res, err := h.uc.VideoCall(c.Context(), actor, jobID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Video call initiated", res)
}

func (h *TechnicianHandler) Premium(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	tech, err := h.uc.Premium(c.Context(), actor)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Upgraded to premium", tech)
}

func (h *TechnicianHandler) SetActive(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ActiveRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	res, err := h.uc.SetActive(c.Context(), actor, *req.Active)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}
