package handler

import (
	"fixitnow/internal/delivery/http/dto"
	"fixitnow/internal/delivery/http/middleware"
	"fixitnow/internal/domain/activity"
	"fixitnow/internal/domain/job"
	"fixitnow/internal/domain/user"
	"fixitnow/internal/pkg/response"
	"fixitnow/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type AdminHandler struct {
	uc usecase.AdminUsecase
}

func NewAdminHandler(uc usecase.AdminUsecase) *AdminHandler {
	return &AdminHandler{uc: uc}
}

func (h *AdminHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	g := r.Group("", auth.Middleware(user.RoleAdmin))
	g.Get("/activities", h.Activities)
	g.Get("/activities/summary", h.ActivitySummary)
	g.Post("/approve-tech", h.ApproveTech)
	g.Post("/remove-tech", h.RemoveTech)
	g.Get("/analytics", h.Analytics)
	g.Post("/resolve-dispute", h.ResolveDispute)
	g.Post("/loyalty", h.ManageLoyalty)
	g.Get("/technicians", h.Technicians)
	g.Post("/technicians/seed", h.SeedTechnician)
	g.Get("/technicians/:id", h.Technician)
	g.Get("/customers", h.Customers)
	g.Get("/bookings", h.Bookings)
}

func (h *AdminHandler) Activities(c fiber.Ctx) error {
	from, err := queryTime(c, "startDate")
	if err != nil {
		return err
	}
	to, err := queryTime(c, "endDate")
	if err != nil {
		return err
	}

	res, err := h.uc.Activities(c.Context(), usecase.ActivityQuery{
		Action: activity.Action(c.Query("action")),
		From:   from,
		To:     to,
		Page:   pageFrom(c),
	})
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, response.NewPage(res.Items, res.Total, res.Page, res.Limit))
}

func (h *AdminHandler) ActivitySummary(c fiber.Ctx) error {
	counts, err := h.uc.ActivitySummary(c.Context())
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, counts)
}

func (h *AdminHandler) ApproveTech(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ApproveTechRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	if err := h.uc.ApproveTech(c.Context(), actor, req.TechID, *req.Approved); err != nil {
		return err
	}
	msg := "Technician rejected"
	if *req.Approved {
		msg = "Technician approved"
	}
	return response.Success(c, fiber.StatusOK, msg, nil)
}

func (h *AdminHandler) RemoveTech(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.RemoveTechRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	if err := h.uc.RemoveTech(c.Context(), actor, req.TechID, req.Reason); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Technician removed", nil)
}

func (h *AdminHandler) Analytics(c fiber.Ctx) error {
	a, err := h.uc.Analytics(c.Context())
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, a)
}

func (h *AdminHandler) ResolveDispute(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ResolveDisputeRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	d, err := h.uc.ResolveDispute(c.Context(), actor, req.DisputeID, req.Resolution)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Dispute resolved", d)
}

func (h *AdminHandler) ManageLoyalty(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ManageLoyaltyRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	if err := h.uc.ManageLoyalty(c.Context(), actor, req.UserID, *req.Points); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Loyalty points updated", usecase.LoyaltyResult{LoyaltyPoints: *req.Points})
}

func (h *AdminHandler) Technicians(c fiber.Ctx) error {
	approved, err := queryBool(c, "approved")
	if err != nil {
		return err
	}
	active, err := queryBool(c, "active")
	if err != nil {
		return err
	}
	minRating, err := queryFloat(c, "minRating", 0)
	if err != nil {
		return err
	}

	res, err := h.uc.Technicians(c.Context(), usecase.TechnicianQuery{
		Query:     c.Query("q"),
		Approved:  approved,
		Active:    active,
		MinRating: minRating,
		Page:      pageFrom(c),
	})
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, response.NewPage(res.Items, res.Total, res.Page, res.Limit))
}

func (h *AdminHandler) Technician(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	t, err := h.uc.Technician(c.Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, t)
}

func (h *AdminHandler) Customers(c fiber.Ctx) error {
	res, err := h.uc.Customers(c.Context(), c.Query("q"), pageFrom(c))
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, response.NewPage(res.Items, res.Total, res.Page, res.Limit))
}

func (h *AdminHandler) Bookings(c fiber.Ctx) error {
	status := job.Status(c.Query("status"))
	if status != "" && !status.Valid() {
		return middleware.BadRequest("Invalid status", nil)
	}
	userID, err := queryUUID(c, "userId")
	if err != nil {
		return err
	}
	techID, err := queryUUID(c, "techId")
	if err != nil {
		return err
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return err
	}

	res, err := h.uc.Bookings(c.Context(), usecase.BookingQuery{
		Status: status,
		UserID: userID,
		TechID: techID,
		From:   from,
		To:     to,
		Page:   pageFrom(c),
	})
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, response.NewPage(res.Items, res.Total, res.Page, res.Limit))
}

func (h *AdminHandler) SeedTechnician(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.SeedTechnicianRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	t, err := h.uc.SeedTechnician(c.Context(), actor, req.Email, req.Lat, req.Lng)
	if err != nil {
		return err
	}
	return response.Created(c, "Technician seeded", t)
}
