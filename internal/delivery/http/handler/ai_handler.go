package handler

import (
	"context"

	"fixitnow/internal/delivery/http/dto"
	"fixitnow/internal/delivery/http/middleware"
	"fixitnow/internal/pkg/response"
	"fixitnow/internal/realtime"
	"fixitnow/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

const defaultRecommendations = 8

type AIHandler struct {
	uc usecase.AIUsecase
}

func NewAIHandler(uc usecase.AIUsecase) *AIHandler {
	return &AIHandler{uc: uc}
}

func (h *AIHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	g := r.Group("", auth.Middleware())
	g.Get("/recommendations", h.Recommendations)
	g.Post("/estimate-cost", h.EstimateCost)
}

func (h *AIHandler) Recommendations(c fiber.Ctx) error {
	lat, lng, err := requiredCoordinates(c)
	if err != nil {
		return err
	}
	limit := fiber.Query[int](c, "limit", defaultRecommendations)

	recs, err := h.uc.Recommendations(c.Context(), lat, lng, c.Query("problem"), limit)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, recs)
}

func (h *AIHandler) EstimateCost(c fiber.Ctx) error {
	var req dto.EstimateCostRequest
	if len(c.Body()) > 0 {
		if err := bindBody(c, &req); err != nil {
			return err
		}
	}

	est, err := h.uc.EstimateCost(c.Context(), req.ServiceType, req.DistanceKm)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, est)
}

// SignalHandler relays WebRTC negotiation payloads to a realtime room.
type SignalHandler struct {
	notifier usecase.Notifier
}

func NewSignalHandler(notifier usecase.Notifier) *SignalHandler {
	return &SignalHandler{notifier: notifier}
}

func (h *SignalHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	r.Post("/signal", auth.Middleware(), h.Signal)
}

func (h *SignalHandler) Signal(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.SignalRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	// The event outlives the request on the bus.
	h.notifier.Emit(context.WithoutCancel(c.Context()), req.RoomID, realtime.EventSignal, realtime.Signal{
		RoomID: req.RoomID,
		From:   actor.ID,
		Data:   req.Signal,
	})
	return response.Success(c, fiber.StatusOK, "Signal relayed", nil)
}
