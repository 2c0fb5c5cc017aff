package handler

import (
	"context"
	"time"

	"fixitnow/internal/delivery/http/dto"
	"fixitnow/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

const (
	statusUp       = "up"
	statusDown     = "down"
	statusDisabled = "disabled"
)

type HealthHandler struct {
	db    Pinger
	redis Pinger
}

// NewHealthHandler accepts a nil redis when the cache is not configured.
func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	res := dto.Health{Status: "ok", Database: ping(ctx, h.db), Redis: ping(ctx, h.redis)}
	status := fiber.StatusOK
	if res.Database != statusUp {
		res.Status = "degraded"
		status = fiber.StatusServiceUnavailable
	}
	return response.Success(c, status, res.Status, res)
}

func ping(ctx context.Context, p Pinger) string {
	if p == nil {
		return statusDisabled
	}
	if err := p.Ping(ctx); err != nil {
		return statusDown
	}
	return statusUp
}
