package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"fixitnow/internal/delivery/http/middleware"
	"fixitnow/internal/pkg/validator"
	"fixitnow/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

func actorFrom(c fiber.Ctx) (usecase.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return usecase.Actor{}, middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	return actor, nil
}

// bindBody decodes and validates the JSON body. Validation failures pass
// through so the error middleware can list the fields.
func bindBody(c fiber.Ctx, out any) error {
	if err := c.Bind().Body(out); err != nil {
		var verrs validator.Errors
		if errors.As(err, &verrs) {
			return verrs
		}
		return middleware.BadRequest("Invalid request payload", err)
	}
	return nil
}

func paramUUID(c fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, middleware.BadRequest("Invalid "+name, err)
	}
	return id, nil
}

func queryUUID(c fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, middleware.BadRequest("Invalid "+name, err)
	}
	return &id, nil
}

func queryUUIDs(c fiber.Ctx, name string) ([]uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	var out []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, middleware.BadRequest("Invalid "+name, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// queryFloat returns def when the key is absent.
func queryFloat(c fiber.Ctx, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, middleware.BadRequest("Invalid "+name, err)
	}
	return v, nil
}

func requiredCoordinates(c fiber.Ctx) (lat, lng float64, err error) {
	if strings.TrimSpace(c.Query("lat")) == "" || strings.TrimSpace(c.Query("lng")) == "" {
		return 0, 0, usecase.ErrCoordinatesRequired
	}
	if lat, err = queryFloat(c, "lat", 0); err != nil {
		return 0, 0, err
	}
	if lng, err = queryFloat(c, "lng", 0); err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

func queryBool(c fiber.Ctx, name string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, middleware.BadRequest("Invalid "+name, err)
	}
	return &v, nil
}

// queryTime accepts RFC3339 or a plain date.
func queryTime(c fiber.Ctx, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, middleware.BadRequest("Invalid "+name, nil)
}

func pageFrom(c fiber.Ctx) usecase.Page {
	return usecase.Page{
		Page:  fiber.Query[int](c, "page", 1),
		Limit: fiber.Query[int](c, "limit", 0),
	}
}
