package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const HeaderRequestID = "X-Request-ID"

type AccessLogMiddleware struct {
	log zerolog.Logger
}

func NewAccessLogMiddleware(log zerolog.Logger) *AccessLogMiddleware {
	return &AccessLogMiddleware{log: log.With().Str("component", "http").Logger()}
}

func (m *AccessLogMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		rid := c.Get(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(HeaderRequestID, rid)

		err := c.Next()

		status := c.Response().StatusCode()
		ev := m.log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = m.log.Error()
		case status >= fiber.StatusBadRequest:
			ev = m.log.Warn()
		}

		ev.Str("rid", rid).
			Str("ip", c.IP()).
			Str("method", c.Method()).
			Str("path", c.OriginalURL()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes", len(c.Response().Body())).
			Str("ua", c.Get(fiber.HeaderUserAgent)).
			Msg("http access")

		return err
	}
}
