package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fixitnow/internal/config"
	"fixitnow/internal/delivery/http/handler"
	"fixitnow/internal/delivery/http/middleware"
	"fixitnow/internal/delivery/http/routes"
	"fixitnow/internal/pkg/validator"
	"fixitnow/internal/ws"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New builds the HTTP app over an already wired container.
func New(c *Container) *App {
	cfg := c.Config
	f := fiber.New(fiber.Config{
		AppName:         cfg.App.AppName,
		StructValidator: validator.New(),
		BodyLimit:       1 << 20,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
	})

	registerGlobalMiddleware(f, cfg, c.Log)

	auth := middleware.NewAuthMiddleware(c.JWT)
	reg := routes.NewHandlers(c.Usecases, c.Bus)
	reg.Auth = auth
	reg.RateLimit = routes.RateLimit{Max: cfg.RateLimit.Max, Window: cfg.RateLimit.Window}

	var redisPinger handler.Pinger
	if c.Redis.Client() != nil {
		redisPinger = c.Redis
	}
	reg.Health = handler.NewHealthHandler(c.DB, redisPinger)
	reg.WS = ws.NewHandler(c.Hub, c.Router, auth, c.Log).Handle(middleware.BearerToken)
	reg.Register(f)

	return &App{Fiber: f, Container: c}
}

// Bootstrap wires the container and app. The returned cleanup shuts the
// server down and then releases the container.
func Bootstrap(cfg config.Config, log zerolog.Logger) (*App, func(ctx context.Context) error, error) {
	c, err := NewContainer(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	a := New(c)
	if c.Scheduler != nil {
		c.Scheduler.Start()
	}

	cleanup := func(ctx context.Context) error {
		if err := a.Fiber.ShutdownWithContext(ctx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
		return c.Close(ctx)
	}
	return a, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, cfg config.Config, log zerolog.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(log).Middleware())
	app.Use(middleware.NewErrorMiddleware(log).Middleware())
	app.Use(middleware.CORS(strings.Join(cfg.App.CORSOrigins, ",")))
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
