package routes

import (
	"time"

	"fixitnow/internal/delivery/http/handler"
	"fixitnow/internal/delivery/http/middleware"
	"fixitnow/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type RateLimit struct {
	Max    int
	Window time.Duration
}

// Registry wires every handler onto the app. Nil handlers are skipped so
// tests can mount a single area.
type Registry struct {
	Auth       *middleware.AuthMiddleware
	RateLimit  RateLimit
	Health     *handler.HealthHandler
	AuthH      *handler.AuthHandler
	Profile    *handler.ProfileHandler
	Customer   *handler.CustomerHandler
	Technician *handler.TechnicianHandler
	Jobs       *handler.JobsHandler
	Reviews    *handler.ReviewHandler
	Disputes   *handler.DisputeHandler
	Chat       *handler.ChatHandler
	Admin      *handler.AdminHandler
	Categories *handler.CategoryHandler
	Payments   *handler.PaymentHandler
	AI         *handler.AIHandler
	Signal     *handler.SignalHandler
	WS         fiber.Handler
}

type areaRoutes interface {
	RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware)
}

// NewHandlers builds the handler set over the usecases.
func NewHandlers(u Usecases, notifier usecase.Notifier) Registry {
	return Registry{
		AuthH:      handler.NewAuthHandler(u.Auth),
		Profile:    handler.NewProfileHandler(u.Profile),
		Customer:   handler.NewCustomerHandler(u.Customer),
		Technician: handler.NewTechnicianHandler(u.Technician),
		Jobs:       handler.NewJobsHandler(u.Jobs),
		Reviews:    handler.NewReviewHandler(u.Reviews),
		Disputes:   handler.NewDisputeHandler(u.Disputes),
		Chat:       handler.NewChatHandler(u.Chat),
		Admin:      handler.NewAdminHandler(u.Admin),
		Categories: handler.NewCategoryHandler(u.Categories),
		Payments:   handler.NewPaymentHandler(u.Payments),
		AI:         handler.NewAIHandler(u.AI),
		Signal:     handler.NewSignalHandler(notifier),
	}
}

type Usecases struct {
	Auth       usecase.AuthUsecase
	Profile    usecase.ProfileUsecase
	Customer   usecase.CustomerUsecase
	Technician usecase.TechnicianUsecase
	Jobs       usecase.JobUsecase
	Reviews    usecase.ReviewUsecase
	Disputes   usecase.DisputeUsecase
	Chat       usecase.ChatUsecase
	Admin      usecase.AdminUsecase
	Categories usecase.CategoryUsecase
	Payments   usecase.PaymentUsecase
	AI         usecase.AIUsecase
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	if r.WS != nil {
		app.Get("/ws", r.WS)
	}
	r.registerAPI(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.Health != nil {
		r.Health.RegisterRoutes(app)
	}
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	if r.RateLimit.Max > 0 {
		api.Use(middleware.RateLimit(r.RateLimit.Max, r.RateLimit.Window))
	}

	areas := []struct {
		prefix string
		h      areaRoutes
	}{
		{"/auth", nilIfNil(r.AuthH)},
		{"/profile", nilIfNil(r.Profile)},
		{"/user", nilIfNil(r.Customer)},
		{"/tech", nilIfNil(r.Technician)},
		{"/job", nilIfNil(r.Jobs)},
		{"/reviews", nilIfNil(r.Reviews)},
		{"/disputes", nilIfNil(r.Disputes)},
		{"/chat", nilIfNil(r.Chat)},
		{"/admin", nilIfNil(r.Admin)},
		{"/service-categories", nilIfNil(r.Categories)},
		{"/payments", nilIfNil(r.Payments)},
		{"/ai", nilIfNil(r.AI)},
		{"/webrtc", nilIfNil(r.Signal)},
	}
	for _, a := range areas {
		if a.h == nil {
			continue
		}
		a.h.RegisterRoutes(api.Group(a.prefix), r.Auth)
	}
}

// nilIfNil keeps a typed nil handler from becoming a non-nil interface.
func nilIfNil[T any, P interface {
	*T
	areaRoutes
}](h P) areaRoutes {
	if h == nil {
		return nil
	}
	return h
}
