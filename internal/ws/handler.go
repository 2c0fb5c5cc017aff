package ws

import (
	"net/http"

	"fixitnow/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Authenticator resolves a bearer token into the caller.
type Authenticator interface {
	Authenticate(token, ip string) (usecase.Actor, error)
}

type Handler struct {
	hub    *Hub
	router *Router
	auth   Authenticator
	log    zerolog.Logger
}

func NewHandler(hub *Hub, router *Router, auth Authenticator, log zerolog.Logger) *Handler {
	return &Handler{hub: hub, router: router, auth: auth, log: log.With().Str("component", "ws").Logger()}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handle authenticates with ?token= or a bearer header before upgrading.
func (h *Handler) Handle(tokenFromHeader func(string) (string, bool)) fiber.Handler {
	return func(c fiber.Ctx) error {
		if h == nil || h.hub == nil {
			return fiber.ErrServiceUnavailable
		}

		token := c.Query("token")
		if token == "" {
			token, _ = tokenFromHeader(c.Get(fiber.HeaderAuthorization))
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "No token provided")
		}
		actor, err := h.auth.Authenticate(token, c.IP())
		if err != nil {
			return err
		}

		upgrade := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				h.log.Warn().Err(err).Msg("ws upgrade")
				return
			}

			client := NewClient(h.hub, h.router, conn, actor, h.log)
			h.hub.Register(client)
			go client.WritePump()
			go client.ReadPump()
		})

		return upgrade(c)
	}
}
