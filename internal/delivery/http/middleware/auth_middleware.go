package middleware

import (
	"errors"
	"slices"
	"strings"

	"fixitnow/internal/domain/user"
	"fixitnow/internal/pkg/jwt"
	"fixitnow/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

const ctxActorKey = "actor"

type AuthMiddleware struct {
	jwt jwt.Service
}

func NewAuthMiddleware(jwtSvc jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwtSvc}
}

// Middleware requires a valid access token. With roles, the token role
// must be one of them.
func (m *AuthMiddleware) Middleware(roles ...user.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := BearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "No token provided", nil, nil)
		}

		actor, err := m.Authenticate(token, c.IP())
		if err != nil {
			return err
		}
		if len(roles) > 0 && !slices.Contains(roles, actor.Role) {
			return NewAppError(fiber.StatusForbidden, "Access denied", nil, nil)
		}

		c.Locals(ctxActorKey, actor)
		return c.Next()
	}
}

// Authenticate turns an access token into the caller. Errors are AppErrors
// carrying 401.
func (m *AuthMiddleware) Authenticate(token, ip string) (usecase.Actor, error) {
	claims, err := m.jwt.ValidateAccessToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return usecase.Actor{}, NewAppError(fiber.StatusUnauthorized, "Token expired", nil, err)
		}
		return usecase.Actor{}, NewAppError(fiber.StatusUnauthorized, "Invalid token", nil, err)
	}
	role := user.Role(claims.Role)
	if !role.Valid() {
		return usecase.Actor{}, NewAppError(fiber.StatusUnauthorized, "Invalid token", nil, nil)
	}
	return usecase.Actor{ID: claims.UserID, Role: role, IP: ip}, nil
}

// ActorFrom returns the caller stored by the auth middleware.
func ActorFrom(c fiber.Ctx) (usecase.Actor, bool) {
	actor, ok := c.Locals(ctxActorKey).(usecase.Actor)
	return actor, ok
}

func BearerToken(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
