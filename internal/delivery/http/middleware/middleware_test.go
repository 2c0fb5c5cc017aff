package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fixitnow/internal/domain/user"
	"fixitnow/internal/pkg/jwt"
	"fixitnow/internal/pkg/response"
	"fixitnow/internal/pkg/validator"
	"fixitnow/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, resp *http.Response) response.SemanticResponse {
	t.Helper()
	defer resp.Body.Close()
	var out response.SemanticResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestNormalizeError(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"app error", NewAppError(fiber.StatusConflict, "", nil, nil), fiber.StatusConflict, response.MessageConflict},
		{"app error 5xx hides message", NewAppError(fiber.StatusBadGateway, "upstream exploded", nil, nil), fiber.StatusInternalServerError, response.MessageInternalServerError},
		{"wrapped usecase error", errors.Join(errors.New("ctx"), usecase.ErrTechnicianBusy), fiber.StatusBadRequest, "Technician is currently busy"},
		{"fiber error", fiber.ErrNotFound, fiber.StatusNotFound, "Not Found"},
		{"raw error", errors.New("pq: relation does not exist"), fiber.StatusInternalServerError, response.MessageInternalServerError},
		{"category conflict", usecase.ErrCategoryExists, fiber.StatusConflict, "Category already exists"},
		{"participant", usecase.ErrNotParticipant, fiber.StatusForbidden, "Not a participant"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, msg, _ := normalizeError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.message, msg)
		})
	}
}

func TestNormalizeErrorValidation(t *testing.T) {
	verrs := validator.Errors{{Field: "email", Message: "must be a valid email"}}
	status, _, data := normalizeError(verrs)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, validationData{Errors: verrs}, data)
}

func TestErrorMiddlewareRecoversPanics(t *testing.T) {
	app := fiber.New()
	app.Use(NewErrorMiddleware(zerolog.Nop()).Middleware())
	app.Get("/boom", func(fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, response.MessageInternalServerError, decode(t, resp).Message)
}

func TestAuthMiddlewareStoresActor(t *testing.T) {
	svc := jwt.NewHMACService("a", "r", time.Hour, time.Hour)
	auth := NewAuthMiddleware(svc)
	app := fiber.New()
	app.Use(NewErrorMiddleware(zerolog.Nop()).Middleware())
	app.Get("/admin", auth.Middleware(user.RoleAdmin), func(c fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		require.True(t, ok)
		return c.SendString(actor.ID.String())
	})

	id := uuid.New()
	adminTok, err := svc.GenerateAccessToken(id, "a@example.com", string(user.RoleAdmin))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminTok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	userTok, err := svc.GenerateAccessToken(uuid.New(), "u@example.com", string(user.RoleUser))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userTok)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	refreshTok, err := svc.GenerateRefreshToken(id, string(user.RoleAdmin))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+refreshTok)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRateLimitReturns429(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimit(2, time.Minute))
	app.Get("/", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many requests", decode(t, resp).Message)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("  bearer abc ")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	for _, h := range []string{"", "Bearer", "Basic abc", "Bearer   "} {
		_, ok := BearerToken(h)
		assert.False(t, ok, h)
	}
}

func TestAccessLogSetsRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(NewAccessLogMiddleware(zerolog.Nop()).Middleware())
	app.Get("/", func(c fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	_, err = uuid.Parse(resp.Header.Get(HeaderRequestID))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "given")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "given", resp.Header.Get(HeaderRequestID))
}
