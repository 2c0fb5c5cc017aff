package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewHMACService("access", "refresh", time.Hour, 24*time.Hour)
	id := uuid.New()

	tok, err := svc.GenerateAccessToken(id, "a@b.c", "tech")
	require.NoError(t, err)

	c, err := svc.ValidateAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, id, c.UserID)
	assert.Equal(t, "tech", c.Role)
	assert.Equal(t, "a@b.c", c.Email)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	svc := NewHMACService("same", "same", time.Hour, time.Hour)

	tok, err := svc.GenerateRefreshToken(uuid.New(), "user")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(tok)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	c, err := svc.ValidateRefreshToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user", c.Role)
}

func TestExpiredToken(t *testing.T) {
	svc := NewHMACService("access", "refresh", time.Minute, time.Hour)
	past := time.Now().Add(-2 * time.Minute)
	svc.now = func() time.Time { return past }

	tok, err := svc.GenerateAccessToken(uuid.New(), "", "user")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTamperedToken(t *testing.T) {
	svc := NewHMACService("access", "refresh", time.Hour, time.Hour)
	other := NewHMACService("other", "other", time.Hour, time.Hour)

	tok, err := other.GenerateAccessToken(uuid.New(), "", "admin")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
