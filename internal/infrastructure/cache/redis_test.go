package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_BypassWithoutClient(t *testing.T) {
	ctx := context.Background()
	r := NewFromClient(nil, 0, zerolog.Nop())

	var out map[string]int
	hit, err := r.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	assert.NoError(t, r.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute))
	assert.NoError(t, r.Delete(ctx, "k"))
	assert.NoError(t, r.DeleteByPattern(ctx, "k:*"))

	_, err = r.SetIfNotExists(ctx, "lock", "1", time.Minute)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = r.Exists(ctx, "lock")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, r.Ping(ctx), ErrUnavailable)
	assert.Nil(t, r.Client())
}

func TestRedis_NilReceiver(t *testing.T) {
	var r *Redis
	hit, err := r.GetJSON(context.Background(), "k", &struct{}{})
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, r.Close())
}
