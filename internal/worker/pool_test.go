package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsQueuedTasksBeforeShutdown(t *testing.T) {
	p := NewPool("test", 2, 16, zerolog.Nop())
	p.Start()

	var n atomic.Int32
	for i := 0; i < 10; i++ {
		require.True(t, p.Submit(func(ctx context.Context) error {
			n.Add(1)
			return nil
		}))
	}

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Equal(t, int32(10), n.Load())
	assert.False(t, p.Submit(func(ctx context.Context) error { return nil }))
	assert.ErrorIs(t, p.Shutdown(context.Background()), ErrClosed)
}

func TestPool_DropsWhenFull(t *testing.T) {
	p := NewPool("test", 1, 1, zerolog.Nop())
	// not started: the single buffer slot fills and the next submit drops
	require.True(t, p.Submit(func(ctx context.Context) error { return nil }))
	assert.False(t, p.Submit(func(ctx context.Context) error { return nil }))

	p.Start()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestPool_SurvivesFailingAndPanickingTasks(t *testing.T) {
	p := NewPool("test", 1, 4, zerolog.Nop())
	p.Start()

	var ran atomic.Bool
	p.Submit(func(ctx context.Context) error { return errors.New("boom") })
	p.Submit(func(ctx context.Context) error { panic("bad") })
	p.Submit(func(ctx context.Context) error { ran.Store(true); return nil })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
	assert.True(t, ran.Load())
}
