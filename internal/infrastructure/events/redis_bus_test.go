package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Deliver(room, event string, data json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Room: room, Name: event, Data: data})
}

func TestBus_DeliversLocallyWithoutRedis(t *testing.T) {
	rec := &recorder{}
	bus := NewBus(nil, rec, zerolog.Nop())
	require.NoError(t, bus.Start())

	bus.Emit(context.Background(), "user:1", "jobCreated", map[string]string{"jobId": "j1"})

	require.Len(t, rec.events, 1)
	assert.Equal(t, "user:1", rec.events[0].Room)
	assert.Equal(t, "jobCreated", rec.events[0].Name)
	assert.JSONEq(t, `{"jobId":"j1"}`, string(rec.events[0].Data))
	assert.NoError(t, bus.Close())
}

func TestBus_DropsUnmarshalablePayload(t *testing.T) {
	rec := &recorder{}
	bus := NewBus(nil, rec, zerolog.Nop())

	bus.Emit(context.Background(), "user:1", "x", make(chan int))
	assert.Empty(t, rec.events)
}
