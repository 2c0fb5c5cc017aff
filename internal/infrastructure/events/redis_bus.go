// Package events fans realtime events out across server instances over a
// single redis pub/sub channel.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const Channel = "fixitnow:realtime"

type Event struct {
	Room string          `json:"room"`
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// Deliverer pushes an event to the sockets joined to a room on this
// instance.
type Deliverer interface {
	Deliver(room, event string, data json.RawMessage)
}

// Bus publishes to redis when a client is configured and delivers locally
// otherwise, or when publishing fails.
type Bus struct {
	client *redis.Client
	local  Deliverer
	log    zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewBus(client *redis.Client, local Deliverer, log zerolog.Logger) *Bus {
	return &Bus{
		client: client,
		local:  local,
		log:    log.With().Str("component", "events").Logger(),
	}
}

func (b *Bus) Emit(ctx context.Context, room, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.log.Error().Err(err).Str("event", event).Msg("marshal event payload")
		return
	}
	if err := b.Publish(ctx, Event{Room: room, Name: event, Data: data}); err != nil {
		b.log.Warn().Err(err).Str("room", room).Str("event", event).Msg("publish failed, delivering locally")
		b.local.Deliver(room, event, data)
	}
}

// Publish sends ev to every instance. Without redis it is delivered on this
// instance only.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	if b.client == nil {
		b.local.Deliver(ev.Room, ev.Name, ev.Data)
		return nil
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, Channel, raw).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Start subscribes to the shared channel and feeds received events to the
// local deliverer until Close.
func (b *Bus) Start() error {
	if b.client == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	pubsub := b.client.Subscribe(ctx, Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}

	b.running = true
	b.cancel = cancel
	b.done = make(chan struct{})
	go b.receive(ctx, pubsub)

	b.log.Info().Str("channel", Channel).Msg("subscribed")
	return nil
}

func (b *Bus) receive(ctx context.Context, pubsub *redis.PubSub) {
	defer close(b.done)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn().Err(err).Msg("drop malformed event")
				continue
			}
			b.local.Deliver(ev.Room, ev.Name, ev.Data)
		}
	}
}

func (b *Bus) Close() error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	cancel, done := b.cancel, b.done
	b.mu.Unlock()

	cancel()
	<-done
	b.log.Info().Msg("event bus closed")
	return nil
}
