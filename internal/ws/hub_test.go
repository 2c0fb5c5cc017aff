package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"fixitnow/internal/domain/user"
	"fixitnow/internal/realtime"
	"fixitnow/internal/usecase"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, router *Router, role user.Role) *Client {
	return NewClient(hub, router, nil, usecase.Actor{ID: uuid.New(), Role: role}, zerolog.Nop())
}

func readEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("no message queued")
		return Envelope{}
	}
}

func assertNothingQueued(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected message: %s", raw)
	default:
	}
}

func TestHubDeliversOnlyToRoomMembers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	member := newTestClient(hub, nil, user.RoleUser)
	outsider := newTestClient(hub, nil, user.RoleUser)
	hub.Register(member)
	hub.Register(outsider)

	room := realtime.UserRoom(member.actor.ID)
	require.True(t, hub.Join(member, room))

	hub.Deliver(room, realtime.EventJobStatusUpdate, json.RawMessage(`{"status":"in-progress"}`))

	env := readEnvelope(t, member)
	assert.Equal(t, realtime.EventJobStatusUpdate, env.Event)
	assert.JSONEq(t, `{"status":"in-progress"}`, string(env.Data))
	assertNothingQueued(t, outsider)
}

func TestHubJoinRequiresRegistration(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c := newTestClient(hub, nil, user.RoleUser)

	assert.False(t, hub.Join(c, "user:x"))
	assert.Equal(t, 0, hub.RoomSize("user:x"))
}

func TestHubUnregisterLeavesRooms(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := newTestClient(hub, nil, user.RoleUser)
	hub.Register(c)
	require.True(t, hub.Join(c, "chat:1"))
	require.Equal(t, 1, hub.RoomSize("chat:1"))

	hub.Unregister(c)
	assert.Eventually(t, func() bool {
		return hub.ClientCount() == 0 && hub.RoomSize("chat:1") == 0
	}, time.Second, 10*time.Millisecond)

	_, open := <-c.send
	assert.False(t, open, "send buffer is closed on unregister")
}

func TestHubDropsClientWithFullBuffer(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	slow := newTestClient(hub, nil, user.RoleUser)
	hub.Register(slow)
	require.True(t, hub.Join(slow, "job:1"))

	for i := 0; i < sendBuffer; i++ {
		hub.Deliver("job:1", realtime.EventLocationUpdate, json.RawMessage(`{}`))
	}
	require.Equal(t, 1, hub.ClientCount())

	// Run is not started, so Unregister is served from the buffered channel.
	hub.Deliver("job:1", realtime.EventLocationUpdate, json.RawMessage(`{}`))
	select {
	case dropped := <-hub.unregister:
		assert.Same(t, slow, dropped)
	default:
		t.Fatal("slow client was not unregistered")
	}
}

func TestHubRunClosesClientsOnShutdown(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	c := newTestClient(hub, nil, user.RoleTech)
	hub.Register(c)
	cancel()
	<-done

	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubDeliverRacesUnregister(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	const room = "chat:busy"
	clients := make([]*Client, 50)
	for i := range clients {
		clients[i] = newTestClient(hub, nil, user.RoleUser)
		hub.Register(clients[i])
		require.True(t, hub.Join(clients[i], room))
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				hub.Deliver(room, realtime.EventNewMessage, json.RawMessage(`{}`))
			}
		}()
	}
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			hub.Unregister(c)
		}(c)
	}

	wg.Wait()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.RoomSize(room))
}
