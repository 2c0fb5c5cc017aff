package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Hub tracks connected clients and the rooms they joined. It satisfies
// events.Deliverer so the event bus can hand it room events.
type Hub struct {
	clients    map[*Client]struct{}
	rooms      map[string]map[*Client]struct{}
	unregister chan *Client
	mutex      sync.RWMutex
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		unregister: make(chan *Client, 128),
		log:        log.With().Str("component", "ws_hub").Logger(),
	}
}

// Run serves unregister requests until ctx is done, then drops every
// client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			h.drop(client)
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug().Int("total_clients", total).Msg("ws disconnected")
		}
	}
}

// Register is synchronous so a client may join rooms as soon as its pumps
// start.
func (h *Hub) Register(client *Client) {
	if h == nil || client == nil {
		return
	}
	h.mutex.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mutex.Unlock()
	h.log.Debug().Int("total_clients", total).Str("user_id", client.actor.ID.String()).Msg("ws connected")
}

// Unregister never blocks the caller; Deliver uses it while fanning out.
func (h *Hub) Unregister(client *Client) {
	if h == nil || client == nil {
		return
	}
	select {
	case h.unregister <- client:
	default:
		h.mutex.Lock()
		h.drop(client)
		h.mutex.Unlock()
	}
}

// Join adds a registered client to room. Joining twice is a no-op.
func (h *Hub) Join(client *Client, room string) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[client]; !ok {
		return false
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[client] = struct{}{}
	client.rooms[room] = struct{}{}
	return true
}

// InRoom reports whether client joined room.
func (h *Hub) InRoom(client *Client, room string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	_, ok := h.rooms[room][client]
	return ok
}

// Deliver writes the event to every member of room on this instance. A
// member whose buffer is full is disconnected.
func (h *Hub) Deliver(room, event string, data json.RawMessage) {
	if h == nil {
		return
	}
	msg, err := encode(event, data)
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("encode ws event")
		return
	}

	// Sends happen under the read lock so drop cannot close a channel
	// mid-send.
	var slow []*Client
	h.mutex.RLock()
	for client := range h.rooms[room] {
		select {
		case client.send <- msg:
		default:
			slow = append(slow, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range slow {
		h.log.Warn().Str("room", room).Str("user_id", client.actor.ID.String()).Msg("ws send buffer full")
		h.Unregister(client)
	}
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) RoomSize(room string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.rooms[room])
}

// drop must be called with the lock held.
func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	for room := range client.rooms {
		h.leave(client, room)
	}
	delete(h.clients, client)
	close(client.send)
}

func (h *Hub) leave(client *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, client)
	delete(client.rooms, room)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for c := range h.clients {
		h.drop(c)
	}
}
