package ws

import (
	"context"
	"encoding/json"
	"time"

	"fixitnow/internal/usecase"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 64
	dispatchWait   = 5 * time.Second
)

// Client is one authenticated socket. rooms is guarded by the hub lock.
type Client struct {
	hub    *Hub
	router *Router
	conn   *websocket.Conn
	send   chan []byte
	actor  usecase.Actor
	rooms  map[string]struct{}
	log    zerolog.Logger
}

func NewClient(hub *Hub, router *Router, conn *websocket.Conn, actor usecase.Actor, log zerolog.Logger) *Client {
	return &Client{
		hub:    hub,
		router: router,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		actor:  actor,
		rooms:  make(map[string]struct{}),
		log:    log.With().Str("user_id", actor.ID.String()).Logger(),
	}
}

func (c *Client) Actor() usecase.Actor { return c.actor }

// ReadPump decodes frames and hands them to the router until the peer goes
// away.
func (c *Client) ReadPump() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("ws read")
			}
			return
		}

		var in Envelope
		if err := json.Unmarshal(raw, &in); err != nil || in.Event == "" {
			c.reply(eventError, errorPayload{Message: "malformed message"})
			continue
		}

		msgCtx, done := context.WithTimeout(ctx, dispatchWait)
		c.router.Dispatch(msgCtx, c, in)
		done()
	}
}

// WritePump drains the send buffer and keeps the connection alive with
// pings. It exits when the hub closes the buffer.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reply queues a frame for this client only. A full buffer drops it.
func (c *Client) reply(event string, v any) {
	msg, err := encodeValue(event, v)
	if err != nil {
		c.log.Error().Err(err).Str("event", event).Msg("encode ws reply")
		return
	}
	defer func() {
		// send is closed once the hub dropped the client.
		_ = recover()
	}()
	select {
	case c.send <- msg:
	default:
		c.log.Warn().Str("event", event).Msg("ws reply dropped")
	}
}
