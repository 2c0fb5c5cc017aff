package ws

import (
	"context"
	"encoding/json"
	"errors"

	"fixitnow/internal/domain/chat"
	"fixitnow/internal/domain/job"
	"fixitnow/internal/domain/technician"
	"fixitnow/internal/realtime"
	"fixitnow/internal/usecase"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	eventJoinUser      = "joinUser"
	eventJoinTech      = "joinTech"
	eventJoinChat      = "joinChat"
	eventJoinDispute   = "joinDispute"
	eventJoinJob       = "joinJob"
	eventSendMessage   = "sendMessage"
	eventShareLocation = "shareLocation"
)

type TechProfiles interface {
	OwnProfile(ctx context.Context, actor usecase.Actor) (technician.Technician, error)
	ShareLocation(ctx context.Context, actor usecase.Actor, jobID uuid.UUID, lat, lng float64) (usecase.LocationEvent, error)
}

type ChatAccess interface {
	Participant(ctx context.Context, actor usecase.Actor, chatID uuid.UUID) (chat.Chat, error)
	Send(ctx context.Context, actor usecase.Actor, chatID uuid.UUID, content string) (chat.Message, error)
}

type DisputeAccess interface {
	CanJoin(ctx context.Context, actor usecase.Actor, disputeID uuid.UUID) error
}

type JobAccess interface {
	Participant(ctx context.Context, actor usecase.Actor, jobID uuid.UUID) (job.Job, error)
}

type RouterDeps struct {
	Techs    TechProfiles
	Chats    ChatAccess
	Disputes DisputeAccess
	Jobs     JobAccess
	Notifier usecase.Notifier
}

// Router applies client events. Every join is authorized against the
// usecases before the hub is touched.
type Router struct {
	hub  *Hub
	deps RouterDeps
	log  zerolog.Logger
}

func NewRouter(hub *Hub, deps RouterDeps, log zerolog.Logger) *Router {
	return &Router{hub: hub, deps: deps, log: log.With().Str("component", "ws_router").Logger()}
}

type idPayload struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"chatId"`
	DisputeID uuid.UUID `json:"disputeId"`
	JobID     uuid.UUID `json:"jobId"`
}

// first returns the first non-nil id so clients may send either the bare
// "id" or the named key.
func (p idPayload) first(named uuid.UUID) uuid.UUID {
	if named != uuid.Nil {
		return named
	}
	return p.ID
}

type sendMessagePayload struct {
	ChatID  uuid.UUID `json:"chatId"`
	Content string    `json:"content"`
}

type shareLocationPayload struct {
	JobID uuid.UUID `json:"jobId"`
	Lat   float64   `json:"lat"`
	Lng   float64   `json:"lng"`
}

type signalPayload struct {
	RoomID string          `json:"roomId"`
	Signal json.RawMessage `json:"signal"`
}

func (r *Router) Dispatch(ctx context.Context, c *Client, in Envelope) {
	var err error
	switch in.Event {
	case eventJoinUser:
		r.join(c, realtime.UserRoom(c.actor.ID))
	case eventJoinTech:
		err = r.joinTech(ctx, c)
	case eventJoinChat:
		err = r.joinChat(ctx, c, in.Data)
	case eventJoinDispute:
		err = r.joinDispute(ctx, c, in.Data)
	case eventJoinJob:
		err = r.joinJob(ctx, c, in.Data)
	case eventSendMessage:
		err = r.sendMessage(ctx, c, in.Data)
	case eventShareLocation:
		err = r.shareLocation(ctx, c, in.Data)
	case realtime.EventSignal:
		err = r.signal(ctx, c, in.Data)
	default:
		err = errUnknownEvent
	}
	if err != nil {
		c.reply(eventError, errorPayload{Event: in.Event, Message: clientMessage(err)})
	}
}

func (r *Router) join(c *Client, room string) {
	if r.hub.Join(c, room) {
		c.reply(eventJoined, joinedPayload{Room: room})
	}
}

func (r *Router) joinTech(ctx context.Context, c *Client) error {
	if !c.actor.IsTech() {
		return usecase.ErrForbidden
	}
	tech, err := r.deps.Techs.OwnProfile(ctx, c.actor)
	if err != nil {
		return err
	}
	r.join(c, realtime.TechRoom(tech.ID))
	return nil
}

func (r *Router) joinChat(ctx context.Context, c *Client, data json.RawMessage) error {
	var p idPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	id := p.first(p.ChatID)
	if _, err := r.deps.Chats.Participant(ctx, c.actor, id); err != nil {
		return err
	}
	r.join(c, realtime.ChatRoom(id))
	return nil
}

func (r *Router) joinDispute(ctx context.Context, c *Client, data json.RawMessage) error {
	var p idPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	id := p.first(p.DisputeID)
	if err := r.deps.Disputes.CanJoin(ctx, c.actor, id); err != nil {
		return err
	}
	r.join(c, realtime.DisputeRoom(id))
	return nil
}

func (r *Router) joinJob(ctx context.Context, c *Client, data json.RawMessage) error {
	var p idPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	id := p.first(p.JobID)
	if _, err := r.deps.Jobs.Participant(ctx, c.actor, id); err != nil {
		return err
	}
	r.join(c, realtime.JobRoom(id))
	return nil
}

func (r *Router) sendMessage(ctx context.Context, c *Client, data json.RawMessage) error {
	var p sendMessagePayload
	if err := decode(data, &p); err != nil {
		return err
	}
	_, err := r.deps.Chats.Send(ctx, c.actor, p.ChatID, p.Content)
	return err
}

func (r *Router) shareLocation(ctx context.Context, c *Client, data json.RawMessage) error {
	if !c.actor.IsTech() {
		return usecase.ErrForbidden
	}
	var p shareLocationPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	_, err := r.deps.Techs.ShareLocation(ctx, c.actor, p.JobID, p.Lat, p.Lng)
	return err
}

// signal relays to a room the sender already joined.
func (r *Router) signal(ctx context.Context, c *Client, data json.RawMessage) error {
	var p signalPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if p.RoomID == "" || !r.hub.InRoom(c, p.RoomID) {
		return usecase.ErrNotParticipant
	}
	r.deps.Notifier.Emit(ctx, p.RoomID, realtime.EventSignal, realtime.Signal{
		RoomID: p.RoomID,
		From:   c.actor.ID,
		Data:   p.Signal,
	})
	return nil
}

var (
	errUnknownEvent = errors.New("unknown event")
	errBadPayload   = errors.New("invalid payload")
)

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errBadPayload
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errBadPayload
	}
	return nil
}

// clientMessage keeps internal failures off the wire.
func clientMessage(err error) string {
	switch {
	case errors.Is(err, errUnknownEvent), errors.Is(err, errBadPayload):
		return err.Error()
	case errors.Is(err, usecase.ErrNotParticipant),
		errors.Is(err, usecase.ErrForbidden),
		errors.Is(err, usecase.ErrNotYourJob),
		errors.Is(err, usecase.ErrJobNotFound),
		errors.Is(err, usecase.ErrJobNotAssigned),
		errors.Is(err, usecase.ErrDisputeNotFound),
		errors.Is(err, usecase.ErrChatNotFound),
		errors.Is(err, usecase.ErrTechProfileNotFound),
		errors.Is(err, usecase.ErrInvalidInput):
		return err.Error()
	default:
		return "internal error"
	}
}
