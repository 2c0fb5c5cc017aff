package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"fixitnow/internal/domain/activity"
	"fixitnow/internal/domain/chat"
	"fixitnow/internal/domain/technician"
	"fixitnow/internal/domain/user"
	"fixitnow/internal/realtime"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	chatListLimit      = 50
	activityPreviewLen = 50
)

type NewMessageEvent struct {
	ChatID  uuid.UUID    `json:"chatId"`
	Message chat.Message `json:"message"`
}

type MessagesReadEvent struct {
	ChatID uuid.UUID        `json:"chatId"`
	By     chat.SenderModel `json:"by"`
}

type ChatUsecase interface {
	GetOrCreate(ctx context.Context, actor Actor, techID uuid.UUID) (chat.Chat, error)
	Send(ctx context.Context, actor Actor, chatID uuid.UUID, content string) (chat.Message, error)
	MarkRead(ctx context.Context, actor Actor, chatID uuid.UUID) error
	List(ctx context.Context, actor Actor) ([]chat.Chat, error)
	Messages(ctx context.Context, actor Actor, chatID uuid.UUID) ([]chat.Message, error)
	// Participant loads the chat when the caller is one of its two sides.
	Participant(ctx context.Context, actor Actor, chatID uuid.UUID) (chat.Chat, error)
}

type Chats struct {
	chats    chat.Repository
	techs    technician.Repository
	notifier Notifier
	activity ActivityRecorder
	log      zerolog.Logger
	now      func() time.Time
}

func NewChatUsecase(chats chat.Repository, techs technician.Repository, notifier Notifier, rec ActivityRecorder, log zerolog.Logger) *Chats {
	return &Chats{
		chats:    chats,
		techs:    techs,
		notifier: notifierOrNoop(notifier),
		activity: recorderOrNoop(rec),
		log:      log.With().Str("component", "chat").Logger(),
		now:      time.Now,
	}
}

func (u *Chats) GetOrCreate(ctx context.Context, actor Actor, techID uuid.UUID) (chat.Chat, error) {
	if actor.Role != user.RoleUser {
		return chat.Chat{}, ErrForbidden
	}
	if _, err := u.techs.GetByID(ctx, techID); err != nil {
		if errors.Is(err, technician.ErrNotFound) {
			return chat.Chat{}, ErrTechnicianNotFound
		}
		return chat.Chat{}, ErrInternal
	}

	c, err := u.chats.GetOrCreate(ctx, actor.ID, techID)
	if err != nil {
		u.log.Error().Err(err).Msg("get or create chat")
		return chat.Chat{}, ErrInternal
	}
	return c, nil
}

func (u *Chats) Send(ctx context.Context, actor Actor, chatID uuid.UUID, content string) (chat.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > chat.MaxMessageLength {
		return chat.Message{}, ErrInvalidInput
	}

	c, err := u.Participant(ctx, actor, chatID)
	if err != nil {
		return chat.Message{}, err
	}

	m := chat.Message{
		ID:          uuid.New(),
		ChatID:      c.ID,
		SenderID:    actor.ID,
		SenderModel: senderModel(actor),
		Content:     content,
		CreatedAt:   u.now().UTC(),
	}
	if err := u.chats.AddMessage(ctx, m); err != nil {
		u.log.Error().Err(err).Str("chat_id", c.ID.String()).Msg("add chat message")
		return chat.Message{}, ErrInternal
	}

	u.notifier.Emit(ctx, realtime.ChatRoom(c.ID), realtime.EventNewMessage, NewMessageEvent{ChatID: c.ID, Message: m})
	u.activity.Record(ctx, activity.MessageSent, actorPtr(actor.ID), activity.Details{
		"chatId":  c.ID.String(),
		"content": preview(content),
	}, actor.IP)
	return m, nil
}

func (u *Chats) MarkRead(ctx context.Context, actor Actor, chatID uuid.UUID) error {
	c, err := u.Participant(ctx, actor, chatID)
	if err != nil {
		return err
	}

	side := chat.SenderUser
	if actor.ID == c.TechUserID {
		side = chat.SenderTechnician
	}
	if err := u.chats.MarkRead(ctx, c.ID, side); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return ErrChatNotFound
		}
		return ErrInternal
	}

	u.notifier.Emit(ctx, realtime.ChatRoom(c.ID), realtime.EventMessagesRead, MessagesReadEvent{ChatID: c.ID, By: side})
	return nil
}

func (u *Chats) List(ctx context.Context, actor Actor) ([]chat.Chat, error) {
	out, err := u.chats.ListForParticipant(ctx, actor.ID, chatListLimit)
	if err != nil {
		u.log.Error().Err(err).Msg("list chats")
		return nil, ErrInternal
	}
	return out, nil
}

func (u *Chats) Messages(ctx context.Context, actor Actor, chatID uuid.UUID) ([]chat.Message, error) {
	c, err := u.Participant(ctx, actor, chatID)
	if err != nil {
		return nil, err
	}
	out, err := u.chats.Messages(ctx, c.ID)
	if err != nil {
		return nil, ErrInternal
	}
	return out, nil
}

func (u *Chats) Participant(ctx context.Context, actor Actor, chatID uuid.UUID) (chat.Chat, error) {
	c, err := u.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return chat.Chat{}, ErrChatNotFound
		}
		return chat.Chat{}, ErrInternal
	}
	if !c.IsParticipant(actor.ID) {
		return chat.Chat{}, ErrNotParticipant
	}
	return c, nil
}

func senderModel(actor Actor) chat.SenderModel {
	if actor.IsTech() {
		return chat.SenderTechnician
	}
	return chat.SenderUser
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= activityPreviewLen {
		return s
	}
	r := []rune(s)
	return string(r[:activityPreviewLen]) + "..."
}
