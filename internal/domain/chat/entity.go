package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type SenderModel string

const (
	SenderUser       SenderModel = "User"
	SenderTechnician SenderModel = "Technician"
)

const MaxMessageLength = 1000

var ErrNotFound = errors.New("chat not found")

type Message struct {
	ID          uuid.UUID   `json:"id"`
	ChatID      uuid.UUID   `json:"chatId"`
	SenderID    uuid.UUID   `json:"senderId"`
	SenderModel SenderModel `json:"senderModel"`
	Content     string      `json:"content"`
	CreatedAt   time.Time   `json:"timestamp"`
}

type Chat struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"userId"`
	UserName      string     `json:"userName,omitempty"`
	TechID        uuid.UUID  `json:"techId"`
	TechUserID    uuid.UUID  `json:"techUserId"`
	TechName      string     `json:"techName,omitempty"`
	LastMessage   string     `json:"lastMessage,omitempty"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	UnreadForUser int        `json:"unreadForUser"`
	UnreadForTech int        `json:"unreadForTech"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// IsParticipant reports whether the account is either side of the chat.
func (c Chat) IsParticipant(userID uuid.UUID) bool {
	return userID == c.UserID || userID == c.TechUserID
}

type Repository interface {
	// GetOrCreate returns the single chat for the (user, technician) pair.
	GetOrCreate(ctx context.Context, userID, techID uuid.UUID) (Chat, error)
	GetByID(ctx context.Context, id uuid.UUID) (Chat, error)
	// AddMessage stores the message, updates last_message and bumps the
	// unread counter of the side that did not send it.
	AddMessage(ctx context.Context, m Message) error
	MarkRead(ctx context.Context, id uuid.UUID, side SenderModel) error
	ListForParticipant(ctx context.Context, userID uuid.UUID, limit int) ([]Chat, error)
	Messages(ctx context.Context, chatID uuid.UUID) ([]Message, error)
}
