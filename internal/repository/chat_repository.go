package repository

import (
	"context"

	"fixitnow/internal/database"
	"fixitnow/internal/database/postgres"
	"fixitnow/internal/domain/chat"

	"github.com/google/uuid"
)

const chatColumns = `c.id, c.user_id, u.name, c.tech_id, t.user_id, tu.name, c.last_message, c.last_message_at,
	c.unread_for_user, c.unread_for_tech, c.created_at, c.updated_at`

const chatFrom = ` FROM chats c
	JOIN users u ON u.id = c.user_id
	JOIN technicians t ON t.id = c.tech_id
	JOIN users tu ON tu.id = t.user_id`

type PostgresChatRepository struct {
	db database.DB
}

func NewPostgresChatRepository(db database.DB) *PostgresChatRepository {
	return &PostgresChatRepository{db: db}
}

func scanChat(row database.Row) (chat.Chat, error) {
	var c chat.Chat
	err := row.Scan(&c.ID, &c.UserID, &c.UserName, &c.TechID, &c.TechUserID, &c.TechName,
		&c.LastMessage, &c.LastMessageAt, &c.UnreadForUser, &c.UnreadForTech, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return chat.Chat{}, chat.ErrNotFound
		}
		return chat.Chat{}, err
	}
	return c, nil
}

func (r *PostgresChatRepository) GetOrCreate(ctx context.Context, userID, techID uuid.UUID) (chat.Chat, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO chats (id, user_id, tech_id) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, tech_id) DO NOTHING`,
		uuid.New(), userID, techID,
	)
	if err != nil {
		return chat.Chat{}, err
	}
	return scanChat(r.db.QueryRow(ctx,
		`SELECT `+chatColumns+chatFrom+` WHERE c.user_id = $1 AND c.tech_id = $2`, userID, techID))
}

func (r *PostgresChatRepository) GetByID(ctx context.Context, id uuid.UUID) (chat.Chat, error) {
	return scanChat(r.db.QueryRow(ctx, `SELECT `+chatColumns+chatFrom+` WHERE c.id = $1`, id))
}

func (r *PostgresChatRepository) AddMessage(ctx context.Context, m chat.Message) error {
	unread := "unread_for_tech"
	if m.SenderModel == chat.SenderTechnician {
		unread = "unread_for_user"
	}
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO chat_messages (id, chat_id, sender_id, sender_model, content, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			m.ID, m.ChatID, m.SenderID, string(m.SenderModel), m.Content, m.CreatedAt,
		); err != nil {
			return err
		}
		n, err := tx.Exec(ctx,
			`UPDATE chats SET last_message = $2, last_message_at = $3, `+unread+` = `+unread+` + 1, updated_at = now()
			 WHERE id = $1`,
			m.ChatID, m.Content, m.CreatedAt,
		)
		if err != nil {
			return err
		}
		if n == 0 {
			return chat.ErrNotFound
		}
		return nil
	})
}

func (r *PostgresChatRepository) MarkRead(ctx context.Context, id uuid.UUID, side chat.SenderModel) error {
	column := "unread_for_user"
	if side == chat.SenderTechnician {
		column = "unread_for_tech"
	}
	n, err := r.db.Exec(ctx, `UPDATE chats SET `+column+` = 0, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return chat.ErrNotFound
	}
	return nil
}

func (r *PostgresChatRepository) ListForParticipant(ctx context.Context, userID uuid.UUID, limit int) ([]chat.Chat, error) {
	limit, _ = normalizePage(limit, 0, 50, 100)
	rows, err := r.db.Query(ctx,
		`SELECT `+chatColumns+chatFrom+`
		 WHERE c.user_id = $1 OR t.user_id = $1
		 ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]chat.Chat, 0)
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresChatRepository) Messages(ctx context.Context, chatID uuid.UUID) ([]chat.Message, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, chat_id, sender_id, sender_model, content, created_at
		 FROM chat_messages WHERE chat_id = $1 ORDER BY created_at ASC`,
		chatID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]chat.Message, 0)
	for rows.Next() {
		var m chat.Message
		var model string
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &model, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.SenderModel = chat.SenderModel(model)
		out = append(out, m)
	}
	return out, rows.Err()
}
