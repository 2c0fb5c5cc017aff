package repository

import (
	"context"
	"time"

	"fixitnow/internal/database"
	"fixitnow/internal/database/postgres"
	"fixitnow/internal/domain/passwordreset"

	"github.com/google/uuid"
)

type PostgresPasswordResetRepository struct {
	db database.DB
}

func NewPostgresPasswordResetRepository(db database.DB) *PostgresPasswordResetRepository {
	return &PostgresPasswordResetRepository{db: db}
}

func (r *PostgresPasswordResetRepository) Replace(ctx context.Context, rs passwordreset.Reset) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM password_resets WHERE user_id = $1`, rs.UserID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO password_resets (id, user_id, token, expires_at, created_at) VALUES ($1, $2, $3, $4, $5)`,
			rs.ID, rs.UserID, rs.Token, rs.ExpiresAt, rs.CreatedAt,
		)
		return err
	})
}

func (r *PostgresPasswordResetRepository) GetByToken(ctx context.Context, token string) (passwordreset.Reset, error) {
	var rs passwordreset.Reset
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, token, expires_at, created_at FROM password_resets WHERE token = $1`, token,
	).Scan(&rs.ID, &rs.UserID, &rs.Token, &rs.ExpiresAt, &rs.CreatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return passwordreset.Reset{}, passwordreset.ErrNotFound
		}
		return passwordreset.Reset{}, err
	}
	return rs, nil
}

func (r *PostgresPasswordResetRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM password_resets WHERE user_id = $1`, userID)
	return err
}

func (r *PostgresPasswordResetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.db.Exec(ctx, `DELETE FROM password_resets WHERE expires_at <= $1`, now)
}
