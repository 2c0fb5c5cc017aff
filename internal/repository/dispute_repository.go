package repository

import (
	"context"
	"time"

	"fixitnow/internal/database"
	"fixitnow/internal/database/postgres"
	"fixitnow/internal/domain/dispute"

	"github.com/google/uuid"
)

const disputeColumns = `d.id, d.job_id, d.opened_by, d.reason, d.status, d.resolution, d.resolved_by, d.resolved_at, d.created_at, d.updated_at`

type PostgresDisputeRepository struct {
	db database.DB
}

func NewPostgresDisputeRepository(db database.DB) *PostgresDisputeRepository {
	return &PostgresDisputeRepository{db: db}
}

func scanDispute(row database.Row) (dispute.Dispute, error) {
	var d dispute.Dispute
	var status string
	err := row.Scan(&d.ID, &d.JobID, &d.OpenedBy, &d.Reason, &status, &d.Resolution, &d.ResolvedBy, &d.ResolvedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return dispute.Dispute{}, dispute.ErrNotFound
		}
		return dispute.Dispute{}, err
	}
	d.Status = dispute.Status(status)
	return d, nil
}

func (r *PostgresDisputeRepository) Create(ctx context.Context, d dispute.Dispute) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO disputes (id, job_id, opened_by, reason, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		d.ID, d.JobID, d.OpenedBy, d.Reason, string(d.Status), d.CreatedAt,
	)
	if postgres.IsUniqueViolation(err) {
		return dispute.ErrAlreadyExists
	}
	return err
}

func (r *PostgresDisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (dispute.Dispute, error) {
	d, err := scanDispute(r.db.QueryRow(ctx, `SELECT `+disputeColumns+` FROM disputes d WHERE d.id = $1`, id))
	if err != nil {
		return dispute.Dispute{}, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, sender_id, content, created_at FROM dispute_messages WHERE dispute_id = $1 ORDER BY created_at ASC`,
		id,
	)
	if err != nil {
		return dispute.Dispute{}, err
	}
	defer rows.Close()

	d.Messages = make([]dispute.Message, 0)
	for rows.Next() {
		var m dispute.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return dispute.Dispute{}, err
		}
		d.Messages = append(d.Messages, m)
	}
	return d, rows.Err()
}

// ListForUser returns disputes the account opened or is party to through
// the job, either as customer or as assigned technician.
func (r *PostgresDisputeRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]dispute.Dispute, error) {
	limit, _ = normalizePage(limit, 0, 50, 100)
	rows, err := r.db.Query(ctx,
		`SELECT `+disputeColumns+`
		 FROM disputes d
		 JOIN jobs j ON j.id = d.job_id
		 JOIN technicians t ON t.id = j.tech_id
		 WHERE d.opened_by = $1 OR j.user_id = $1 OR t.user_id = $1
		 ORDER BY d.created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dispute.Dispute, 0)
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PostgresDisputeRepository) AddMessage(ctx context.Context, disputeID uuid.UUID, m dispute.Message) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO dispute_messages (id, dispute_id, sender_id, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
			m.ID, disputeID, m.SenderID, m.Content, m.CreatedAt,
		); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE disputes SET updated_at = now() WHERE id = $1`, disputeID)
		return err
	})
}

func (r *PostgresDisputeRepository) SetStatus(ctx context.Context, id uuid.UUID, status dispute.Status) error {
	n, err := r.db.Exec(ctx, `UPDATE disputes SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if n == 0 {
		return dispute.ErrNotFound
	}
	return nil
}

func (r *PostgresDisputeRepository) Resolve(ctx context.Context, id uuid.UUID, resolvedBy uuid.UUID, resolution string, at time.Time) error {
	n, err := r.db.Exec(ctx,
		`UPDATE disputes SET status = 'resolved', resolution = $2, resolved_by = $3, resolved_at = $4, updated_at = now()
		 WHERE id = $1`,
		id, resolution, resolvedBy, at,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return dispute.ErrNotFound
	}
	return nil
}

func (r *PostgresDisputeRepository) CountForTechnician(ctx context.Context, techID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM disputes d
		 JOIN jobs j ON j.id = d.job_id
		 JOIN technicians t ON t.id = j.tech_id
		 WHERE j.tech_id = $1 AND d.opened_by <> t.user_id`,
		techID,
	).Scan(&n)
	return n, err
}
