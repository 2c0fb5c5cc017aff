package repository

import (
	"context"
	"time"

	"fixitnow/internal/database"
	"fixitnow/internal/database/postgres"
	"fixitnow/internal/domain/payment"

	"github.com/google/uuid"
)

const paymentColumns = `id, job_id, user_id, amount::float8, currency, method, status, paid_at, confirmed_by, created_at, updated_at`

type PostgresPaymentRepository struct {
	db database.DB
}

func NewPostgresPaymentRepository(db database.DB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

func scanPayment(row database.Row) (payment.Payment, error) {
	var p payment.Payment
	var status string
	err := row.Scan(&p.ID, &p.JobID, &p.UserID, &p.Amount, &p.Currency, &p.Method, &status,
		&p.PaidAt, &p.ConfirmedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return payment.Payment{}, payment.ErrNotFound
		}
		return payment.Payment{}, err
	}
	p.Status = payment.Status(status)
	return p, nil
}

func (r *PostgresPaymentRepository) GetOrCreate(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO payments (id, job_id, user_id, amount, currency, method, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 ON CONFLICT (job_id) DO NOTHING`,
		p.ID, p.JobID, p.UserID, p.Amount, p.Currency, p.Method, string(p.Status), p.CreatedAt,
	)
	if err != nil {
		return payment.Payment{}, err
	}
	return r.GetByJobID(ctx, p.JobID)
}

func (r *PostgresPaymentRepository) GetByJobID(ctx context.Context, jobID uuid.UUID) (payment.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE job_id = $1`, jobID))
}

func (r *PostgresPaymentRepository) MarkPaid(ctx context.Context, jobID uuid.UUID, confirmedBy uuid.UUID, at time.Time) (payment.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx,
		`UPDATE payments SET status = 'paid', paid_at = $2, confirmed_by = $3, updated_at = now()
		 WHERE job_id = $1
		 RETURNING `+paymentColumns,
		jobID, at, confirmedBy,
	))
}
