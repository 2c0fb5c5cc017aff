package repository

import (
	"context"

	"fixitnow/internal/database"
	"fixitnow/internal/database/postgres"
	"fixitnow/internal/domain/job"
	"fixitnow/internal/domain/technician"
	"fixitnow/internal/domain/user"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const jobColumns = `j.id, j.user_id, j.tech_id, t.user_id, u.name, tu.name, t.rating,
	j.service_type, j.description, j.status, j.price::float8, j.payment_status,
	j.beneficiary_name, j.beneficiary_phone, j.video_call_id, j.review_rating, j.review_comment,
	j.completed_at, j.created_at, j.updated_at`

const jobFrom = ` FROM jobs j
	JOIN users u ON u.id = j.user_id
	JOIN technicians t ON t.id = j.tech_id
	JOIN users tu ON tu.id = t.user_id`

type PostgresJobRepository struct {
	db database.DB
}

func NewPostgresJobRepository(db database.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

func scanJob(row database.Row) (job.Job, error) {
	var j job.Job
	var status, payment, comment string
	var rating *int16
	err := row.Scan(
		&j.ID, &j.UserID, &j.TechID, &j.TechUserID, &j.UserName, &j.TechName, &j.TechRating,
		&j.ServiceType, &j.Description, &status, &j.Price, &payment,
		&j.BeneficiaryName, &j.BeneficiaryPhone, &j.VideoCallID, &rating, &comment,
		&j.CompletedAt, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if postgres.IsNoRows(err) {
			return job.Job{}, job.ErrNotFound
		}
		return job.Job{}, err
	}
	j.Status = job.Status(status)
	j.PaymentStatus = job.PaymentStatus(payment)
	if rating != nil {
		j.Review = &job.Review{Rating: int(*rating), Comment: comment}
	}
	return j, nil
}

func (r *PostgresJobRepository) Create(ctx context.Context, j job.Job) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO jobs (id, user_id, tech_id, service_type, description, status, price, payment_status,
			beneficiary_name, beneficiary_phone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		j.ID, j.UserID, j.TechID, j.ServiceType, j.Description, string(j.Status), j.Price, string(j.PaymentStatus),
		j.BeneficiaryName, j.BeneficiaryPhone, j.CreatedAt,
	)
	switch postgres.ForeignKeyViolation(err) {
	case "":
		return err
	case "jobs_tech_id_fkey":
		return technician.ErrNotFound
	default:
		return user.ErrNotFound
	}
}

func (r *PostgresJobRepository) GetByID(ctx context.Context, id uuid.UUID) (job.Job, error) {
	return scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+jobFrom+` WHERE j.id = $1`, id))
}

func (r *PostgresJobRepository) List(ctx context.Context, f job.ListFilter) ([]job.Job, int, error) {
	limit, offset := normalizePage(f.Limit, f.Offset, 10, 100)

	where := []goqu.Expression{}
	if f.UserID != nil {
		where = append(where, goqu.I("j.user_id").Eq(*f.UserID))
	}
	if f.TechID != nil {
		where = append(where, goqu.I("j.tech_id").Eq(*f.TechID))
	}
	if f.Status != "" {
		where = append(where, goqu.I("j.status").Eq(string(f.Status)))
	}
	if f.From != nil {
		where = append(where, goqu.I("j.created_at").Gte(*f.From))
	}
	if f.To != nil {
		where = append(where, goqu.I("j.created_at").Lte(*f.To))
	}

	base := pg.From(goqu.T("jobs").As("j")).Prepared(true).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("j.user_id")))).
		Join(goqu.T("technicians").As("t"), goqu.On(goqu.I("t.id").Eq(goqu.I("j.tech_id")))).
		Join(goqu.T("users").As("tu"), goqu.On(goqu.I("tu.id").Eq(goqu.I("t.user_id")))).
		Where(where...)

	countSQL, countArgs, err := build(base.Select(goqu.COUNT("*")))
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listSQL, listArgs, err := build(base.Select(goqu.L(jobColumns)).
		Order(goqu.I("j.created_at").Desc()).
		Limit(uint(limit)).
		Offset(uint(offset)))
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]job.Job, 0, limit)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, j)
	}
	return out, total, rows.Err()
}

func recordHistory(ctx context.Context, q database.Querier, c job.StatusChange) error {
	_, err := q.Exec(ctx,
		`INSERT INTO job_status_history (job_id, from_status, to_status, actor_id, actor_role) VALUES ($1, $2, $3, $4, $5)`,
		c.JobID, string(c.From), string(c.To), c.ActorID, c.ActorRole,
	)
	return err
}

func (r *PostgresJobRepository) UpdateStatus(ctx context.Context, c job.StatusChange) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		n, err := tx.Exec(ctx,
			`UPDATE jobs SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
			c.JobID, string(c.From), string(c.To),
		)
		if err != nil {
			return err
		}
		if n == 0 {
			return job.ErrInvalidTransition
		}
		return recordHistory(ctx, tx, c)
	})
}

func (r *PostgresJobRepository) Complete(ctx context.Context, id uuid.UUID, comp job.Completion, c job.StatusChange) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		n, err := tx.Exec(ctx,
			`UPDATE jobs SET status = $2, review_rating = $3, review_comment = $4, payment_status = $5,
				completed_at = $6, updated_at = now()
			 WHERE id = $1 AND status = $7`,
			id, string(job.StatusCompleted), comp.Review.Rating, comp.Review.Comment,
			string(comp.PaymentStatus), comp.CompletedAt, string(c.From),
		)
		if err != nil {
			return err
		}
		if n == 0 {
			return job.ErrInvalidTransition
		}
		return recordHistory(ctx, tx, c)
	})
}

func (r *PostgresJobRepository) SetVideoCallID(ctx context.Context, id uuid.UUID, callID string) error {
	n, err := r.db.Exec(ctx, `UPDATE jobs SET video_call_id = $2, updated_at = now() WHERE id = $1`, id, callID)
	if err != nil {
		return err
	}
	if n == 0 {
		return job.ErrNotFound
	}
	return nil
}

func (r *PostgresJobRepository) SetPaymentStatus(ctx context.Context, id uuid.UUID, status job.PaymentStatus) error {
	n, err := r.db.Exec(ctx, `UPDATE jobs SET payment_status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if n == 0 {
		return job.ErrNotFound
	}
	return nil
}

// RecentPrices returns the newest positive prices booked for serviceType.
func (r *PostgresJobRepository) RecentPrices(ctx context.Context, serviceType string, limit int) ([]float64, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT price::float8 FROM jobs WHERE lower(service_type) = lower($1) AND price > 0
		 ORDER BY created_at DESC LIMIT $2`,
		serviceType, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices := make([]float64, 0, limit)
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

func (r *PostgresJobRepository) Count(ctx context.Context, status job.Status) (int, error) {
	var n int
	var err error
	if status == "" {
		err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n)
	} else {
		err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM jobs WHERE status = $1`, string(status)).Scan(&n)
	}
	return n, err
}
