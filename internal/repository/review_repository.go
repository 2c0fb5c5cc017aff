package repository

import (
	"context"

	"fixitnow/internal/database"
	"fixitnow/internal/database/postgres"
	"fixitnow/internal/domain/review"

	"github.com/google/uuid"
)

type PostgresReviewRepository struct {
	db database.DB
}

func NewPostgresReviewRepository(db database.DB) *PostgresReviewRepository {
	return &PostgresReviewRepository{db: db}
}

func (r *PostgresReviewRepository) Create(ctx context.Context, rv review.Review) error {
	images := rv.Images
	if images == nil {
		images = []string{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO reviews (id, job_id, user_id, tech_id, rating, comment, images, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rv.ID, rv.JobID, rv.UserID, rv.TechID, rv.Rating, rv.Comment, images, rv.CreatedAt,
	)
	if postgres.IsUniqueViolation(err) {
		return review.ErrAlreadyExists
	}
	return err
}

func (r *PostgresReviewRepository) ListByTech(ctx context.Context, techID uuid.UUID, limit, offset int) ([]review.Review, int, error) {
	limit, offset = normalizePage(limit, offset, 10, 50)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE tech_id = $1`, techID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.job_id, r.user_id, u.name, r.tech_id, r.rating, r.comment, r.images, r.created_at
		 FROM reviews r JOIN users u ON u.id = r.user_id
		 WHERE r.tech_id = $1
		 ORDER BY r.created_at DESC
		 LIMIT $2 OFFSET $3`,
		techID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]review.Review, 0, limit)
	for rows.Next() {
		var rv review.Review
		var rating int16
		if err := rows.Scan(&rv.ID, &rv.JobID, &rv.UserID, &rv.UserName, &rv.TechID, &rating, &rv.Comment, &rv.Images, &rv.CreatedAt); err != nil {
			return nil, 0, err
		}
		rv.Rating = int(rating)
		if rv.Images == nil {
			rv.Images = []string{}
		}
		out = append(out, rv)
	}
	return out, total, rows.Err()
}

func (r *PostgresReviewRepository) Summary(ctx context.Context, techID uuid.UUID) (review.Summary, error) {
	var s review.Summary
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM reviews WHERE tech_id = $1`,
		techID,
	).Scan(&s.AverageRating, &s.ReviewCount)
	return s, err
}
