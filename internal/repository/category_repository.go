package repository

import (
	"context"

	"fixitnow/internal/database"
	"fixitnow/internal/database/postgres"
	"fixitnow/internal/domain/category"

	"github.com/google/uuid"
)

const categoryColumns = `id, name, description, base_price_min::float8, base_price_max::float8, icon, active, created_at, updated_at`

type PostgresCategoryRepository struct {
	db database.DB
}

func NewPostgresCategoryRepository(db database.DB) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{db: db}
}

func scanCategory(row database.Row) (category.Category, error) {
	var c category.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.BasePriceRange.Min, &c.BasePriceRange.Max,
		&c.Icon, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return category.Category{}, category.ErrNotFound
		}
		return category.Category{}, err
	}
	return c, nil
}

func (r *PostgresCategoryRepository) Create(ctx context.Context, c category.Category) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO service_categories (id, name, description, base_price_min, base_price_max, icon, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		c.ID, c.Name, c.Description, c.BasePriceRange.Min, c.BasePriceRange.Max, c.Icon, c.Active, c.CreatedAt,
	)
	if postgres.IsUniqueViolation(err) {
		return category.ErrDuplicate
	}
	return err
}

func (r *PostgresCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (category.Category, error) {
	return scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM service_categories WHERE id = $1`, id))
}

func (r *PostgresCategoryRepository) GetByName(ctx context.Context, name string) (category.Category, error) {
	return scanCategory(r.db.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM service_categories WHERE lower(name) = lower($1)`, name))
}

func (r *PostgresCategoryRepository) ListActive(ctx context.Context) ([]category.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT `+categoryColumns+` FROM service_categories WHERE active ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]category.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresCategoryRepository) Update(ctx context.Context, id uuid.UUID, in category.Update) (category.Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx,
		`UPDATE service_categories SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			base_price_min = COALESCE($4, base_price_min),
			base_price_max = COALESCE($5, base_price_max),
			icon = COALESCE($6, icon),
			active = COALESCE($7, active),
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+categoryColumns,
		id, in.Name, in.Description, in.PriceMin, in.PriceMax, in.Icon, in.Active,
	))
	if postgres.IsUniqueViolation(err) {
		return category.Category{}, category.ErrDuplicate
	}
	return c, err
}

func (r *PostgresCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.db.Exec(ctx, `DELETE FROM service_categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return category.ErrNotFound
	}
	return nil
}

func (r *PostgresCategoryRepository) CountExisting(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM service_categories WHERE id = ANY($1::uuid[])`, uuidStrings(ids),
	).Scan(&n)
	return n, err
}
