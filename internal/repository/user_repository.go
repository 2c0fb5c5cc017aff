package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fixitnow/internal/database"
	"fixitnow/internal/database/postgres"
	"fixitnow/internal/domain/user"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const userColumns = `id, name, email, phone, password_hash, role, loyalty_points, referral_code, referred_by, address, lat, lng, created_at, updated_at`

type PostgresUserRepository struct {
	db database.DB
}

func NewPostgresUserRepository(db database.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func scanUser(row database.Row) (user.User, error) {
	var u user.User
	var role string
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &role, &u.LoyaltyPoints,
		&u.ReferralCode, &u.ReferredBy, &u.Address, &u.Lat, &u.Lng, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if postgres.IsNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	u.Role = user.Role(role)
	if u.ReferralCode != nil {
		code := strings.TrimSpace(*u.ReferralCode)
		u.ReferralCode = &code
	}
	return u, nil
}

func (r *PostgresUserRepository) Create(ctx context.Context, u user.User) error {
	now := time.Now().UTC()
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, name, email, phone, password_hash, role, loyalty_points, referral_code, referred_by, address, lat, lng, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`,
		u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, string(u.Role), u.LoyaltyPoints,
		u.ReferralCode, u.ReferredBy, u.Address, u.Lat, u.Lng, now,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return user.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (r *PostgresUserRepository) GetByReferralCode(ctx context.Context, code string) (user.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, strings.ToUpper(code)))
}

func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`, email).Scan(&exists)
	return exists, err
}

func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, in user.ProfileUpdate) (user.User, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE users SET
			name = COALESCE($2, name),
			phone = COALESCE($3, phone),
			address = COALESCE($4, address),
			lat = COALESCE($5, lat),
			lng = COALESCE($6, lng),
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, in.Name, in.Phone, in.Address, in.Lat, in.Lng,
	)
	u, err := scanUser(row)
	if err != nil && postgres.IsUniqueViolation(err) {
		return user.User{}, user.ErrDuplicate
	}
	return u, err
}

func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	n, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) SetReferralCode(ctx context.Context, id uuid.UUID, code string) error {
	n, err := r.db.Exec(ctx, `UPDATE users SET referral_code = $2, updated_at = now() WHERE id = $1`, id, code)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return user.ErrDuplicate
		}
		return err
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) ApplyReferral(ctx context.Context, id, referrerID uuid.UUID, bonus int) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		n, err := tx.Exec(ctx,
			`UPDATE users SET referred_by = $2, updated_at = now() WHERE id = $1 AND referred_by IS NULL`,
			id, referrerID,
		)
		if err != nil {
			return err
		}
		if n == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return user.ErrNotFound
			}
			return user.ErrAlreadyReferred
		}

		n, err = tx.Exec(ctx,
			`UPDATE users SET loyalty_points = loyalty_points + $2, updated_at = now() WHERE id = $1`,
			referrerID, bonus,
		)
		if err != nil {
			return err
		}
		if n == 0 {
			return user.ErrNotFound
		}
		return nil
	})
}

func (r *PostgresUserRepository) AddLoyaltyPoints(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	var balance int
	err := r.db.QueryRow(ctx,
		`UPDATE users SET loyalty_points = loyalty_points + $2, updated_at = now()
		 WHERE id = $1 AND loyalty_points + $2 >= 0
		 RETURNING loyalty_points`,
		id, delta,
	).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !postgres.IsNoRows(err) {
		return 0, err
	}

	// No row updated: either the user is gone or the balance is too low.
	if _, gerr := r.GetByID(ctx, id); gerr != nil {
		return 0, gerr
	}
	return 0, user.ErrInsufficientPoints
}

func (r *PostgresUserRepository) SetLoyaltyPoints(ctx context.Context, id uuid.UUID, points int) error {
	n, err := r.db.Exec(ctx, `UPDATE users SET loyalty_points = $2, updated_at = now() WHERE id = $1`, id, points)
	if err != nil {
		return err
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) List(ctx context.Context, f user.ListFilter) ([]user.User, int, error) {
	limit, offset := normalizePage(f.Limit, f.Offset, 20, 100)

	where := []goqu.Expression{}
	if f.Role != "" {
		where = append(where, goqu.C("role").Eq(string(f.Role)))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		where = append(where, goqu.Or(
			goqu.C("name").ILike(like),
			goqu.C("email").ILike(like),
			goqu.C("phone").ILike(like),
		))
	}

	countSQL, countArgs, err := build(pg.From("users").Prepared(true).Select(goqu.COUNT("*")).Where(where...))
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listSQL, listArgs, err := build(pg.From("users").Prepared(true).
		Select(goqu.L(userColumns)).
		Where(where...).
		Order(goqu.C("created_at").Desc()).
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

	out := make([]user.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return out, total, nil
}

func (r *PostgresUserRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
