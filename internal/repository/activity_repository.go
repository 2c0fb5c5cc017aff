package repository

import (
	"context"
	"encoding/json"
	"time"

	"fixitnow/internal/database"
	"fixitnow/internal/domain/activity"

	"github.com/doug-martin/goqu/v9"
)

type PostgresActivityRepository struct {
	db database.DB
}

func NewPostgresActivityRepository(db database.DB) *PostgresActivityRepository {
	return &PostgresActivityRepository{db: db}
}

func (r *PostgresActivityRepository) Create(ctx context.Context, a activity.Activity) error {
	details, err := json.Marshal(a.Details)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO activities (id, action, user_id, details, ip, created_at) VALUES ($1, $2, $3, $4::jsonb, $5, $6)`,
		a.ID, string(a.Action), a.UserID, string(details), a.IP, a.CreatedAt,
	)
	return err
}

func (r *PostgresActivityRepository) List(ctx context.Context, f activity.ListFilter) ([]activity.Activity, int, error) {
	limit, offset := normalizePage(f.Limit, f.Offset, 20, 100)

	where := []goqu.Expression{}
	if f.Action != "" {
		where = append(where, goqu.I("a.action").Eq(string(f.Action)))
	}
	if f.From != nil {
		where = append(where, goqu.I("a.created_at").Gte(*f.From))
	}
	if f.To != nil {
		where = append(where, goqu.I("a.created_at").Lte(*f.To))
	}

	base := pg.From(goqu.T("activities").As("a")).Prepared(true).
		LeftJoin(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("a.user_id")))).
		Where(where...)

	countSQL, countArgs, err := build(base.Select(goqu.COUNT("*")))
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listSQL, listArgs, err := build(base.
		Select(goqu.L(`a.id, a.action, a.user_id, COALESCE(u.name, ''), a.details::text, a.ip, a.created_at`)).
		Order(goqu.I("a.created_at").Desc()).
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

	out := make([]activity.Activity, 0, limit)
	for rows.Next() {
		var a activity.Activity
		var action, details string
		if err := rows.Scan(&a.ID, &action, &a.UserID, &a.UserName, &details, &a.IP, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		a.Action = activity.Action(action)
		a.Details = activity.Details{}
		if details != "" {
			if err := json.Unmarshal([]byte(details), &a.Details); err != nil {
				return nil, 0, err
			}
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *PostgresActivityRepository) CountSince(ctx context.Context, actions []activity.Action, since time.Time) ([]activity.Count, error) {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	rows, err := r.db.Query(ctx,
		`SELECT action, COUNT(*) FROM activities
		 WHERE action = ANY($1::text[]) AND created_at >= $2
		 GROUP BY action ORDER BY action`,
		names, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[activity.Action]int, len(actions))
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, err
		}
		counts[activity.Action(action)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]activity.Count, 0, len(actions))
	for _, a := range actions {
		out = append(out, activity.Count{Action: a, Count: counts[a]})
	}
	return out, nil
}
