package repository

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"fixitnow/internal/database"
	"fixitnow/internal/database/postgres"
	"fixitnow/internal/domain/technician"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const technicianColumns = `t.id, t.user_id, u.name, COALESCE(u.email, ''), COALESCE(u.phone, ''),
	COALESCE((SELECT json_agg(json_build_object('id', c.id, 'name', c.name) ORDER BY c.name)
		FROM technician_services ts JOIN service_categories c ON c.id = ts.category_id
		WHERE ts.technician_id = t.id), '[]'::json),
	t.lat, t.lng, t.availability_status, t.next_available, t.rating, t.reviews_count,
	t.premium, t.approved, t.eco_friendly, t.created_at, t.updated_at`

// haversineKm is the great-circle distance between (t.lat, t.lng) and the
// two bound parameters (lat, lng), in kilometres.
const haversineKm = `6371 * 2 * asin(sqrt(
	power(sin(radians(t.lat - ?) / 2), 2) +
	cos(radians(?)) * cos(radians(t.lat)) * power(sin(radians(t.lng - ?) / 2), 2)))`

type PostgresTechnicianRepository struct {
	db database.DB
}

func NewPostgresTechnicianRepository(db database.DB) *PostgresTechnicianRepository {
	return &PostgresTechnicianRepository{db: db}
}

func scanTechnician(row database.Row, extra ...any) (technician.Technician, error) {
	var t technician.Technician
	var services []byte
	var status string
	dest := []any{
		&t.ID, &t.UserID, &t.Name, &t.Email, &t.Phone, &services,
		&t.Lat, &t.Lng, &status, &t.NextAvailable, &t.Rating, &t.ReviewsCount,
		&t.Premium, &t.Approved, &t.EcoFriendly, &t.CreatedAt, &t.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		if postgres.IsNoRows(err) {
			return technician.Technician{}, technician.ErrNotFound
		}
		return technician.Technician{}, err
	}
	t.AvailabilityStatus = technician.AvailabilityStatus(status)
	t.Services = []technician.Service{}
	if len(services) > 0 {
		if err := json.Unmarshal(services, &t.Services); err != nil {
			return technician.Technician{}, err
		}
	}
	return t, nil
}

func (r *PostgresTechnicianRepository) Create(ctx context.Context, t technician.Technician, serviceIDs []uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		now := time.Now().UTC()
		_, err := tx.Exec(ctx,
			`INSERT INTO technicians (id, user_id, lat, lng, availability_status, rating, reviews_count, premium, approved, eco_friendly, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
			t.ID, t.UserID, t.Lat, t.Lng, string(technician.StatusAvailable), t.Rating, t.ReviewsCount,
			t.Premium, t.Approved, t.EcoFriendly, now,
		)
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return technician.ErrAlreadyExists
			}
			return err
		}
		for _, sid := range serviceIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO technician_services (technician_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				t.ID, sid,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresTechnicianRepository) GetByID(ctx context.Context, id uuid.UUID) (technician.Technician, error) {
	return scanTechnician(r.db.QueryRow(ctx,
		`SELECT `+technicianColumns+` FROM technicians t JOIN users u ON u.id = t.user_id WHERE t.id = $1`, id))
}

func (r *PostgresTechnicianRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (technician.Technician, error) {
	return scanTechnician(r.db.QueryRow(ctx,
		`SELECT `+technicianColumns+` FROM technicians t JOIN users u ON u.id = t.user_id WHERE t.user_id = $1`, userID))
}

func (r *PostgresTechnicianRepository) Nearby(ctx context.Context, f technician.GeoFilter) ([]technician.Nearby, error) {
	q, args, err := nearbyQuery(f)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]technician.Nearby, 0)
	for rows.Next() {
		var d float64
		t, err := scanTechnician(rows, &d)
		if err != nil {
			return nil, err
		}
		out = append(out, technician.Nearby{Technician: t, DistanceKm: d})
	}
	return out, rows.Err()
}

func (r *PostgresTechnicianRepository) List(ctx context.Context, f technician.ListFilter) ([]technician.Technician, int, error) {
	limit, offset := normalizePage(f.Limit, f.Offset, 20, 100)

	where := []goqu.Expression{}
	if f.Approved != nil {
		where = append(where, goqu.I("t.approved").Eq(*f.Approved))
	}
	if f.Active != nil {
		status := technician.StatusBusy
		if *f.Active {
			status = technician.StatusAvailable
		}
		where = append(where, goqu.I("t.availability_status").Eq(string(status)))
	}
	if f.MinRating > 0 {
		where = append(where, goqu.I("t.rating").Gte(f.MinRating))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		where = append(where, goqu.Or(
			goqu.I("u.name").ILike(like),
			goqu.L(`EXISTS (SELECT 1 FROM technician_services ts JOIN service_categories c ON c.id = ts.category_id
				WHERE ts.technician_id = t.id AND c.name ILIKE ?)`, like),
		))
	}

	base := pg.From(goqu.T("technicians").As("t")).Prepared(true).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("t.user_id")))).
		Where(where...)

	countSQL, countArgs, err := build(base.Select(goqu.COUNT("*")))
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listSQL, listArgs, err := build(base.Select(goqu.L(technicianColumns)).
		Order(goqu.I("t.premium").Desc(), goqu.I("t.rating").Desc(), goqu.I("t.created_at").Desc()).
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

	out := make([]technician.Technician, 0, limit)
	for rows.Next() {
		t, err := scanTechnician(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *PostgresTechnicianRepository) exec(ctx context.Context, query string, args ...any) error {
	n, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return technician.ErrNotFound
	}
	return nil
}

func (r *PostgresTechnicianRepository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	return r.exec(ctx, `UPDATE technicians SET approved = $2, updated_at = now() WHERE id = $1`, id, approved)
}

func (r *PostgresTechnicianRepository) SetPremium(ctx context.Context, id uuid.UUID, premium bool) error {
	return r.exec(ctx, `UPDATE technicians SET premium = $2, updated_at = now() WHERE id = $1`, id, premium)
}

func (r *PostgresTechnicianRepository) SetAvailability(ctx context.Context, id uuid.UUID, status technician.AvailabilityStatus, nextAvailable *time.Time) error {
	return r.exec(ctx,
		`UPDATE technicians SET availability_status = $2, next_available = $3, updated_at = now() WHERE id = $1`,
		id, string(status), nextAvailable,
	)
}

func (r *PostgresTechnicianRepository) AvailabilityOf(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]technician.Availability, error) {
	out := make(map[uuid.UUID]technician.Availability, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := build(pg.From("technicians").Prepared(true).
		Select("id", "availability_status", "next_available").
		Where(goqu.C("id").In(uuidStrings(ids))))
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		var status string
		var a technician.Availability
		if err := rows.Scan(&id, &status, &a.NextAvailable); err != nil {
			return nil, err
		}
		a.Status = technician.AvailabilityStatus(status)
		out[id] = a
	}
	return out, rows.Err()
}

func (r *PostgresTechnicianRepository) ReleaseExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.db.Exec(ctx,
		`UPDATE technicians SET availability_status = 'available', next_available = NULL, updated_at = now()
		 WHERE availability_status = 'busy' AND next_available IS NOT NULL AND next_available <= $1`,
		now,
	)
}

func (r *PostgresTechnicianRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64, count int) error {
	return r.exec(ctx,
		`UPDATE technicians SET rating = $2, reviews_count = $3, updated_at = now() WHERE id = $1`,
		id, rating, count,
	)
}

func (r *PostgresTechnicianRepository) FoldRating(ctx context.Context, id uuid.UUID, rating int) error {
	return r.exec(ctx,
		`UPDATE technicians
		 SET rating = LEAST(GREATEST((rating * reviews_count + $2) / (reviews_count + 1), 0), 5),
		     reviews_count = reviews_count + 1,
		     updated_at = now()
		 WHERE id = $1`,
		id, float64(rating),
	)
}

func (r *PostgresTechnicianRepository) CountApproved(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM technicians WHERE approved`).Scan(&n)
	return n, err
}

func (r *PostgresTechnicianRepository) AverageRating(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(AVG(rating), 0)::float8 FROM technicians`).Scan(&avg)
	return avg, err
}

// nearbyQuery orders approved technicians by distance. The service filter
// is an IN list inside EXISTS so every id is its own placeholder.
func nearbyQuery(f technician.GeoFilter) (string, []any, error) {
	limit, _ := normalizePage(f.Limit, 0, 20, 100)
	dist := goqu.L(haversineKm, f.Lat, f.Lat, f.Lng)

	where := []goqu.Expression{goqu.I("t.approved").IsTrue()}
	if f.RadiusKm > 0 {
		where = append(where, goqu.L("(?) <= ?", dist, f.RadiusKm))
	}
	if f.MinRating > 0 {
		where = append(where, goqu.I("t.rating").Gte(f.MinRating))
	}
	if f.PremiumOnly {
		where = append(where, goqu.I("t.premium").IsTrue())
	}
	if len(f.ServiceIDs) > 0 {
		offers := pg.From(goqu.T("technician_services").As("ts")).
			Select(goqu.L("1")).
			Where(
				goqu.I("ts.technician_id").Eq(goqu.I("t.id")),
				goqu.I("ts.category_id").In(uuidStrings(f.ServiceIDs)),
			)
		where = append(where, goqu.L("EXISTS ?", offers))
	}

	return build(pg.From(goqu.T("technicians").As("t")).Prepared(true).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("t.user_id")))).
		Select(goqu.L(technicianColumns), goqu.L("(?)", dist)).
		Where(where...).
		Order(goqu.L("(?)", dist).Asc()).
		Limit(uint(limit)))
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
