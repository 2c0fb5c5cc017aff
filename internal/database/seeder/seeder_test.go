package seeder

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"fixitnow/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB reports every column as present and records statements.
type fakeDB struct {
	execs     []string
	args      [][]any
	committed bool
	failExec  error
}

func (f *fakeDB) Exec(_ context.Context, query string, args ...any) (int64, error) {
	if f.failExec != nil {
		return 0, f.failExec
	}
	f.execs = append(f.execs, query)
	f.args = append(f.args, args)
	return 1, nil
}

func (f *fakeDB) Query(_ context.Context, _ string, _ ...any) (database.Rows, error) {
	return &columnRows{cols: []string{
		"id", "name", "description", "base_price_min", "base_price_max", "icon", "active",
		"email", "password_hash", "role",
	}, i: -1}, nil
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) database.Row { return nil }
func (f *fakeDB) Ping(context.Context) error                            { return nil }
func (f *fakeDB) Close() error                                          { return nil }
func (f *fakeDB) SQLDB() *sql.DB                                        { return nil }
func (f *fakeDB) Begin(context.Context) (database.Tx, error)            { return fakeTx{f}, nil }

type fakeTx struct{ db *fakeDB }

func (t fakeTx) Exec(ctx context.Context, q string, args ...any) (int64, error) {
	return t.db.Exec(ctx, q, args...)
}
func (t fakeTx) Query(ctx context.Context, q string, args ...any) (database.Rows, error) {
	return t.db.Query(ctx, q, args...)
}
func (t fakeTx) QueryRow(ctx context.Context, q string, args ...any) database.Row {
	return t.db.QueryRow(ctx, q, args...)
}
func (t fakeTx) Commit(context.Context) error   { t.db.committed = true; return nil }
func (t fakeTx) Rollback(context.Context) error { return nil }

type columnRows struct {
	cols []string
	i    int
}

func (r *columnRows) Close()     {}
func (r *columnRows) Err() error { return nil }
func (r *columnRows) Next() bool {
	r.i++
	return r.i < len(r.cols)
}
func (r *columnRows) Scan(dest ...any) error {
	*(dest[0].(*string)) = r.cols[r.i]
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }

func TestCategoriesSeederInsertsDefaults(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, CategoriesSeeder{}.Run(context.Background(), db))

	assert.True(t, db.committed)
	require.Len(t, db.execs, len(defaultCategories))
	var names []string
	for _, a := range db.args {
		names = append(names, a[1].(string))
	}
	assert.Equal(t, []string{"Plumbing", "Electrician", "Carpenter", "AC Repair", "General"}, names)
	assert.Contains(t, db.execs[0], "ON CONFLICT (name) DO NOTHING")
}

func TestAdminSeederSkipsWithoutCredentials(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, AdminSeeder{Email: "", Password: "x", Hasher: plainHasher{}}.Run(context.Background(), db))
	require.NoError(t, AdminSeeder{Email: "a@b.c", Hasher: plainHasher{}}.Run(context.Background(), db))
	assert.Empty(t, db.execs)
}

func TestAdminSeederHashesPassword(t *testing.T) {
	db := &fakeDB{}
	s := AdminSeeder{Email: " Admin@FixItNow.dev ", Password: "secret1", Hasher: plainHasher{}}
	require.NoError(t, s.Run(context.Background(), db))

	require.Len(t, db.execs, 1)
	assert.True(t, strings.Contains(db.execs[0], "'admin'"))
	assert.Equal(t, "admin@fixitnow.dev", db.args[0][1])
	assert.Equal(t, "hashed:secret1", db.args[0][2])
}

func TestRunnerWrapsSeederName(t *testing.T) {
	db := &fakeDB{failExec: errors.New("boom")}
	err := Runner{Seeders: Defaults(AdminSeeder{})}.Run(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed service_categories")
}

func TestEnsureTableColumnsListsAllMissing(t *testing.T) {
	err := EnsureTableColumns(context.Background(), &fakeDB{}, "users", "id", "nickname", "avatar")
	require.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "users.nickname, users.avatar")

	require.NoError(t, EnsureTableColumns(context.Background(), &fakeDB{}, "users", "id", "email"))
}
