package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"fixitnow/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSNEscapesCredentials(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		DBHost:     " db.internal ",
		DBPort:     "5433",
		DBName:     "fixitnow",
		DBUser:     "app",
		DBPassword: "p@ss word/1",
		DBSSLMode:  "require",
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:5433", u.Host)
	assert.Equal(t, "/fixitnow", u.Path)
	assert.Equal(t, "app", u.User.Username())
	pw, ok := u.User.Password()
	require.True(t, ok)
	assert.Equal(t, "p@ss word/1", pw)
	assert.Equal(t, "require", u.Query().Get("sslmode"))

	_, err = pgx.ParseConfig(dsn)
	assert.NoError(t, err)
}

func TestDSNWithoutPassword(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{DBHost: "localhost", DBPort: "5432", DBName: "x", DBUser: "postgres"})
	assert.Equal(t, "postgres://postgres@localhost:5432/x", dsn)
}

func TestErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "jobs_tech_id_fkey"}

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(fk))
	assert.Equal(t, "jobs_tech_id_fkey", ForeignKeyViolation(fk))
	assert.Equal(t, "unknown", ForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.Empty(t, ForeignKeyViolation(errors.New("plain")))
	assert.True(t, IsNoRows(fmt.Errorf("get: %w", pgx.ErrNoRows)))
}

func TestNilPool(t *testing.T) {
	var p *Pool
	ctx := context.Background()

	assert.ErrorIs(t, p.Ping(ctx), ErrNilDB)
	_, err := p.Exec(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrNilDB)
	_, err = p.Begin(ctx)
	assert.ErrorIs(t, err, ErrNilDB)
	assert.ErrorIs(t, p.QueryRow(ctx, "SELECT 1").Scan(), ErrNilDB)
	assert.NoError(t, p.Close())
}
