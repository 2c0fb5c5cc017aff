package seeder

import (
	"context"
	"fmt"
	"strings"

	"fixitnow/internal/database"

	"github.com/google/uuid"
)

// Hasher turns a plaintext password into the stored hash.
type Hasher interface {
	Hash(password string) (string, error)
}

// AdminSeeder creates the bootstrap admin account. An empty email or
// password skips it.
type AdminSeeder struct {
	Email    string
	Password string
	Hasher   Hasher
}

func (AdminSeeder) Name() string { return "admin" }

func (s AdminSeeder) Run(ctx context.Context, db database.DB) error {
	email := strings.ToLower(strings.TrimSpace(s.Email))
	if email == "" || s.Password == "" {
		return nil
	}
	if s.Hasher == nil {
		return fmt.Errorf("admin seeder: nil hasher")
	}
	if err := EnsureTableColumns(ctx, db, "users", "id", "name", "email", "password_hash", "role"); err != nil {
		return err
	}

	hash, err := s.Hasher.Hash(s.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.Exec(
		ctx,
		`INSERT INTO users (id, name, email, password_hash, role)
		 VALUES ($1, 'Administrator', $2, $3, 'admin')
		 ON CONFLICT (email) DO NOTHING`,
		uuid.New(),
		email,
		hash,
	)
	return err
}
