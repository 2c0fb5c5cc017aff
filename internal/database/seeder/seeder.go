package seeder

import (
	"context"

	"fixitnow/internal/database"
)

// Seeder writes reference rows. Run must be idempotent; cmd/seed may be
// run against a populated database.
type Seeder interface {
	Name() string
	Run(ctx context.Context, db database.DB) error
}
