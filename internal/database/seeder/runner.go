package seeder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fixitnow/internal/database"

	"github.com/rs/zerolog"
)

// Runner applies seeders in order and stops at the first failure.
type Runner struct {
	Seeders []Seeder
	Logger  zerolog.Logger
}

func (r Runner) Run(ctx context.Context, db database.DB) error {
	if db == nil {
		return errors.New("nil db")
	}
	for _, s := range r.Seeders {
		if s == nil {
			continue
		}
		start := time.Now()
		if err := s.Run(ctx, db); err != nil {
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		r.Logger.Info().Str("seeder", s.Name()).Dur("took", time.Since(start)).Msg("seeded")
	}
	return nil
}
