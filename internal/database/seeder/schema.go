package seeder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fixitnow/internal/database"
)

// ErrSchemaMismatch means the migrations behind a seeder have not run.
var ErrSchemaMismatch = errors.New("schema mismatch")

// EnsureTableColumns fails with every missing column listed, so a stale
// schema is reported in one pass.
func EnsureTableColumns(ctx context.Context, db database.Querier, table string, columns ...string) error {
	if db == nil {
		return errors.New("nil db")
	}
	if table == "" {
		return errors.New("empty table")
	}

	rows, err := db.Query(
		ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1`,
		table,
	)
	if err != nil {
		return fmt.Errorf("read columns of %s: %w", table, err)
	}
	defer rows.Close()

	existing := map[string]struct{}{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return err
		}
		existing[c] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var missing []string
	for _, col := range columns {
		if col == "" {
			return errors.New("empty column")
		}
		if _, ok := existing[col]; !ok {
			missing = append(missing, table+"."+col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return nil
}
