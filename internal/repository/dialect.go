package repository

import (
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate record")

// pg builds prepared ($n) statements for the dynamic list queries.
var pg = goqu.Dialect("postgres")

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func build(b sqlBuilder) (string, []any, error) {
	q, args, err := b.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build query: %w", err)
	}
	return q, args, nil
}

func normalizePage(limit, offset, def, max int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if max > 0 && limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
