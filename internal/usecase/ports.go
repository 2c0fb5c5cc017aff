package usecase

import (
	"context"
	"time"

	"fixitnow/internal/domain/user"

	"github.com/google/uuid"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// LockStore holds short-lived markers such as technician busy holds.
type LockStore interface {
	SetIfNotExists(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Notifier pushes a realtime event to a room.
type Notifier interface {
	Emit(ctx context.Context, room, event string, payload any)
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uuid.UUID
	Role user.Role
	IP   string
}

func (a Actor) IsAdmin() bool { return a.Role == user.RoleAdmin }

func (a Actor) IsTech() bool { return a.Role == user.RoleTech }

type noopNotifier struct{}

func (noopNotifier) Emit(context.Context, string, string, any) {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// Page is a one-based page request.
type Page struct {
	Page  int
	Limit int
}

func (p Page) normalize(def, max int) (limit, offset, page int) {
	limit = p.Limit
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	page = p.Page
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit, page
}

type PageResult[T any] struct {
	Items []T
	Total int
	Page  int
	Limit int
}
