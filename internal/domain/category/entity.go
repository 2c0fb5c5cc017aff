package category

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	MaxNameLength        = 50
	MaxDescriptionLength = 500
)

var (
	ErrNotFound  = errors.New("category not found")
	ErrDuplicate = errors.New("category name already exists")
)

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type Category struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	BasePriceRange PriceRange `json:"basePriceRange"`
	Icon           string     `json:"icon,omitempty"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type Update struct {
	Name        *string
	Description *string
	PriceMin    *float64
	PriceMax    *float64
	Icon        *string
	Active      *bool
}

type Repository interface {
	Create(ctx context.Context, c Category) error
	GetByID(ctx context.Context, id uuid.UUID) (Category, error)
	GetByName(ctx context.Context, name string) (Category, error)
	ListActive(ctx context.Context) ([]Category, error)
	Update(ctx context.Context, id uuid.UUID, in Update) (Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountExisting(ctx context.Context, ids []uuid.UUID) (int, error)
}
