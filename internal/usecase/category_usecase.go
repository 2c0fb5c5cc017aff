package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"fixitnow/internal/domain/activity"
	"fixitnow/internal/domain/category"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	categoriesCacheKey = "categories:active"
	categoriesCacheTTL = 10 * time.Minute
)

type CategoryInput struct {
	Name        string
	Description string
	PriceMin    float64
	PriceMax    float64
	Icon        string
}

type CategoryUsecase interface {
	List(ctx context.Context) ([]category.Category, error)
	Create(ctx context.Context, actor Actor, in CategoryInput) (category.Category, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, in category.Update) (category.Category, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type Categories struct {
	categories category.Repository
	cache      Cache
	activity   ActivityRecorder
	log        zerolog.Logger
	now        func() time.Time
}

func NewCategoryUsecase(categories category.Repository, cache Cache, rec ActivityRecorder, log zerolog.Logger) *Categories {
	return &Categories{
		categories: categories,
		cache:      cache,
		activity:   recorderOrNoop(rec),
		log:        log.With().Str("component", "categories").Logger(),
		now:        time.Now,
	}
}

// List returns active categories by name. The list is cached and dropped
// on every write.
func (u *Categories) List(ctx context.Context) ([]category.Category, error) {
	if u.cache != nil {
		var cached []category.Category
		if hit, err := u.cache.GetJSON(ctx, categoriesCacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	out, err := u.categories.ListActive(ctx)
	if err != nil {
		u.log.Error().Err(err).Msg("list categories")
		return nil, ErrInternal
	}
	if u.cache != nil {
		_ = u.cache.SetJSON(ctx, categoriesCacheKey, out, categoriesCacheTTL)
	}
	return out, nil
}

func (u *Categories) Create(ctx context.Context, actor Actor, in CategoryInput) (category.Category, error) {
	name := strings.TrimSpace(in.Name)
	desc := strings.TrimSpace(in.Description)
	if !validCategoryName(name) || utf8.RuneCountInString(desc) > category.MaxDescriptionLength {
		return category.Category{}, ErrInvalidInput
	}
	if in.PriceMin < 0 || in.PriceMax < 0 || in.PriceMin > in.PriceMax {
		return category.Category{}, ErrInvalidInput
	}

	now := u.now().UTC()
	c := category.Category{
		ID:             uuid.New(),
		Name:           name,
		Description:    desc,
		BasePriceRange: category.PriceRange{Min: in.PriceMin, Max: in.PriceMax},
		Icon:           strings.TrimSpace(in.Icon),
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := u.categories.Create(ctx, c); err != nil {
		if errors.Is(err, category.ErrDuplicate) {
			return category.Category{}, ErrCategoryExists
		}
		u.log.Error().Err(err).Msg("create category")
		return category.Category{}, ErrInternal
	}

	u.invalidate(ctx)
	u.activity.Record(ctx, activity.CategoryCreated, actorPtr(actor.ID), activity.Details{"categoryId": c.ID.String()}, actor.IP)
	return c, nil
}

func (u *Categories) Update(ctx context.Context, actor Actor, id uuid.UUID, in category.Update) (category.Category, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if !validCategoryName(name) {
			return category.Category{}, ErrInvalidInput
		}
		in.Name = &name
	}
	if in.Description != nil && utf8.RuneCountInString(*in.Description) > category.MaxDescriptionLength {
		return category.Category{}, ErrInvalidInput
	}
	if (in.PriceMin != nil && *in.PriceMin < 0) || (in.PriceMax != nil && *in.PriceMax < 0) {
		return category.Category{}, ErrInvalidInput
	}
	if in.PriceMin != nil && in.PriceMax != nil && *in.PriceMin > *in.PriceMax {
		return category.Category{}, ErrInvalidInput
	}

	c, err := u.categories.Update(ctx, id, in)
	if err != nil {
		switch {
		case errors.Is(err, category.ErrNotFound):
			return category.Category{}, ErrCategoryNotFound
		case errors.Is(err, category.ErrDuplicate):
			return category.Category{}, ErrCategoryExists
		}
		u.log.Error().Err(err).Msg("update category")
		return category.Category{}, ErrInternal
	}

	u.invalidate(ctx)
	u.activity.Record(ctx, activity.CategoryUpdated, actorPtr(actor.ID), activity.Details{"categoryId": id.String()}, actor.IP)
	return c, nil
}

func (u *Categories) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := u.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return ErrCategoryNotFound
		}
		u.log.Error().Err(err).Msg("delete category")
		return ErrInternal
	}

	u.invalidate(ctx)
	u.activity.Record(ctx, activity.CategoryDeleted, actorPtr(actor.ID), activity.Details{"categoryId": id.String()}, actor.IP)
	return nil
}

func (u *Categories) invalidate(ctx context.Context) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Delete(ctx, categoriesCacheKey); err != nil {
		u.log.Warn().Err(err).Msg("invalidate categories cache")
	}
}

func validCategoryName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= 1 && n <= category.MaxNameLength
}
