package usecase

import (
	"context"
	"strings"
	"testing"

	"fixitnow/internal/domain/category"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryListIsCachedUntilWrite(t *testing.T) {
	repo := newFakeCategories(category.Category{ID: uuid.New(), Name: "Plumbing", Active: true})
	store := newMemStore()
	uc := NewCategoryUsecase(repo, store, nil, zerolog.Nop())

	first, err := uc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Written behind the usecase's back: still served from cache.
	require.NoError(t, repo.Create(context.Background(), category.Category{ID: uuid.New(), Name: "Carpenter", Active: true}))
	cached, err := uc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, cached, 1)
	assert.Equal(t, 1, store.hits)

	_, err = uc.Create(context.Background(), admin(), CategoryInput{Name: "AC Repair", PriceMin: 300, PriceMax: 900})
	require.NoError(t, err)

	fresh, err := uc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
}

func TestCategoryCreateValidation(t *testing.T) {
	uc := NewCategoryUsecase(newFakeCategories(), nil, nil, zerolog.Nop())

	_, err := uc.Create(context.Background(), admin(), CategoryInput{Name: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Create(context.Background(), admin(), CategoryInput{Name: strings.Repeat("n", category.MaxNameLength+1)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Create(context.Background(), admin(), CategoryInput{Name: "Painting", PriceMin: 500, PriceMax: 100})
	assert.ErrorIs(t, err, ErrInvalidInput)

	c, err := uc.Create(context.Background(), admin(), CategoryInput{Name: " Painting ", Description: "walls"})
	require.NoError(t, err)
	assert.Equal(t, "Painting", c.Name)
	assert.True(t, c.Active)

	_, err = uc.Create(context.Background(), admin(), CategoryInput{Name: "painting"})
	assert.ErrorIs(t, err, ErrCategoryExists)
}

func TestCategoryUpdateAndDelete(t *testing.T) {
	c := category.Category{ID: uuid.New(), Name: "Plumbing", Active: true}
	uc := NewCategoryUsecase(newFakeCategories(c), newMemStore(), nil, zerolog.Nop())

	inactive := false
	got, err := uc.Update(context.Background(), admin(), c.ID, category.Update{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, got.Active)

	list, err := uc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = uc.Update(context.Background(), admin(), uuid.New(), category.Update{Active: &inactive})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	require.NoError(t, uc.Delete(context.Background(), admin(), c.ID))
	assert.ErrorIs(t, uc.Delete(context.Background(), admin(), c.ID), ErrCategoryNotFound)
}
