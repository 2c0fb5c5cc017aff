package seeder

import (
	"context"
	"fmt"

	"fixitnow/internal/database"

	"github.com/google/uuid"
)

// CategoriesSeeder inserts the base service catalogue. Existing names are
// left untouched so admin edits survive a reseed.
type CategoriesSeeder struct{}

func (CategoriesSeeder) Name() string { return "service_categories" }

type defaultCategory struct {
	Name        string
	Description string
	PriceMin    float64
	PriceMax    float64
	Icon        string
}

var defaultCategories = []defaultCategory{
	{Name: "Plumbing", Description: "Leaks, fittings, drainage and water lines", PriceMin: 299, PriceMax: 1499, Icon: "plumbing"},
	{Name: "Electrician", Description: "Wiring, switchboards, fans and lighting", PriceMin: 249, PriceMax: 1299, Icon: "bolt"},
	{Name: "Carpenter", Description: "Furniture repair, doors and fittings", PriceMin: 299, PriceMax: 1999, Icon: "carpenter"},
	{Name: "AC Repair", Description: "Servicing, gas refill and installation", PriceMin: 399, PriceMax: 2499, Icon: "ac_unit"},
	{Name: "General", Description: "Everything else around the house", PriceMin: 199, PriceMax: 999, Icon: "handyman"},
}

func (CategoriesSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "service_categories", "id", "name", "description", "base_price_min", "base_price_max", "icon", "active"); err != nil {
		return err
	}

	return database.WithTx(ctx, db, func(tx database.Tx) error {
		for _, it := range defaultCategories {
			if _, err := tx.Exec(
				ctx,
				`INSERT INTO service_categories (id, name, description, base_price_min, base_price_max, icon, active)
				 VALUES ($1, $2, $3, $4, $5, $6, TRUE)
				 ON CONFLICT (name) DO NOTHING`,
				uuid.New(),
				it.Name,
				it.Description,
				it.PriceMin,
				it.PriceMax,
				it.Icon,
			); err != nil {
				return fmt.Errorf("insert %s: %w", it.Name, err)
			}
		}
		return nil
	})
}
