package seeder

// Defaults returns the seeders run by cmd/seed in order.
func Defaults(admin AdminSeeder) []Seeder {
	return []Seeder{
		CategoriesSeeder{},
		admin,
	}
}
