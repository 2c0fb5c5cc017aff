package main

import (
	"context"
	"time"

	"fixitnow/internal/config"
	"fixitnow/internal/database/migration"
	dbpostgres "fixitnow/internal/database/postgres"
	"fixitnow/internal/database/seeder"
	"fixitnow/internal/pkg/logger"
	"fixitnow/internal/repository"
	ucauth "fixitnow/internal/usecase/auth"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	l := logger.Component(logger.New(cfg.App.AppName, cfg.App.Environment), "seed")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect database")
	}
	defer db.Close()

	if err := (migration.Runner{Dir: cfg.App.MigrationsDir, Logger: l}).Run(ctx, db.SQLDB()); err != nil {
		l.Fatal().Err(err).Msg("failed to run migrations")
	}

	hasher := ucauth.NewService(repository.NewPostgresUserRepository(db))
	admin := seeder.AdminSeeder{Email: cfg.Seed.AdminEmail, Password: cfg.Seed.AdminPassword, Hasher: hasher}
	if err := (seeder.Runner{Seeders: seeder.Defaults(admin), Logger: l}).Run(ctx, db); err != nil {
		l.Fatal().Err(err).Msg("seed failed")
	}
	l.Info().Msg("seed completed")
}
