package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fixitnow/internal/config"
	"fixitnow/internal/database"
	"fixitnow/internal/database/migration"
	dbpostgres "fixitnow/internal/database/postgres"
	"fixitnow/internal/delivery/http/routes"
	"fixitnow/internal/infrastructure/cache"
	"fixitnow/internal/infrastructure/events"
	"fixitnow/internal/pkg/jwt"
	"fixitnow/internal/pkg/logger"
	"fixitnow/internal/repository"
	"fixitnow/internal/scheduler"
	"fixitnow/internal/usecase"
	ucauth "fixitnow/internal/usecase/auth"
	ucuser "fixitnow/internal/usecase/user"
	"fixitnow/internal/worker"
	"fixitnow/internal/ws"

	"github.com/rs/zerolog"
)

// Container owns every long-lived dependency of the server.
type Container struct {
	Config config.Config
	Log    zerolog.Logger

	DB        database.DB
	Redis     *cache.Redis
	Hub       *ws.Hub
	Bus       *events.Bus
	Pool      *worker.Pool
	JWT       *jwt.HMACService
	Scheduler *scheduler.Scheduler

	Usecases routes.Usecases
	Router   *ws.Router

	availability *usecase.Availability
	auth         *usecase.Auth
	admin        *usecase.Admin

	hubCancel context.CancelFunc
}

func NewContainer(cfg config.Config, log zerolog.Logger) (*Container, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	c := &Container{Config: cfg, Log: log, DB: db}

	runner := migration.Runner{Dir: cfg.App.MigrationsDir, Logger: logger.Component(log, "migration")}
	if cfg.App.MigrationsAuto {
		if err := runner.Run(ctx, db.SQLDB()); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	} else if pending, err := runner.Pending(ctx, db.SQLDB()); err != nil {
		log.Warn().Err(err).Msg("check pending migrations")
	} else if len(pending) > 0 {
		log.Warn().Int("pending", len(pending)).Int64("next", pending[0].Version).Msg("schema behind, run cmd/seed or enable MIGRATIONS_AUTO")
	}

	c.Redis = cache.NewRedis(cfg.Redis, log)

	hubCtx, hubCancel := context.WithCancel(context.Background())
	c.hubCancel = hubCancel
	c.Hub = ws.NewHub(log)
	go c.Hub.Run(hubCtx)

	c.Bus = events.NewBus(c.Redis.Client(), c.Hub, log)
	if err := c.Bus.Start(); err != nil {
		log.Warn().Err(err).Msg("event bus subscribe failed, delivering locally")
	}

	c.Pool = worker.NewPool("activity", 2, 256, log)
	c.Pool.Start()

	c.JWT = jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessExpiresIn, cfg.JWT.RefreshExpiresIn)

	c.wireUsecases()

	if cfg.App.SchedulerEnabled {
		c.Scheduler = scheduler.New(log)
		m := scheduler.Maintenance{Availability: c.availability, Resets: c.auth, Analytics: c.admin}
		if err := m.Register(c.Scheduler); err != nil {
			_ = c.Close(context.Background())
			return nil, err
		}
	}

	return c, nil
}

func (c *Container) wireUsecases() {
	log := c.Log

	users := repository.NewPostgresUserRepository(c.DB)
	techs := repository.NewPostgresTechnicianRepository(c.DB)
	jobs := repository.NewPostgresJobRepository(c.DB)
	categories := repository.NewPostgresCategoryRepository(c.DB)
	reviews := repository.NewPostgresReviewRepository(c.DB)
	disputes := repository.NewPostgresDisputeRepository(c.DB)
	chats := repository.NewPostgresChatRepository(c.DB)
	payments := repository.NewPostgresPaymentRepository(c.DB)
	resets := repository.NewPostgresPasswordResetRepository(c.DB)
	activities := repository.NewPostgresActivityRepository(c.DB)

	rec := usecase.NewActivityLogger(activities, c.Pool, log)
	c.availability = usecase.NewAvailability(techs, c.Redis, log)
	c.auth = usecase.NewAuthUsecase(ucauth.NewService(users), users, resets, c.JWT, rec, log)

	disputeUC := usecase.NewDisputeUsecase(disputes, jobs, c.Bus, rec, log)
	techUC := usecase.NewTechnicianUsecase(users, techs, categories, jobs, c.Redis, c.availability, c.Bus, rec, log)
	jobUC := usecase.NewJobUsecase(jobs, techs, c.availability, c.Bus, rec, log)
	chatUC := usecase.NewChatUsecase(chats, techs, c.Bus, rec, log)

	c.admin = usecase.NewAdminUsecase(usecase.AdminDeps{
		Users:      users,
		Techs:      techs,
		Jobs:       jobs,
		Activities: activities,
		Disputes:   disputes,
		Categories: categories,
		Cache:      c.Redis,
		Resolver:   disputeUC,
		Notifier:   c.Bus,
		Activity:   rec,
	}, log)

	c.Usecases = routes.Usecases{
		Auth:       c.auth,
		Profile:    usecase.NewProfileUsecase(ucuser.NewService(users, techs)),
		Customer:   usecase.NewCustomerUsecase(users, techs, jobs, c.Redis, c.availability, c.Bus, rec, log),
		Technician: techUC,
		Jobs:       jobUC,
		Reviews:    usecase.NewReviewUsecase(reviews, jobs, techs, rec, log),
		Disputes:   disputeUC,
		Chat:       chatUC,
		Admin:      c.admin,
		Categories: usecase.NewCategoryUsecase(categories, c.Redis, rec, log),
		Payments:   usecase.NewPaymentUsecase(payments, jobs, rec, log),
		AI:         usecase.NewAIUsecase(techs, jobs, log),
	}

	c.Router = ws.NewRouter(c.Hub, ws.RouterDeps{
		Techs:    techUC,
		Chats:    chatUC,
		Disputes: disputeUC,
		Jobs:     jobUC,
		Notifier: c.Bus,
	}, log)
}

// Close stops background work before releasing connections.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}

	var errs []error
	if c.Scheduler != nil {
		c.Scheduler.Stop(ctx)
	}
	if c.Bus != nil {
		errs = append(errs, c.Bus.Close())
	}
	if c.hubCancel != nil {
		c.hubCancel()
	}
	if c.Pool != nil {
		errs = append(errs, c.Pool.Shutdown(ctx))
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
