//go:build integration

package repository_test

import (
	"context"
	"testing"
	"time"

	"fixitnow/internal/config"
	"fixitnow/internal/database"
	"fixitnow/internal/database/migration"
	"fixitnow/internal/database/postgres"
	"fixitnow/internal/domain/category"
	"fixitnow/internal/domain/chat"
	"fixitnow/internal/domain/job"
	"fixitnow/internal/domain/review"
	"fixitnow/internal/domain/technician"
	"fixitnow/internal/domain/user"
	"fixitnow/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type RepositoryIntegrationSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        database.DB

	users   *repository.PostgresUserRepository
	techs   *repository.PostgresTechnicianRepository
	jobs    *repository.PostgresJobRepository
	reviews *repository.PostgresReviewRepository
	chats   *repository.PostgresChatRepository
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("fixitnow"),
		tcpostgres.WithUsername("fixitnow"),
		tcpostgres.WithPassword("fixitnow"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := postgres.ConnectDSN(ctx, dsn, config.DatabaseConfig{})
	s.Require().NoError(err)
	s.db = db

	s.Require().NoError(migration.Runner{}.Run(ctx, db.SQLDB()))

	s.users = repository.NewPostgresUserRepository(db)
	s.techs = repository.NewPostgresTechnicianRepository(db)
	s.jobs = repository.NewPostgresJobRepository(db)
	s.reviews = repository.NewPostgresReviewRepository(db)
	s.chats = repository.NewPostgresChatRepository(db)
}

func (s *RepositoryIntegrationSuite) SetupTest() {
	_, err := s.db.Exec(context.Background(),
		`TRUNCATE TABLE chat_messages, chats, reviews, payments, job_status_history, jobs,
			technician_services, technicians, service_categories, activities, password_resets, users CASCADE`)
	s.Require().NoError(err)
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

func (s *RepositoryIntegrationSuite) createUser(name string, role user.Role) user.User {
	email := name + "@fixitnow.test"
	u := user.User{ID: uuid.New(), Name: name, Email: &email, PasswordHash: "x", Role: role}
	s.Require().NoError(s.users.Create(context.Background(), u))
	return u
}

func (s *RepositoryIntegrationSuite) createTech(name string, lat, lng, rating float64, services ...uuid.UUID) technician.Technician {
	u := s.createUser(name, user.RoleTech)
	t := technician.Technician{ID: uuid.New(), UserID: u.ID, Lat: lat, Lng: lng, Rating: rating, Approved: true}
	s.Require().NoError(s.techs.Create(context.Background(), t, services))
	return t
}

func (s *RepositoryIntegrationSuite) createCategory(name string) uuid.UUID {
	c := category.Category{
		ID:             uuid.New(),
		Name:           name,
		BasePriceRange: category.PriceRange{Min: 100, Max: 500},
		Active:         true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	s.Require().NoError(repository.NewPostgresCategoryRepository(s.db).Create(context.Background(), c))
	return c.ID
}

func (s *RepositoryIntegrationSuite) TestUser_DuplicateEmail() {
	u := s.createUser("asha", user.RoleUser)
	dup := u
	dup.ID = uuid.New()
	s.ErrorIs(s.users.Create(context.Background(), dup), user.ErrDuplicate)
}

func (s *RepositoryIntegrationSuite) TestUser_RedeemBeyondBalance() {
	ctx := context.Background()
	u := s.createUser("ravi", user.RoleUser)

	balance, err := s.users.AddLoyaltyPoints(ctx, u.ID, 30)
	s.Require().NoError(err)
	s.Equal(30, balance)

	_, err = s.users.AddLoyaltyPoints(ctx, u.ID, -31)
	s.ErrorIs(err, user.ErrInsufficientPoints)
}

func (s *RepositoryIntegrationSuite) TestUser_ApplyReferralCreditsOnce() {
	ctx := context.Background()
	referrer := s.createUser("meera", user.RoleUser)
	friend := s.createUser("kabir", user.RoleUser)

	s.Require().NoError(s.users.ApplyReferral(ctx, friend.ID, referrer.ID, 50))
	s.ErrorIs(s.users.ApplyReferral(ctx, friend.ID, referrer.ID, 50), user.ErrAlreadyReferred)
	s.ErrorIs(s.users.ApplyReferral(ctx, uuid.New(), referrer.ID, 50), user.ErrNotFound)

	got, err := s.users.GetByID(ctx, referrer.ID)
	s.Require().NoError(err)
	s.Equal(50, got.LoyaltyPoints)

	got, err = s.users.GetByID(ctx, friend.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.ReferredBy)
	s.Equal(referrer.ID, *got.ReferredBy)
}

func (s *RepositoryIntegrationSuite) TestTechnician_FoldRatingIsIncremental() {
	ctx := context.Background()
	t := s.createTech("fold", 19.07, 72.87, 0)

	s.Require().NoError(s.techs.FoldRating(ctx, t.ID, 4))
	s.Require().NoError(s.techs.FoldRating(ctx, t.ID, 5))
	s.ErrorIs(s.techs.FoldRating(ctx, uuid.New(), 5), technician.ErrNotFound)

	got, err := s.techs.GetByID(ctx, t.ID)
	s.Require().NoError(err)
	s.InDelta(4.5, got.Rating, 1e-9)
	s.Equal(2, got.ReviewsCount)
}

func (s *RepositoryIntegrationSuite) TestTechnician_NearbyOrdersByDistance() {
	ctx := context.Background()
	far := s.createTech("far", 19.20, 72.87, 5)
	near := s.createTech("near", 19.08, 72.87, 3)
	s.createTech("outside", 28.61, 77.20, 5)

	out, err := s.techs.Nearby(ctx, technician.GeoFilter{Lat: 19.07, Lng: 72.87, RadiusKm: 50})
	s.Require().NoError(err)
	s.Require().Len(out, 2)
	s.Equal(near.ID, out[0].ID)
	s.Equal(far.ID, out[1].ID)
	s.Less(out[0].DistanceKm, out[1].DistanceKm)

	plumbing := s.createCategory("Plumbing")
	electric := s.createCategory("Electrician")
	plumber := s.createTech("plumber", 19.10, 72.87, 4, plumbing)

	out, err = s.techs.Nearby(ctx, technician.GeoFilter{Lat: 19.07, Lng: 72.87, RadiusKm: 50, ServiceIDs: []uuid.UUID{plumbing}})
	s.Require().NoError(err)
	s.Require().Len(out, 1)
	s.Equal(plumber.ID, out[0].ID)

	out, err = s.techs.Nearby(ctx, technician.GeoFilter{Lat: 19.07, Lng: 72.87, RadiusKm: 50, ServiceIDs: []uuid.UUID{plumbing, electric}})
	s.Require().NoError(err)
	s.Len(out, 1)

	out, err = s.techs.Nearby(ctx, technician.GeoFilter{Lat: 19.07, Lng: 72.87, RadiusKm: 50, ServiceIDs: []uuid.UUID{electric}})
	s.Require().NoError(err)
	s.Empty(out)
}

func (s *RepositoryIntegrationSuite) TestJob_ConditionalStatusUpdate() {
	ctx := context.Background()
	u := s.createUser("meera", user.RoleUser)
	t := s.createTech("tech", 19.07, 72.87, 4)

	j := job.Job{ID: uuid.New(), UserID: u.ID, TechID: t.ID, ServiceType: "plumbing", Status: job.StatusPending,
		Price: 499, PaymentStatus: job.PaymentPending, CreatedAt: time.Now().UTC()}
	s.Require().NoError(s.jobs.Create(ctx, j))

	change := job.StatusChange{JobID: j.ID, From: job.StatusPending, To: job.StatusInProgress, ActorID: t.UserID, ActorRole: job.ActorTech}
	s.Require().NoError(s.jobs.UpdateStatus(ctx, change))
	s.ErrorIs(s.jobs.UpdateStatus(ctx, change), job.ErrInvalidTransition)

	got, err := s.jobs.GetByID(ctx, j.ID)
	s.Require().NoError(err)
	s.Equal(job.StatusInProgress, got.Status)
	s.Equal(t.UserID, got.TechUserID)

	prices, err := s.jobs.RecentPrices(ctx, "Plumbing", 50)
	s.Require().NoError(err)
	s.Equal([]float64{499}, prices)
}

func (s *RepositoryIntegrationSuite) TestReview_OnePerJob() {
	ctx := context.Background()
	u := s.createUser("kiran", user.RoleUser)
	t := s.createTech("tech", 19.07, 72.87, 0)
	j := job.Job{ID: uuid.New(), UserID: u.ID, TechID: t.ID, ServiceType: "general", Status: job.StatusCompleted,
		PaymentStatus: job.PaymentPending, CreatedAt: time.Now().UTC()}
	s.Require().NoError(s.jobs.Create(ctx, j))

	rv := review.Review{ID: uuid.New(), JobID: j.ID, UserID: u.ID, TechID: t.ID, Rating: 4, CreatedAt: time.Now().UTC()}
	s.Require().NoError(s.reviews.Create(ctx, rv))

	rv.ID = uuid.New()
	s.ErrorIs(s.reviews.Create(ctx, rv), review.ErrAlreadyExists)

	sum, err := s.reviews.Summary(ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(1, sum.ReviewCount)
	s.InDelta(4.0, sum.AverageRating, 0.001)
}

func (s *RepositoryIntegrationSuite) TestChat_GetOrCreateIsIdempotent() {
	ctx := context.Background()
	u := s.createUser("neha", user.RoleUser)
	t := s.createTech("tech", 19.07, 72.87, 4)

	first, err := s.chats.GetOrCreate(ctx, u.ID, t.ID)
	s.Require().NoError(err)
	second, err := s.chats.GetOrCreate(ctx, u.ID, t.ID)
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)

	s.Require().NoError(s.chats.AddMessage(ctx, chat.Message{
		ID: uuid.New(), ChatID: first.ID, SenderID: u.ID, SenderModel: chat.SenderUser,
		Content: "hello", CreatedAt: time.Now().UTC(),
	}))
	got, err := s.chats.GetByID(ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(1, got.UnreadForTech)
	s.Equal(0, got.UnreadForUser)
	s.Equal("hello", got.LastMessage)
}

func TestRepositoryIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(RepositoryIntegrationSuite))
}
