package usecase

import (
	"context"
	"testing"
	"time"

	"fixitnow/internal/domain/activity"
	"fixitnow/internal/domain/job"
	"fixitnow/internal/domain/technician"
	"fixitnow/internal/domain/user"
	"fixitnow/internal/realtime"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type customerFixture struct {
	users    *fakeUsers
	techs    *fakeTechs
	jobs     *fakeJobs
	store    *memStore
	notifier *mockNotifier
	rec      *captureRecorder
	uc       *Customer
}

func newCustomerFixture(t *testing.T, techs ...technician.Technician) *customerFixture {
	t.Helper()
	f := &customerFixture{
		users:    newFakeUsers(),
		techs:    newFakeTechs(techs...),
		jobs:     newFakeJobs(),
		store:    newMemStore(),
		notifier: &mockNotifier{},
		rec:      &captureRecorder{},
	}
	avail := NewAvailability(f.techs, f.store, zerolog.Nop())
	f.uc = NewCustomerUsecase(f.users, f.techs, f.jobs, f.store, avail, f.notifier, f.rec, zerolog.Nop())
	return f
}

func customer(id uuid.UUID) Actor {
	return Actor{ID: id, Role: user.RoleUser, IP: "127.0.0.1"}
}

func TestCustomerBookJobCreatesPendingJob(t *testing.T) {
	tech := approvedTech(uuid.New(), 19.07, 72.87, 4.2)
	f := newCustomerFixture(t, tech)
	f.notifier.On("Emit", realtime.TechRoom(tech.ID), realtime.EventJobCreated, mock.Anything).Once()

	me := uuid.New()
	j, err := f.uc.BookJob(context.Background(), customer(me), BookJobInput{
		TechID:      tech.ID,
		ServiceType: " Plumbing ",
		Price:       500,
	})
	require.NoError(t, err)

	assert.Equal(t, job.StatusPending, j.Status)
	assert.Equal(t, job.PaymentPending, j.PaymentStatus)
	assert.Equal(t, me, j.UserID)
	assert.Equal(t, "Plumbing", j.ServiceType)
	assert.True(t, f.store.has(busyKey(tech.ID)))
	assert.Equal(t, technician.StatusBusy, f.techs.get(tech.ID).AvailabilityStatus)

	logged, ok := f.rec.find(activity.JobBooked)
	require.True(t, ok)
	assert.Equal(t, j.ID.String(), logged.Details["jobId"])
	f.notifier.AssertExpectations(t)
}

func TestCustomerBookJobRejectsBusyTechnician(t *testing.T) {
	tech := approvedTech(uuid.New(), 19.07, 72.87, 4.2)
	f := newCustomerFixture(t, tech)
	require.NoError(t, f.store.Set(context.Background(), busyKey(tech.ID), "busy", BookingHold))

	_, err := f.uc.BookJob(context.Background(), customer(uuid.New()), BookJobInput{
		TechID:      tech.ID,
		ServiceType: "Plumbing",
		Price:       300,
	})
	assert.ErrorIs(t, err, ErrTechnicianBusy)

	n, _ := f.jobs.Count(context.Background(), "")
	assert.Zero(t, n)
	f.notifier.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything, mock.Anything)
}

func TestCustomerBookJobSecondBookingLoses(t *testing.T) {
	tech := approvedTech(uuid.New(), 19.07, 72.87, 4.2)
	f := newCustomerFixture(t, tech)
	f.notifier.On("Emit", mock.Anything, mock.Anything, mock.Anything)

	in := BookJobInput{TechID: tech.ID, ServiceType: "Plumbing", Price: 300}
	_, err := f.uc.BookJob(context.Background(), customer(uuid.New()), in)
	require.NoError(t, err)

	_, err = f.uc.BookJob(context.Background(), customer(uuid.New()), in)
	assert.ErrorIs(t, err, ErrTechnicianBusy)
}

func TestCustomerBookJobFallsBackWhenStoreIsDown(t *testing.T) {
	tech := approvedTech(uuid.New(), 19.07, 72.87, 4.2)
	f := newCustomerFixture(t, tech)
	f.store.down = true
	f.notifier.On("Emit", mock.Anything, mock.Anything, mock.Anything)

	in := BookJobInput{TechID: tech.ID, ServiceType: "Plumbing", Price: 300}
	_, err := f.uc.BookJob(context.Background(), customer(uuid.New()), in)
	require.NoError(t, err)

	_, err = f.uc.BookJob(context.Background(), customer(uuid.New()), in)
	assert.ErrorIs(t, err, ErrTechnicianBusy)
}

func TestCustomerBookJobUnapprovedTechnician(t *testing.T) {
	tech := approvedTech(uuid.New(), 19.07, 72.87, 4.2)
	tech.Approved = false
	f := newCustomerFixture(t, tech)

	_, err := f.uc.BookJob(context.Background(), customer(uuid.New()), BookJobInput{
		TechID:      tech.ID,
		ServiceType: "Plumbing",
	})
	assert.ErrorIs(t, err, ErrTechnicianNotFound)
}

func TestCustomerBookJobReferralCreditsBooker(t *testing.T) {
	tech := approvedTech(uuid.New(), 19.07, 72.87, 4.2)
	f := newCustomerFixture(t, tech)
	f.notifier.On("Emit", mock.Anything, mock.Anything, mock.Anything)

	referrer := user.User{ID: uuid.New(), Name: "Ref", Role: user.RoleUser, ReferralCode: strPtr("ABCD1234")}
	booker := user.User{ID: uuid.New(), Name: "Booker", Role: user.RoleUser}
	require.NoError(t, f.users.Create(context.Background(), referrer))
	require.NoError(t, f.users.Create(context.Background(), booker))

	_, err := f.uc.BookJob(context.Background(), customer(booker.ID), BookJobInput{
		TechID:       tech.ID,
		ServiceType:  "Plumbing",
		Price:        200,
		ReferralCode: "ABCD1234",
	})
	require.NoError(t, err)

	got, err := f.users.GetByID(context.Background(), booker.ID)
	require.NoError(t, err)
	assert.Equal(t, BookingReferralBonus, got.LoyaltyPoints)

	earned, ok := f.rec.find(activity.PointsEarned)
	require.True(t, ok)
	assert.Equal(t, "referral", earned.Details["source"])
}

func TestCustomerBookJobIgnoresOwnReferralCode(t *testing.T) {
	tech := approvedTech(uuid.New(), 19.07, 72.87, 4.2)
	f := newCustomerFixture(t, tech)
	f.notifier.On("Emit", mock.Anything, mock.Anything, mock.Anything)

	me := user.User{ID: uuid.New(), Name: "Me", Role: user.RoleUser, ReferralCode: strPtr("SELF0001")}
	require.NoError(t, f.users.Create(context.Background(), me))

	_, err := f.uc.BookJob(context.Background(), customer(me.ID), BookJobInput{
		TechID:       tech.ID,
		ServiceType:  "Plumbing",
		ReferralCode: "SELF0001",
	})
	require.NoError(t, err)

	got, _ := f.users.GetByID(context.Background(), me.ID)
	assert.Zero(t, got.LoyaltyPoints)
}

func TestCustomerSearchTechsRanksByAIScore(t *testing.T) {
	near := approvedTech(uuid.New(), 19.0700, 72.8700, 4.0)
	far := approvedTech(uuid.New(), 19.1000, 72.8700, 4.0)
	better := approvedTech(uuid.New(), 19.0710, 72.8700, 5.0)
	better.AvailabilityStatus = technician.StatusBusy
	electric := approvedTech(uuid.New(), 19.0700, 72.8701, 5.0)
	electric.Services = []technician.Service{{ID: uuid.New(), Name: "Electrician"}}

	f := newCustomerFixture(t, near, far, better, electric)

	got, err := f.uc.SearchTechs(context.Background(), customer(uuid.New()), SearchParams{
		Query: "plumbing",
		Lat:   19.07,
		Lng:   72.87,
	})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, better.ID, got[0].ID)
	assert.False(t, got[0].IsAvailable)
	assert.Equal(t, near.ID, got[1].ID)
	assert.True(t, got[1].IsAvailable)
	assert.Equal(t, far.ID, got[2].ID)
	assert.Greater(t, got[1].AIScore, got[2].AIScore)

	_, ok := f.rec.find(activity.SearchTech)
	assert.True(t, ok)
}

func TestCustomerSearchTechsUsesCachedGeoLookup(t *testing.T) {
	tech := approvedTech(uuid.New(), 19.07, 72.87, 4.0)
	f := newCustomerFixture(t, tech)
	p := SearchParams{Lat: 19.0701, Lng: 72.8701}

	_, err := f.uc.SearchTechs(context.Background(), customer(uuid.New()), p)
	require.NoError(t, err)

	// Availability changes must still be visible on a cache hit.
	require.NoError(t, f.store.Set(context.Background(), busyKey(tech.ID), "busy", 0))
	got, err := f.uc.SearchTechs(context.Background(), customer(uuid.New()), p)
	require.NoError(t, err)

	assert.Equal(t, 1, f.techs.nearbyCalls)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsAvailable)
}

func TestCustomerSearchTechsSeesPersistedReleaseOnCacheHit(t *testing.T) {
	tech := approvedTech(uuid.New(), 19.07, 72.87, 4.0)
	until := time.Now().Add(time.Hour)
	tech.AvailabilityStatus = technician.StatusBusy
	tech.NextAvailable = &until
	f := newCustomerFixture(t, tech)
	ctx := context.Background()
	p := SearchParams{Lat: 19.0701, Lng: 72.8701}

	got, err := f.uc.SearchTechs(ctx, customer(uuid.New()), p)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsAvailable)

	var cached []technician.Nearby
	hit, err := f.store.GetJSON(ctx, NearbyCacheKey(technician.GeoFilter{
		Lat: p.Lat, Lng: p.Lng, RadiusKm: DefaultSearchRadiusKm, Limit: searchCandidateLimit,
	}), &cached)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, cached, 1)
	assert.Empty(t, cached[0].AvailabilityStatus)
	assert.Nil(t, cached[0].NextAvailable)

	require.NoError(t, NewAvailability(f.techs, f.store, zerolog.Nop()).Release(ctx, tech.ID))

	got, err = f.uc.SearchTechs(ctx, customer(uuid.New()), p)
	require.NoError(t, err)
	assert.Equal(t, 1, f.techs.nearbyCalls)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsAvailable)

	// A hold persisted without the redis key is also visible on a hit.
	require.NoError(t, f.techs.SetAvailability(ctx, tech.ID, technician.StatusBusy, &until))
	got, err = f.uc.SearchTechs(ctx, customer(uuid.New()), p)
	require.NoError(t, err)
	assert.Equal(t, 1, f.techs.nearbyCalls)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsAvailable)
}

func TestCustomerTrackJobHidesOtherUsersJobs(t *testing.T) {
	owner := uuid.New()
	j := job.Job{ID: uuid.New(), UserID: owner, Status: job.StatusPending}
	f := newCustomerFixture(t)
	require.NoError(t, f.jobs.Create(context.Background(), j))

	got, err := f.uc.TrackJob(context.Background(), customer(owner), j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.ID, got.ID)

	_, err = f.uc.TrackJob(context.Background(), customer(uuid.New()), j.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestCustomerLoyalty(t *testing.T) {
	f := newCustomerFixture(t)
	me := user.User{ID: uuid.New(), Name: "Me", Role: user.RoleUser, LoyaltyPoints: 10}
	require.NoError(t, f.users.Create(context.Background(), me))

	res, err := f.uc.Loyalty(context.Background(), customer(me.ID), LoyaltyEarn, 15, "promo")
	require.NoError(t, err)
	assert.Equal(t, 25, res.LoyaltyPoints)

	_, err = f.uc.Loyalty(context.Background(), customer(me.ID), LoyaltyRedeem, 30, "")
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	res, err = f.uc.Loyalty(context.Background(), customer(me.ID), LoyaltyRedeem, 25, "")
	require.NoError(t, err)
	assert.Zero(t, res.LoyaltyPoints)

	_, err = f.uc.Loyalty(context.Background(), customer(me.ID), LoyaltyEarn, 0, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, []activity.Action{activity.PointsEarned, activity.PointsRedeemed}, f.rec.actions())
}
