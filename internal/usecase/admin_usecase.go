package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"fixitnow/internal/domain/activity"
	"fixitnow/internal/domain/category"
	"fixitnow/internal/domain/dispute"
	"fixitnow/internal/domain/job"
	"fixitnow/internal/domain/technician"
	"fixitnow/internal/domain/user"
	"fixitnow/internal/pkg/geo"
	"fixitnow/internal/realtime"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	AnalyticsCacheKey = "admin:analytics"
	AnalyticsCacheTTL = 5 * time.Minute

	removalRatingBelow    = 3
	removalComplaintsOver = 3

	generalCategory = "General"
	seedRating      = 4.5
	SeedDefaultLat  = 19.07
	SeedDefaultLng  = 72.87
)

// summaryActions are counted by the activity summary.
var summaryActions = []activity.Action{activity.JobBooked, activity.JobCompleted}

type Analytics struct {
	TotalUsers    int     `json:"totalUsers"`
	TotalTechs    int     `json:"totalTechs"`
	TotalJobs     int     `json:"totalJobs"`
	CompletedJobs int     `json:"completedJobs"`
	AvgTechRating float64 `json:"avgTechRating"`
}

type ActivityQuery struct {
	Action activity.Action
	From   *time.Time
	To     *time.Time
	Page   Page
}

type TechnicianQuery struct {
	Query     string
	Approved  *bool
	Active    *bool
	MinRating float64
	Page      Page
}

type BookingQuery struct {
	Status job.Status
	UserID *uuid.UUID
	TechID *uuid.UUID
	From   *time.Time
	To     *time.Time
	Page   Page
}

type ApprovalEvent struct {
	TechID   uuid.UUID `json:"techId"`
	Approved bool      `json:"approved"`
}

type AdminUsecase interface {
	Activities(ctx context.Context, q ActivityQuery) (PageResult[activity.Activity], error)
	ActivitySummary(ctx context.Context) ([]activity.Count, error)
	ApproveTech(ctx context.Context, actor Actor, techID uuid.UUID, approved bool) error
	RemoveTech(ctx context.Context, actor Actor, techID uuid.UUID, reason string) error
	Analytics(ctx context.Context) (Analytics, error)
	WarmAnalytics(ctx context.Context) error
	ResolveDispute(ctx context.Context, actor Actor, disputeID uuid.UUID, resolution string) (dispute.Dispute, error)
	ManageLoyalty(ctx context.Context, actor Actor, userID uuid.UUID, points int) error
	Technicians(ctx context.Context, q TechnicianQuery) (PageResult[technician.Technician], error)
	Technician(ctx context.Context, id uuid.UUID) (technician.Technician, error)
	Customers(ctx context.Context, query string, page Page) (PageResult[user.User], error)
	Bookings(ctx context.Context, q BookingQuery) (PageResult[job.Job], error)
	SeedTechnician(ctx context.Context, actor Actor, email string, lat, lng *float64) (technician.Technician, error)
}

type AdminDeps struct {
	Users      user.Repository
	Techs      technician.Repository
	Jobs       job.Repository
	Activities activity.Repository
	Disputes   dispute.Repository
	Categories category.Repository
	Cache      Cache
	Resolver   DisputeUsecase
	Notifier   Notifier
	Activity   ActivityRecorder
}

type Admin struct {
	users      user.Repository
	techs      technician.Repository
	jobs       job.Repository
	activities activity.Repository
	disputes   dispute.Repository
	categories category.Repository
	cache      Cache
	resolver   DisputeUsecase
	notifier   Notifier
	activity   ActivityRecorder
	log        zerolog.Logger
	now        func() time.Time
}

func NewAdminUsecase(d AdminDeps, log zerolog.Logger) *Admin {
	return &Admin{
		users:      d.Users,
		techs:      d.Techs,
		jobs:       d.Jobs,
		activities: d.Activities,
		disputes:   d.Disputes,
		categories: d.Categories,
		cache:      d.Cache,
		resolver:   d.Resolver,
		notifier:   notifierOrNoop(d.Notifier),
		activity:   recorderOrNoop(d.Activity),
		log:        log.With().Str("component", "admin").Logger(),
		now:        time.Now,
	}
}

func (u *Admin) Activities(ctx context.Context, q ActivityQuery) (PageResult[activity.Activity], error) {
	if q.Action != "" && !q.Action.Valid() {
		return PageResult[activity.Activity]{}, ErrInvalidInput
	}
	limit, offset, p := q.Page.normalize(20, 100)

	items, total, err := u.activities.List(ctx, activity.ListFilter{
		Action: q.Action,
		From:   q.From,
		To:     q.To,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		u.log.Error().Err(err).Msg("list activities")
		return PageResult[activity.Activity]{}, ErrInternal
	}
	return PageResult[activity.Activity]{Items: items, Total: total, Page: p, Limit: limit}, nil
}

// ActivitySummary counts bookings and completions over the last day.
func (u *Admin) ActivitySummary(ctx context.Context) ([]activity.Count, error) {
	since := u.now().UTC().Add(-24 * time.Hour)
	out, err := u.activities.CountSince(ctx, summaryActions, since)
	if err != nil {
		u.log.Error().Err(err).Msg("activity summary")
		return nil, ErrInternal
	}
	return out, nil
}

func (u *Admin) ApproveTech(ctx context.Context, actor Actor, techID uuid.UUID, approved bool) error {
	tech, err := u.technician(ctx, techID)
	if err != nil {
		return err
	}
	if err := u.techs.SetApproved(ctx, tech.ID, approved); err != nil {
		if errors.Is(err, technician.ErrNotFound) {
			return ErrTechnicianNotFound
		}
		return ErrInternal
	}
	u.invalidateAnalytics(ctx)
	u.invalidateNearby(ctx)

	action := activity.TechApproved
	if !approved {
		action = activity.TechRejected
	}
	u.activity.Record(ctx, action, actorPtr(actor.ID), activity.Details{"techId": tech.ID.String()}, actor.IP)

	ev := ApprovalEvent{TechID: tech.ID, Approved: approved}
	u.notifier.Emit(ctx, realtime.UserRoom(tech.UserID), realtime.EventApprovalUpdate, ev)
	u.notifier.Emit(ctx, realtime.TechRoom(tech.ID), realtime.EventApprovalUpdate, ev)
	return nil
}

// RemoveTech deactivates a technician rated below 3 or with more than
// three complaints.
func (u *Admin) RemoveTech(ctx context.Context, actor Actor, techID uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrInvalidInput
	}
	tech, err := u.technician(ctx, techID)
	if err != nil {
		return err
	}

	complaints, err := u.disputes.CountForTechnician(ctx, tech.ID)
	if err != nil {
		u.log.Error().Err(err).Str("tech_id", tech.ID.String()).Msg("count complaints")
		return ErrInternal
	}
	if !MeetsRemovalCriteria(tech.Rating, complaints) {
		return ErrRemovalCriteria
	}

	if err := u.techs.SetApproved(ctx, tech.ID, false); err != nil {
		return ErrInternal
	}
	u.invalidateAnalytics(ctx)
	u.invalidateNearby(ctx)

	u.activity.Record(ctx, activity.TechRemoved, actorPtr(actor.ID), activity.Details{
		"techId":     tech.ID.String(),
		"reason":     reason,
		"complaints": complaints,
	}, actor.IP)
	return nil
}

func MeetsRemovalCriteria(rating float64, complaints int) bool {
	return rating < removalRatingBelow || complaints > removalComplaintsOver
}

func (u *Admin) Analytics(ctx context.Context) (Analytics, error) {
	if u.cache != nil {
		var cached Analytics
		if hit, err := u.cache.GetJSON(ctx, AnalyticsCacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	a, err := u.computeAnalytics(ctx)
	if err != nil {
		return Analytics{}, err
	}
	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, AnalyticsCacheKey, a, AnalyticsCacheTTL); err != nil {
			u.log.Debug().Err(err).Msg("cache analytics")
		}
	}
	return a, nil
}

// WarmAnalytics recomputes and stores the analytics regardless of what is
// cached.
func (u *Admin) WarmAnalytics(ctx context.Context) error {
	a, err := u.computeAnalytics(ctx)
	if err != nil {
		return err
	}
	if u.cache == nil {
		return nil
	}
	return u.cache.SetJSON(ctx, AnalyticsCacheKey, a, AnalyticsCacheTTL)
}

func (u *Admin) computeAnalytics(ctx context.Context) (Analytics, error) {
	var (
		a   Analytics
		err error
	)
	if a.TotalUsers, err = u.users.Count(ctx); err != nil {
		return Analytics{}, u.analyticsErr(err)
	}
	if a.TotalTechs, err = u.techs.CountApproved(ctx); err != nil {
		return Analytics{}, u.analyticsErr(err)
	}
	if a.TotalJobs, err = u.jobs.Count(ctx, ""); err != nil {
		return Analytics{}, u.analyticsErr(err)
	}
	if a.CompletedJobs, err = u.jobs.Count(ctx, job.StatusCompleted); err != nil {
		return Analytics{}, u.analyticsErr(err)
	}
	if a.AvgTechRating, err = u.techs.AverageRating(ctx); err != nil {
		return Analytics{}, u.analyticsErr(err)
	}
	return a, nil
}

func (u *Admin) analyticsErr(err error) error {
	u.log.Error().Err(err).Msg("compute analytics")
	return ErrInternal
}

func (u *Admin) invalidateAnalytics(ctx context.Context) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Delete(ctx, AnalyticsCacheKey); err != nil {
		u.log.Warn().Err(err).Msg("invalidate analytics")
	}
}

type patternDeleter interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// invalidateNearby drops cached geo lookups so approval changes show up
// before the cache TTL runs out.
func (u *Admin) invalidateNearby(ctx context.Context) {
	pd, ok := u.cache.(patternDeleter)
	if !ok {
		return
	}
	if err := pd.DeleteByPattern(ctx, nearbyCachePrefix+"*"); err != nil {
		u.log.Warn().Err(err).Msg("invalidate nearby")
	}
}

func (u *Admin) ResolveDispute(ctx context.Context, actor Actor, disputeID uuid.UUID, resolution string) (dispute.Dispute, error) {
	return u.resolver.Resolve(ctx, actor, disputeID, resolution)
}

// ManageLoyalty overwrites a user's balance.
func (u *Admin) ManageLoyalty(ctx context.Context, actor Actor, userID uuid.UUID, points int) error {
	if points < 0 {
		return ErrInvalidInput
	}
	if err := u.users.SetLoyaltyPoints(ctx, userID, points); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return ErrInternal
	}
	u.activity.Record(ctx, activity.LoyaltyManaged, actorPtr(actor.ID), activity.Details{
		"userId": userID.String(),
		"points": points,
	}, actor.IP)
	return nil
}

func (u *Admin) Technicians(ctx context.Context, q TechnicianQuery) (PageResult[technician.Technician], error) {
	limit, offset, p := q.Page.normalize(20, 100)
	items, total, err := u.techs.List(ctx, technician.ListFilter{
		Query:     q.Query,
		Approved:  q.Approved,
		Active:    q.Active,
		MinRating: q.MinRating,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		u.log.Error().Err(err).Msg("list technicians")
		return PageResult[technician.Technician]{}, ErrInternal
	}
	return PageResult[technician.Technician]{Items: items, Total: total, Page: p, Limit: limit}, nil
}

func (u *Admin) Technician(ctx context.Context, id uuid.UUID) (technician.Technician, error) {
	return u.technician(ctx, id)
}

func (u *Admin) Customers(ctx context.Context, query string, page Page) (PageResult[user.User], error) {
	limit, offset, p := page.normalize(20, 100)
	items, total, err := u.users.List(ctx, user.ListFilter{
		Role:   user.RoleUser,
		Query:  query,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		u.log.Error().Err(err).Msg("list customers")
		return PageResult[user.User]{}, ErrInternal
	}
	for i := range items {
		items[i].PasswordHash = ""
	}
	return PageResult[user.User]{Items: items, Total: total, Page: p, Limit: limit}, nil
}

func (u *Admin) Bookings(ctx context.Context, q BookingQuery) (PageResult[job.Job], error) {
	if q.Status != "" && !q.Status.Valid() {
		return PageResult[job.Job]{}, ErrInvalidInput
	}
	limit, offset, p := q.Page.normalize(20, 100)
	items, total, err := u.jobs.List(ctx, job.ListFilter{
		UserID: q.UserID,
		TechID: q.TechID,
		Status: q.Status,
		From:   q.From,
		To:     q.To,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		u.log.Error().Err(err).Msg("list bookings")
		return PageResult[job.Job]{}, ErrInternal
	}
	return PageResult[job.Job]{Items: items, Total: total, Page: p, Limit: limit}, nil
}

// SeedTechnician gives an existing account an approved technician profile
// offering the General category. An existing profile is approved instead.
func (u *Admin) SeedTechnician(ctx context.Context, actor Actor, email string, lat, lng *float64) (technician.Technician, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return technician.Technician{}, ErrInvalidInput
	}
	la, ln := SeedDefaultLat, SeedDefaultLng
	if lat != nil {
		la = *lat
	}
	if lng != nil {
		ln = *lng
	}
	if !geo.ValidLat(la) || !geo.ValidLng(ln) {
		return technician.Technician{}, ErrInvalidInput
	}

	usr, err := u.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return technician.Technician{}, ErrUserNotFound
		}
		return technician.Technician{}, ErrInternal
	}

	if existing, err := u.techs.GetByUserID(ctx, usr.ID); err == nil {
		if err := u.techs.SetApproved(ctx, existing.ID, true); err != nil {
			return technician.Technician{}, ErrInternal
		}
		u.invalidateAnalytics(ctx)
		existing.Approved = true
		return existing, nil
	} else if !errors.Is(err, technician.ErrNotFound) {
		return technician.Technician{}, ErrInternal
	}

	general, err := u.generalCategory(ctx)
	if err != nil {
		return technician.Technician{}, err
	}

	now := u.now().UTC()
	t := technician.Technician{
		ID:                 uuid.New(),
		UserID:             usr.ID,
		Lat:                la,
		Lng:                ln,
		AvailabilityStatus: technician.StatusAvailable,
		Rating:             seedRating,
		Approved:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := u.techs.Create(ctx, t, []uuid.UUID{general.ID}); err != nil {
		u.log.Error().Err(err).Msg("seed technician")
		return technician.Technician{}, ErrInternal
	}
	u.invalidateAnalytics(ctx)

	created, err := u.techs.GetByID(ctx, t.ID)
	if err != nil {
		return technician.Technician{}, ErrInternal
	}
	u.activity.Record(ctx, activity.TechApproved, actorPtr(actor.ID), activity.Details{
		"techId": t.ID.String(),
		"seeded": true,
	}, actor.IP)
	return created, nil
}

func (u *Admin) generalCategory(ctx context.Context) (category.Category, error) {
	c, err := u.categories.GetByName(ctx, generalCategory)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, category.ErrNotFound) {
		return category.Category{}, ErrInternal
	}

	now := u.now().UTC()
	c = category.Category{
		ID:          uuid.New(),
		Name:        generalCategory,
		Description: "General services",
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.categories.Create(ctx, c); err != nil {
		if errors.Is(err, category.ErrDuplicate) {
			if c, err = u.categories.GetByName(ctx, generalCategory); err == nil {
				return c, nil
			}
		}
		return category.Category{}, ErrInternal
	}
	return c, nil
}

func (u *Admin) technician(ctx context.Context, id uuid.UUID) (technician.Technician, error) {
	t, err := u.techs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, technician.ErrNotFound) {
			return technician.Technician{}, ErrTechnicianNotFound
		}
		return technician.Technician{}, ErrInternal
	}
	return t, nil
}
