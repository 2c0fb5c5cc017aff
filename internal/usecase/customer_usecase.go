package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"fixitnow/internal/domain/activity"
	"fixitnow/internal/domain/job"
	"fixitnow/internal/domain/technician"
	"fixitnow/internal/domain/user"
	"fixitnow/internal/realtime"
	"fixitnow/internal/search"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultSearchRadiusKm = 10
	searchResultLimit     = 20
	searchCandidateLimit  = 100
	BookingReferralBonus  = 25
)

type SearchParams struct {
	Query      string
	Lat        float64
	Lng        float64
	RadiusKm   float64
	MinRating  float64
	ServiceIDs []uuid.UUID
	Premium    bool
}

type TechMatch struct {
	technician.Technician
	DistanceKm  float64 `json:"distanceKm"`
	AIScore     float64 `json:"aiScore"`
	IsAvailable bool    `json:"isAvailable"`
}

type BookJobInput struct {
	TechID           uuid.UUID
	ServiceType      string
	Price            float64
	Description      string
	BeneficiaryName  string
	BeneficiaryPhone string
	ReferralCode     string
}

type LoyaltyAction string

const (
	LoyaltyEarn   LoyaltyAction = "earn"
	LoyaltyRedeem LoyaltyAction = "redeem"
)

type LoyaltyResult struct {
	LoyaltyPoints int `json:"loyaltyPoints"`
}

type CustomerUsecase interface {
	SearchTechs(ctx context.Context, actor Actor, p SearchParams) ([]TechMatch, error)
	BookJob(ctx context.Context, actor Actor, in BookJobInput) (job.Job, error)
	TrackJob(ctx context.Context, actor Actor, jobID uuid.UUID) (job.Job, error)
	Loyalty(ctx context.Context, actor Actor, action LoyaltyAction, points int, source string) (LoyaltyResult, error)
}

type Customer struct {
	users        user.Repository
	techs        technician.Repository
	jobs         job.Repository
	nearby       nearbyFinder
	availability *Availability
	notifier     Notifier
	activity     ActivityRecorder
	log          zerolog.Logger
	now          func() time.Time
}

func NewCustomerUsecase(users user.Repository, techs technician.Repository, jobs job.Repository, cache SearchCache, availability *Availability, notifier Notifier, rec ActivityRecorder, log zerolog.Logger) *Customer {
	log = log.With().Str("component", "customer").Logger()
	return &Customer{
		users:        users,
		techs:        techs,
		jobs:         jobs,
		nearby:       nearbyFinder{techs: techs, cache: cache, log: log},
		availability: availability,
		notifier:     notifierOrNoop(notifier),
		activity:     recorderOrNoop(rec),
		log:          log,
		now:          time.Now,
	}
}

// SearchTechs ranks approved technicians around the caller by AI score.
func (u *Customer) SearchTechs(ctx context.Context, actor Actor, p SearchParams) ([]TechMatch, error) {
	radius := p.RadiusKm
	if radius <= 0 {
		radius = DefaultSearchRadiusKm
	}

	rows, err := u.nearby.find(ctx, technician.GeoFilter{
		Lat:         p.Lat,
		Lng:         p.Lng,
		RadiusKm:    radius,
		MinRating:   p.MinRating,
		ServiceIDs:  p.ServiceIDs,
		PremiumOnly: p.Premium,
		Limit:       searchCandidateLimit,
	})
	if err != nil {
		u.log.Error().Err(err).Msg("search technicians")
		return nil, ErrInternal
	}

	qctx := search.ProcessQuery(p.Query)
	if qctx.Normalized != "" {
		filtered := rows[:0:0]
		for _, r := range rows {
			if search.MatchesServices(r.ServiceNames(), qctx.Variants) {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	ranked := search.Rank(rows, func(n technician.Nearby) float64 {
		return search.AIScore(search.Candidate{Rating: n.Rating, DistanceKm: n.DistanceKm})
	}, searchResultLimit)

	out := make([]TechMatch, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, TechMatch{
			Technician:  r.Item.Technician,
			DistanceKm:  r.Item.DistanceKm,
			AIScore:     r.Score,
			IsAvailable: !u.availability.IsBusy(ctx, r.Item.Technician),
		})
	}

	u.activity.Record(ctx, activity.SearchTech, actorPtr(actor.ID), activity.Details{
		"query":   normalizeSearchValue(p.Query),
		"lat":     p.Lat,
		"lng":     p.Lng,
		"radius":  radius,
		"results": len(out),
	}, actor.IP)
	return out, nil
}

// BookJob creates a pending job and takes the technician's booking hold.
// The hold is taken with set-if-absent so two concurrent bookings cannot
// both win.
func (u *Customer) BookJob(ctx context.Context, actor Actor, in BookJobInput) (job.Job, error) {
	if in.TechID == uuid.Nil || strings.TrimSpace(in.ServiceType) == "" || in.Price < 0 {
		return job.Job{}, ErrInvalidInput
	}

	tech, err := u.techs.GetByID(ctx, in.TechID)
	if err != nil {
		if errors.Is(err, technician.ErrNotFound) {
			return job.Job{}, ErrTechnicianNotFound
		}
		return job.Job{}, ErrInternal
	}
	if !tech.Approved {
		return job.Job{}, ErrTechnicianNotFound
	}
	if u.availability.IsBusy(ctx, tech) {
		return job.Job{}, ErrTechnicianBusy
	}

	ok, err := u.availability.Acquire(ctx, tech.ID, BookingHold)
	if err != nil {
		u.log.Error().Err(err).Str("tech_id", tech.ID.String()).Msg("acquire booking hold")
		return job.Job{}, ErrInternal
	}
	if !ok {
		return job.Job{}, ErrTechnicianBusy
	}

	now := u.now().UTC()
	j := job.Job{
		ID:               uuid.New(),
		UserID:           actor.ID,
		TechID:           tech.ID,
		TechUserID:       tech.UserID,
		TechName:         tech.Name,
		TechRating:       tech.Rating,
		ServiceType:      strings.TrimSpace(in.ServiceType),
		Description:      strings.TrimSpace(in.Description),
		Status:           job.StatusPending,
		Price:            in.Price,
		PaymentStatus:    job.PaymentPending,
		BeneficiaryName:  strings.TrimSpace(in.BeneficiaryName),
		BeneficiaryPhone: strings.TrimSpace(in.BeneficiaryPhone),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := u.jobs.Create(ctx, j); err != nil {
		if rerr := u.availability.Release(ctx, tech.ID); rerr != nil {
			u.log.Warn().Err(rerr).Str("tech_id", tech.ID.String()).Msg("release hold after failed booking")
		}
		u.log.Error().Err(err).Msg("create job")
		return job.Job{}, ErrInternal
	}

	if code := strings.TrimSpace(in.ReferralCode); code != "" {
		u.applyBookingReferral(ctx, actor, code)
	}

	u.activity.Record(ctx, activity.JobBooked, actorPtr(actor.ID), activity.Details{
		"techId": tech.ID.String(),
		"jobId":  j.ID.String(),
		"price":  j.Price,
	}, actor.IP)
	u.notifier.Emit(ctx, realtime.TechRoom(tech.ID), realtime.EventJobCreated, j)
	return j, nil
}

// applyBookingReferral credits the booker when the code belongs to someone
// else. An unknown code never fails the booking.
func (u *Customer) applyBookingReferral(ctx context.Context, actor Actor, code string) {
	referrer, err := u.users.GetByReferralCode(ctx, code)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			u.log.Warn().Err(err).Msg("lookup booking referral")
		}
		return
	}
	if referrer.ID == actor.ID {
		return
	}
	if _, err := u.users.AddLoyaltyPoints(ctx, actor.ID, BookingReferralBonus); err != nil {
		u.log.Warn().Err(err).Str("user_id", actor.ID.String()).Msg("credit booking referral")
		return
	}
	u.activity.Record(ctx, activity.PointsEarned, actorPtr(actor.ID), activity.Details{
		"source": "referral",
		"points": BookingReferralBonus,
	}, actor.IP)
}

func (u *Customer) TrackJob(ctx context.Context, actor Actor, jobID uuid.UUID) (job.Job, error) {
	j, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return job.Job{}, ErrJobNotFound
		}
		return job.Job{}, ErrInternal
	}
	if j.UserID != actor.ID {
		return job.Job{}, ErrJobNotFound
	}
	return j, nil
}

func (u *Customer) Loyalty(ctx context.Context, actor Actor, action LoyaltyAction, points int, source string) (LoyaltyResult, error) {
	if points < 1 {
		return LoyaltyResult{}, ErrInvalidInput
	}

	var (
		delta int
		act   activity.Action
	)
	switch action {
	case LoyaltyEarn:
		delta, act = points, activity.PointsEarned
	case LoyaltyRedeem:
		delta, act = -points, activity.PointsRedeemed
	default:
		return LoyaltyResult{}, ErrInvalidInput
	}

	balance, err := u.users.AddLoyaltyPoints(ctx, actor.ID, delta)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInsufficientPoints):
			return LoyaltyResult{}, ErrInsufficientPoints
		case errors.Is(err, user.ErrNotFound):
			return LoyaltyResult{}, ErrUserNotFound
		}
		return LoyaltyResult{}, ErrInternal
	}

	details := activity.Details{"points": points}
	if source = strings.TrimSpace(source); source != "" {
		details["source"] = source
	}
	u.activity.Record(ctx, act, actorPtr(actor.ID), details, actor.IP)
	return LoyaltyResult{LoyaltyPoints: balance}, nil
}
