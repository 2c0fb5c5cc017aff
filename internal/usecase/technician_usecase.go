package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"fixitnow/internal/domain/activity"
	"fixitnow/internal/domain/category"
	"fixitnow/internal/domain/job"
	"fixitnow/internal/domain/technician"
	"fixitnow/internal/domain/user"
	"fixitnow/internal/pkg/geo"
	"fixitnow/internal/realtime"
	"fixitnow/internal/search"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultNearbyRadiusM = 50000
	nearbyLimit          = 100
)

type NearbyParams struct {
	Lat       float64
	Lng       float64
	RadiusM   float64
	ServiceID *uuid.UUID
	MinRating float64
	Query     string
}

type RegisterTechInput struct {
	Services    []uuid.UUID
	Lat         *float64
	Lng         *float64
	EcoFriendly bool
}

type FreezeResult struct {
	NextAvailable time.Time `json:"nextAvailable"`
}

type VideoCallResult struct {
	JobID       uuid.UUID `json:"jobId"`
	VideoCallID string    `json:"videoCallId"`
}

type ActiveResult struct {
	Status technician.AvailabilityStatus `json:"status"`
}

// LocationEvent is the payload of locationUpdate.
type LocationEvent struct {
	JobID uuid.UUID `json:"jobId"`
	Lat   float64   `json:"lat"`
	Lng   float64   `json:"lng"`
	At    time.Time `json:"at"`
}

// JobStatusEvent is the payload of jobStatusUpdate.
type JobStatusEvent struct {
	JobID  uuid.UUID  `json:"jobId"`
	Status job.Status `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

type TechnicianUsecase interface {
	Nearby(ctx context.Context, p NearbyParams) ([]technician.Nearby, error)
	Register(ctx context.Context, actor Actor, in RegisterTechInput) (technician.Technician, error)
	AcceptJob(ctx context.Context, actor Actor, jobID uuid.UUID) (job.Job, error)
	DeclineJob(ctx context.Context, actor Actor, jobID uuid.UUID) (job.Job, error)
	FreezeMode(ctx context.Context, actor Actor, minutes int) (FreezeResult, error)
	VideoCall(ctx context.Context, actor Actor, jobID uuid.UUID) (VideoCallResult, error)
	Premium(ctx context.Context, actor Actor) (technician.Technician, error)
	SetActive(ctx context.Context, actor Actor, active bool) (ActiveResult, error)
	ShareLocation(ctx context.Context, actor Actor, jobID uuid.UUID, lat, lng float64) (LocationEvent, error)
	// OwnProfile returns the caller's technician profile.
	OwnProfile(ctx context.Context, actor Actor) (technician.Technician, error)
}

type Technician struct {
	users        user.Repository
	techs        technician.Repository
	categories   category.Repository
	jobs         job.Repository
	nearby       nearbyFinder
	availability *Availability
	notifier     Notifier
	activity     ActivityRecorder
	log          zerolog.Logger
	now          func() time.Time
}

func NewTechnicianUsecase(users user.Repository, techs technician.Repository, categories category.Repository, jobs job.Repository, cache SearchCache, availability *Availability, notifier Notifier, rec ActivityRecorder, log zerolog.Logger) *Technician {
	log = log.With().Str("component", "technician").Logger()
	return &Technician{
		users:        users,
		techs:        techs,
		categories:   categories,
		jobs:         jobs,
		nearby:       nearbyFinder{techs: techs, cache: cache, log: log},
		availability: availability,
		notifier:     notifierOrNoop(notifier),
		activity:     recorderOrNoop(rec),
		log:          log,
		now:          time.Now,
	}
}

// Nearby lists approved technicians within RadiusM metres, closest first.
func (u *Technician) Nearby(ctx context.Context, p NearbyParams) ([]technician.Nearby, error) {
	if !geo.ValidLat(p.Lat) || !geo.ValidLng(p.Lng) {
		return nil, ErrCoordinatesRequired
	}
	radius := p.RadiusM
	if radius <= 0 {
		radius = DefaultNearbyRadiusM
	}

	f := technician.GeoFilter{
		Lat:       p.Lat,
		Lng:       p.Lng,
		RadiusKm:  radius / 1000,
		MinRating: p.MinRating,
		Limit:     nearbyLimit,
	}
	if p.ServiceID != nil {
		f.ServiceIDs = []uuid.UUID{*p.ServiceID}
	}

	rows, err := u.nearby.find(ctx, f)
	if err != nil {
		u.log.Error().Err(err).Msg("nearby technicians")
		return nil, ErrInternal
	}

	needle := strings.ToLower(strings.TrimSpace(p.Query))
	if needle == "" {
		return rows, nil
	}
	out := rows[:0:0]
	for _, r := range rows {
		if search.MatchesServices(r.ServiceNames(), []string{needle}) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Register creates the caller's technician profile pending approval.
func (u *Technician) Register(ctx context.Context, actor Actor, in RegisterTechInput) (technician.Technician, error) {
	ids := uniqueIDs(in.Services)
	if len(ids) == 0 {
		return technician.Technician{}, ErrInvalidInput
	}
	if (in.Lat == nil) != (in.Lng == nil) {
		return technician.Technician{}, ErrInvalidInput
	}
	if in.Lat != nil && (!geo.ValidLat(*in.Lat) || !geo.ValidLng(*in.Lng)) {
		return technician.Technician{}, ErrInvalidInput
	}

	if _, err := u.techs.GetByUserID(ctx, actor.ID); err == nil {
		return technician.Technician{}, ErrTechProfileExists
	} else if !errors.Is(err, technician.ErrNotFound) {
		return technician.Technician{}, ErrInternal
	}

	n, err := u.categories.CountExisting(ctx, ids)
	if err != nil {
		return technician.Technician{}, ErrInternal
	}
	if n != len(ids) {
		return technician.Technician{}, ErrUnknownService
	}

	usr, err := u.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return technician.Technician{}, ErrUserNotFound
		}
		return technician.Technician{}, ErrInternal
	}

	var lat, lng float64
	switch {
	case in.Lat != nil:
		lat, lng = *in.Lat, *in.Lng
	case usr.Lat != nil && usr.Lng != nil:
		lat, lng = *usr.Lat, *usr.Lng
	}

	now := u.now().UTC()
	t := technician.Technician{
		ID:                 uuid.New(),
		UserID:             actor.ID,
		Lat:                lat,
		Lng:                lng,
		AvailabilityStatus: technician.StatusAvailable,
		EcoFriendly:        in.EcoFriendly,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := u.techs.Create(ctx, t, ids); err != nil {
		if errors.Is(err, technician.ErrAlreadyExists) {
			return technician.Technician{}, ErrTechProfileExists
		}
		u.log.Error().Err(err).Msg("create technician")
		return technician.Technician{}, ErrInternal
	}

	created, err := u.techs.GetByID(ctx, t.ID)
	if err != nil {
		return technician.Technician{}, ErrInternal
	}

	services := make([]string, 0, len(ids))
	for _, id := range ids {
		services = append(services, id.String())
	}
	u.activity.Record(ctx, activity.TechRegister, actorPtr(actor.ID), activity.Details{
		"techId":   t.ID.String(),
		"services": services,
	}, actor.IP)
	return created, nil
}

func (u *Technician) AcceptJob(ctx context.Context, actor Actor, jobID uuid.UUID) (job.Job, error) {
	tech, j, err := u.assignedJob(ctx, actor, jobID)
	if err != nil {
		return job.Job{}, err
	}
	if j.Status != job.StatusPending {
		return job.Job{}, ErrJobNotPending
	}

	if err := u.moveJob(ctx, actor, &j, job.StatusInProgress); err != nil {
		return job.Job{}, err
	}
	if err := u.availability.Hold(ctx, tech.ID, AcceptHold); err != nil {
		u.log.Warn().Err(err).Str("tech_id", tech.ID.String()).Msg("hold after accept")
	}

	u.activity.Record(ctx, activity.JobAccepted, actorPtr(actor.ID), activity.Details{"jobId": j.ID.String()}, actor.IP)
	emitJobStatus(ctx, u.notifier, j, "")
	return j, nil
}

func (u *Technician) DeclineJob(ctx context.Context, actor Actor, jobID uuid.UUID) (job.Job, error) {
	tech, j, err := u.assignedJob(ctx, actor, jobID)
	if err != nil {
		return job.Job{}, err
	}
	if j.Status != job.StatusPending {
		return job.Job{}, ErrJobNotPending
	}

	if err := u.moveJob(ctx, actor, &j, job.StatusDeclined); err != nil {
		return job.Job{}, err
	}
	if err := u.availability.Release(ctx, tech.ID); err != nil {
		u.log.Warn().Err(err).Str("tech_id", tech.ID.String()).Msg("release after decline")
	}

	u.activity.Record(ctx, activity.JobDeclined, actorPtr(actor.ID), activity.Details{"jobId": j.ID.String()}, actor.IP)
	emitJobStatus(ctx, u.notifier, j, "declined by tech")
	return j, nil
}

func (u *Technician) FreezeMode(ctx context.Context, actor Actor, minutes int) (FreezeResult, error) {
	if minutes == 0 {
		minutes = DefaultFreezeMinutes
	}
	if minutes < 1 {
		return FreezeResult{}, ErrInvalidInput
	}

	tech, err := techForUser(ctx, u.techs, actor.ID)
	if err != nil {
		return FreezeResult{}, err
	}

	d := time.Duration(minutes) * time.Minute
	next := u.now().UTC().Add(d)
	if err := u.availability.Hold(ctx, tech.ID, d); err != nil {
		u.log.Error().Err(err).Str("tech_id", tech.ID.String()).Msg("freeze mode")
		return FreezeResult{}, ErrInternal
	}

	u.activity.Record(ctx, activity.FreezeModeSet, actorPtr(actor.ID), activity.Details{"duration": minutes}, actor.IP)
	return FreezeResult{NextAvailable: next}, nil
}

func (u *Technician) VideoCall(ctx context.Context, actor Actor, jobID uuid.UUID) (VideoCallResult, error) {
	_, j, err := u.assignedJob(ctx, actor, jobID)
	if err != nil {
		return VideoCallResult{}, err
	}

	res := VideoCallResult{JobID: j.ID, VideoCallID: uuid.NewString()}
	if err := u.jobs.SetVideoCallID(ctx, j.ID, res.VideoCallID); err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return VideoCallResult{}, ErrJobNotFound
		}
		return VideoCallResult{}, ErrInternal
	}

	u.notifier.Emit(ctx, realtime.UserRoom(j.UserID), realtime.EventVideoCallInitiated, res)
	return res, nil
}

func (u *Technician) Premium(ctx context.Context, actor Actor) (technician.Technician, error) {
	tech, err := techForUser(ctx, u.techs, actor.ID)
	if err != nil {
		return technician.Technician{}, err
	}
	if err := u.techs.SetPremium(ctx, tech.ID, true); err != nil {
		return technician.Technician{}, ErrInternal
	}
	tech.Premium = true

	u.activity.Record(ctx, activity.PremiumUpgrade, actorPtr(actor.ID), activity.Details{"status": "activated"}, actor.IP)
	return tech, nil
}

// SetActive makes the technician bookable, or busy until toggled back.
func (u *Technician) SetActive(ctx context.Context, actor Actor, active bool) (ActiveResult, error) {
	tech, err := techForUser(ctx, u.techs, actor.ID)
	if err != nil {
		return ActiveResult{}, err
	}

	status := technician.StatusAvailable
	if active {
		err = u.availability.Release(ctx, tech.ID)
	} else {
		status = technician.StatusBusy
		err = u.availability.Hold(ctx, tech.ID, 0)
	}
	if err != nil {
		u.log.Error().Err(err).Str("tech_id", tech.ID.String()).Msg("toggle active")
		return ActiveResult{}, ErrInternal
	}

	u.activity.Record(ctx, activity.TechActiveToggle, actorPtr(actor.ID), activity.Details{"status": string(status)}, actor.IP)
	return ActiveResult{Status: status}, nil
}

// ShareLocation forwards the technician's live position to the customer
// following the job.
func (u *Technician) ShareLocation(ctx context.Context, actor Actor, jobID uuid.UUID, lat, lng float64) (LocationEvent, error) {
	if !geo.ValidLat(lat) || !geo.ValidLng(lng) {
		return LocationEvent{}, ErrInvalidInput
	}
	_, j, err := u.assignedJob(ctx, actor, jobID)
	if err != nil {
		return LocationEvent{}, err
	}

	ev := LocationEvent{JobID: j.ID, Lat: lat, Lng: lng, At: u.now().UTC()}
	u.notifier.Emit(ctx, realtime.UserRoom(j.UserID), realtime.EventLocationUpdate, ev)
	u.notifier.Emit(ctx, realtime.JobRoom(j.ID), realtime.EventLocationUpdate, ev)
	return ev, nil
}

func (u *Technician) OwnProfile(ctx context.Context, actor Actor) (technician.Technician, error) {
	return techForUser(ctx, u.techs, actor.ID)
}

// assignedJob loads a job that belongs to the caller's technician profile.
func (u *Technician) assignedJob(ctx context.Context, actor Actor, jobID uuid.UUID) (technician.Technician, job.Job, error) {
	tech, err := techForUser(ctx, u.techs, actor.ID)
	if err != nil {
		return technician.Technician{}, job.Job{}, err
	}
	j, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return technician.Technician{}, job.Job{}, ErrJobNotAssigned
		}
		return technician.Technician{}, job.Job{}, ErrInternal
	}
	if j.TechID != tech.ID {
		return technician.Technician{}, job.Job{}, ErrJobNotAssigned
	}
	return tech, j, nil
}

func (u *Technician) moveJob(ctx context.Context, actor Actor, j *job.Job, to job.Status) error {
	if err := job.CanTransition(j.Status, to, job.ActorTech); err != nil {
		return ErrJobNotPending
	}
	err := u.jobs.UpdateStatus(ctx, job.StatusChange{
		JobID:     j.ID,
		From:      j.Status,
		To:        to,
		ActorID:   actor.ID,
		ActorRole: job.ActorTech,
	})
	if err != nil {
		if errors.Is(err, job.ErrInvalidTransition) {
			return ErrJobNotPending
		}
		u.log.Error().Err(err).Str("job_id", j.ID.String()).Msg("update job status")
		return ErrInternal
	}
	j.Status = to
	j.UpdatedAt = u.now().UTC()
	return nil
}

func techForUser(ctx context.Context, techs technician.Repository, userID uuid.UUID) (technician.Technician, error) {
	t, err := techs.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, technician.ErrNotFound) {
			return technician.Technician{}, ErrTechProfileNotFound
		}
		return technician.Technician{}, ErrInternal
	}
	return t, nil
}

func emitJobStatus(ctx context.Context, n Notifier, j job.Job, reason string) {
	ev := JobStatusEvent{JobID: j.ID, Status: j.Status, Reason: reason}
	n.Emit(ctx, realtime.UserRoom(j.UserID), realtime.EventJobStatusUpdate, ev)
	n.Emit(ctx, realtime.TechRoom(j.TechID), realtime.EventJobStatusUpdate, ev)
	n.Emit(ctx, realtime.JobRoom(j.ID), realtime.EventJobStatusUpdate, ev)
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
