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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type CreateJobInput struct {
	UserID           *uuid.UUID
	TechID           uuid.UUID
	ServiceType      string
	Price            float64
	Description      string
	BeneficiaryName  string
	BeneficiaryPhone string
}

type CompleteJobInput struct {
	JobID            uuid.UUID
	Rating           int
	Comment          string
	PaymentConfirmed bool
}

// JobCompletedEvent is the payload of jobCompleted.
type JobCompletedEvent struct {
	JobID  uuid.UUID  `json:"jobId"`
	Review job.Review `json:"review"`
}

type JobUsecase interface {
	Create(ctx context.Context, actor Actor, in CreateJobInput) (job.Job, error)
	UpdateStatus(ctx context.Context, actor Actor, jobID uuid.UUID, status job.Status) (job.Job, error)
	Complete(ctx context.Context, actor Actor, in CompleteJobInput) (job.Job, error)
	List(ctx context.Context, actor Actor, status job.Status, page Page) (PageResult[job.Job], error)
	// Participant loads the job when the caller is its customer, its
	// technician or an admin.
	Participant(ctx context.Context, actor Actor, jobID uuid.UUID) (job.Job, error)
}

type Jobs struct {
	jobs         job.Repository
	techs        technician.Repository
	availability *Availability
	notifier     Notifier
	activity     ActivityRecorder
	log          zerolog.Logger
	now          func() time.Time
}

func NewJobUsecase(jobs job.Repository, techs technician.Repository, availability *Availability, notifier Notifier, rec ActivityRecorder, log zerolog.Logger) *Jobs {
	return &Jobs{
		jobs:         jobs,
		techs:        techs,
		availability: availability,
		notifier:     notifierOrNoop(notifier),
		activity:     recorderOrNoop(rec),
		log:          log.With().Str("component", "jobs").Logger(),
		now:          time.Now,
	}
}

// Create books on behalf of the caller. Admins may book for another user.
func (u *Jobs) Create(ctx context.Context, actor Actor, in CreateJobInput) (job.Job, error) {
	if in.TechID == uuid.Nil || strings.TrimSpace(in.ServiceType) == "" || in.Price < 0 {
		return job.Job{}, ErrInvalidInput
	}

	owner := actor.ID
	switch actor.Role {
	case user.RoleUser:
	case user.RoleAdmin:
		if in.UserID != nil && *in.UserID != uuid.Nil {
			owner = *in.UserID
		}
	default:
		return job.Job{}, ErrForbidden
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

	now := u.now().UTC()
	j := job.Job{
		ID:               uuid.New(),
		UserID:           owner,
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
		switch {
		case errors.Is(err, user.ErrNotFound):
			return job.Job{}, ErrUserNotFound
		case errors.Is(err, technician.ErrNotFound):
			return job.Job{}, ErrTechnicianNotFound
		}
		u.log.Error().Err(err).Msg("create job")
		return job.Job{}, ErrInternal
	}

	u.activity.Record(ctx, activity.JobCreated, actorPtr(owner), activity.Details{
		"jobId":  j.ID.String(),
		"techId": tech.ID.String(),
	}, actor.IP)
	u.notifier.Emit(ctx, realtime.TechRoom(tech.ID), realtime.EventJobCreated, j)
	return j, nil
}

func (u *Jobs) UpdateStatus(ctx context.Context, actor Actor, jobID uuid.UUID, status job.Status) (job.Job, error) {
	if !status.Valid() {
		return job.Job{}, ErrInvalidInput
	}

	j, err := u.load(ctx, jobID)
	if err != nil {
		return job.Job{}, err
	}

	role := job.ActorAdmin
	switch actor.Role {
	case user.RoleUser:
		role = job.ActorUser
		if status != job.StatusCancelled {
			return job.Job{}, ErrUserMayOnlyCancel
		}
		if j.UserID != actor.ID {
			return job.Job{}, ErrNotYourJob
		}
	case user.RoleTech:
		role = job.ActorTech
		tech, err := techForUser(ctx, u.techs, actor.ID)
		if err != nil {
			if errors.Is(err, ErrTechProfileNotFound) {
				return job.Job{}, ErrNotYourJob
			}
			return job.Job{}, err
		}
		if j.TechID != tech.ID {
			return job.Job{}, ErrNotYourJob
		}
	}

	if err := job.CanTransition(j.Status, status, role); err != nil {
		return job.Job{}, err
	}
	err = u.jobs.UpdateStatus(ctx, job.StatusChange{
		JobID:     j.ID,
		From:      j.Status,
		To:        status,
		ActorID:   actor.ID,
		ActorRole: role,
	})
	if err != nil {
		if errors.Is(err, job.ErrInvalidTransition) {
			return job.Job{}, err
		}
		u.log.Error().Err(err).Str("job_id", j.ID.String()).Msg("update job status")
		return job.Job{}, ErrInternal
	}
	j.Status = status
	j.UpdatedAt = u.now().UTC()

	if status.Terminal() {
		u.release(ctx, j.TechID)
	}

	u.activity.Record(ctx, activity.JobStatusUpdated, actorPtr(actor.ID), activity.Details{
		"jobId":  j.ID.String(),
		"status": string(status),
	}, actor.IP)
	emitJobStatus(ctx, u.notifier, j, "")
	return j, nil
}

// Complete closes an in-progress job with the owner's review and folds the
// rating into the technician's running average.
func (u *Jobs) Complete(ctx context.Context, actor Actor, in CompleteJobInput) (job.Job, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return job.Job{}, ErrInvalidInput
	}

	j, err := u.load(ctx, in.JobID)
	if err != nil {
		return job.Job{}, err
	}
	if j.UserID != actor.ID {
		return job.Job{}, ErrNotYourJob
	}
	if err := job.CanTransition(j.Status, job.StatusCompleted, job.ActorUser); err != nil {
		return job.Job{}, err
	}

	rev := job.Review{Rating: in.Rating, Comment: strings.TrimSpace(in.Comment)}
	pay := job.PaymentPending
	if in.PaymentConfirmed {
		pay = job.PaymentConfirmed
	}
	now := u.now().UTC()

	err = u.jobs.Complete(ctx, j.ID, job.Completion{
		Review:        rev,
		PaymentStatus: pay,
		CompletedAt:   now,
	}, job.StatusChange{
		JobID:     j.ID,
		From:      j.Status,
		To:        job.StatusCompleted,
		ActorID:   actor.ID,
		ActorRole: job.ActorUser,
	})
	if err != nil {
		if errors.Is(err, job.ErrInvalidTransition) {
			return job.Job{}, err
		}
		u.log.Error().Err(err).Str("job_id", j.ID.String()).Msg("complete job")
		return job.Job{}, ErrInternal
	}
	j.Status = job.StatusCompleted
	j.Review = &rev
	j.PaymentStatus = pay
	j.CompletedAt = &now
	j.UpdatedAt = now

	if err := u.techs.FoldRating(ctx, j.TechID, in.Rating); err != nil {
		u.log.Error().Err(err).Str("tech_id", j.TechID.String()).Msg("update technician rating")
	}
	u.release(ctx, j.TechID)

	u.notifier.Emit(ctx, realtime.TechRoom(j.TechID), realtime.EventJobCompleted, JobCompletedEvent{JobID: j.ID, Review: rev})
	u.activity.Record(ctx, activity.JobCompleted, actorPtr(actor.ID), activity.Details{
		"jobId":  j.ID.String(),
		"rating": rev.Rating,
	}, actor.IP)
	if in.PaymentConfirmed {
		u.activity.Record(ctx, activity.PaymentConfirmed, actorPtr(actor.ID), activity.Details{
			"jobId":  j.ID.String(),
			"amount": j.Price,
		}, actor.IP)
	}
	return j, nil
}

// List applies the role filter: users see their bookings, technicians
// their assignments, admins everything.
func (u *Jobs) List(ctx context.Context, actor Actor, status job.Status, page Page) (PageResult[job.Job], error) {
	if status != "" && !status.Valid() {
		return PageResult[job.Job]{}, ErrInvalidInput
	}
	limit, offset, p := page.normalize(10, 100)

	f := job.ListFilter{Status: status, Limit: limit, Offset: offset}
	switch actor.Role {
	case user.RoleUser:
		f.UserID = &actor.ID
	case user.RoleTech:
		tech, err := techForUser(ctx, u.techs, actor.ID)
		if err != nil {
			return PageResult[job.Job]{}, err
		}
		f.TechID = &tech.ID
	}

	items, total, err := u.jobs.List(ctx, f)
	if err != nil {
		u.log.Error().Err(err).Msg("list jobs")
		return PageResult[job.Job]{}, ErrInternal
	}
	return PageResult[job.Job]{Items: items, Total: total, Page: p, Limit: limit}, nil
}

func (u *Jobs) Participant(ctx context.Context, actor Actor, jobID uuid.UUID) (job.Job, error) {
	j, err := u.load(ctx, jobID)
	if err != nil {
		return job.Job{}, err
	}
	if actor.IsAdmin() || actor.ID == j.UserID || actor.ID == j.TechUserID {
		return j, nil
	}
	return job.Job{}, ErrNotYourJob
}

func (u *Jobs) load(ctx context.Context, id uuid.UUID) (job.Job, error) {
	j, err := u.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return job.Job{}, ErrJobNotFound
		}
		return job.Job{}, ErrInternal
	}
	return j, nil
}

func (u *Jobs) release(ctx context.Context, techID uuid.UUID) {
	if u.availability == nil {
		return
	}
	if err := u.availability.Release(ctx, techID); err != nil {
		u.log.Warn().Err(err).Str("tech_id", techID.String()).Msg("release hold")
	}
}
