package usecase

import (
	"context"
	"errors"
	"time"

	"fixitnow/internal/domain/activity"
	"fixitnow/internal/domain/job"
	"fixitnow/internal/domain/payment"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultCurrency = "INR"

type PaymentUsecase interface {
	CreateCOD(ctx context.Context, actor Actor, jobID uuid.UUID) (payment.Payment, error)
	Confirm(ctx context.Context, actor Actor, jobID uuid.UUID) (payment.Payment, error)
	Get(ctx context.Context, actor Actor, jobID uuid.UUID) (payment.Payment, error)
}

type Payments struct {
	payments payment.Repository
	jobs     job.Repository
	activity ActivityRecorder
	log      zerolog.Logger
	now      func() time.Time
}

func NewPaymentUsecase(payments payment.Repository, jobs job.Repository, rec ActivityRecorder, log zerolog.Logger) *Payments {
	return &Payments{
		payments: payments,
		jobs:     jobs,
		activity: recorderOrNoop(rec),
		log:      log.With().Str("component", "payments").Logger(),
		now:      time.Now,
	}
}

// CreateCOD returns the job's cash-on-delivery payment, creating it from
// the job price on first call.
func (u *Payments) CreateCOD(ctx context.Context, actor Actor, jobID uuid.UUID) (payment.Payment, error) {
	j, err := u.job(ctx, jobID)
	if err != nil {
		return payment.Payment{}, err
	}
	if j.UserID != actor.ID {
		return payment.Payment{}, ErrNotYourJob
	}

	now := u.now().UTC()
	p, err := u.payments.GetOrCreate(ctx, payment.Payment{
		ID:        uuid.New(),
		JobID:     j.ID,
		UserID:    j.UserID,
		Amount:    j.Price,
		Currency:  DefaultCurrency,
		Method:    payment.MethodCOD,
		Status:    payment.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		u.log.Error().Err(err).Str("job_id", j.ID.String()).Msg("create cod payment")
		return payment.Payment{}, ErrInternal
	}
	return p, nil
}

// Confirm records cash received. The assigned technician or an admin may
// confirm.
func (u *Payments) Confirm(ctx context.Context, actor Actor, jobID uuid.UUID) (payment.Payment, error) {
	j, err := u.job(ctx, jobID)
	if err != nil {
		return payment.Payment{}, err
	}
	if !actor.IsAdmin() && actor.ID != j.TechUserID {
		return payment.Payment{}, ErrNotYourJob
	}

	p, err := u.payments.MarkPaid(ctx, j.ID, actor.ID, u.now().UTC())
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			return payment.Payment{}, ErrPaymentNotFound
		}
		u.log.Error().Err(err).Str("job_id", j.ID.String()).Msg("mark payment paid")
		return payment.Payment{}, ErrInternal
	}
	if err := u.jobs.SetPaymentStatus(ctx, j.ID, job.PaymentConfirmed); err != nil {
		u.log.Error().Err(err).Str("job_id", j.ID.String()).Msg("set job payment status")
		return payment.Payment{}, ErrInternal
	}

	u.activity.Record(ctx, activity.PaymentConfirmed, actorPtr(actor.ID), activity.Details{
		"jobId":  j.ID.String(),
		"amount": p.Amount,
		"method": p.Method,
	}, actor.IP)
	return p, nil
}

func (u *Payments) Get(ctx context.Context, actor Actor, jobID uuid.UUID) (payment.Payment, error) {
	j, err := u.job(ctx, jobID)
	if err != nil {
		return payment.Payment{}, err
	}
	if !actor.IsAdmin() && actor.ID != j.UserID && actor.ID != j.TechUserID {
		return payment.Payment{}, ErrNotYourJob
	}

	p, err := u.payments.GetByJobID(ctx, j.ID)
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			return payment.Payment{}, ErrPaymentNotFound
		}
		return payment.Payment{}, ErrInternal
	}
	return p, nil
}

func (u *Payments) job(ctx context.Context, id uuid.UUID) (job.Job, error) {
	j, err := u.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return job.Job{}, ErrJobNotFound
		}
		return job.Job{}, ErrInternal
	}
	return j, nil
}
