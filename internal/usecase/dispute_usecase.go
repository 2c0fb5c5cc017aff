package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"fixitnow/internal/domain/activity"
	"fixitnow/internal/domain/dispute"
	"fixitnow/internal/domain/job"
	"fixitnow/internal/realtime"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const disputeListLimit = 50

type DisputeMessageEvent struct {
	DisputeID uuid.UUID       `json:"disputeId"`
	Message   dispute.Message `json:"message"`
}

type DisputeResolvedEvent struct {
	DisputeID  uuid.UUID `json:"disputeId"`
	JobID      uuid.UUID `json:"jobId"`
	Resolution string    `json:"resolution"`
}

type DisputeUsecase interface {
	Open(ctx context.Context, actor Actor, jobID uuid.UUID, reason string) (dispute.Dispute, error)
	AddMessage(ctx context.Context, actor Actor, disputeID uuid.UUID, content string) (dispute.Message, error)
	Get(ctx context.Context, actor Actor, disputeID uuid.UUID) (dispute.Dispute, error)
	List(ctx context.Context, actor Actor) ([]dispute.Dispute, error)
	Resolve(ctx context.Context, actor Actor, disputeID uuid.UUID, resolution string) (dispute.Dispute, error)
	// CanJoin reports whether the caller may follow the dispute room.
	CanJoin(ctx context.Context, actor Actor, disputeID uuid.UUID) error
}

type Disputes struct {
	disputes dispute.Repository
	jobs     job.Repository
	notifier Notifier
	activity ActivityRecorder
	log      zerolog.Logger
	now      func() time.Time
}

func NewDisputeUsecase(disputes dispute.Repository, jobs job.Repository, notifier Notifier, rec ActivityRecorder, log zerolog.Logger) *Disputes {
	return &Disputes{
		disputes: disputes,
		jobs:     jobs,
		notifier: notifierOrNoop(notifier),
		activity: recorderOrNoop(rec),
		log:      log.With().Str("component", "disputes").Logger(),
		now:      time.Now,
	}
}

// Open raises the single dispute a job may carry. Either side of the job
// may open it.
func (u *Disputes) Open(ctx context.Context, actor Actor, jobID uuid.UUID, reason string) (dispute.Dispute, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" || utf8.RuneCountInString(reason) > dispute.MaxMessageLength {
		return dispute.Dispute{}, ErrInvalidInput
	}

	j, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return dispute.Dispute{}, ErrJobNotFound
		}
		return dispute.Dispute{}, ErrInternal
	}
	if actor.ID != j.UserID && actor.ID != j.TechUserID {
		return dispute.Dispute{}, ErrForbidden
	}

	now := u.now().UTC()
	d := dispute.Dispute{
		ID:        uuid.New(),
		JobID:     j.ID,
		OpenedBy:  actor.ID,
		Reason:    reason,
		Status:    dispute.StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.disputes.Create(ctx, d); err != nil {
		if errors.Is(err, dispute.ErrAlreadyExists) {
			return dispute.Dispute{}, ErrDisputeExists
		}
		u.log.Error().Err(err).Msg("create dispute")
		return dispute.Dispute{}, ErrInternal
	}

	u.activity.Record(ctx, activity.DisputeOpened, actorPtr(actor.ID), activity.Details{
		"disputeId": d.ID.String(),
		"jobId":     j.ID.String(),
	}, actor.IP)
	return d, nil
}

func (u *Disputes) AddMessage(ctx context.Context, actor Actor, disputeID uuid.UUID, content string) (dispute.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > dispute.MaxMessageLength {
		return dispute.Message{}, ErrInvalidInput
	}

	d, err := u.accessible(ctx, actor, disputeID)
	if err != nil {
		return dispute.Message{}, err
	}
	if d.Status == dispute.StatusResolved {
		return dispute.Message{}, ErrDisputeResolved
	}

	m := dispute.Message{
		ID:        uuid.New(),
		SenderID:  actor.ID,
		Content:   content,
		CreatedAt: u.now().UTC(),
	}
	if err := u.disputes.AddMessage(ctx, d.ID, m); err != nil {
		u.log.Error().Err(err).Str("dispute_id", d.ID.String()).Msg("add dispute message")
		return dispute.Message{}, ErrInternal
	}

	if actor.IsAdmin() && d.Status == dispute.StatusOpen {
		if err := u.disputes.SetStatus(ctx, d.ID, dispute.StatusInProgress); err != nil {
			u.log.Warn().Err(err).Str("dispute_id", d.ID.String()).Msg("move dispute in progress")
		}
	}

	u.notifier.Emit(ctx, realtime.DisputeRoom(d.ID), realtime.EventNewMessage, DisputeMessageEvent{DisputeID: d.ID, Message: m})
	return m, nil
}

func (u *Disputes) Get(ctx context.Context, actor Actor, disputeID uuid.UUID) (dispute.Dispute, error) {
	return u.accessible(ctx, actor, disputeID)
}

func (u *Disputes) List(ctx context.Context, actor Actor) ([]dispute.Dispute, error) {
	out, err := u.disputes.ListForUser(ctx, actor.ID, disputeListLimit)
	if err != nil {
		u.log.Error().Err(err).Msg("list disputes")
		return nil, ErrInternal
	}
	return out, nil
}

// Resolve closes the dispute. Admin only.
func (u *Disputes) Resolve(ctx context.Context, actor Actor, disputeID uuid.UUID, resolution string) (dispute.Dispute, error) {
	if !actor.IsAdmin() {
		return dispute.Dispute{}, ErrForbidden
	}
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return dispute.Dispute{}, ErrInvalidInput
	}

	d, err := u.load(ctx, disputeID)
	if err != nil {
		return dispute.Dispute{}, err
	}
	if d.Status == dispute.StatusResolved {
		return dispute.Dispute{}, ErrDisputeResolved
	}

	now := u.now().UTC()
	if err := u.disputes.Resolve(ctx, d.ID, actor.ID, resolution, now); err != nil {
		switch {
		case errors.Is(err, dispute.ErrNotFound):
			return dispute.Dispute{}, ErrDisputeNotFound
		case errors.Is(err, dispute.ErrResolved):
			return dispute.Dispute{}, ErrDisputeResolved
		}
		u.log.Error().Err(err).Str("dispute_id", d.ID.String()).Msg("resolve dispute")
		return dispute.Dispute{}, ErrInternal
	}
	d.Status = dispute.StatusResolved
	d.Resolution = resolution
	d.ResolvedBy = &actor.ID
	d.ResolvedAt = &now
	d.UpdatedAt = now

	ev := DisputeResolvedEvent{DisputeID: d.ID, JobID: d.JobID, Resolution: resolution}
	u.notifier.Emit(ctx, realtime.DisputeRoom(d.ID), realtime.EventDisputeResolved, ev)
	u.notifier.Emit(ctx, realtime.UserRoom(d.OpenedBy), realtime.EventDisputeResolved, ev)
	u.activity.Record(ctx, activity.DisputeResolved, actorPtr(actor.ID), activity.Details{
		"disputeId":  d.ID.String(),
		"resolution": resolution,
	}, actor.IP)
	return d, nil
}

func (u *Disputes) CanJoin(ctx context.Context, actor Actor, disputeID uuid.UUID) error {
	_, err := u.accessible(ctx, actor, disputeID)
	return err
}

// accessible loads the dispute for an admin or either side of its job.
func (u *Disputes) accessible(ctx context.Context, actor Actor, disputeID uuid.UUID) (dispute.Dispute, error) {
	d, err := u.load(ctx, disputeID)
	if err != nil {
		return dispute.Dispute{}, err
	}
	if actor.IsAdmin() || actor.ID == d.OpenedBy {
		return d, nil
	}

	j, err := u.jobs.GetByID(ctx, d.JobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return dispute.Dispute{}, ErrForbidden
		}
		return dispute.Dispute{}, ErrInternal
	}
	if actor.ID != j.UserID && actor.ID != j.TechUserID {
		return dispute.Dispute{}, ErrForbidden
	}
	return d, nil
}

func (u *Disputes) load(ctx context.Context, id uuid.UUID) (dispute.Dispute, error) {
	d, err := u.disputes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dispute.ErrNotFound) {
			return dispute.Dispute{}, ErrDisputeNotFound
		}
		return dispute.Dispute{}, ErrInternal
	}
	return d, nil
}
