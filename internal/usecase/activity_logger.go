package usecase

import (
	"context"

	"fixitnow/internal/domain/activity"
	"fixitnow/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ActivityRecorder interface {
	Record(ctx context.Context, action activity.Action, userID *uuid.UUID, details activity.Details, ip string)
}

// ActivityLogger writes audit rows off the request path. Failures are
// logged and never reach the caller.
type ActivityLogger struct {
	repo activity.Repository
	pool *worker.Pool
	log  zerolog.Logger
}

func NewActivityLogger(repo activity.Repository, pool *worker.Pool, log zerolog.Logger) *ActivityLogger {
	return &ActivityLogger{repo: repo, pool: pool, log: log.With().Str("component", "activity").Logger()}
}

func (l *ActivityLogger) Record(ctx context.Context, action activity.Action, userID *uuid.UUID, details activity.Details, ip string) {
	a, err := activity.New(action, userID, details, ip)
	if err != nil {
		l.log.Error().Err(err).Str("action", string(action)).Msg("rejected activity")
		return
	}

	write := func(ctx context.Context) error {
		return l.repo.Create(ctx, a)
	}

	if l.pool == nil {
		if err := write(ctx); err != nil {
			l.log.Warn().Err(err).Str("action", string(action)).Msg("activity write failed")
		}
		return
	}
	if !l.pool.Submit(write) {
		l.log.Warn().Str("action", string(action)).Msg("activity dropped")
	}
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, activity.Action, *uuid.UUID, activity.Details, string) {}

func recorderOrNoop(r ActivityRecorder) ActivityRecorder {
	if r == nil {
		return noopRecorder{}
	}
	return r
}

func actorPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
