package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fixitnow/internal/pkg/logger"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Task is one periodic maintenance job.
type Task struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler runs maintenance tasks on cron specs. A run still in flight is
// skipped rather than stacked.
type Scheduler struct {
	cron  *cron.Cron
	log   zerolog.Logger
	tasks []Task
}

func New(log zerolog.Logger) *Scheduler {
	l := logger.Component(log, "scheduler")
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:  l,
	}
}

func (s *Scheduler) Add(t Task) error {
	if t.Name == "" {
		return errors.New("scheduler: empty task name")
	}
	if t.Run == nil {
		return fmt.Errorf("scheduler: task %s has no run func", t.Name)
	}
	if _, err := s.cron.AddFunc(t.Spec, func() { s.runTask(t) }); err != nil {
		return fmt.Errorf("scheduler: task %s: %w", t.Name, err)
	}
	s.tasks = append(s.tasks, t)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	names := make([]string, 0, len(s.tasks))
	for _, t := range s.tasks {
		names = append(names, t.Name)
	}
	s.log.Info().Strs("tasks", names).Msg("scheduler started")
}

// Stop waits for running tasks or ctx, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out")
	}
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) runTask(t Task) {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("task", t.Name).Interface("panic", r).Msg("task panicked")
		}
	}()

	if err := t.Run(ctx); err != nil {
		s.log.Error().Err(err).Str("task", t.Name).Dur("took", time.Since(start)).Msg("task failed")
		return
	}
	s.log.Debug().Str("task", t.Name).Dur("took", time.Since(start)).Msg("task done")
}
