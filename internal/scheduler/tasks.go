package scheduler

import (
	"context"

	"github.com/rs/zerolog"
)

type AvailabilitySweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

type ResetPurger interface {
	PurgeExpiredResets(ctx context.Context) (int64, error)
}

type AnalyticsWarmer interface {
	WarmAnalytics(ctx context.Context) error
}

// Maintenance lists the background jobs of the server.
type Maintenance struct {
	Availability AvailabilitySweeper
	Resets       ResetPurger
	Analytics    AnalyticsWarmer
}

// Tasks returns the task set. Nil dependencies are left out.
func (m Maintenance) Tasks(log zerolog.Logger) []Task {
	var out []Task
	if m.Availability != nil {
		out = append(out, Task{
			Name: "availability_sweep",
			Spec: "@every 1m",
			Run: func(ctx context.Context) error {
				n, err := m.Availability.Sweep(ctx)
				if n > 0 {
					log.Info().Int64("released", n).Msg("stale technicians released")
				}
				return err
			},
		})
	}
	if m.Resets != nil {
		out = append(out, Task{
			Name: "password_reset_purge",
			Spec: "@every 15m",
			Run: func(ctx context.Context) error {
				n, err := m.Resets.PurgeExpiredResets(ctx)
				if n > 0 {
					log.Info().Int64("purged", n).Msg("expired reset tokens purged")
				}
				return err
			},
		})
	}
	if m.Analytics != nil {
		out = append(out, Task{
			Name: "analytics_warm",
			Spec: "@every 5m",
			Run:  m.Analytics.WarmAnalytics,
		})
	}
	return out
}

// Register adds every maintenance task to s.
func (m Maintenance) Register(s *Scheduler) error {
	for _, t := range m.Tasks(s.log) {
		if err := s.Add(t); err != nil {
			return err
		}
	}
	return nil
}
