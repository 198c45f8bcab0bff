package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/farmfresh/farmfresh-backend/pkg/logger"
	"github.com/farmfresh/farmfresh-backend/pkg/metrics"
)

const defaultInterval = 24 * time.Hour

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Locker   Locker
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs every registered job once per interval, each under its own lease.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	locker   Locker
	metrics  *metrics.CronJobMetrics
	interval time.Duration
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Locker == nil {
		return nil, fmt.Errorf("locker required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("registry required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: params.Registry,
		locker:   params.Locker,
		metrics:  params.Metrics,
		interval: interval,
		now:      time.Now,
	}, nil
}

// Run executes a cycle immediately, then on every tick until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	s.runCycle(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// RunOnce executes a single job by name, still under its lease. A job held by
// another worker is not an error.
func (s *Service) RunOnce(ctx context.Context, name string) error {
	job, ok := s.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown cron job %q", name)
	}
	return s.runJob(ctx, job)
}

func (s *Service) runCycle(ctx context.Context) {
	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			return
		}
		if err := s.runJob(ctx, job); err != nil {
			s.logg.Error(ctx, "cron job failed", err)
		}
	}
}

func (s *Service) runJob(ctx context.Context, job Job) (err error) {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})

	lease, err := s.locker.Acquire(jobCtx, name)
	if err != nil {
		return err
	}
	if lease == nil {
		s.logg.Info(jobCtx, "job held by another worker; skipping")
		s.metrics.IncSkipped(name)
		return nil
	}
	defer func() {
		if relErr := lease.Release(context.WithoutCancel(jobCtx)); relErr != nil {
			s.logg.Error(jobCtx, "release cron lease", relErr)
		}
	}()

	start := s.now()
	report, err := job.Run(jobCtx)
	elapsed := s.now().Sub(start)
	s.metrics.ObserveRun(name, elapsed, report.Affected, err)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	s.logg.Info(s.logg.WithFields(jobCtx, map[string]any{
		"affected":    report.Affected,
		"duration_ms": elapsed.Milliseconds(),
	}), "job completed")
	return nil
}
