package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/farmfresh/farmfresh-backend/pkg/logger"
)

const (
	outboxRetentionDays = 30
	outboxParkedAttempt = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxRetentionRepo
	// RetentionDays defaults to 30.
	RetentionDays int
	// ParkedAttempts is the publisher's attempt cap; unpublished rows at or
	// above it are dead and purged with the published ones.
	ParkedAttempts int
}

type outboxRetentionRepo interface {
	DeleteSettledBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, parkedAttempts int) (int64, error)
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = outboxRetentionDays
	}
	parked := params.ParkedAttempts
	if parked <= 0 {
		parked = outboxParkedAttempt
	}
	return &outboxRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		retention: retention,
		parked:    parked,
		now:       time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      outboxRetentionRepo
	retention int
	parked    int
	now       func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) (Report, error) {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeleteSettledBefore(ctx, tx, cutoff, j.parked)
		deleted = rows
		return err
	})
	if err != nil {
		return Report{}, fmt.Errorf("purge outbox before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":          cutoff,
		"retention_days":  j.retention,
		"parked_attempts": j.parked,
		"rows_deleted":    deleted,
	}), "outbox retention cleanup complete")
	return Report{Affected: deleted}, nil
}
