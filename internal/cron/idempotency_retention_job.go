package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/brightstay/booking-backend/internal/idempotency"
	"github.com/brightstay/booking-backend/pkg/logger"
)

const defaultKeyRetention = 7 * 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type keySweeper interface {
	DeleteOlderThan(tx *gorm.DB, cutoff time.Time) (int64, error)
}

type keyStore struct{}

func (keyStore) DeleteOlderThan(tx *gorm.DB, cutoff time.Time) (int64, error) {
	return idempotency.DeleteOlderThan(tx, cutoff)
}

// IdempotencyRetentionJobParams configure the key retention sweep.
type IdempotencyRetentionJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Sweeper   keySweeper
	Retention time.Duration
}

// NewIdempotencyRetentionJob builds the job that sweeps expired idempotency
// key bindings. Bookings and inventory are never touched; after the sweep a
// replay of an old key simply becomes a new reservation attempt.
func NewIdempotencyRetentionJob(params IdempotencyRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	sweeper := params.Sweeper
	if sweeper == nil {
		sweeper = keyStore{}
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultKeyRetention
	}
	return &idempotencyRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		sweeper:   sweeper,
		retention: retention,
		now:       time.Now,
	}, nil
}

type idempotencyRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	sweeper   keySweeper
	retention time.Duration
	now       func() time.Time
}

func (j *idempotencyRetentionJob) Name() string { return "idempotency-retention" }

func (j *idempotencyRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.sweeper.DeleteOlderThan(tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("idempotency retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"retention":    j.retention.String(),
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "idempotency key sweep complete")
	return nil
}
