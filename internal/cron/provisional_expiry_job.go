package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/brightstay/booking-backend/pkg/logger"
)

const (
	defaultProvisionalTTL = 30 * time.Minute
	defaultExpiryBatch    = 100
)

type provisionalExpirer interface {
	ExpireStaleProvisional(ctx context.Context, cutoff time.Time, batch int) (int, error)
}

// ProvisionalExpiryJobParams configure the stale booking sweep.
type ProvisionalExpiryJobParams struct {
	Logger   *logger.Logger
	Bookings provisionalExpirer
	TTL      time.Duration
	Batch    int
}

// NewProvisionalExpiryJob builds the job that cancels provisional bookings
// whose hold has aged out, returning their rooms to inventory.
func NewProvisionalExpiryJob(params ProvisionalExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("booking service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultProvisionalTTL
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	return &provisionalExpiryJob{
		logg:     params.Logger,
		bookings: params.Bookings,
		ttl:      ttl,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type provisionalExpiryJob struct {
	logg     *logger.Logger
	bookings provisionalExpirer
	ttl      time.Duration
	batch    int
	now      func() time.Time
}

func (j *provisionalExpiryJob) Name() string { return "provisional-expiry" }

func (j *provisionalExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	expired, err := j.bookings.ExpireStaleProvisional(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("provisional expiry: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":           cutoff,
		"ttl":              j.ttl.String(),
		"bookings_expired": expired,
	})
	j.logg.Info(logCtx, "provisional booking sweep complete")
	return nil
}
