package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brightstay/booking-backend/pkg/logger"
)

func TestProvisionalExpiryJobUsesTTLCutoff(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	expirer := &fakeExpirer{}
	job := newExpiryJob(t, expirer, 30*time.Minute, 50)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expectedCutoff := now.Add(-30 * time.Minute)
	if !expirer.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, expirer.lastCutoff)
	}
	if expirer.lastBatch != 50 {
		t.Fatalf("expected batch 50, got %d", expirer.lastBatch)
	}
}

func TestProvisionalExpiryJobDefaults(t *testing.T) {
	job := newExpiryJob(t, &fakeExpirer{}, 0, 0)
	if job.ttl != defaultProvisionalTTL {
		t.Fatalf("expected default TTL, got %s", job.ttl)
	}
	if job.batch != defaultExpiryBatch {
		t.Fatalf("expected default batch, got %d", job.batch)
	}
}

func TestProvisionalExpiryJobPropagatesError(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("boom")}
	job := newExpiryJob(t, expirer, time.Minute, 10)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newExpiryJob(t *testing.T, expirer *fakeExpirer, ttl time.Duration, batch int) *provisionalExpiryJob {
	t.Helper()
	jobIface, err := NewProvisionalExpiryJob(ProvisionalExpiryJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Bookings: expirer,
		TTL:      ttl,
		Batch:    batch,
	})
	if err != nil {
		t.Fatalf("NewProvisionalExpiryJob: %v", err)
	}
	job, ok := jobIface.(*provisionalExpiryJob)
	if !ok {
		t.Fatalf("expected provisionalExpiryJob, got %T", jobIface)
	}
	return job
}

type fakeExpirer struct {
	lastCutoff time.Time
	lastBatch  int
	err        error
}

func (f *fakeExpirer) ExpireStaleProvisional(ctx context.Context, cutoff time.Time, batch int) (int, error) {
	f.lastCutoff = cutoff
	f.lastBatch = batch
	if f.err != nil {
		return 0, f.err
	}
	return 2, nil
}
