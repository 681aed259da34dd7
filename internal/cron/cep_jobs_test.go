package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/construpro/construpro-backend/pkg/logger"
)

type fakeWarmer struct {
	err   error
	calls int
}

func (f *fakeWarmer) WarmCache(ctx context.Context) error {
	f.calls++
	return f.err
}

type fakePruner struct {
	lastCutoff time.Time
	deleted    int64
	err        error
}

func (f *fakePruner) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.deleted, nil
}

func TestCepWarmingJobDelegates(t *testing.T) {
	warmer := &fakeWarmer{}
	job, err := NewCepWarmingJob(CepWarmingJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Warmer: warmer,
	})
	if err != nil {
		t.Fatalf("NewCepWarmingJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if warmer.calls != 1 {
		t.Fatalf("expected one warm call, got %d", warmer.calls)
	}

	warmer.err = errors.New("viacep down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("warm failure must propagate")
	}
}

func TestCepCachePruneJobUsesRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	pruner := &fakePruner{deleted: 7}
	jobIface, err := NewCepCachePruneJob(CepCachePruneJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Pruner:    pruner,
		Retention: 48 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewCepCachePruneJob: %v", err)
	}
	job, ok := jobIface.(*cepCachePruneJob)
	if !ok {
		t.Fatalf("expected cepCachePruneJob, got %T", jobIface)
	}
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expected := now.UTC().Add(-48 * time.Hour)
	if !pruner.lastCutoff.Equal(expected) {
		t.Fatalf("expected cutoff %s, got %s", expected, pruner.lastCutoff)
	}
}

func TestCepCachePruneJobPropagatesErrors(t *testing.T) {
	pruner := &fakePruner{err: errors.New("boom")}
	job, err := NewCepCachePruneJob(CepCachePruneJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Pruner: pruner,
	})
	if err != nil {
		t.Fatalf("NewCepCachePruneJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
