package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/construpro/construpro-backend/pkg/logger"
)

// Entries past the 24h freshness window are already treated as misses by the
// lookup path; pruning just keeps the table from growing without bound, so
// the retention is deliberately much longer than the TTL.
const defaultCepRetention = 7 * 24 * time.Hour

type cepCachePruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CepCachePruneJobParams configure the persisted CEP cache prune job.
type CepCachePruneJobParams struct {
	Logger    *logger.Logger
	Pruner    cepCachePruner
	Retention time.Duration
}

// NewCepCachePruneJob builds the job that deletes long-stale persisted CEP
// cache rows.
func NewCepCachePruneJob(params CepCachePruneJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Pruner == nil {
		return nil, fmt.Errorf("cep repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultCepRetention
	}
	return &cepCachePruneJob{
		logg:      params.Logger,
		pruner:    params.Pruner,
		retention: retention,
		now:       time.Now,
	}, nil
}

type cepCachePruneJob struct {
	logg      *logger.Logger
	pruner    cepCachePruner
	retention time.Duration
	now       func() time.Time
}

func (j *cepCachePruneJob) Name() string { return "cep-cache-prune" }

func (j *cepCachePruneJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.pruner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune cep cache: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "cep cache prune complete")
	return nil
}
