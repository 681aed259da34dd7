package cron

import (
	"context"
	"fmt"

	"github.com/construpro/construpro-backend/pkg/logger"
)

type cacheWarmer interface {
	WarmCache(ctx context.Context) error
}

// CepWarmingJobParams configure the CEP cache warming job.
type CepWarmingJobParams struct {
	Logger *logger.Logger
	Warmer cacheWarmer
}

// NewCepWarmingJob builds the job that pre-resolves the configured
// high-traffic postal codes so buyer lookups hit the cache.
func NewCepWarmingJob(params CepWarmingJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Warmer == nil {
		return nil, fmt.Errorf("cep service required")
	}
	return &cepWarmingJob{logg: params.Logger, warmer: params.Warmer}, nil
}

type cepWarmingJob struct {
	logg   *logger.Logger
	warmer cacheWarmer
}

func (j *cepWarmingJob) Name() string { return "cep-cache-warming" }

func (j *cepWarmingJob) Run(ctx context.Context) error {
	if err := j.warmer.WarmCache(ctx); err != nil {
		return fmt.Errorf("warm cep cache: %w", err)
	}
	return nil
}
