package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cartsvc "github.com/construpro/construpro-backend/internal/cart"
	cepsvc "github.com/construpro/construpro-backend/internal/cep"
	"github.com/construpro/construpro-backend/internal/cron"
	productsvc "github.com/construpro/construpro-backend/internal/products"
	"github.com/construpro/construpro-backend/pkg/config"
	"github.com/construpro/construpro-backend/pkg/db"
	"github.com/construpro/construpro-backend/pkg/logger"
	"github.com/construpro/construpro-backend/pkg/metrics"
	"github.com/construpro/construpro-backend/pkg/migrate"
	"github.com/construpro/construpro-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	cepRepo := cepsvc.NewRepository(dbClient.DB())
	cepService, err := cepsvc.NewService(
		[]cepsvc.Provider{
			cepsvc.NewViaCepClient(cepsvc.WithViaCepBaseURL(cfg.Cep.ViaCepBaseURL)),
			cepsvc.NewBrasilAPIClient(cepsvc.WithBrasilAPIBaseURL(cfg.Cep.BrasilAPIBaseURL)),
		},
		cepsvc.NewMemoryCache(cfg.Cep.CacheTTL),
		cepRepo,
		cfg.Cep,
		logg,
		metrics.NewCepLookupMetrics(prometheus.DefaultRegisterer),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create cep service", err)
		os.Exit(1)
	}

	cartRevalidation, err := cron.NewCartRevalidationJob(cron.CartRevalidationJobParams{
		Logger:   logg,
		Carts:    cartsvc.NewRepository(dbClient.DB()),
		Products: productsvc.NewRepository(dbClient.DB()),
		Batch:    cfg.Cron.RevalidationBatch,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart revalidation job", err)
		os.Exit(1)
	}

	cepWarming, err := cron.NewCepWarmingJob(cron.CepWarmingJobParams{
		Logger: logg,
		Warmer: cepService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cep warming job", err)
		os.Exit(1)
	}

	jobs := []cron.Job{cartRevalidation, cepWarming}
	if cfg.Cron.CepCachePruneEnabled {
		cepPrune, err := cron.NewCepCachePruneJob(cron.CepCachePruneJobParams{
			Logger: logg,
			Pruner: cepRepo,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create cep cache prune job", err)
			os.Exit(1)
		}
		jobs = append(jobs, cepPrune)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	// Job metrics land on the default registry; expose them for scraping.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(":"+cfg.App.Port, mux); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "metrics listener stopped unexpectedly", err)
		}
	}()

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
