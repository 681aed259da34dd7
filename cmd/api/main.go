package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/construpro/construpro-backend/api/routes"
	cartsvc "github.com/construpro/construpro-backend/internal/cart"
	cepsvc "github.com/construpro/construpro-backend/internal/cep"
	checkoutsvc "github.com/construpro/construpro-backend/internal/checkout"
	couponsvc "github.com/construpro/construpro-backend/internal/coupons"
	ordersvc "github.com/construpro/construpro-backend/internal/orders"
	pointsvc "github.com/construpro/construpro-backend/internal/points"
	productsvc "github.com/construpro/construpro-backend/internal/products"
	"github.com/construpro/construpro-backend/internal/shipping"
	"github.com/construpro/construpro-backend/pkg/config"
	"github.com/construpro/construpro-backend/pkg/db"
	"github.com/construpro/construpro-backend/pkg/logger"
	"github.com/construpro/construpro-backend/pkg/metrics"
	"github.com/construpro/construpro-backend/pkg/migrate"
	"github.com/construpro/construpro-backend/pkg/outbox"
	"github.com/construpro/construpro-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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
	requireService(logg, "cep service", err)

	productRepo := productsvc.NewRepository(dbClient.DB())
	productService, err := productsvc.NewService(productRepo, logg)
	requireService(logg, "product service", err)

	cartRepo := cartsvc.NewRepository(dbClient.DB())
	cartService, err := cartsvc.NewService(cartRepo, productService, logg)
	requireService(logg, "cart service", err)

	couponClient, err := couponsvc.NewClient(cfg.Functions.BaseURL, cfg.Functions.CouponValidatePath, cfg.Functions.InvokeTimeout)
	requireService(logg, "coupon client", err)
	couponService, err := couponsvc.NewService(cartRepo, productRepo, couponClient, logg)
	requireService(logg, "coupon service", err)

	shippingClient, err := shipping.NewClient(cfg.Functions.BaseURL, cfg.Functions.RestrictionCheckPath, cfg.Functions.InvokeTimeout)
	requireService(logg, "shipping client", err)

	ordersRepo := ordersvc.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	checkoutService, err := checkoutsvc.NewService(
		cartRepo,
		cartService,
		productRepo,
		cepService,
		shippingClient,
		couponClient,
		ordersRepo,
		outboxService,
		dbClient,
		logg,
	)
	requireService(logg, "checkout service", err)

	pointsClient, err := pointsvc.NewClient(cfg.Functions.BaseURL, cfg.Functions.PointsAdjustPath, cfg.Functions.InvokeTimeout)
	requireService(logg, "points client", err)
	pointsService, err := pointsvc.NewService(redisClient, pointsClient, outboxService, dbClient, logg)
	requireService(logg, "points service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DBPinger:    dbClient,
			RedisPinger: redisClient,
			Idempotency: redisClient,
			Cep:         cepService,
			Products:    productService,
			Cart:        cartService,
			Coupons:     couponService,
			Checkout:    checkoutService,
			Points:      pointsService,
			Orders:      ordersRepo,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+name, err)
	os.Exit(1)
}
