package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/simryo/storefront-backend/api/controllers"
	"github.com/simryo/storefront-backend/api/routes"
	"github.com/simryo/storefront-backend/internal/cart"
	"github.com/simryo/storefront-backend/internal/catalog"
	"github.com/simryo/storefront-backend/internal/checkout"
	"github.com/simryo/storefront-backend/internal/currency"
	"github.com/simryo/storefront-backend/internal/orders"
	"github.com/simryo/storefront-backend/internal/payment"
	"github.com/simryo/storefront-backend/internal/provisioning"
	"github.com/simryo/storefront-backend/internal/users"
	"github.com/simryo/storefront-backend/pkg/config"
	"github.com/simryo/storefront-backend/pkg/db"
	"github.com/simryo/storefront-backend/pkg/logger"
	"github.com/simryo/storefront-backend/pkg/metrics"
	"github.com/simryo/storefront-backend/pkg/migrate"
	"github.com/simryo/storefront-backend/pkg/outbox"
	"github.com/simryo/storefront-backend/pkg/redis"
	pkgsquare "github.com/simryo/storefront-backend/pkg/square"
	pkgstripe "github.com/simryo/storefront-backend/pkg/stripe"
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

	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	var stripeClient *pkgstripe.Client
	var squareClient *pkgsquare.Client
	switch cfg.Payment.NormalizedProvider() {
	case config.PaymentProviderSquare:
		squareClient, err = pkgsquare.NewClient(ctx, cfg.Square, logg)
	default:
		stripeClient, err = pkgstripe.NewClient(ctx, cfg.Stripe, logg)
	}
	if err != nil {
		logg.Error(ctx, "failed to bootstrap payment gateway", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	converter, err := currency.New(cfg.Currency)
	if err != nil {
		logg.Error(ctx, "failed to build currency converter", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	cartTracker, err := cart.NewTracker(redisClient)
	if err != nil {
		logg.Error(ctx, "failed to create cart tracker", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(redisClient, cartTracker, cfg.Checkout, logg)
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}

	sessionRepo, err := checkout.NewRepository(redisClient, cfg.Checkout)
	if err != nil {
		logg.Error(ctx, "failed to create session repository", err)
		os.Exit(1)
	}

	paymentGateway, err := payment.NewGateway(cfg.Payment, stripeClient, squareClient)
	if err != nil {
		logg.Error(ctx, "failed to create payment gateway", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(cartService, sessionRepo, converter, paymentGateway, checkoutMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	provisioner, err := provisioning.NewStubProvisioner(logg)
	if err != nil {
		logg.Error(ctx, "failed to create provisioner", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ordersService, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		dbClient,
		provisioner,
		cartService,
		outboxService,
		checkoutMetrics,
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	confirmer, err := payment.NewConfirmer(sessionRepo, cartService, paymentGateway, ordersService, redisClient, checkoutMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to create payment confirmer", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config: cfg,
		Logger: logg,
		Readiness: map[string]controllers.Pinger{
			"postgres": dbClient,
			"redis":    redisClient,
		},
		Registry:    registry,
		Idempotency: redisClient,
		RateLimiter: redisClient,
		Catalog:     catalogService,
		Cart:        cartService,
		Checkout:    checkoutService,
		Confirmer:   confirmer,
		Orders:      ordersService,
		Users:       users.NewRepository(dbClient.DB()),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"provider": cfg.Payment.NormalizedProvider(),
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(runCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
