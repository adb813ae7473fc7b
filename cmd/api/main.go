package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/sokohub/sokohub-backend/api/routes"
	authsvc "github.com/sokohub/sokohub-backend/internal/auth"
	orderssvc "github.com/sokohub/sokohub-backend/internal/orders"
	paymentssvc "github.com/sokohub/sokohub-backend/internal/payments"
	producesvc "github.com/sokohub/sokohub-backend/internal/produce"
	reviewssvc "github.com/sokohub/sokohub-backend/internal/reviews"
	"github.com/sokohub/sokohub-backend/internal/webhooks"
	"github.com/sokohub/sokohub-backend/pkg/config"
	"github.com/sokohub/sokohub-backend/pkg/db"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/metrics"
	"github.com/sokohub/sokohub-backend/pkg/migrate"
	"github.com/sokohub/sokohub-backend/pkg/mpesa"
	"github.com/sokohub/sokohub-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	mpesaClient, err := mpesa.NewClient(context.Background(), cfg.Mpesa, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap mpesa client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reconMetrics := metrics.NewReconciliationMetrics(registry)

	ordersRepo := orderssvc.NewRepository(dbClient)
	paymentsRepo := paymentssvc.NewRepository(dbClient)

	webhookGuard, err := webhooks.NewIdempotencyGuard(redisClient, cfg.Webhooks.CallbackIdempotencyTTL, "mpesa")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	deps := routes.Deps{
		Config:       cfg,
		Logger:       logg,
		DB:           dbClient,
		Redis:        redisClient,
		Auth:         authsvc.NewService(authsvc.NewRepository(dbClient), logg, cfg.JWT, cfg.Password),
		Produce:      producesvc.NewService(producesvc.NewRepository(dbClient), logg),
		Orders:       orderssvc.NewService(ordersRepo, dbClient, logg, cfg.Orders),
		Payments:     paymentssvc.NewService(paymentsRepo, ordersRepo, mpesaClient, logg),
		Reviews:      reviewssvc.NewService(reviewssvc.NewRepository(dbClient), logg),
		Webhooks:     webhooks.NewService(dbClient, paymentsRepo, ordersRepo, logg, reconMetrics),
		WebhookGuard: webhookGuard,
		Registry:     registry,
	}

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
		Addr:    addr,
		Handler: routes.NewRouter(deps),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	closeErr := multierr.Combine(
		redisClient.Close(),
		dbClient.Close(),
	)
	if closeErr != nil {
		logg.Error(ctx, "error closing resources", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "shutdown complete")
}
