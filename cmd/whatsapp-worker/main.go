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

	"github.com/jasirilabs/lats-backend/internal/whatsapp"
	"github.com/jasirilabs/lats-backend/internal/whatsapp/worker"
	"github.com/jasirilabs/lats-backend/pkg/config"
	"github.com/jasirilabs/lats-backend/pkg/db"
	"github.com/jasirilabs/lats-backend/pkg/logger"
	"github.com/jasirilabs/lats-backend/pkg/metrics"
	"github.com/jasirilabs/lats-backend/pkg/migrate"
	"github.com/jasirilabs/lats-backend/pkg/outbox"
	"github.com/jasirilabs/lats-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "whatsapp-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "whatsapp-worker",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	gatewayClient := whatsapp.NewGatewayClient()

	messageService, err := whatsapp.NewService(whatsapp.NewRepository(dbClient.DB()), dbClient, outboxService, gatewayClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create whatsapp service", err)
		os.Exit(1)
	}

	workerMetrics := metrics.NewWorkerMetrics(prometheus.DefaultRegisterer)
	dispatcher, err := worker.NewDispatcher(messageService, gatewayClient, redisClient, logg, workerMetrics, cfg.WhatsApp, workerHolder())
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatcher", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"holder": workerHolder(),
	})

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WhatsApp.MetricsPort,
		Handler: metricsHandler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	defer metricsServer.Close()

	logg.Info(ctx, "starting whatsapp worker")

	if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "whatsapp worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "whatsapp worker shutting down gracefully")
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func workerHolder() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	return "whatsapp-worker-0"
}
