package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/jasirilabs/lats-backend/api/controllers"
	"github.com/jasirilabs/lats-backend/api/routes"
	"github.com/jasirilabs/lats-backend/internal/analytics"
	authsvc "github.com/jasirilabs/lats-backend/internal/auth"
	products "github.com/jasirilabs/lats-backend/internal/products"
	"github.com/jasirilabs/lats-backend/internal/purchase"
	"github.com/jasirilabs/lats-backend/internal/purchase/cart"
	"github.com/jasirilabs/lats-backend/internal/sales"
	"github.com/jasirilabs/lats-backend/internal/shipping"
	"github.com/jasirilabs/lats-backend/internal/storage"
	"github.com/jasirilabs/lats-backend/internal/suppliers"
	"github.com/jasirilabs/lats-backend/internal/users"
	"github.com/jasirilabs/lats-backend/internal/whatsapp"
	"github.com/jasirilabs/lats-backend/pkg/auth/session"
	"github.com/jasirilabs/lats-backend/pkg/bigquery"
	"github.com/jasirilabs/lats-backend/pkg/config"
	"github.com/jasirilabs/lats-backend/pkg/db"
	"github.com/jasirilabs/lats-backend/pkg/logger"
	"github.com/jasirilabs/lats-backend/pkg/migrate"
	"github.com/jasirilabs/lats-backend/pkg/outbox"
	"github.com/jasirilabs/lats-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gdb), logg)

	usersRepo := users.NewRepository(gdb)
	usersService, err := users.NewService(usersRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	productsService, err := products.NewService(products.NewRepository(gdb), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	suppliersService, err := suppliers.NewService(suppliers.NewRepository(gdb))
	if err != nil {
		logg.Error(context.Background(), "failed to create suppliers service", err)
		os.Exit(1)
	}

	storageService, err := storage.NewService(storage.NewRepository(gdb), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create storage service", err)
		os.Exit(1)
	}

	cartEngine := cart.NewEngine(cart.Config{
		TaxRate:          cfg.Purchasing.TaxRateDecimal(),
		DefaultCostRatio: cfg.Purchasing.DefaultCostRatioDecimal(),
	})
	purchaseService, err := purchase.NewService(purchase.NewRepository(gdb), dbClient, outboxService, productsService, productsService, cartEngine)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase service", err)
		os.Exit(1)
	}

	shippingService, err := shipping.NewService(shipping.NewRepository(gdb), dbClient, outboxService, purchaseService)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping service", err)
		os.Exit(1)
	}

	whatsappService, err := whatsapp.NewService(whatsapp.NewRepository(gdb), dbClient, outboxService, whatsapp.NewGatewayClient())
	if err != nil {
		logg.Error(context.Background(), "failed to create whatsapp service", err)
		os.Exit(1)
	}

	salesService, err := sales.NewService(sales.NewRepository(gdb), dbClient, outboxService, productsService, cfg.Purchasing.TaxRateDecimal())
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}

	pingers := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	// Analytics needs BigQuery; the API serves everything else without it.
	var analyticsService analytics.Service
	if cfg.GCP.ProjectID != "" {
		bigqueryClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap bigquery", err)
			os.Exit(1)
		}
		defer func() {
			if err := bigqueryClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing bigquery", err)
			}
		}()
		analyticsService, err = analytics.NewService(bigqueryClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create analytics service", err)
			os.Exit(1)
		}
		pingers["bigquery"] = bigqueryClient
	} else {
		logg.Warn(context.Background(), "GCP project not configured, analytics routes disabled")
	}

	handler := routes.NewRouter(routes.Deps{
		Config:           cfg,
		Logger:           logg,
		Pingers:          pingers,
		SessionChecker:   sessionManager,
		IdempotencyStore: redisClient,
		Auth:             authService,
		Users:            usersService,
		Products:         productsService,
		Suppliers:        suppliersService,
		Storage:          storageService,
		Purchase:         purchaseService,
		Shipping:         shippingService,
		WhatsApp:         whatsappService,
		Sales:            salesService,
		Analytics:        analyticsService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
