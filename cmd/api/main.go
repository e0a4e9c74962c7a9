package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/pvalette/boutique-backend/api/routes"
	"github.com/pvalette/boutique-backend/internal/auth"
	"github.com/pvalette/boutique-backend/internal/billing"
	"github.com/pvalette/boutique-backend/internal/cart"
	"github.com/pvalette/boutique-backend/internal/catalog"
	"github.com/pvalette/boutique-backend/internal/deliveries"
	"github.com/pvalette/boutique-backend/internal/orders"
	"github.com/pvalette/boutique-backend/internal/payments"
	"github.com/pvalette/boutique-backend/internal/support"
	"github.com/pvalette/boutique-backend/internal/users"
	"github.com/pvalette/boutique-backend/pkg/auth/session"
	"github.com/pvalette/boutique-backend/pkg/config"
	"github.com/pvalette/boutique-backend/pkg/db"
	"github.com/pvalette/boutique-backend/pkg/logger"
	"github.com/pvalette/boutique-backend/pkg/migrate"
	"github.com/pvalette/boutique-backend/pkg/redis"
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

	var dbClient *db.Client
	if cfg.FeatureFlags.UseSQLite {
		dbClient, err = db.NewSQLite(context.Background(), cfg.DB.DSN, logg)
	} else {
		dbClient, err = db.New(context.Background(), cfg.DB, logg)
	}
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()

	authService, err := auth.NewService(users.NewRepository(gdb), sessionManager, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(gdb))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.NewRepository(gdb), catalogService)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	billingService, err := billing.NewService(billing.NewRepository(gdb))
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(
		orders.NewRepository(gdb),
		dbClient,
		catalogService,
		cartService,
		billingService,
		payments.NewRepository(gdb),
		payments.NewMockGateway(cfg.Payment.Provider),
		cfg.Payment.Provider,
		cfg.Payment.ChargeTimeout,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	deliveryService, err := deliveries.NewService(deliveries.NewRepository(gdb), dbClient, orderService)
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery service", err)
		os.Exit(1)
	}

	supportService, err := support.NewService(support.NewRepository(gdb), orderService)
	if err != nil {
		logg.Error(context.Background(), "failed to create support service", err)
		os.Exit(1)
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
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Sessions:    sessionManager,
			AuthService: authService,
			Catalog:     catalogService,
			Cart:        cartService,
			Orders:      orderService,
			Billing:     billingService,
			Deliveries:  deliveryService,
			Support:     supportService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
