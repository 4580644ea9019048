package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/redmonkez12/expense-tracker/internal/auth"
	"github.com/redmonkez12/expense-tracker/internal/config"
	"github.com/redmonkez12/expense-tracker/internal/database"
	"github.com/redmonkez12/expense-tracker/internal/expense"
	httpServer "github.com/redmonkez12/expense-tracker/internal/http"
	"github.com/redmonkez12/expense-tracker/internal/logging"
	"github.com/redmonkez12/expense-tracker/internal/metrics"
	"github.com/redmonkez12/expense-tracker/internal/ratelimit"
	"github.com/redmonkez12/expense-tracker/internal/user"
)

func runServe() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg)
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"token_strategy", cfg.Auth.TokenStrategy,
	)

	// Initialize database connection
	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		if err := database.RunMigrations(db, cfg.Database.Driver, cfg.Database.URL()); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	// Initialize rate limiter (Redis when enabled, in-process otherwise)
	rateLimiter, closeLimiter, err := initRateLimiter(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize rate limiter: %w", err)
	}
	defer closeLimiter()

	tokenService, err := newTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// Initialize repositories and services
	userRepo := user.NewRepository(db)
	expenseRepo := expense.NewRepository(db)

	authService := auth.NewService(userRepo, tokenService, collector, cfg.Auth.AccessTokenDuration)
	expenseService := expense.NewService(expenseRepo, userRepo, expense.WithRecorder(collector))

	router := httpServer.NewRouter(httpServer.Deps{
		Config:         cfg,
		Logger:         logger,
		AuthHandler:    auth.NewHandler(authService, rateLimiter),
		AuthMiddleware: auth.NewMiddleware(tokenService),
		ExpenseHandler: expense.NewHandler(expenseService),
		Metrics:        collector,
		Gatherer:       registry,
	})

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// initRateLimiter returns the limiter for the auth endpoints and a func that
// releases its resources
func initRateLimiter(cfg *config.Config, logger *logging.Logger) (ratelimit.Limiter, func(), error) {
	limits := ratelimit.Config{
		MaxRequests: cfg.RateLimit.AuthRequests,
		Window:      cfg.RateLimit.AuthWindow,
	}

	if !cfg.Redis.Enabled {
		logger.Info("rate limiting in process", "max_requests", limits.MaxRequests, "window", limits.Window.String())
		return ratelimit.NewMemoryLimiter(limits), func() {}, nil
	}

	client, err := initRedis(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("rate limiting via redis", "addr", cfg.Redis.Address())
	return ratelimit.NewRedisLimiter(client, limits), func() { _ = client.Close() }, nil
}
