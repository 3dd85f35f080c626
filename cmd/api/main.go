package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pageza/foodseed/backend/config"
	"github.com/pageza/foodseed/backend/internal/api"
	"github.com/pageza/foodseed/backend/internal/bootstrap"
	"github.com/pageza/foodseed/backend/internal/fixtures"
	"github.com/pageza/foodseed/backend/internal/middleware"
	"github.com/pageza/foodseed/backend/internal/router"
	"github.com/pageza/foodseed/backend/internal/server"
	"github.com/pageza/foodseed/backend/internal/service"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		zap.Must(zap.NewProduction()).Sugar().Fatalw("failed to load configuration", "error", err)
	}

	logger, err := bootstrap.NewLogger(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := config.ValidateServerConfig(cfg); err != nil {
		logger.Fatalw("invalid server configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := bootstrap.OpenBackends(ctx, cfg, logger)
	if err != nil {
		logger.Fatalw("failed to open backends", "backend", cfg.Backend, "error", err)
	}
	defer func() { _ = backends.Close(context.Background()) }()

	checks := map[string]api.HealthCheck{}
	for name, check := range backends.Checks {
		checks[name] = check
	}

	// Reports and rate limiting are optional without Redis
	var (
		reports api.ReportStore
		limiter *middleware.RateLimiter
	)
	store, redisClient, err := bootstrap.OpenReports(cfg)
	switch {
	case err != nil:
		logger.Warnw("redis unavailable, run reports and rate limiting disabled", "error", err)
	case store != nil:
		reports = store
		limiter = middleware.NewSeedTriggerRateLimiter(redisClient, logger)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		defer func() { _ = redisClient.Close() }()
	}

	loadFixtures := func() (*fixtures.Set, error) {
		return fixtures.Load(cfg.FixturesPath)
	}

	handler := router.SetupRouter(router.Deps{
		Seed:        api.NewSeedHandler(bootstrap.NewSeedService(cfg, backends, logger), loadFixtures, reports, logger),
		Health:      api.NewHealthHandler(checks),
		Tokens:      service.NewTokenService(cfg.JWTSecret, 24*time.Hour),
		RateLimiter: limiter,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Logger:      logger,
	})

	srv := server.New(cfg, handler, logger)
	if err := srv.Start(ctx); err != nil {
		logger.Errorw("server error", "error", err)
		return
	}
	logger.Infow("server stopped")
}
