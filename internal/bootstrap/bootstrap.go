// Package bootstrap builds the loggers, backends and services shared by the
// seeding command and the trigger API.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pageza/foodseed/backend/config"
	"github.com/pageza/foodseed/backend/internal/backend"
	"github.com/pageza/foodseed/backend/internal/database"
	"github.com/pageza/foodseed/backend/internal/report"
	"github.com/pageza/foodseed/backend/internal/retry"
	"github.com/pageza/foodseed/backend/internal/service"
	"github.com/pageza/foodseed/backend/internal/store/mongo"
	"github.com/pageza/foodseed/backend/internal/store/s3store"
	"github.com/pageza/foodseed/backend/internal/store/sqldb"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewLogger returns a production logger in production and a development one elsewhere
func NewLogger(env config.Environment) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if env.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// Backends are the document and file stores selected by configuration
type Backends struct {
	Documents backend.DocumentStore
	Files     backend.FileStore

	// Checks probe the connections for health reporting
	Checks map[string]func(ctx context.Context) error

	closers []func(ctx context.Context) error
}

// Close releases every connection that was opened
func (b *Backends) Close(ctx context.Context) error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenBackends connects the configured document backend and the S3 file store
func OpenBackends(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*Backends, error) {
	b := &Backends{Checks: map[string]func(ctx context.Context) error{}}

	switch cfg.Backend {
	case config.BackendMongo:
		storage, err := mongo.New(mongo.Config{
			URI:      cfg.MongoURI,
			Database: cfg.DatabaseID,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		b.Documents = mongo.NewDocumentStore(storage.Database())
		b.Checks["documents"] = storage.Ping
		b.closers = append(b.closers, storage.Close)
		logger.Infow("connected to mongodb document backend", "database", cfg.DatabaseID)

	case config.BackendPostgres, config.BackendSQLite:
		db, err := database.Open(cfg, logger)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		b.Documents = sqldb.NewDocumentStore(db)
		b.Checks["documents"] = func(ctx context.Context) error { return database.HealthCheck(ctx, db) }
		b.closers = append(b.closers, func(context.Context) error { return sqlDB.Close() })

	default:
		return nil, fmt.Errorf("unsupported document backend %q", cfg.Backend)
	}

	s3cfg, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		_ = b.Close(ctx)
		return nil, err
	}
	b.Files = s3store.NewFileStore(s3cfg.Client, s3cfg.PublicBaseURL)
	logger.Infow("file store configured", "bucket", cfg.Targets.Bucket, "endpoint", cfg.S3Endpoint)

	return b, nil
}

// RetryPolicy builds the retry policy from configuration
func RetryPolicy(cfg *config.Config, logger *zap.SugaredLogger) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		Logger:      logger,
	}
}

// NewSeedService wires the seed and image services onto the backends
func NewSeedService(cfg *config.Config, b *Backends, logger *zap.SugaredLogger) *service.SeedService {
	policy := RetryPolicy(cfg, logger)
	images := service.NewImageService(b.Files, cfg.Targets.Bucket, cfg.ImageFetchTimeout, policy, logger)
	return service.NewSeedService(service.SeedDeps{
		Documents: b.Documents,
		Files:     b.Files,
		Images:    images,
		Targets:   cfg.Targets,
		Retry:     policy,
		Logger:    logger,
	})
}

// OpenReports connects the run report store. It returns nil without an error
// when no Redis URL is configured.
func OpenReports(cfg *config.Config) (*report.Store, *redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil, nil
	}
	client, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return report.NewStore(client), client, nil
}
