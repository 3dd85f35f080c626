package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/pageza/foodseed/backend/config"
	"github.com/pageza/foodseed/backend/internal/bootstrap"
	"github.com/pageza/foodseed/backend/internal/fixtures"
	"github.com/pageza/foodseed/backend/internal/types"
	"go.uber.org/zap"
)

type options struct {
	provision    bool
	fixturesPath string
}

func main() {
	var opts options
	flag.BoolVar(&opts.provision, "provision", false, "create missing collections and the bucket before seeding")
	flag.StringVar(&opts.fixturesPath, "fixtures", "", "path to a fixtures JSON file (defaults to SEED_FIXTURES or the embedded set)")
	flag.Parse()

	started := time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		zap.Must(zap.NewProduction()).Sugar().Fatalw("failed to load configuration", "error", err)
	}

	logger, err := bootstrap.NewLogger(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	// A started run is never cancelled
	summary, err := run(context.Background(), cfg, opts, logger)
	if err != nil {
		stage := types.Stage("")
		if summary != nil {
			stage = summary.Stage
		}
		logger.Fatalw("seeding failed",
			"stage", stage,
			"error", err,
			"elapsed", time.Since(started),
		)
	}

	logger.Infow("seeding finished",
		"categories", summary.Categories,
		"customizations", summary.Customizations,
		"menu_items", summary.MenuItems,
		"links", summary.Links,
		"failed_items", summary.FailedItems,
		"elapsed", time.Since(started),
	)
}

// run seeds the configured backends. Backends are closed before it returns,
// so callers may exit right after an error.
func run(ctx context.Context, cfg *config.Config, opts options, logger *zap.SugaredLogger) (*types.SeedSummary, error) {
	path := cfg.FixturesPath
	if opts.fixturesPath != "" {
		path = opts.fixturesPath
	}
	set, err := fixtures.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixtures from %q: %w", path, err)
	}
	logger.Infow("fixtures loaded",
		"categories", len(set.Categories),
		"customizations", len(set.Customizations),
		"menu", len(set.Menu),
	)

	backends, err := bootstrap.OpenBackends(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}
	defer func() { _ = backends.Close(context.Background()) }()

	seeder := bootstrap.NewSeedService(cfg, backends, logger)
	if opts.provision {
		if err := seeder.Provision(ctx); err != nil {
			return nil, fmt.Errorf("provisioning failed: %w", err)
		}
	}

	summary, err := seeder.Run(ctx, set)
	publishReport(ctx, cfg, summary, logger)
	return summary, err
}

// publishReport stores the summary when Redis is configured; failures only warn
func publishReport(ctx context.Context, cfg *config.Config, summary *types.SeedSummary, logger *zap.SugaredLogger) {
	if summary == nil {
		return
	}
	reports, client, err := bootstrap.OpenReports(cfg)
	if err != nil {
		logger.Warnw("run report store unavailable", "error", err)
		return
	}
	if reports == nil {
		return
	}
	defer func() { _ = client.Close() }()

	if err := reports.Save(ctx, summary); err != nil {
		logger.Warnw("failed to save run report", "run_id", summary.RunID, "error", err)
		return
	}
	logger.Infow("run report saved", "run_id", summary.RunID)
}
