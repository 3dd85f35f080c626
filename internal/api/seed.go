package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodseed/backend/internal/fixtures"
	"github.com/pageza/foodseed/backend/internal/middleware"
	"github.com/pageza/foodseed/backend/internal/report"
	"github.com/pageza/foodseed/backend/internal/service"
	"github.com/pageza/foodseed/backend/internal/types"
	"go.uber.org/zap"
)

// ReportStore persists and serves seed run summaries
type ReportStore interface {
	Save(ctx context.Context, summary *types.SeedSummary) error
	Latest(ctx context.Context) (*types.SeedSummary, error)
	History(ctx context.Context, limit int) ([]types.SeedSummary, error)
}

// FixtureLoader returns the dataset a triggered run seeds
type FixtureLoader func() (*fixtures.Set, error)

// SeedHandler exposes seed runs over HTTP. Only one run executes at a time.
type SeedHandler struct {
	seeder   service.ISeedService
	fixtures FixtureLoader
	reports  ReportStore
	logger   *zap.SugaredLogger
	running  sync.Mutex
}

// NewSeedHandler creates a handler; reports may be nil when Redis is not configured
func NewSeedHandler(seeder service.ISeedService, loader FixtureLoader, reports ReportStore, logger *zap.SugaredLogger) *SeedHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SeedHandler{
		seeder:   seeder,
		fixtures: loader,
		reports:  reports,
		logger:   logger,
	}
}

// RegisterRoutes mounts the seed routes; guards run before the trigger only
func (h *SeedHandler) RegisterRoutes(router *gin.RouterGroup, guards ...gin.HandlerFunc) {
	seed := router.Group("/seed")
	{
		seed.POST("", append(guards, h.TriggerSeed)...)
		seed.GET("/runs/latest", h.LatestRun)
		seed.GET("/runs", h.ListRuns)
	}
}

// TriggerSeed runs a full seed and responds with its summary. The run is not
// cancelled if the client goes away.
func (h *SeedHandler) TriggerSeed(c *gin.Context) {
	if !h.running.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "a seed run is already in progress"})
		return
	}
	defer h.running.Unlock()

	set, err := h.fixtures()
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	h.logger.Infow("seed run triggered", "subject", c.GetString(middleware.ContextSubject))

	summary, runErr := h.seeder.Run(ctx, set)
	if summary != nil && h.reports != nil {
		if err := h.reports.Save(ctx, summary); err != nil {
			h.logger.Warnw("failed to save seed report", "run_id", summary.RunID, "error", err)
		}
	}

	if runErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   runErr.Error(),
			"summary": summary,
		})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// LatestRun returns the most recent seed summary
func (h *SeedHandler) LatestRun(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run reports are not configured"})
		return
	}

	summary, err := h.reports.Latest(c.Request.Context())
	if errors.Is(err, report.ErrNoReports) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no seed runs recorded"})
		return
	}
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListRuns returns recent seed summaries, newest first
func (h *SeedHandler) ListRuns(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run reports are not configured"})
		return
	}

	limit := report.DefaultHistorySize
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	runs, err := h.reports.History(c.Request.Context(), limit)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
