package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/foodseed/backend/config"
	"github.com/pageza/foodseed/backend/internal/backend"
	"github.com/pageza/foodseed/backend/internal/fixtures"
	"github.com/pageza/foodseed/backend/internal/models"
	"github.com/pageza/foodseed/backend/internal/retry"
	"github.com/pageza/foodseed/backend/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// clearConcurrency bounds the number of in-flight deletes of one clear
const clearConcurrency = 16

// ErrInvalidTargets is returned by Run when a collection or the bucket is unreachable
var ErrInvalidTargets = errors.New("seed targets are not reachable")

// SeedDeps are the collaborators of a SeedService
type SeedDeps struct {
	Documents backend.DocumentStore
	Files     backend.FileStore
	Images    ImageMirror
	Targets   config.Targets
	Retry     retry.Policy
	Logger    *zap.SugaredLogger

	// NewID generates document IDs; defaults to random UUIDs
	NewID func() string
}

// SeedService wipes and repopulates the menu collections
type SeedService struct {
	docs    backend.DocumentStore
	files   backend.FileStore
	images  ImageMirror
	targets config.Targets
	retry   retry.Policy
	logger  *zap.SugaredLogger
	newID   func() string
	now     func() time.Time
}

// NewSeedService creates a new SeedService instance
func NewSeedService(deps SeedDeps) *SeedService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	newID := deps.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	policy := deps.Retry
	if policy.Logger == nil {
		policy.Logger = logger
	}
	return &SeedService{
		docs:    deps.Documents,
		files:   deps.Files,
		images:  deps.Images,
		targets: deps.Targets,
		retry:   policy,
		logger:  logger,
		newID:   newID,
		now:     time.Now,
	}
}

// TargetKind distinguishes collections from buckets in validation results
type TargetKind string

const (
	TargetCollection TargetKind = "collection"
	TargetBucket     TargetKind = "bucket"
)

// TargetStatus is the result of probing one collection or bucket
type TargetStatus struct {
	Kind TargetKind
	ID   string
	Err  error
}

func (s TargetStatus) OK() bool {
	return s.Err == nil
}

// AllValid reports whether every probed target was reachable
func AllValid(statuses []TargetStatus) bool {
	for _, st := range statuses {
		if !st.OK() {
			return false
		}
	}
	return true
}

// ValidateTargets probes every collection and the bucket with a list call.
// Probes run concurrently and failures are reported, never returned.
func (s *SeedService) ValidateTargets(ctx context.Context) []TargetStatus {
	collections := s.targets.Collections()
	statuses := make([]TargetStatus, len(collections)+1)

	var g errgroup.Group
	for i, id := range collections {
		statuses[i] = TargetStatus{Kind: TargetCollection, ID: id}
		g.Go(func() error {
			if _, err := s.docs.ListDocuments(ctx, id); err != nil {
				statuses[i].Err = err
			}
			return nil
		})
	}

	last := len(collections)
	statuses[last] = TargetStatus{Kind: TargetBucket, ID: s.targets.Bucket}
	g.Go(func() error {
		if _, err := s.files.ListFiles(ctx, s.targets.Bucket); err != nil {
			statuses[last].Err = err
		}
		return nil
	})
	_ = g.Wait()

	for _, st := range statuses {
		if st.OK() {
			s.logger.Infow("target reachable", "kind", st.Kind, "id", st.ID)
		} else {
			s.logger.Errorw("target unreachable", "kind", st.Kind, "id", st.ID, "error", st.Err)
		}
	}
	return statuses
}

// Provision creates missing collections and the bucket when the backends support it
func (s *SeedService) Provision(ctx context.Context) error {
	if p, ok := s.docs.(backend.CollectionProvisioner); ok {
		if err := p.EnsureCollections(ctx, s.targets.Collections()...); err != nil {
			s.logger.Errorw("failed to provision collections", "error", err)
			return fmt.Errorf("failed to provision collections: %w", err)
		}
		s.logger.Infow("collections provisioned", "collections", s.targets.Collections())
	} else {
		s.logger.Warnw("document backend cannot provision collections")
	}

	if p, ok := s.files.(backend.BucketProvisioner); ok {
		if err := p.EnsureBucket(ctx, s.targets.Bucket); err != nil {
			s.logger.Errorw("failed to provision bucket", "bucket", s.targets.Bucket, "error", err)
			return fmt.Errorf("failed to provision bucket %s: %w", s.targets.Bucket, err)
		}
		s.logger.Infow("bucket provisioned", "bucket", s.targets.Bucket)
	} else {
		s.logger.Warnw("file backend cannot provision buckets")
	}
	return nil
}

// ClearCollection deletes every document in a collection, concurrently. The
// first failed delete aborts the clear.
func (s *SeedService) ClearCollection(ctx context.Context, collectionID string) (int, error) {
	docs, err := s.docs.ListDocuments(ctx, collectionID)
	if err != nil {
		s.logger.Errorw("failed to list documents for clear", "collection", collectionID, "error", err)
		return 0, fmt.Errorf("failed to list documents in %s: %w", collectionID, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(clearConcurrency)
	for _, doc := range docs {
		g.Go(func() error {
			if err := s.docs.DeleteDocument(gctx, collectionID, doc.ID); err != nil {
				s.logger.Errorw("failed to delete document",
					"collection", collectionID,
					"document", doc.ID,
					"error", err,
				)
				return fmt.Errorf("failed to delete document %s from %s: %w", doc.ID, collectionID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	s.logger.Infow("collection cleared", "collection", collectionID, "deleted", len(docs))
	return len(docs), nil
}

// ClearBucket deletes every file in the asset bucket, concurrently
func (s *SeedService) ClearBucket(ctx context.Context) (int, error) {
	bucketID := s.targets.Bucket
	files, err := s.files.ListFiles(ctx, bucketID)
	if err != nil {
		s.logger.Errorw("failed to list files for clear", "bucket", bucketID, "error", err)
		return 0, fmt.Errorf("failed to list files in %s: %w", bucketID, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(clearConcurrency)
	for _, file := range files {
		g.Go(func() error {
			if err := s.files.DeleteFile(gctx, bucketID, file.ID); err != nil {
				s.logger.Errorw("failed to delete file", "bucket", bucketID, "file", file.ID, "error", err)
				return fmt.Errorf("failed to delete file %s from %s: %w", file.ID, bucketID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	s.logger.Infow("bucket cleared", "bucket", bucketID, "deleted", len(files))
	return len(files), nil
}

// ClearAll empties the link, menu, customization and category collections,
// in that order, then the bucket
func (s *SeedService) ClearAll(ctx context.Context) (int, error) {
	total := 0
	for _, id := range []string{
		s.targets.MenuCustomizations,
		s.targets.Menu,
		s.targets.Customizations,
		s.targets.Categories,
	} {
		n, err := s.ClearCollection(ctx, id)
		if err != nil {
			return total, err
		}
		total += n
	}

	n, err := s.ClearBucket(ctx)
	if err != nil {
		return total, err
	}
	return total + n, nil
}

// SeedCategories creates the categories in order. Any failure is fatal.
func (s *SeedService) SeedCategories(ctx context.Context, categories []fixtures.Category) (models.IDMap, error) {
	ids := make(models.IDMap, len(categories))
	for _, c := range categories {
		doc, err := s.docs.CreateDocument(ctx, s.targets.Categories, s.newID(), c.Fields())
		if err != nil {
			s.logger.Errorw("failed to create category", "category", c.Name, "error", err)
			return ids, fmt.Errorf("failed to create category %q: %w", c.Name, err)
		}
		ids[c.Name] = doc.ID
		s.logger.Infow("category created", "category", c.Name, "id", doc.ID)
	}
	return ids, nil
}

// SeedCustomizations creates the customizations in order. Any failure is fatal.
func (s *SeedService) SeedCustomizations(ctx context.Context, customizations []fixtures.Customization) (models.IDMap, error) {
	ids := make(models.IDMap, len(customizations))
	for _, c := range customizations {
		doc, err := s.docs.CreateDocument(ctx, s.targets.Customizations, s.newID(), c.Fields())
		if err != nil {
			s.logger.Errorw("failed to create customization", "customization", c.Name, "error", err)
			return ids, fmt.Errorf("failed to create customization %q: %w", c.Name, err)
		}
		ids[c.Name] = doc.ID
		s.logger.Infow("customization created", "customization", c.Name, "type", c.Type, "id", doc.ID)
	}
	return ids, nil
}

// MenuResult reports what SeedMenu created and skipped
type MenuResult struct {
	Created        models.IDMap
	FailedItems    []string
	Links          int
	SkippedLinks   int
	ImagesMirrored int
	ImageFallbacks int
}

// SeedMenu creates each menu item and its customization links. A failing
// item or link is logged and skipped; seeding always continues.
func (s *SeedService) SeedMenu(ctx context.Context, items []fixtures.MenuItem, categories, customizations models.IDMap) MenuResult {
	result := MenuResult{Created: make(models.IDMap, len(items))}

	for _, item := range items {
		menuID, err := s.seedMenuItem(ctx, item, categories, &result)
		if err != nil {
			s.logger.Errorw("skipping menu item", "item", item.Name, "error", err)
			result.FailedItems = append(result.FailedItems, item.Name)
			continue
		}
		result.Created[item.Name] = menuID

		for _, name := range item.Customizations {
			if err := s.linkCustomization(ctx, item.Name, menuID, name, customizations); err != nil {
				result.SkippedLinks++
				continue
			}
			result.Links++
		}
	}

	s.logger.Infow("menu seeded",
		"created", len(result.Created),
		"failed", len(result.FailedItems),
		"links", result.Links,
		"skipped_links", result.SkippedLinks,
	)
	return result
}

func (s *SeedService) seedMenuItem(ctx context.Context, item fixtures.MenuItem, categories models.IDMap, result *MenuResult) (string, error) {
	categoryID, ok := categories.Lookup(item.CategoryName)
	if !ok {
		return "", fmt.Errorf("category %q not found for menu item %q", item.CategoryName, item.Name)
	}

	imageURL := item.ImageURL
	if imageURL != "" && s.images != nil {
		imageURL = s.images.MirrorImage(ctx, item.ImageURL, item.Name)
		if imageURL == item.ImageURL {
			result.ImageFallbacks++
		} else {
			result.ImagesMirrored++
		}
	}

	menu := models.MenuItem{
		Name:        item.Name,
		Description: item.Description,
		ImageURL:    imageURL,
		Price:       item.Price,
		Rating:      item.Rating,
		Calories:    item.Calories,
		Protein:     item.Protein,
		CategoryID:  categoryID,
	}
	doc, err := retry.Do(ctx, s.retry, "create menu item "+item.Name, func(ctx context.Context) (backend.Document, error) {
		return s.docs.CreateDocument(ctx, s.targets.Menu, s.newID(), menu.Fields())
	})
	if err != nil {
		return "", err
	}

	s.logger.Infow("menu item created", "item", item.Name, "id", doc.ID, "category", item.CategoryName)
	return doc.ID, nil
}

func (s *SeedService) linkCustomization(ctx context.Context, itemName, menuID, customizationName string, customizations models.IDMap) error {
	customizationID, ok := customizations.Lookup(customizationName)
	if !ok {
		s.logger.Warnw("customization not found, skipping link", "item", itemName, "customization", customizationName)
		return fmt.Errorf("customization %q not found", customizationName)
	}

	link := models.MenuCustomization{MenuID: menuID, CustomizationID: customizationID}
	_, err := retry.Do(ctx, s.retry, "link "+itemName+" to "+customizationName, func(ctx context.Context) (backend.Document, error) {
		return s.docs.CreateDocument(ctx, s.targets.MenuCustomizations, s.newID(), link.Fields())
	})
	if err != nil {
		s.logger.Errorw("failed to link customization",
			"item", itemName,
			"customization", customizationName,
			"error", err,
		)
		return err
	}
	return nil
}

// Run validates the targets, clears them and seeds the fixture set. Errors
// before menu seeding abort the run; once menu seeding starts the run
// always completes. The summary is returned in both cases.
func (s *SeedService) Run(ctx context.Context, set *fixtures.Set) (*types.SeedSummary, error) {
	summary := &types.SeedSummary{
		RunID:     uuid.NewString(),
		Status:    types.RunRunning,
		StartedAt: s.now().UTC(),
	}
	fail := func(err error) (*types.SeedSummary, error) {
		s.finish(summary, err)
		s.logger.Errorw("seed run aborted",
			"run_id", summary.RunID,
			"stage", summary.Stage,
			"elapsed", summary.Elapsed,
			"error", err,
		)
		return summary, err
	}

	s.logger.Infow("seed run started", "run_id", summary.RunID)

	summary.Stage = types.StageValidate
	if set == nil {
		return fail(errors.New("no fixtures to seed"))
	}
	if statuses := s.ValidateTargets(ctx); !AllValid(statuses) {
		return fail(fmt.Errorf("%w: %s", ErrInvalidTargets, describeInvalid(statuses)))
	}

	summary.Stage = types.StageClear
	cleared, err := s.ClearAll(ctx)
	summary.Cleared = cleared
	if err != nil {
		return fail(err)
	}

	summary.Stage = types.StageCategories
	categories, err := s.SeedCategories(ctx, set.Categories)
	summary.Categories = len(categories)
	if err != nil {
		return fail(err)
	}

	summary.Stage = types.StageCustomizations
	customizations, err := s.SeedCustomizations(ctx, set.Customizations)
	summary.Customizations = len(customizations)
	if err != nil {
		return fail(err)
	}

	summary.Stage = types.StageMenu
	menu := s.SeedMenu(ctx, set.Menu, categories, customizations)
	summary.MenuItems = len(menu.Created)
	summary.FailedItems = menu.FailedItems
	summary.Links = menu.Links
	summary.SkippedLinks = menu.SkippedLinks
	summary.ImagesMirrored = menu.ImagesMirrored
	summary.ImageFallbacks = menu.ImageFallbacks

	summary.Stage = types.StageDone
	s.finish(summary, nil)
	s.logger.Infow("seed run completed",
		"run_id", summary.RunID,
		"categories", summary.Categories,
		"customizations", summary.Customizations,
		"menu_items", summary.MenuItems,
		"links", summary.Links,
		"failed_items", len(summary.FailedItems),
		"elapsed", summary.Elapsed,
	)
	return summary, nil
}

func (s *SeedService) finish(summary *types.SeedSummary, err error) {
	summary.FinishedAt = s.now().UTC()
	summary.Elapsed = summary.FinishedAt.Sub(summary.StartedAt)
	if err != nil {
		summary.Status = types.RunFailed
		summary.Error = err.Error()
		return
	}
	summary.Status = types.RunSucceeded
}

func describeInvalid(statuses []TargetStatus) string {
	var parts []string
	for _, st := range statuses {
		if !st.OK() {
			parts = append(parts, fmt.Sprintf("%s %s: %v", st.Kind, st.ID, st.Err))
		}
	}
	return strings.Join(parts, "; ")
}
