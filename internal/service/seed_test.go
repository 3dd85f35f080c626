package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pageza/foodseed/backend/config"
	"github.com/pageza/foodseed/backend/internal/backend"
	"github.com/pageza/foodseed/backend/internal/fixtures"
	"github.com/pageza/foodseed/backend/internal/models"
	"github.com/pageza/foodseed/backend/internal/retry"
	"github.com/pageza/foodseed/backend/internal/testhelpers"
	"github.com/pageza/foodseed/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testTargets = config.Targets{
	Categories:         "categories",
	Customizations:     "customizations",
	Menu:               "menu",
	MenuCustomizations: "menu_customizations",
	Bucket:             "assets",
}

type seedFixture struct {
	store   *testhelpers.MemoryBackend
	timer   *testhelpers.InstantTimer
	images  *testhelpers.MockImageMirror
	service *SeedService
}

func newSeedFixture(t *testing.T) *seedFixture {
	t.Helper()
	store := testhelpers.NewMemoryBackend(testTargets.Collections(), testTargets.Bucket)
	timer := &testhelpers.InstantTimer{}
	images := new(testhelpers.MockImageMirror)

	policy := retry.DefaultPolicy(nil)
	policy.Timer = timer

	svc := NewSeedService(SeedDeps{
		Documents: store,
		Files:     store,
		Images:    images,
		Targets:   testTargets,
		Retry:     policy,
	})
	return &seedFixture{store: store, timer: timer, images: images, service: svc}
}

func (f *seedFixture) prefill(t *testing.T, collectionID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := f.store.CreateDocument(context.Background(), collectionID, fmt.Sprintf("old-%s-%d", collectionID, i), map[string]any{"name": "stale"})
		require.NoError(t, err)
	}
}

func TestValidateTargets(t *testing.T) {
	t.Run("all reachable", func(t *testing.T) {
		f := newSeedFixture(t)

		statuses := f.service.ValidateTargets(context.Background())
		require.Len(t, statuses, 5)
		assert.True(t, AllValid(statuses))
		assert.Equal(t, TargetBucket, statuses[4].Kind)
		assert.Equal(t, "assets", statuses[4].ID)
	})

	t.Run("missing collection and bucket", func(t *testing.T) {
		store := testhelpers.NewMemoryBackend([]string{"categories", "customizations", "menu"})
		svc := NewSeedService(SeedDeps{Documents: store, Files: store, Targets: testTargets})

		statuses := svc.ValidateTargets(context.Background())
		assert.False(t, AllValid(statuses))

		var failed []string
		for _, st := range statuses {
			if !st.OK() {
				failed = append(failed, st.ID)
			}
		}
		assert.ElementsMatch(t, []string{"menu_customizations", "assets"}, failed)
		assert.ErrorIs(t, statuses[3].Err, backend.ErrCollectionNotFound)
		assert.ErrorIs(t, statuses[4].Err, backend.ErrBucketNotFound)
	})
}

func TestClearCollectionRemovesEverything(t *testing.T) {
	ctx := context.Background()
	f := newSeedFixture(t)
	f.prefill(t, "categories", 25)

	deleted, err := f.service.ClearCollection(ctx, "categories")
	require.NoError(t, err)
	assert.Equal(t, 25, deleted)

	docs, err := f.store.ListDocuments(ctx, "categories")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestClearCollectionDeleteFailure(t *testing.T) {
	f := newSeedFixture(t)
	f.prefill(t, "menu", 3)
	f.store.FailDelete = func(collectionID, documentID string) error {
		if documentID == "old-menu-1" {
			return errors.New("permission denied")
		}
		return nil
	}

	_, err := f.service.ClearCollection(context.Background(), "menu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "old-menu-1")
	assert.Contains(t, err.Error(), "permission denied")
}

func TestClearBucket(t *testing.T) {
	ctx := context.Background()
	f := newSeedFixture(t)
	for i := 0; i < 4; i++ {
		_, err := f.store.CreateFile(ctx, "assets", fmt.Sprintf("file-%d", i), backend.FileUpload{Name: "x.png", Data: []byte("x")})
		require.NoError(t, err)
	}

	deleted, err := f.service.ClearBucket(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, deleted)

	files, err := f.store.ListFiles(ctx, "assets")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestClearAllStopsAtFirstFailure(t *testing.T) {
	f := newSeedFixture(t)
	f.prefill(t, "menu_customizations", 2)
	f.prefill(t, "menu", 2)
	f.prefill(t, "categories", 2)
	f.store.FailList = func(collectionID string) error {
		if collectionID == "customizations" {
			return errors.New("service unavailable")
		}
		return nil
	}

	cleared, err := f.service.ClearAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, 4, cleared)
	assert.Len(t, f.store.Documents("categories"), 2, "categories are cleared after customizations")
}

func TestSeedCategories(t *testing.T) {
	f := newSeedFixture(t)

	ids, err := f.service.SeedCategories(context.Background(), []fixtures.Category{
		{Name: "Burgers", Description: "Grilled"},
		{Name: "Pizza", Description: "Wood fired"},
	})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	docs := f.store.Documents("categories")
	require.Len(t, docs, 2)
	assert.Equal(t, ids["Burgers"], docs[0].ID)
	assert.Equal(t, "Burgers", docs[0].Fields[models.FieldName])
	assert.Equal(t, "Wood fired", docs[1].Fields[models.FieldDescription])
}

func TestSeedCategoriesFailureIsFatal(t *testing.T) {
	f := newSeedFixture(t)
	f.store.FailCreate = func(collectionID string, fields map[string]any) error {
		if fields[models.FieldName] == "Pizza" {
			return errors.New("quota exceeded")
		}
		return nil
	}

	_, err := f.service.SeedCategories(context.Background(), []fixtures.Category{
		{Name: "Burgers"}, {Name: "Pizza"}, {Name: "Drinks"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Pizza")
	assert.Equal(t, []string{"Burgers"}, f.store.FieldValues("categories", models.FieldName))
}

func TestSeedCustomizations(t *testing.T) {
	f := newSeedFixture(t)

	ids, err := f.service.SeedCustomizations(context.Background(), []fixtures.Customization{
		{Name: "Extra Cheese", Price: 1.5, Type: models.CustomizationTopping},
		{Name: "Large", Price: 3, Type: models.CustomizationSize},
	})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	docs := f.store.Documents("customizations")
	require.Len(t, docs, 2)
	assert.Equal(t, "topping", docs[0].Fields[models.FieldType])
	assert.Equal(t, 3.0, docs[1].Fields[models.FieldPrice])
}

func TestSeedMenuMissingCategorySkipsItem(t *testing.T) {
	f := newSeedFixture(t)
	categories := models.IDMap{"Burgers": "cat-burgers"}

	result := f.service.SeedMenu(context.Background(), []fixtures.MenuItem{
		{Name: "Tiramisu", CategoryName: "Desserts"},
		{Name: "Cheeseburger", CategoryName: "Burgers", Price: 25.99},
	}, categories, models.IDMap{})

	assert.Equal(t, []string{"Tiramisu"}, result.FailedItems)
	assert.NotContains(t, result.Created, "Tiramisu")
	require.Contains(t, result.Created, "Cheeseburger")

	docs := f.store.Documents("menu")
	require.Len(t, docs, 1)
	assert.Equal(t, "cat-burgers", docs[0].Fields[models.FieldCategory])
	assert.Equal(t, 25.99, docs[0].Fields[models.FieldPrice])
}

func TestSeedMenuMissingCustomizationSkipsOnlyThatLink(t *testing.T) {
	f := newSeedFixture(t)
	customizations := models.IDMap{"Bacon": "cus-bacon", "Extra Cheese": "cus-cheese"}

	result := f.service.SeedMenu(context.Background(), []fixtures.MenuItem{{
		Name:           "Cheeseburger",
		CategoryName:   "Burgers",
		Customizations: []string{"Bacon", "Potato Wedges", "Extra Cheese"},
	}}, models.IDMap{"Burgers": "cat-burgers"}, customizations)

	assert.Equal(t, 2, result.Links)
	assert.Equal(t, 1, result.SkippedLinks)
	assert.Empty(t, result.FailedItems)
	assert.Equal(t, []string{"cus-bacon", "cus-cheese"}, f.store.FieldValues("menu_customizations", models.FieldCustomizations))

	menuID := result.Created["Cheeseburger"]
	for _, link := range f.store.Documents("menu_customizations") {
		assert.Equal(t, menuID, link.Fields[models.FieldMenu])
	}
}

func TestSeedMenuRetriesTransientCreateFailures(t *testing.T) {
	f := newSeedFixture(t)
	attempts := 0
	f.store.FailCreate = func(collectionID string, fields map[string]any) error {
		if collectionID != "menu" {
			return nil
		}
		attempts++
		if attempts < 3 {
			return errors.New("503 service unavailable")
		}
		return nil
	}

	result := f.service.SeedMenu(context.Background(), []fixtures.MenuItem{
		{Name: "Cheeseburger", CategoryName: "Burgers"},
	}, models.IDMap{"Burgers": "cat-burgers"}, models.IDMap{})

	assert.Contains(t, result.Created, "Cheeseburger")
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, f.timer.Waits())
}

func TestSeedMenuLinkFailureDoesNotBlockSiblings(t *testing.T) {
	f := newSeedFixture(t)
	f.store.FailCreate = func(collectionID string, fields map[string]any) error {
		if collectionID == "menu_customizations" && fields[models.FieldCustomizations] == "cus-bacon" {
			return errors.New("write conflict")
		}
		return nil
	}

	result := f.service.SeedMenu(context.Background(), []fixtures.MenuItem{
		{Name: "Cheeseburger", CategoryName: "Burgers", Customizations: []string{"Bacon", "Extra Cheese"}},
		{Name: "Veggie Burger", CategoryName: "Burgers", Customizations: []string{"Extra Cheese"}},
	}, models.IDMap{"Burgers": "cat-burgers"}, models.IDMap{"Bacon": "cus-bacon", "Extra Cheese": "cus-cheese"})

	assert.Len(t, result.Created, 2)
	assert.Equal(t, 2, result.Links)
	assert.Equal(t, 1, result.SkippedLinks)
	assert.Equal(t, 2, f.store.Creates("menu_customizations"))
}

func TestSeedMenuMenuCreateExhaustionSkipsItem(t *testing.T) {
	f := newSeedFixture(t)
	f.store.FailCreate = func(collectionID string, fields map[string]any) error {
		if collectionID == "menu" && fields[models.FieldName] == "Cheeseburger" {
			return errors.New("internal error")
		}
		return nil
	}

	result := f.service.SeedMenu(context.Background(), []fixtures.MenuItem{
		{Name: "Cheeseburger", CategoryName: "Burgers", Customizations: []string{"Bacon"}},
		{Name: "Margherita", CategoryName: "Burgers"},
	}, models.IDMap{"Burgers": "cat-burgers"}, models.IDMap{"Bacon": "cus-bacon"})

	assert.Equal(t, []string{"Cheeseburger"}, result.FailedItems)
	assert.Contains(t, result.Created, "Margherita")
	assert.Zero(t, result.Links)
	assert.Empty(t, f.store.Documents("menu_customizations"))
}

func TestSeedMenuImageMirroring(t *testing.T) {
	f := newSeedFixture(t)
	f.images.On("MirrorImage", mock.Anything, "https://cdn.example.com/burger.png", "Cheeseburger").
		Return("memory://assets/img-1")
	f.images.On("MirrorImage", mock.Anything, "https://cdn.example.com/pizza.png", "Margherita").
		Return("https://cdn.example.com/pizza.png")

	result := f.service.SeedMenu(context.Background(), []fixtures.MenuItem{
		{Name: "Cheeseburger", CategoryName: "Burgers", ImageURL: "https://cdn.example.com/burger.png"},
		{Name: "Margherita", CategoryName: "Burgers", ImageURL: "https://cdn.example.com/pizza.png"},
		{Name: "Water", CategoryName: "Burgers"},
	}, models.IDMap{"Burgers": "cat-burgers"}, models.IDMap{})

	assert.Equal(t, 1, result.ImagesMirrored)
	assert.Equal(t, 1, result.ImageFallbacks)
	assert.Equal(t, []string{"", "https://cdn.example.com/pizza.png", "memory://assets/img-1"},
		f.store.FieldValues("menu", models.FieldImageURL))
	f.images.AssertExpectations(t)
}

func TestRunEndToEnd(t *testing.T) {
	f := newSeedFixture(t)
	f.prefill(t, "categories", 3)
	f.prefill(t, "menu", 2)
	f.prefill(t, "menu_customizations", 4)
	f.images.On("MirrorImage", mock.Anything, mock.Anything, mock.Anything).Return("memory://assets/img")

	set := &fixtures.Set{
		Categories: []fixtures.Category{
			{Name: "Burgers", Description: "Grilled"},
			{Name: "Pizza", Description: "Wood fired"},
		},
		Customizations: []fixtures.Customization{
			{Name: "Extra Cheese", Price: 1.5, Type: models.CustomizationTopping},
			{Name: "Bacon", Price: 2, Type: models.CustomizationTopping},
			{Name: "Large", Price: 3, Type: models.CustomizationSize},
		},
		Menu: []fixtures.MenuItem{
			{
				Name:           "Cheeseburger",
				CategoryName:   "Burgers",
				ImageURL:       "https://cdn.example.com/burger.png",
				Customizations: []string{"Extra Cheese", "Bacon", "Potato Wedges"},
			},
			{
				Name:           "Tiramisu",
				CategoryName:   "Desserts",
				Customizations: []string{"Large"},
			},
		},
	}

	summary, err := f.service.Run(context.Background(), set)
	require.NoError(t, err)

	assert.Equal(t, types.RunSucceeded, summary.Status)
	assert.Equal(t, types.StageDone, summary.Stage)
	assert.Equal(t, 9, summary.Cleared)
	assert.Equal(t, 2, summary.Categories)
	assert.Equal(t, 3, summary.Customizations)
	assert.Equal(t, 1, summary.MenuItems)
	assert.Equal(t, 2, summary.Links)
	assert.Equal(t, 1, summary.SkippedLinks)
	assert.Equal(t, []string{"Tiramisu"}, summary.FailedItems)
	assert.Equal(t, 1, summary.ImagesMirrored)
	assert.NotEmpty(t, summary.RunID)
	assert.False(t, summary.FinishedAt.Before(summary.StartedAt))

	assert.Equal(t, []string{"Burgers", "Pizza"}, f.store.FieldValues("categories", models.FieldName))
	assert.Len(t, f.store.Documents("customizations"), 3)
	assert.Equal(t, []string{"Cheeseburger"}, f.store.FieldValues("menu", models.FieldName))
	assert.Len(t, f.store.Documents("menu_customizations"), 2)
}

func TestRunAbortsOnInvalidTargets(t *testing.T) {
	store := testhelpers.NewMemoryBackend([]string{"categories", "customizations", "menu", "menu_customizations"})
	svc := NewSeedService(SeedDeps{Documents: store, Files: store, Targets: testTargets})
	_, err := store.CreateDocument(context.Background(), "categories", "keep-me", map[string]any{"name": "Old"})
	require.NoError(t, err)

	set, err := fixtures.Default()
	require.NoError(t, err)

	summary, err := svc.Run(context.Background(), set)
	require.ErrorIs(t, err, ErrInvalidTargets)
	assert.Contains(t, err.Error(), "assets")
	assert.Equal(t, types.RunFailed, summary.Status)
	assert.Equal(t, types.StageValidate, summary.Stage)
	assert.NotEmpty(t, summary.Error)
	assert.Len(t, store.Documents("categories"), 1, "nothing is cleared when validation fails")
}

func TestRunAbortsOnClearFailure(t *testing.T) {
	f := newSeedFixture(t)
	f.prefill(t, "menu", 1)
	f.store.FailDelete = func(collectionID, documentID string) error {
		return errors.New("forbidden")
	}

	summary, err := f.service.Run(context.Background(), &fixtures.Set{
		Categories: []fixtures.Category{{Name: "Burgers"}},
	})
	require.Error(t, err)
	assert.Equal(t, types.StageClear, summary.Stage)
	assert.Empty(t, f.store.Documents("categories"))
}

func TestRunAbortsOnCustomizationFailure(t *testing.T) {
	f := newSeedFixture(t)
	f.store.FailCreate = func(collectionID string, fields map[string]any) error {
		if collectionID == "customizations" {
			return errors.New("invalid document structure")
		}
		return nil
	}

	summary, err := f.service.Run(context.Background(), &fixtures.Set{
		Categories:     []fixtures.Category{{Name: "Burgers"}},
		Customizations: []fixtures.Customization{{Name: "Bacon", Type: models.CustomizationTopping}},
		Menu:           []fixtures.MenuItem{{Name: "Cheeseburger", CategoryName: "Burgers"}},
	})
	require.Error(t, err)
	assert.Equal(t, types.StageCustomizations, summary.Stage)
	assert.Equal(t, 1, summary.Categories)
	assert.Zero(t, summary.MenuItems)
	assert.Empty(t, f.store.Documents("menu"))
}

func TestRunWithNilSet(t *testing.T) {
	f := newSeedFixture(t)

	summary, err := f.service.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, types.RunFailed, summary.Status)
}

func TestProvision(t *testing.T) {
	store := testhelpers.NewMemoryBackend(nil)
	svc := NewSeedService(SeedDeps{Documents: store, Files: store, Targets: testTargets})

	assert.False(t, AllValid(svc.ValidateTargets(context.Background())))
	require.NoError(t, svc.Provision(context.Background()))
	assert.True(t, AllValid(svc.ValidateTargets(context.Background())))
}

func TestProvisionWithoutProvisioners(t *testing.T) {
	docs := new(testhelpers.MockDocumentStore)
	files := new(testhelpers.MockFileStore)
	svc := NewSeedService(SeedDeps{Documents: docs, Files: files, Targets: testTargets})

	assert.NoError(t, svc.Provision(context.Background()))
	docs.AssertExpectations(t)
	files.AssertExpectations(t)
}
