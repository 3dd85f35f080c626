package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/pageza/foodseed/backend/internal/backend"
	"github.com/pageza/foodseed/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDocumentStoreAgainstMongo(t *testing.T) {
	uri := testhelpers.SetupMongo(t)

	storage, err := New(Config{URI: uri, Database: "foodseed_test", Timeout: 30 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close(context.Background()) })

	ctx := context.Background()
	store := NewDocumentStore(storage.Database())

	_, err = store.ListDocuments(ctx, "categories")
	assert.ErrorIs(t, err, backend.ErrCollectionNotFound)

	require.NoError(t, store.EnsureCollections(ctx, "categories"))
	require.NoError(t, store.EnsureCollections(ctx, "categories"), "provisioning twice is not an error")

	created, err := store.CreateDocument(ctx, "categories", "cat-1", map[string]any{"name": "Burgers"})
	require.NoError(t, err)
	assert.Equal(t, "cat-1", created.ID)

	docs, err := store.ListDocuments(ctx, "categories")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "cat-1", docs[0].ID)
	assert.Equal(t, "Burgers", docs[0].Fields["name"])
	assert.NotContains(t, docs[0].Fields, "_id")

	require.NoError(t, store.DeleteDocument(ctx, "categories", "cat-1"))
	assert.ErrorIs(t, store.DeleteDocument(ctx, "categories", "cat-1"), backend.ErrNotFound)
}

func TestDocumentStoreClearsDriverInsertedDocuments(t *testing.T) {
	uri := testhelpers.SetupMongo(t)

	storage, err := New(Config{URI: uri, Database: "foodseed_test", Timeout: 30 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close(context.Background()) })

	ctx := context.Background()
	store := NewDocumentStore(storage.Database())
	require.NoError(t, store.EnsureCollections(ctx, "menu"))

	// Documents written by other tools get an ObjectID from the driver
	_, err = storage.Database().Collection("menu").InsertMany(ctx, []any{
		bson.M{"name": "Legacy Burger"},
		bson.M{"name": "Legacy Fries"},
	})
	require.NoError(t, err)

	docs, err := store.ListDocuments(ctx, "menu")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	for _, doc := range docs {
		assert.True(t, primitive.IsValidObjectID(doc.ID))
		require.NoError(t, store.DeleteDocument(ctx, "menu", doc.ID))
	}

	docs, err = store.ListDocuments(ctx, "menu")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestIDFilter(t *testing.T) {
	assert.Equal(t, bson.M{"_id": "cat-1"}, idFilter("cat-1"))

	oid := primitive.NewObjectID()
	assert.Equal(t, bson.M{"_id": bson.M{"$in": bson.A{oid.Hex(), oid}}}, idFilter(oid.Hex()))
}
