package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pageza/foodseed/backend/internal/backend"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const idField = "_id"

// DocumentStore keeps each seed collection as a MongoDB collection. A
// collection is only considered reachable once it has been created.
type DocumentStore struct {
	database *mongo.Database
	timeout  time.Duration
}

func NewDocumentStore(db *mongo.Database) *DocumentStore {
	return &DocumentStore{
		database: db,
		timeout:  10 * time.Second,
	}
}

func (s *DocumentStore) collectionExists(ctx context.Context, collectionID string) (bool, error) {
	names, err := s.database.ListCollectionNames(ctx, bson.D{{Key: "name", Value: collectionID}})
	if err != nil {
		return false, fmt.Errorf("failed to list collections: %w", err)
	}
	return len(names) > 0, nil
}

func (s *DocumentStore) ListDocuments(ctx context.Context, collectionID string) ([]backend.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.collectionExists(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", collectionID, backend.ErrCollectionNotFound)
	}

	cursor, err := s.database.Collection(collectionID).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents in %s: %w", collectionID, err)
	}
	defer cursor.Close(ctx)

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode documents in %s: %w", collectionID, err)
	}

	docs := make([]backend.Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, toDocument(m))
	}
	return docs, nil
}

func (s *DocumentStore) CreateDocument(ctx context.Context, collectionID, documentID string, fields map[string]any) (backend.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc := bson.M{idField: documentID}
	for k, v := range fields {
		if k == idField {
			continue
		}
		doc[k] = v
	}

	if _, err := s.database.Collection(collectionID).InsertOne(ctx, doc); err != nil {
		return backend.Document{}, fmt.Errorf("failed to create document in %s: %w", collectionID, err)
	}

	return backend.Document{ID: documentID, Fields: copyFields(fields)}, nil
}

func (s *DocumentStore) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.database.Collection(collectionID).DeleteOne(ctx, idFilter(documentID))
	if err != nil {
		return fmt.Errorf("failed to delete document %s from %s: %w", documentID, collectionID, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("document %s in %s: %w", documentID, collectionID, backend.ErrNotFound)
	}
	return nil
}

// EnsureCollections creates every collection that does not exist yet
func (s *DocumentStore) EnsureCollections(ctx context.Context, collectionIDs ...string) error {
	for _, id := range collectionIDs {
		exists, err := s.collectionExists(ctx, id)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := s.database.CreateCollection(ctx, id); err != nil {
			var cmdErr mongo.CommandError
			// NamespaceExists: created concurrently
			if errors.As(err, &cmdErr) && cmdErr.Code == 48 {
				continue
			}
			return fmt.Errorf("failed to create collection %s: %w", id, err)
		}
	}
	return nil
}

// idFilter matches documentID as stored by this package and, for 24-hex IDs,
// as the ObjectID mongo assigns to documents inserted without one
func idFilter(documentID string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(documentID); err == nil {
		return bson.M{idField: bson.M{"$in": bson.A{documentID, oid}}}
	}
	return bson.M{idField: documentID}
}

func toDocument(m bson.M) backend.Document {
	var id string
	switch v := m[idField].(type) {
	case string:
		id = v
	case primitive.ObjectID:
		id = v.Hex()
	default:
		id = fmt.Sprint(v)
	}
	delete(m, idField)
	return backend.Document{ID: id, Fields: map[string]any(m)}
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
