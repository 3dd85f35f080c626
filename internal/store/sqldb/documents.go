// Package sqldb emulates document collections on a relational database
// through gorm, for environments without MongoDB.
package sqldb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pageza/foodseed/backend/internal/backend"
	"github.com/pageza/foodseed/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentStore struct {
	db *gorm.DB
}

func NewDocumentStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) collectionExists(ctx context.Context, collectionID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.CollectionRecord{}).
		Where("id = ?", collectionID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up collection %s: %w", collectionID, err)
	}
	return count > 0, nil
}

func (s *DocumentStore) requireCollection(ctx context.Context, collectionID string) error {
	exists, err := s.collectionExists(ctx, collectionID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s: %w", collectionID, backend.ErrCollectionNotFound)
	}
	return nil
}

func (s *DocumentStore) ListDocuments(ctx context.Context, collectionID string) ([]backend.Document, error) {
	if err := s.requireCollection(ctx, collectionID); err != nil {
		return nil, err
	}

	var records []models.DocumentRecord
	err := s.db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Order("created_at").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list documents in %s: %w", collectionID, err)
	}

	docs := make([]backend.Document, 0, len(records))
	for _, r := range records {
		fields := map[string]any{}
		if err := json.Unmarshal([]byte(r.Data), &fields); err != nil {
			return nil, fmt.Errorf("failed to decode document %s in %s: %w", r.ID, collectionID, err)
		}
		docs = append(docs, backend.Document{ID: r.ID, Fields: fields})
	}
	return docs, nil
}

func (s *DocumentStore) CreateDocument(ctx context.Context, collectionID, documentID string, fields map[string]any) (backend.Document, error) {
	if err := s.requireCollection(ctx, collectionID); err != nil {
		return backend.Document{}, err
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return backend.Document{}, fmt.Errorf("failed to encode document for %s: %w", collectionID, err)
	}

	record := models.DocumentRecord{
		CollectionID: collectionID,
		ID:           documentID,
		Data:         string(data),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return backend.Document{}, fmt.Errorf("failed to create document in %s: %w", collectionID, err)
	}

	// Round-trip so callers see the same value types a later List returns
	stored := map[string]any{}
	if err := json.Unmarshal(data, &stored); err != nil {
		return backend.Document{}, fmt.Errorf("failed to decode document for %s: %w", collectionID, err)
	}
	return backend.Document{ID: documentID, Fields: stored}, nil
}

func (s *DocumentStore) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	result := s.db.WithContext(ctx).
		Where("collection_id = ? AND id = ?", collectionID, documentID).
		Delete(&models.DocumentRecord{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete document %s from %s: %w", documentID, collectionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("document %s in %s: %w", documentID, collectionID, backend.ErrNotFound)
	}
	return nil
}

// EnsureCollections registers every collection that does not exist yet
func (s *DocumentStore) EnsureCollections(ctx context.Context, collectionIDs ...string) error {
	for _, id := range collectionIDs {
		if id == "" {
			return errors.New("collection id must not be empty")
		}
		record := models.CollectionRecord{ID: id, CreatedAt: time.Now().UTC()}
		err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&record).Error
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", id, err)
		}
	}
	return nil
}
