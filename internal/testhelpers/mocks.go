package testhelpers

import (
	"context"

	"github.com/pageza/foodseed/backend/internal/backend"
	"github.com/pageza/foodseed/backend/internal/fixtures"
	"github.com/pageza/foodseed/backend/internal/types"
	"github.com/stretchr/testify/mock"
)

// MockDocumentStore is a mock implementation of backend.DocumentStore
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) ListDocuments(ctx context.Context, collectionID string) ([]backend.Document, error) {
	args := m.Called(ctx, collectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]backend.Document), args.Error(1)
}

func (m *MockDocumentStore) CreateDocument(ctx context.Context, collectionID, documentID string, fields map[string]any) (backend.Document, error) {
	args := m.Called(ctx, collectionID, documentID, fields)
	return args.Get(0).(backend.Document), args.Error(1)
}

func (m *MockDocumentStore) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	args := m.Called(ctx, collectionID, documentID)
	return args.Error(0)
}

// MockFileStore is a mock implementation of backend.FileStore
type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) ListFiles(ctx context.Context, bucketID string) ([]backend.File, error) {
	args := m.Called(ctx, bucketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]backend.File), args.Error(1)
}

func (m *MockFileStore) CreateFile(ctx context.Context, bucketID, fileID string, upload backend.FileUpload) (backend.File, error) {
	args := m.Called(ctx, bucketID, fileID, upload)
	return args.Get(0).(backend.File), args.Error(1)
}

func (m *MockFileStore) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	args := m.Called(ctx, bucketID, fileID)
	return args.Error(0)
}

func (m *MockFileStore) FileViewURL(bucketID, fileID string) string {
	args := m.Called(bucketID, fileID)
	return args.String(0)
}

// MockImageMirror records mirror requests and returns a configured URL
type MockImageMirror struct {
	mock.Mock
}

func (m *MockImageMirror) MirrorImage(ctx context.Context, sourceURL, label string) string {
	args := m.Called(ctx, sourceURL, label)
	return args.String(0)
}

// MockSeedService is a mock implementation of a seed runner
type MockSeedService struct {
	mock.Mock
}

func (m *MockSeedService) Run(ctx context.Context, set *fixtures.Set) (*types.SeedSummary, error) {
	args := m.Called(ctx, set)
	summary, _ := args.Get(0).(*types.SeedSummary)
	return summary, args.Error(1)
}

// MockReportStore is a mock implementation of the run report store
type MockReportStore struct {
	mock.Mock
}

func (m *MockReportStore) Save(ctx context.Context, summary *types.SeedSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockReportStore) Latest(ctx context.Context) (*types.SeedSummary, error) {
	args := m.Called(ctx)
	summary, _ := args.Get(0).(*types.SeedSummary)
	return summary, args.Error(1)
}

func (m *MockReportStore) History(ctx context.Context, limit int) ([]types.SeedSummary, error) {
	args := m.Called(ctx, limit)
	runs, _ := args.Get(0).([]types.SeedSummary)
	return runs, args.Error(1)
}
