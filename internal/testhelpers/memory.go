package testhelpers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pageza/foodseed/backend/internal/backend"
)

// MemoryBackend is an in-memory DocumentStore and FileStore. Only collections
// and buckets passed to the constructor (or provisioned later) exist.
//
// The Fail* hooks let tests inject errors; they are consulted before the
// store is touched and may be changed between calls but not concurrently.
type MemoryBackend struct {
	mu          sync.Mutex
	collections map[string][]backend.Document
	buckets     map[string][]storedFile
	creates     map[string]int

	FailList   func(collectionID string) error
	FailCreate func(collectionID string, fields map[string]any) error
	FailDelete func(collectionID, documentID string) error

	FailListFiles  func(bucketID string) error
	FailCreateFile func(bucketID string, upload backend.FileUpload) error
	FailDeleteFile func(bucketID, fileID string) error
}

type storedFile struct {
	file backend.File
	data []byte
}

// NewMemoryBackend creates a backend with the given collections and buckets
func NewMemoryBackend(collections []string, buckets ...string) *MemoryBackend {
	m := &MemoryBackend{
		collections: make(map[string][]backend.Document),
		buckets:     make(map[string][]storedFile),
		creates:     make(map[string]int),
	}
	for _, c := range collections {
		m.collections[c] = nil
	}
	for _, b := range buckets {
		m.buckets[b] = nil
	}
	return m
}

func (m *MemoryBackend) ListDocuments(ctx context.Context, collectionID string) ([]backend.Document, error) {
	if m.FailList != nil {
		if err := m.FailList(collectionID); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	docs, ok := m.collections[collectionID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", collectionID, backend.ErrCollectionNotFound)
	}
	out := make([]backend.Document, len(docs))
	copy(out, docs)
	return out, nil
}

func (m *MemoryBackend) CreateDocument(ctx context.Context, collectionID, documentID string, fields map[string]any) (backend.Document, error) {
	if m.FailCreate != nil {
		if err := m.FailCreate(collectionID, fields); err != nil {
			return backend.Document{}, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	docs, ok := m.collections[collectionID]
	if !ok {
		return backend.Document{}, fmt.Errorf("%s: %w", collectionID, backend.ErrCollectionNotFound)
	}
	for _, d := range docs {
		if d.ID == documentID {
			return backend.Document{}, fmt.Errorf("document %s already exists in %s", documentID, collectionID)
		}
	}

	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	doc := backend.Document{ID: documentID, Fields: copied}
	m.collections[collectionID] = append(docs, doc)
	m.creates[collectionID]++
	return doc, nil
}

func (m *MemoryBackend) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	if m.FailDelete != nil {
		if err := m.FailDelete(collectionID, documentID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	docs, ok := m.collections[collectionID]
	if !ok {
		return fmt.Errorf("%s: %w", collectionID, backend.ErrCollectionNotFound)
	}
	for i, d := range docs {
		if d.ID == documentID {
			m.collections[collectionID] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("document %s in %s: %w", documentID, collectionID, backend.ErrNotFound)
}

func (m *MemoryBackend) EnsureCollections(ctx context.Context, collectionIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range collectionIDs {
		if _, ok := m.collections[id]; !ok {
			m.collections[id] = nil
		}
	}
	return nil
}

func (m *MemoryBackend) ListFiles(ctx context.Context, bucketID string) ([]backend.File, error) {
	if m.FailListFiles != nil {
		if err := m.FailListFiles(bucketID); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.buckets[bucketID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", bucketID, backend.ErrBucketNotFound)
	}
	files := make([]backend.File, 0, len(stored))
	for _, f := range stored {
		files = append(files, f.file)
	}
	return files, nil
}

func (m *MemoryBackend) CreateFile(ctx context.Context, bucketID, fileID string, upload backend.FileUpload) (backend.File, error) {
	if m.FailCreateFile != nil {
		if err := m.FailCreateFile(bucketID, upload); err != nil {
			return backend.File{}, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.buckets[bucketID]
	if !ok {
		return backend.File{}, fmt.Errorf("%s: %w", bucketID, backend.ErrBucketNotFound)
	}
	file := backend.File{
		ID:       fileID,
		Name:     upload.Name,
		Size:     int64(len(upload.Data)),
		MimeType: upload.ContentType,
	}
	m.buckets[bucketID] = append(stored, storedFile{file: file, data: append([]byte(nil), upload.Data...)})
	return file, nil
}

func (m *MemoryBackend) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	if m.FailDeleteFile != nil {
		if err := m.FailDeleteFile(bucketID, fileID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.buckets[bucketID]
	if !ok {
		return fmt.Errorf("%s: %w", bucketID, backend.ErrBucketNotFound)
	}
	for i, f := range stored {
		if f.file.ID == fileID {
			m.buckets[bucketID] = append(stored[:i:i], stored[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("file %s in %s: %w", fileID, bucketID, backend.ErrNotFound)
}

func (m *MemoryBackend) FileViewURL(bucketID, fileID string) string {
	return fmt.Sprintf("memory://%s/%s", bucketID, fileID)
}

func (m *MemoryBackend) EnsureBucket(ctx context.Context, bucketID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucketID]; !ok {
		m.buckets[bucketID] = nil
	}
	return nil
}

// Documents returns a snapshot of a collection's documents
func (m *MemoryBackend) Documents(collectionID string) []backend.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]backend.Document, len(m.collections[collectionID]))
	copy(out, m.collections[collectionID])
	return out
}

// FieldValues returns the value of field for every document in a collection, sorted
func (m *MemoryBackend) FieldValues(collectionID, field string) []string {
	var values []string
	for _, d := range m.Documents(collectionID) {
		values = append(values, fmt.Sprint(d.Fields[field]))
	}
	sort.Strings(values)
	return values
}

// FileData returns the stored bytes of a file
func (m *MemoryBackend) FileData(bucketID, fileID string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.buckets[bucketID] {
		if f.file.ID == fileID {
			return f.data, true
		}
	}
	return nil, false
}

// Creates reports how many documents were ever created in a collection
func (m *MemoryBackend) Creates(collectionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates[collectionID]
}
