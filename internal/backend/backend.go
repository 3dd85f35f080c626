// Package backend defines the capabilities the seeder needs from the remote
// document database and file storage service.
package backend

import (
	"context"
	"errors"
)

var (
	// ErrCollectionNotFound is returned when a collection has not been provisioned.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrBucketNotFound is returned when a storage bucket has not been provisioned.
	ErrBucketNotFound = errors.New("bucket not found")
	// ErrNotFound is returned when a document or file does not exist.
	ErrNotFound = errors.New("not found")
)

// Document is a single record in a collection. Fields never contains the ID.
type Document struct {
	ID     string
	Fields map[string]any
}

// File describes an object stored in a bucket.
type File struct {
	ID       string
	Name     string
	Size     int64
	MimeType string
}

// FileUpload is the payload for CreateFile.
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// DocumentStore lists, creates and deletes documents in the collections of a
// single database. Listing applies no filter and no pagination.
type DocumentStore interface {
	ListDocuments(ctx context.Context, collectionID string) ([]Document, error)
	CreateDocument(ctx context.Context, collectionID, documentID string, fields map[string]any) (Document, error)
	DeleteDocument(ctx context.Context, collectionID, documentID string) error
}

// FileStore lists, creates and deletes files in storage buckets.
type FileStore interface {
	ListFiles(ctx context.Context, bucketID string) ([]File, error)
	CreateFile(ctx context.Context, bucketID, fileID string, upload FileUpload) (File, error)
	DeleteFile(ctx context.Context, bucketID, fileID string) error
	FileViewURL(bucketID, fileID string) string
}

// CollectionProvisioner creates collections that do not exist yet.
type CollectionProvisioner interface {
	EnsureCollections(ctx context.Context, collectionIDs ...string) error
}

// BucketProvisioner creates a bucket if it does not exist yet.
type BucketProvisioner interface {
	EnsureBucket(ctx context.Context, bucketID string) error
}
