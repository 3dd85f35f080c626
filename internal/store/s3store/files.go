// Package s3store stores seed images in S3 or an S3-compatible service.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pageza/foodseed/backend/internal/backend"
)

// API is the subset of the S3 client the file store uses
type API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

const filenameMetadataKey = "filename"

// FileStore maps files to objects keyed by file ID
type FileStore struct {
	client        API
	publicBaseURL string
}

// NewFileStore creates a file store. When publicBaseURL is empty, view URLs
// use the virtual-hosted AWS form.
func NewFileStore(client API, publicBaseURL string) *FileStore {
	return &FileStore{
		client:        client,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *FileStore) ListFiles(ctx context.Context, bucketID string) ([]backend.File, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucketID),
	})
	if err != nil {
		return nil, wrapBucketError(bucketID, "failed to list files", err)
	}

	files := make([]backend.File, 0, len(out.Contents))
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		files = append(files, backend.File{
			ID:   key,
			Name: key,
			Size: aws.ToInt64(obj.Size),
		})
	}
	return files, nil
}

func (s *FileStore) CreateFile(ctx context.Context, bucketID, fileID string, upload backend.FileUpload) (backend.File, error) {
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucketID),
		Key:         aws.String(fileID),
		Body:        bytes.NewReader(upload.Data),
		ContentType: aws.String(contentType),
		Metadata:    map[string]string{filenameMetadataKey: upload.Name},
	})
	if err != nil {
		return backend.File{}, wrapBucketError(bucketID, "failed to upload file", err)
	}

	return backend.File{
		ID:       fileID,
		Name:     upload.Name,
		Size:     int64(len(upload.Data)),
		MimeType: contentType,
	}, nil
}

func (s *FileStore) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucketID),
		Key:    aws.String(fileID),
	})
	if err != nil {
		return wrapBucketError(bucketID, fmt.Sprintf("failed to delete file %s", fileID), err)
	}
	return nil
}

func (s *FileStore) FileViewURL(bucketID, fileID string) string {
	key := url.PathEscape(fileID)
	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, bucketID, key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucketID, key)
}

// EnsureBucket creates the bucket if HeadBucket reports it missing
func (s *FileStore) EnsureBucket(ctx context.Context, bucketID string) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucketID)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to check bucket %s: %w", bucketID, err)
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucketID)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", bucketID, err)
	}
	return nil
}

func wrapBucketError(bucketID, msg string, err error) error {
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return fmt.Errorf("%s: %s: %w", msg, bucketID, backend.ErrBucketNotFound)
	}
	return fmt.Errorf("%s in %s: %w", msg, bucketID, err)
}
