package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pageza/foodseed/backend/internal/backend"
	"github.com/pageza/foodseed/backend/internal/retry"
	"go.uber.org/zap"
)

// maxImageSize caps how much of a remote image is read into memory
const maxImageSize = 20 << 20

// ImageService downloads menu images and stores them in the asset bucket
type ImageService struct {
	files    backend.FileStore
	bucketID string
	client   *http.Client
	retry    retry.Policy
	logger   *zap.SugaredLogger
	now      func() time.Time
	newID    func() string
}

// NewImageService creates a new ImageService instance
func NewImageService(files backend.FileStore, bucketID string, fetchTimeout time.Duration, policy retry.Policy, logger *zap.SugaredLogger) *ImageService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &ImageService{
		files:    files,
		bucketID: bucketID,
		client:   &http.Client{Timeout: fetchTimeout},
		retry:    policy,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// MirrorImage downloads sourceURL and uploads it to the bucket, returning the
// stored file's view URL. Any failure is logged and the source URL returned.
func (s *ImageService) MirrorImage(ctx context.Context, sourceURL, label string) string {
	viewURL, err := s.mirror(ctx, sourceURL, label)
	if err != nil {
		s.logger.Warnw("image mirror failed, keeping source url",
			"item", label,
			"url", sourceURL,
			"bucket", s.bucketID,
			"error", err,
		)
		return sourceURL
	}
	s.logger.Infow("image mirrored", "item", label, "url", viewURL)
	return viewURL
}

func (s *ImageService) mirror(ctx context.Context, sourceURL, label string) (string, error) {
	data, err := s.download(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	upload := backend.FileUpload{
		Name:        s.fileName(sourceURL, label),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}

	file, err := retry.Do(ctx, s.retry, "upload image "+upload.Name, func(ctx context.Context) (backend.File, error) {
		return s.files.CreateFile(ctx, s.bucketID, s.newID(), upload)
	})
	if err != nil {
		return "", err
	}
	return s.files.FileViewURL(s.bucketID, file.ID), nil
}

func (s *ImageService) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageSize)
	}
	if len(data) == 0 {
		return nil, errors.New("image response was empty")
	}
	return data, nil
}

// fileName is the last path segment of the URL, or a name derived from the
// label when the URL has none
func (s *ImageService) fileName(sourceURL, label string) string {
	if u, err := url.Parse(sourceURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
			return base
		}
	}
	return fmt.Sprintf("%s-%d.png", slug(label), s.now().UnixMilli())
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "image"
	}
	return out
}
