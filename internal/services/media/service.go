package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrValidation = errors.New("validation error")

const (
	signedURLTTL  = 15 * time.Minute
	maxUploadSize = 512 << 20
)

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	storage ObjectStorage
}

type Upload struct {
	Key string
	URL string
}

func NewService(storage ObjectStorage) *Service {
	return &Service{storage: storage}
}

// UploadCourseAsset stores a lesson video or cover image and returns the
// object key together with a presigned URL for immediate preview.
func (s *Service) UploadCourseAsset(ctx context.Context, courseID int64, kind, fileName, contentType string, body io.Reader, size int64) (Upload, error) {
	if courseID <= 0 || body == nil || size <= 0 || size > maxUploadSize {
		return Upload{}, ErrValidation
	}
	switch kind {
	case "video", "cover":
	default:
		return Upload{}, ErrValidation
	}
	if s.storage == nil {
		return Upload{}, fmt.Errorf("object storage is not configured")
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return Upload{}, fmt.Errorf("ensure bucket: %w", err)
	}

	key := buildObjectKey(courseID, kind, fileName)
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}

	if err := s.storage.Put(ctx, key, body, size, contentType); err != nil {
		return Upload{}, fmt.Errorf("put object: %w", err)
	}

	url, err := s.storage.PresignGet(ctx, key, signedURLTTL)
	if err != nil {
		return Upload{}, fmt.Errorf("presign url: %w", err)
	}

	return Upload{Key: key, URL: url}, nil
}

func (s *Service) PresignGet(ctx context.Context, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", ErrValidation
	}
	if s.storage == nil {
		return "", fmt.Errorf("object storage is not configured")
	}

	url, err := s.storage.PresignGet(ctx, key, signedURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign url: %w", err)
	}
	return url, nil
}

func buildObjectKey(courseID int64, kind, fileName string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("courses/%d/%s/%s%s", courseID, kind, uuid.NewString(), ext)
}
