package service

import (
	"context"
	"io"

	"catalog-api/internal/storage"

	"go.uber.org/zap"
)

// Upload is an image received with a create or edit request. ContentType
// has already been checked against the accepted image types.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// imageStore writes uploads to the disk and cleans up replaced files
type imageStore struct {
	disk   storage.Disk
	dir    string
	logger *zap.Logger
}

// save writes the upload under a fresh key and returns that key
func (s imageStore) save(ctx context.Context, up Upload) (string, error) {
	key := storage.ImageKey(s.dir, up.Filename)
	if err := s.disk.Put(ctx, key, up.Body, up.ContentType); err != nil {
		return "", err
	}
	return key, nil
}

// discard removes key, logging instead of failing. Used after the row that
// referenced the file is gone or points elsewhere.
func (s imageStore) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.disk.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to remove stored image", zap.String("key", key), zap.Error(err))
	}
}

func (s imageStore) url(key string) string {
	if key == "" {
		return ""
	}
	return s.disk.URL(key)
}
