// Package storage stores uploaded catalog images.
//
// Two drivers are available:
//   - "local" writes under a directory served by the API at /storage
//   - "s3" writes to an S3-compatible bucket (AWS S3, MinIO, R2)
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"catalog-api/internal/config"

	"github.com/google/uuid"
)

// Disk is the blob store used for category and product images.
type Disk interface {
	// Put writes r to key, replacing any existing object.
	Put(ctx context.Context, key string, r io.Reader, contentType string) error

	// Delete removes key. Returns nil if it did not exist.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is stored.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns the public URL for key.
	URL(key string) string
}

// NewDisk builds the driver selected by cfg.Disk.
func NewDisk(ctx context.Context, cfg config.StorageConfig) (Disk, error) {
	switch cfg.Disk {
	case "", "local":
		return NewLocalDisk(cfg.LocalRoot, cfg.LocalURL)
	case "s3":
		return NewS3Disk(ctx, cfg)
	default:
		return nil, fmt.Errorf("storage: unknown disk %q", cfg.Disk)
	}
}

// Image directories, one per owning entity.
const (
	CategoryDir = "categories"
	ProductDir  = "products"
)

// ImageKey returns a fresh key under dir that keeps the upload's extension.
// Names are random so concurrent uploads of the same file never collide.
func ImageKey(dir, originalName string) string {
	ext := strings.ToLower(path.Ext(originalName))
	return path.Join(dir, uuid.NewString()+ext)
}
