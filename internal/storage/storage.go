package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/acadocs/backend/internal/config"
)

// Uploader is what the request lifecycle needs from object storage: put the
// bytes somewhere and hand back a URL the requester can fetch later.
type Uploader interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	PublicURL(objectName string) string
}

// New selects the storage backend from configuration.
func New(cfg config.StorageConfig) (Uploader, error) {
	switch cfg.Backend {
	case "", "minio":
		return NewMinIOClient(cfg)
	case "s3":
		return NewS3Client(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
