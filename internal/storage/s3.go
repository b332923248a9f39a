package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/acadocs/backend/internal/config"
	"github.com/acadocs/backend/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Client targets AWS S3 through the same wire client. With an empty access
// key it falls back to IAM instance credentials.
type S3Client struct {
	client *minio.Client
	bucket string
	region string
}

func NewS3Client(cfg config.StorageConfig) (*S3Client, error) {
	var creds *credentials.Credentials
	if cfg.AccessKey == "" {
		creds = credentials.NewIAM("")
	} else {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: true,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &S3Client{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

func (s *S3Client) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("storage_upload_failed", err, map[string]interface{}{
			"object_name": objectName,
			"bucket":      s.bucket,
			"backend":     "s3",
		})
		return err
	}

	logger.Info("storage_upload_success", map[string]interface{}{
		"object_name": objectName,
		"bucket":      s.bucket,
		"backend":     "s3",
	})
	return nil
}

func (s *S3Client) PublicURL(objectName string) string {
	if s.region != "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, objectName)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, objectName)
}
