// Package storage archives raw CSV uploads in S3-compatible object storage
// for later audit.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"leadbroker_backend/platform/config"
)

// ImportArchive stores raw bulk-import payloads in a MinIO bucket.
type ImportArchive struct {
	client *minio.Client
	bucket string
}

// NewImportArchive creates the archive service. Returns an error when MinIO
// is not configured; callers treat a nil archive as "archiving disabled".
func NewImportArchive(cfg config.StorageConfig) (*ImportArchive, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &ImportArchive{client: client, bucket: cfg.GetMinioBucketLeadImports()}, nil
}

// EnsureBucket creates the archive bucket if it doesn't exist.
func (a *ImportArchive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
		}
	}
	return nil
}

// ArchiveImport stores the raw CSV text and returns its object key. Keys are
// date-prefixed and suffixed with a short unique id to prevent overwrites.
func (a *ImportArchive) ArchiveImport(ctx context.Context, raw string, agencyID *uuid.UUID) (string, error) {
	owner := "unattributed"
	if agencyID != nil {
		owner = agencyID.String()
	}
	key := fmt.Sprintf("%s/%s/import_%s.csv",
		time.Now().UTC().Format("2006/01/02"), owner, uuid.New().String()[:8])

	reader := strings.NewReader(raw)
	_, err := a.client.PutObject(ctx, a.bucket, key, reader, int64(len(raw)), minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload import %s: %w", key, err)
	}
	return key, nil
}
