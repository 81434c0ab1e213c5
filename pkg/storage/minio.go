// Package storage archives original uploaded files in MinIO object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"medichat-go/internal/config"
	"medichat-go/pkg/log"
)

// Archive keeps the raw bytes of every ingested document so the source can
// be re-processed or audited later. Archival is best-effort: the ingestion
// pipeline does not fail when the object store is down.
type Archive struct {
	client *minio.Client
	bucket string
}

// NewArchive connects to MinIO and ensures the configured bucket exists.
func NewArchive(cfg config.MinIOConfig) (*Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check minio bucket: %w", err)
	}
	if !exists {
		log.Infof("bucket '%s' does not exist, creating", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create minio bucket: %w", err)
		}
	}

	log.Infof("MinIO archive ready, bucket: %s", cfg.BucketName)
	return &Archive{client: client, bucket: cfg.BucketName}, nil
}

// Put stores the raw file under originals/<filename> with the given
// content type.
func (a *Archive) Put(ctx context.Context, fileName string, content []byte, contentType string) error {
	objectName := "originals/" + fileName
	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", objectName, err)
	}
	return nil
}

// PresignedURL generates a time-limited download URL for an archived file.
func (a *Archive) PresignedURL(ctx context.Context, fileName string, expiry time.Duration) (string, error) {
	objectName := "originals/" + fileName
	u, err := a.client.PresignedGetObject(ctx, a.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", objectName, err)
	}
	return u.String(), nil
}
