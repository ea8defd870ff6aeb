// Package storage keeps PDF archive copies of generated documents in a GCS
// bucket, so the office retains an immutable snapshot even if the Drive copy
// is later edited or removed.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type ArchiveStore struct {
	client     *storage.Client
	bucketName string
}

func NewArchiveStore(ctx context.Context, bucketName, credentialsPath string) (*ArchiveStore, error) {
	var client *storage.Client
	var err error

	if credentialsPath != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(credentialsPath))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &ArchiveStore{client: client, bucketName: bucketName}, nil
}

// Upload writes one archive object and returns its size.
func (a *ArchiveStore) Upload(ctx context.Context, objectName string, data []byte, contentType string) (int64, error) {
	obj := a.client.Bucket(a.bucketName).Object(objectName)
	writer := obj.NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}

	size, err := io.Copy(writer, bytes.NewReader(data))
	if err != nil {
		writer.Close()
		return 0, fmt.Errorf("failed to copy data to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return size, nil
}

// GetSignedURL issues a short-lived download link for an archived PDF.
func (a *ArchiveStore) GetSignedURL(objectName string, expiry time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expiry),
	}
	return a.client.Bucket(a.bucketName).SignedURL(objectName, opts)
}

func (a *ArchiveStore) Close() error {
	return a.client.Close()
}

// ObjectName builds the archive path for one generated document.
func ObjectName(recordID, documentID string) string {
	timestamp := time.Now().Unix()
	return fmt.Sprintf("generated/%s/%d_%s.pdf", recordID, timestamp, documentID)
}
