// Package adapters holds the concrete collaborators injected into the
// service layer: file storage, notification delivery and search indexing.
package adapters

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"

	"github.com/matrixnet/social-service/internal/service"
)

// GCSFileStorage uploads local files into a Google Cloud Storage bucket
// and returns their public URL.
type GCSFileStorage struct {
	Client *storage.Client
	Bucket string
	Prefix string // object path prefix, e.g. "uploads"
}

func NewGCSFileStorage(client *storage.Client, bucket, prefix string) *GCSFileStorage {
	return &GCSFileStorage{Client: client, Bucket: bucket, Prefix: prefix}
}

func (s *GCSFileStorage) Upload(ctx context.Context, localPath, fileName string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	objectPath := fileName
	if s.Prefix != "" {
		objectPath = filepath.ToSlash(filepath.Join(s.Prefix, fileName))
	}
	wc := s.Client.Bucket(s.Bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = mime.TypeByExtension(filepath.Ext(fileName))
	if _, err := io.Copy(wc, f); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.Bucket, objectPath), nil
}

var _ service.FileStorage = (*GCSFileStorage)(nil)
