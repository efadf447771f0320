package supabase

import (
	"bytes"
	"context"
	"fmt"
	"path"

	storage "github.com/supabase-community/storage-go"

	"listing-site-backend/internal/publish"
)

var _ publish.Backend = (*StorageClient)(nil)

// StorageClient publishes listing sites into a public Supabase Storage bucket.
type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(c *Client, bucket string) *StorageClient {
	return &StorageClient{
		client:  c.Supabase.Storage,
		bucket:  bucket,
		baseURL: c.URL,
	}
}

func (s *StorageClient) Put(_ context.Context, storagePath string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

// Location returns the public URL of storagePath.
func (s *StorageClient) Location(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, storagePath)
}

// Clear removes the site index and its media folder.
func (s *StorageClient) Clear(_ context.Context, dir string) error {
	paths := []string{path.Join(dir, "index.html")}

	mediaDir := path.Join(dir, "media")
	files, err := s.client.ListFiles(s.bucket, mediaDir, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}
	for _, file := range files {
		if file.Name != "" {
			paths = append(paths, path.Join(mediaDir, file.Name))
		}
	}

	if _, err := s.client.RemoveFile(s.bucket, paths); err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	return nil
}
