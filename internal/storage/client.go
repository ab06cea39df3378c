package storage

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

// Client persists generated media and finished export archives to a Supabase
// Storage bucket and hands back public URLs.
type Client struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewClient(supabaseURL, publishableKey, bucket string) (*Client, error) {
	baseURL := supabaseURL
	if len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	client := storage.NewClient(baseURL+"/storage/v1", publishableKey, nil)

	return &Client{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// UploadGenerationMedia stores one generated asset under the owning user and
// generation, returning the storage path and public URL.
func (s *Client) UploadGenerationMedia(userID, generationID uuid.UUID, filename, contentType string, data []byte) (string, string, error) {
	storagePath := fmt.Sprintf("users/%s/generations/%s/%s", userID.String(), generationID.String(), filename)
	return s.upload(storagePath, contentType, data)
}

// UploadExportArchive stores a finished export package.
func (s *Client) UploadExportArchive(userID, exportID uuid.UUID, data []byte) (string, string, error) {
	storagePath := fmt.Sprintf("users/%s/exports/%s.zip", userID.String(), exportID.String())
	return s.upload(storagePath, "application/zip", data)
}

func (s *Client) upload(storagePath, contentType string, data []byte) (string, string, error) {
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload file: %w", err)
	}

	return storagePath, s.PublicURL(storagePath), nil
}

func (s *Client) PublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, storagePath)
}

func (s *Client) DeleteFile(storagePath string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{storagePath})
	return err
}
