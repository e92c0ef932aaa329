package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SupabaseStore talks to Supabase Storage over its REST API using the
// service-role key (bypasses row-level security, server side only).
type SupabaseStore struct {
	baseURL    string
	serviceKey string
	bucket     string
	httpClient *http.Client
}

func NewSupabaseStore(baseURL, serviceKey, bucket string) *SupabaseStore {
	return &SupabaseStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *SupabaseStore) objectName(ownerID, kind string) string {
	return fmt.Sprintf("%s/%s/%d-%s.jpg", ownerID, kind, time.Now().UnixMilli(), uuid.New().String()[:8])
}

func (s *SupabaseStore) Put(ctx context.Context, data []byte, ownerID, kind string) (string, error) {
	name := s.objectName(ownerID, kind)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, name),
		bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("Cache-Control", "3600")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("storage upload failed: %d - %s", resp.StatusCode, string(body))
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, name), nil
}

func (s *SupabaseStore) PutFromURL(ctx context.Context, srcURL, ownerID, kind string) (string, error) {
	data, err := s.Fetch(ctx, srcURL)
	if err != nil {
		return "", err
	}
	return s.Put(ctx, data, ownerID, kind)
}

func (s *SupabaseStore) Fetch(ctx context.Context, srcURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch image failed: %d", resp.StatusCode)
	}

	// Generated results should never be anywhere near this big.
	return io.ReadAll(io.LimitReader(resp.Body, 50<<20))
}

func (s *SupabaseStore) Delete(ctx context.Context, fileURL string) error {
	marker := fmt.Sprintf("/storage/v1/object/public/%s/", s.bucket)
	idx := strings.Index(fileURL, marker)
	if idx < 0 {
		return fmt.Errorf("invalid file URL: %s", fileURL)
	}
	name := fileURL[idx+len(marker):]

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, name), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage delete: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("storage delete failed: %d", resp.StatusCode)
	}
	return nil
}
