package storage

import (
	"context"
	"errors"
	"io"

	catalogapp "github.com/tropa/backend/internal/application/catalog"
)

var _ catalogapp.ImageStore = (*StubImageStore)(nil)

// StubImageStore is a placeholder image store for development and testing.
// Uploads are discarded and a deterministic URL is returned.
type StubImageStore struct {
	BaseURL string
}

// NewStubImageStore creates a new StubImageStore
func NewStubImageStore() *StubImageStore {
	return &StubImageStore{BaseURL: "https://storage.example.com"}
}

// Upload discards the body and returns a stub URL for the key.
func (s *StubImageStore) Upload(_ context.Context, key string, _ string, body io.Reader) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	return s.BaseURL + "/" + key, nil
}

// Delete is a no-op that always succeeds for a non-empty key.
func (s *StubImageStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	return nil
}
