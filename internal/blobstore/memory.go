package blobstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore keeps blobs in a map. Used for local development without an S3
// endpoint and for tests.
type MemoryStore struct {
	baseURL string
	mu      sync.RWMutex
	blobs   map[string][]byte
}

func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "http://localhost/images"
	}
	return &MemoryStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		blobs:   map[string][]byte{},
	}
}

func (m *MemoryStore) Upload(_ context.Context, data []byte, path, _ string) (string, error) {
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	m.blobs[path] = cp
	m.mu.Unlock()

	return m.baseURL + "/" + path, nil
}

func (m *MemoryStore) Download(_ context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	data, ok := m.blobs[path]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemoryStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	delete(m.blobs, path)
	m.mu.Unlock()
	return nil
}

// Key strips the store's own base URL; URLs minted elsewhere fall back to
// path-based recovery.
func (m *MemoryStore) Key(publicURL string) string {
	if key, ok := strings.CutPrefix(publicURL, m.baseURL+"/"); ok {
		return key
	}
	return keyFromPath(publicURL)
}

// Len reports the number of stored blobs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
