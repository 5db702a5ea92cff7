// Package resource manages the transient image resources behind rendered
// tiles: where their bytes live and when their handles are revoked.
package resource

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"pdf-tile-renderer/internal/domain"
)

// DefaultURLPrefix is the path under which blobs are served.
const DefaultURLPrefix = "/blobs/"

func newURL(prefix string) string {
	return prefix + uuid.NewString()
}

// IDFromURL extracts the blob id from a resource URL.
func IDFromURL(prefix, url string) (string, bool) {
	id, ok := strings.CutPrefix(url, prefix)
	if !ok || id == "" {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// MemoryStore keeps blobs in process memory.
type MemoryStore struct {
	prefix string

	mu    sync.RWMutex
	blobs map[string]*domain.Blob
	bytes int
}

// NewMemoryStore creates an empty store issuing URLs under prefix.
func NewMemoryStore(prefix string) *MemoryStore {
	if prefix == "" {
		prefix = DefaultURLPrefix
	}
	return &MemoryStore{
		prefix: prefix,
		blobs:  make(map[string]*domain.Blob),
	}
}

func (s *MemoryStore) Put(ctx context.Context, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	url := newURL(s.prefix)
	s.mu.Lock()
	s.blobs[url] = &domain.Blob{ContentType: contentType, Data: data}
	s.bytes += len(data)
	s.mu.Unlock()
	return url, nil
}

func (s *MemoryStore) Get(ctx context.Context, url string) (*domain.Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[url]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	return blob, nil
}

func (s *MemoryStore) Revoke(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.blobs[url]
	if !ok {
		return domain.ErrResourceNotFound
	}
	s.bytes -= len(blob.Data)
	delete(s.blobs, url)
	return nil
}

// Len returns the number of live blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Bytes returns the total size of live blobs.
func (s *MemoryStore) Bytes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bytes
}
