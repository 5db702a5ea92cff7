package resource

import (
	"context"
	"errors"
	"sync"

	"pdf-tile-renderer/internal/domain"
)

// Tracker owns the resource handles of every render generation. Each handle
// is tagged with the generation that created it and revoked exactly once:
// when a strictly newer generation is adopted, or on explicit release.
type Tracker struct {
	store  domain.BlobStore
	logger domain.Logger

	mu      sync.Mutex
	owners  map[uint64][]string
	newest  uint64
	revoked int
}

// Stats describes the tracker's live state.
type Stats struct {
	Generations int    `json:"generations"`
	Handles     int    `json:"handles"`
	Revoked     int    `json:"revoked"`
	Newest      uint64 `json:"newest"`
}

// NewTracker creates a tracker that revokes handles in store.
func NewTracker(store domain.BlobStore, logger domain.Logger) *Tracker {
	return &Tracker{
		store:  store,
		logger: logger,
		owners: make(map[uint64][]string),
	}
}

// Adopt records urls as belonging to gen and marks gen live. Every handle of
// an older generation is revoked. If a newer generation is already live, the
// urls are revoked immediately and Adopt returns false.
func (t *Tracker) Adopt(gen uint64, urls []string) bool {
	t.mu.Lock()
	if gen < t.newest {
		t.mu.Unlock()
		t.revoke(urls)
		return false
	}
	if _, ok := t.owners[gen]; ok {
		t.mu.Unlock()
		t.logger.Warn("Generation adopted twice; ignoring", "generation", gen)
		return false
	}
	t.owners[gen] = append([]string(nil), urls...)
	t.newest = gen

	var stale []string
	for g, owned := range t.owners {
		if g < gen {
			stale = append(stale, owned...)
			delete(t.owners, g)
		}
	}
	t.mu.Unlock()

	t.revoke(stale)
	return true
}

// Release revokes the handles of one generation. Releasing an unknown or
// already released generation is a no-op.
func (t *Tracker) Release(gen uint64) int {
	t.mu.Lock()
	owned, ok := t.owners[gen]
	delete(t.owners, gen)
	t.mu.Unlock()
	if !ok {
		return 0
	}
	return t.revoke(owned)
}

// ReleaseAll revokes everything the tracker owns.
func (t *Tracker) ReleaseAll() int {
	t.mu.Lock()
	var all []string
	for g, owned := range t.owners {
		all = append(all, owned...)
		delete(t.owners, g)
	}
	t.mu.Unlock()
	return t.revoke(all)
}

func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Stats{Generations: len(t.owners), Revoked: t.revoked, Newest: t.newest}
	for _, owned := range t.owners {
		s.Handles += len(owned)
	}
	return s
}

func (t *Tracker) revoke(urls []string) int {
	n := 0
	for _, url := range urls {
		err := t.store.Revoke(context.Background(), url)
		if err != nil && !errors.Is(err, domain.ErrResourceNotFound) {
			t.logger.Warn("Failed to revoke resource", "url", url, "error", err)
			continue
		}
		n++
	}
	if n > 0 {
		t.mu.Lock()
		t.revoked += n
		t.mu.Unlock()
	}
	return n
}
