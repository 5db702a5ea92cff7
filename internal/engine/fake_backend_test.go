package engine

import (
	"errors"
	"fmt"
	"sync"

	"pdf-tile-renderer/internal/domain"
)

// fakeBackend is an in-memory Backend. Documents are described by their
// bytes: "pages:<n>:<w>x<h>".
type fakeBackend struct {
	mu       sync.Mutex
	pages    int
	dims     domain.Dimensions
	open     bool
	closes   int
	calls    []string
	failBox  map[domain.Box]bool
	gate     chan struct{}
	initErr  error
	rendered int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{failBox: make(map[domain.Box]bool)}
}

func (b *fakeBackend) Init() error { return b.initErr }

func (b *fakeBackend) Open(data []byte) error {
	var n int
	var w, h float64
	if _, err := fmt.Sscanf(string(data), "pages:%d:%gx%g", &n, &w, &h); err != nil {
		return errors.New("not a document")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pages, b.dims, b.open = n, domain.Dimensions{Width: w, Height: h}, true
	return nil
}

func (b *fakeBackend) NumPages() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return 0, domain.ErrNoDocument
	}
	return b.pages, nil
}

func (b *fakeBackend) Dimensions(page int) (domain.Dimensions, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dims, nil
}

func (b *fakeBackend) RenderRegion(page int, box domain.Box, scale float64, opts RenderOptions) ([]byte, error) {
	if b.gate != nil {
		<-b.gate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, box.String())
	if b.failBox[box] {
		return nil, errors.New("rasteriser exploded")
	}
	b.rendered++
	return []byte(fmt.Sprintf("tile %d %s@%g", page, box, scale)), nil
}

func (b *fakeBackend) Metadata() (domain.DocumentMetadata, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return domain.DocumentMetadata{Title: fmt.Sprintf("%d pages", b.pages), Format: "PDF-1.7"}, nil
}

func (b *fakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	b.closes++
	return nil
}

func (b *fakeBackend) renderCalls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}
