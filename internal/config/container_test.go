package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"pdf-tile-renderer/internal/domain"
	"pdf-tile-renderer/internal/engine"
	"pdf-tile-renderer/internal/resource"
	"pdf-tile-renderer/internal/service"
	"pdf-tile-renderer/pkg/logger"
)

// nullBackend opens any non-empty input as a one-page document.
type nullBackend struct{}

func (nullBackend) Init() error            { return nil }
func (nullBackend) Open(data []byte) error { return nil }
func (nullBackend) NumPages() (int, error) { return 1, nil }
func (nullBackend) Close() error           { return nil }

func (nullBackend) Dimensions(page int) (domain.Dimensions, error) {
	return domain.Dimensions{Width: 100, Height: 100}, nil
}

func (nullBackend) RenderRegion(page int, box domain.Box, scale float64, opts engine.RenderOptions) ([]byte, error) {
	return []byte{1}, nil
}

func (nullBackend) Metadata() (domain.DocumentMetadata, error) {
	return domain.DocumentMetadata{}, nil
}

// brokenBackend cannot initialise.
type brokenBackend struct{ nullBackend }

func (brokenBackend) Init() error { return errors.New("mupdf unavailable") }

func TestContainer_StartEngine(t *testing.T) {
	clearEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c := NewContainerWith(NewConfig(), logger.NewNopLogger(), nullBackend{})
	defer c.Close(ctx)
	if err := <-c.StartEngine(ctx); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if !c.Engine.Ready() {
		t.Fatalf("expected engine ready")
	}

	broken := NewContainerWith(NewConfig(), logger.NewNopLogger(), brokenBackend{})
	defer broken.Close(ctx)
	if err := <-broken.StartEngine(ctx); !errors.Is(err, domain.ErrChannelTerminated) {
		t.Fatalf("expected terminated engine, got %v", err)
	}
	_, err := broken.DocumentService.Open(ctx, service.DocumentSource{Data: []byte("%PDF-1.7")})
	if !errors.Is(err, domain.ErrChannelTerminated) {
		t.Fatalf("expected open to fail on a terminated engine, got %v", err)
	}
}

func TestNewContainerWith_MemoryStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEBOUNCE_MS", "5")

	c := NewContainerWith(NewConfig(), logger.NewNopLogger(), nullBackend{})
	if _, ok := c.BlobStore.(*resource.MemoryStore); !ok {
		t.Fatalf("expected memory blob store, got %T", c.BlobStore)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	info, err := c.DocumentService.Open(ctx, service.DocumentSource{Data: []byte("%PDF-1.7")})
	if err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	if info.PageCount != 1 {
		t.Fatalf("expected 1 page, got %d", info.PageCount)
	}

	c.Close(ctx)
	if _, err := c.DocumentService.Info(); !errors.Is(err, domain.ErrNoDocument) {
		t.Fatalf("expected document closed, got %v", err)
	}
	if _, err := c.Engine.CountPages(ctx, 1); !errors.Is(err, domain.ErrChannelTerminated) {
		t.Fatalf("expected terminated engine, got %v", err)
	}
}
