package supabase

import (
	"context"
	"errors"
	"testing"

	"pdf-tile-renderer/internal/domain"
	"pdf-tile-renderer/pkg/logger"

	"github.com/supabase-community/supabase-go"
)

type MockSupabaseClient struct {
	objects map[string][]byte
}

func (m *MockSupabaseClient) Initialize() error    { return nil }
func (m *MockSupabaseClient) DB() *supabase.Client { return nil }
func (m *MockSupabaseClient) Download(bucket, path string) ([]byte, error) {
	data, ok := m.objects[bucket+"/"+path]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func TestStorageFetcher_Fetch(t *testing.T) {
	client := &MockSupabaseClient{objects: map[string][]byte{
		"docs/a/b.pdf":      []byte("pdf-a"),
		"fallback/only.pdf": []byte("pdf-b"),
	}}
	f := NewStorageFetcher(client, "fallback", logger.NewNopLogger())

	if !f.Supports("supabase://docs/a/b.pdf") || f.Supports("https://example.com/x.pdf") {
		t.Fatalf("unexpected Supports result")
	}

	data, err := f.Fetch(context.Background(), "supabase://docs/a/b.pdf")
	if err != nil || string(data) != "pdf-a" {
		t.Fatalf("expected pdf-a, got %q %v", data, err)
	}
	data, err = f.Fetch(context.Background(), "supabase://only.pdf")
	if err != nil || string(data) != "pdf-b" {
		t.Fatalf("expected default bucket object, got %q %v", data, err)
	}
	if _, err := f.Fetch(context.Background(), "supabase://docs/missing.pdf"); err == nil {
		t.Fatalf("expected error for missing object")
	}
}

func TestStorageFetcher_InvalidLocation(t *testing.T) {
	f := NewStorageFetcher(&MockSupabaseClient{}, "", logger.NewNopLogger())
	var vErr *domain.ValidationError
	if _, err := f.Fetch(context.Background(), "supabase://only.pdf"); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error without a bucket, got %v", err)
	}
}

func TestSupabaseClient_InitializeRequiresCredentials(t *testing.T) {
	c := &SupabaseClient{logger: logger.NewNopLogger()}
	if err := c.Initialize(); err == nil {
		t.Fatalf("expected error without url and key")
	}
	if _, err := c.Download("b", "p"); err == nil {
		t.Fatalf("expected error before initialisation")
	}
}
