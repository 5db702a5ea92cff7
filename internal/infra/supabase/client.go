package supabase

import (
	"context"
	"fmt"
	"strings"

	"pdf-tile-renderer/internal/domain"

	"github.com/supabase-community/supabase-go"
)

// SupabaseClient implements the domain.SupabaseClient interface
type SupabaseClient struct {
	client *supabase.Client
	url    string
	key    string
	logger domain.Logger
}

// NewSupabaseClient creates a new Supabase client instance
func NewSupabaseClient(config domain.Config, logger domain.Logger) *SupabaseClient {
	return &SupabaseClient{
		url:    config.GetSupabaseURL(),
		key:    config.GetSupabaseKey(),
		logger: logger,
	}
}

func (s *SupabaseClient) DB() *supabase.Client {
	return s.client
}

// Initialize establishes a connection to Supabase
func (s *SupabaseClient) Initialize() error {
	if s.url == "" || s.key == "" {
		return fmt.Errorf("supabase URL and key must be provided")
	}

	client, err := supabase.NewClient(s.url, s.key, &supabase.ClientOptions{})
	if err != nil {
		return fmt.Errorf("failed to create Supabase client: %w", err)
	}

	s.client = client
	s.logger.Info("Supabase client initialized successfully", "url", s.url)
	return nil
}

// Download reads an object from Supabase storage.
func (s *SupabaseClient) Download(bucket, path string) ([]byte, error) {
	if s.client == nil {
		return nil, fmt.Errorf("Supabase client not initialized")
	}
	data, err := s.client.Storage.DownloadFile(bucket, path)
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", bucket, path, err)
	}
	return data, nil
}

// StorageScheme prefixes document locations served from Supabase storage:
// supabase://<bucket>/<path>. A location without a bucket uses the default.
const StorageScheme = "supabase://"

// StorageFetcher acquires documents from Supabase storage.
type StorageFetcher struct {
	client        domain.SupabaseClient
	defaultBucket string
	logger        domain.Logger
}

// NewStorageFetcher creates a fetcher backed by client.
func NewStorageFetcher(client domain.SupabaseClient, defaultBucket string, logger domain.Logger) *StorageFetcher {
	return &StorageFetcher{client: client, defaultBucket: defaultBucket, logger: logger}
}

func (f *StorageFetcher) Supports(location string) bool {
	return strings.HasPrefix(location, StorageScheme)
}

func (f *StorageFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	bucket, path, err := f.parse(location)
	if err != nil {
		return nil, err
	}
	type result struct {
		data []byte
		err  error
	}
	// storage-go has no context support, so the download races ctx
	ch := make(chan result, 1)
	go func() {
		data, err := f.client.Download(bucket, path)
		ch <- result{data, err}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			f.logger.Error("Supabase download failed", r.err, "bucket", bucket, "path", path)
			return nil, r.err
		}
		f.logger.Debug("Supabase download complete", "bucket", bucket, "path", path, "bytes", len(r.data))
		return r.data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *StorageFetcher) parse(location string) (string, string, error) {
	rest := strings.TrimPrefix(location, StorageScheme)
	bucket, path, found := strings.Cut(rest, "/")
	if !found || bucket == "" {
		bucket, path = f.defaultBucket, rest
	}
	if bucket == "" || path == "" {
		return "", "", &domain.ValidationError{Field: "location", Message: "expected supabase://<bucket>/<path>"}
	}
	return bucket, path, nil
}
