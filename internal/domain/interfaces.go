package domain

import (
	"context"
	"time"
)

// BlobStore holds the image bytes behind display resource handles.
type BlobStore interface {
	Put(ctx context.Context, contentType string, data []byte) (string, error)
	Get(ctx context.Context, url string) (*Blob, error)
	Revoke(ctx context.Context, url string) error
}

// DocumentFetcher acquires document bytes by location.
type DocumentFetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
	Supports(location string) bool
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetMaxFileSize() int64
	GetDebounce() time.Duration
	GetZoomBounds() (min, max, step float64)
	GetOutputFormat() OutputFormat
	GetJPEGQuality() int
	GetEngineQueueSize() int
	GetBlobStore() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetBlobTTL() time.Duration
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetSupabaseBucket() string
	GetDocumentLocation() string
}
