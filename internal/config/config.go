package config

import (
	"os"
	"strconv"
	"time"

	"pdf-tile-renderer/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort       string
	LogLevel         string
	MaxFileSize      int64
	Debounce         time.Duration
	MinZoom          float64
	MaxZoom          float64
	ZoomStep         float64
	OutputFormat     domain.OutputFormat
	JPEGQuality      int
	EngineQueueSize  int
	BlobStore        string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	BlobTTL          time.Duration
	SupabaseURL      string
	SupabaseKey      string
	SupabaseBucket   string
	DocumentLocation string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:       getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		MaxFileSize:      getEnvInt64OrDefault("MAX_FILE_SIZE", 50*1024*1024), // 50MB default
		Debounce:         time.Duration(getEnvInt64OrDefault("DEBOUNCE_MS", 300)) * time.Millisecond,
		MinZoom:          getEnvFloatOrDefault("MIN_ZOOM", 0.125),
		MaxZoom:          getEnvFloatOrDefault("MAX_ZOOM", 10),
		ZoomStep:         getEnvFloatOrDefault("ZOOM_STEP", 0.125),
		OutputFormat:     domain.ParseOutputFormat(getEnvOrDefault("OUTPUT_FORMAT", "png")),
		JPEGQuality:      int(getEnvInt64OrDefault("JPEG_QUALITY", 90)),
		EngineQueueSize:  int(getEnvInt64OrDefault("ENGINE_QUEUE_SIZE", 64)),
		BlobStore:        getEnvOrDefault("BLOB_STORE", "memory"),
		RedisAddr:        getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:          int(getEnvInt64OrDefault("REDIS_DB", 0)),
		BlobTTL:          getEnvDurationOrDefault("BLOB_TTL", 10*time.Minute),
		SupabaseURL:      getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:      getEnvOrDefault("SUPABASE_ANON_KEY", ""),
		SupabaseBucket:   getEnvOrDefault("SUPABASE_BUCKET", "documents"),
		DocumentLocation: getEnvOrDefault("DOCUMENT_LOCATION", ""),
	}
}

func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetMaxFileSize returns the maximum allowed document size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetDebounce returns the zoom quiet period
func (c *AppConfig) GetDebounce() time.Duration {
	return c.Debounce
}

// GetZoomBounds returns the zoom limits and step
func (c *AppConfig) GetZoomBounds() (float64, float64, float64) {
	return c.MinZoom, c.MaxZoom, c.ZoomStep
}

func (c *AppConfig) GetOutputFormat() domain.OutputFormat {
	return c.OutputFormat
}

func (c *AppConfig) GetJPEGQuality() int {
	return c.JPEGQuality
}

func (c *AppConfig) GetEngineQueueSize() int {
	return c.EngineQueueSize
}

// GetBlobStore returns the blob backend name: memory or redis
func (c *AppConfig) GetBlobStore() string {
	return c.BlobStore
}

func (c *AppConfig) GetRedisAddr() string {
	return c.RedisAddr
}

func (c *AppConfig) GetRedisPassword() string {
	return c.RedisPassword
}

func (c *AppConfig) GetRedisDB() int {
	return c.RedisDB
}

func (c *AppConfig) GetBlobTTL() time.Duration {
	return c.BlobTTL
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

func (c *AppConfig) GetSupabaseBucket() string {
	return c.SupabaseBucket
}

// GetDocumentLocation returns a document to open at startup, if any
func (c *AppConfig) GetDocumentLocation() string {
	return c.DocumentLocation
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
