package config

import (
	"context"
	"errors"
	"time"

	"pdf-tile-renderer/internal/domain"
	"pdf-tile-renderer/internal/engine"
	"pdf-tile-renderer/internal/infra/supabase"
	"pdf-tile-renderer/internal/resource"
	"pdf-tile-renderer/internal/service"
	"pdf-tile-renderer/internal/viewer"
	"pdf-tile-renderer/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config          domain.Config
	Logger          domain.Logger
	Engine          *engine.Proxy
	BlobStore       domain.BlobStore
	DocumentService *service.DocumentService

	closers []func() error
}

// NewContainer wires the application around the MuPDF backend.
func NewContainer() *Container {
	cfg := NewConfig()
	return NewContainerWith(cfg, logger.NewLogger(cfg.GetLogLevel()), engine.NewFitzBackend())
}

// NewContainerWith wires the application around an arbitrary engine backend.
func NewContainerWith(cfg domain.Config, appLogger domain.Logger, backend engine.Backend) *Container {
	c := &Container{
		Config: cfg,
		Logger: appLogger,
	}

	c.Engine = engine.NewProxy(backend, engine.Options{
		QueueSize: cfg.GetEngineQueueSize(),
		Logger:    appLogger,
	})
	c.BlobStore = c.newBlobStore()

	fetchers := []domain.DocumentFetcher{service.NewHTTPFetcher(cfg.GetMaxFileSize())}
	if cfg.GetSupabaseURL() != "" && cfg.GetSupabaseKey() != "" {
		client := supabase.NewSupabaseClient(cfg, appLogger)
		if err := client.Initialize(); err != nil {
			appLogger.Error("Supabase storage disabled", err)
		} else {
			fetchers = append(fetchers, supabase.NewStorageFetcher(client, cfg.GetSupabaseBucket(), appLogger))
		}
	}

	minZoom, maxZoom, step := cfg.GetZoomBounds()
	opts := engine.DefaultRenderOptions()
	opts.Format = cfg.GetOutputFormat()
	opts.Quality = cfg.GetJPEGQuality()

	c.DocumentService = service.NewDocumentService(c.Engine, c.BlobStore, fetchers, service.DocumentOptions{
		MaxFileSize:   cfg.GetMaxFileSize(),
		Debounce:      cfg.GetDebounce(),
		ZoomBounds:    viewer.ZoomBounds{Min: minZoom, Max: maxZoom, Step: step},
		RenderOptions: opts,
	}, appLogger)

	return c
}

func (c *Container) newBlobStore() domain.BlobStore {
	if c.Config.GetBlobStore() != "redis" {
		return resource.NewMemoryStore(resource.DefaultURLPrefix)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := resource.NewRedisStore(ctx, resource.RedisConf{
		Addr:     c.Config.GetRedisAddr(),
		Password: c.Config.GetRedisPassword(),
		DB:       c.Config.GetRedisDB(),
		TTL:      c.Config.GetBlobTTL(),
	}, resource.DefaultURLPrefix)
	if err != nil {
		c.Logger.Error("Redis blob store unavailable, using memory", err, "addr", c.Config.GetRedisAddr())
		return resource.NewMemoryStore(resource.DefaultURLPrefix)
	}
	c.closers = append(c.closers, store.Close)
	c.Logger.Info("Using redis blob store", "addr", c.Config.GetRedisAddr())
	return store
}

// StartEngine begins engine initialisation and reports its outcome on the
// returned channel. A failed initialisation leaves the engine terminated, so
// document opens get ErrChannelTerminated instead of hanging.
func (c *Container) StartEngine(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := c.Engine.WaitReady(ctx)
		if err != nil {
			c.Logger.Error("Rendering engine failed to start", err)
		}
		done <- err
	}()
	return done
}

// Close releases the document, stops the engine and closes backing stores.
func (c *Container) Close(ctx context.Context) {
	if err := c.DocumentService.Close(ctx); err != nil && !errors.Is(err, domain.ErrNoDocument) {
		c.Logger.Warn("Failed to close document", "error", err)
	}
	c.Engine.Terminate()
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			c.Logger.Warn("Failed to close resource", "error", err)
		}
	}
}
