package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pdf-tile-renderer/internal/domain"
	"pdf-tile-renderer/internal/engine"
	"pdf-tile-renderer/internal/tiles"
	"pdf-tile-renderer/internal/viewer"
	apperrors "pdf-tile-renderer/pkg/errors"
)

// Engine is the engine surface the document flow needs.
type Engine interface {
	tiles.RegionRenderer
	WaitReady(ctx context.Context) error
	LoadDocument(ctx context.Context, data []byte) (engine.Handle, error)
	CountPages(ctx context.Context, h engine.Handle) (int, error)
	PageDimensions(ctx context.Context, h engine.Handle, page int) (domain.Dimensions, error)
	Metadata(ctx context.Context, h engine.Handle) (domain.DocumentMetadata, error)
	Release(ctx context.Context, h engine.Handle) error
}

// DocumentSource is either raw bytes or a location to fetch them from.
type DocumentSource struct {
	Location string
	Data     []byte
}

// DocumentOptions configures how opened documents are viewed.
type DocumentOptions struct {
	MaxFileSize   int64
	Debounce      time.Duration
	ZoomBounds    viewer.ZoomBounds
	RenderOptions engine.RenderOptions
}

// DocumentInfo describes the open document.
type DocumentInfo struct {
	Source     string                  `json:"source"`
	Bytes      int                     `json:"bytes"`
	PageCount  int                     `json:"pageCount"`
	Dimensions []domain.Dimensions     `json:"dimensions"`
	Metadata   domain.DocumentMetadata `json:"metadata"`
	OpenedAt   time.Time               `json:"openedAt"`
}

// DocumentService runs the page-loading flow: wait for the engine, acquire
// bytes, open them, size every page and hand the pages to a viewer.
type DocumentService struct {
	engine   Engine
	store    domain.BlobStore
	fetchers []domain.DocumentFetcher
	opts     DocumentOptions
	logger   domain.Logger

	mu     sync.Mutex
	handle engine.Handle
	viewer *viewer.Viewer
	info   *DocumentInfo
}

// NewDocumentService creates a new document service
func NewDocumentService(eng Engine, store domain.BlobStore, fetchers []domain.DocumentFetcher, opts DocumentOptions, logger domain.Logger) *DocumentService {
	return &DocumentService{
		engine:   eng,
		store:    store,
		fetchers: fetchers,
		opts:     opts,
		logger:   logger,
	}
}

// Open loads a document and replaces the current one. Load failures are
// returned to the caller; the previous document stays open in that case
// only if the engine kept it.
func (s *DocumentService) Open(ctx context.Context, src DocumentSource) (*DocumentInfo, error) {
	if err := s.engine.WaitReady(ctx); err != nil {
		return nil, err
	}

	data, name, err := s.acquire(ctx, src)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// the engine holds one document at a time, so the old viewer goes first
	s.closeLocked(ctx)

	start := time.Now()
	h, err := s.engine.LoadDocument(ctx, data)
	if err != nil {
		s.logger.Error("Failed to load document", err, "source", name, "bytes", len(data))
		return nil, err
	}

	count, err := s.engine.CountPages(ctx, h)
	if err != nil {
		s.release(ctx, h)
		return nil, fmt.Errorf("count pages: %w", err)
	}

	// Non-blocking: a document without a readable info dictionary still renders.
	meta, err := s.engine.Metadata(ctx, h)
	if err != nil {
		s.logger.Warn("Failed to read document metadata", "source", name, "error", err)
	}

	renderer := tiles.NewRenderer(s.engine, s.store, s.opts.RenderOptions, s.logger)
	dims := make([]domain.Dimensions, count)
	pages := make([]*viewer.PageController, count)
	for i := 0; i < count; i++ {
		d, err := s.engine.PageDimensions(ctx, h, i)
		if err != nil {
			s.release(ctx, h)
			return nil, fmt.Errorf("page %d dimensions: %w", i, err)
		}
		dims[i] = d
		pages[i] = viewer.NewPageController(viewer.PageConfig{
			Page:       i,
			Handle:     h,
			Dimensions: d,
			Debounce:   s.opts.Debounce,
		}, renderer, s.store, s.logger)
	}

	s.handle = h
	s.viewer = viewer.NewViewer(pages, s.opts.ZoomBounds, s.logger)
	s.info = &DocumentInfo{
		Source:     name,
		Bytes:      len(data),
		PageCount:  count,
		Dimensions: dims,
		Metadata:   meta,
		OpenedAt:   time.Now(),
	}
	s.logger.Info("Document opened", "source", name, "pages", count, "bytes", len(data), "elapsed", time.Since(start))
	return s.info, nil
}

func (s *DocumentService) acquire(ctx context.Context, src DocumentSource) ([]byte, string, error) {
	if len(src.Data) > 0 {
		if err := s.checkSize(int64(len(src.Data))); err != nil {
			return nil, "", err
		}
		return src.Data, "upload", nil
	}
	if src.Location == "" {
		return nil, "", &domain.ValidationError{Field: "location", Message: "document bytes or location required"}
	}
	for _, f := range s.fetchers {
		if !f.Supports(src.Location) {
			continue
		}
		data, err := f.Fetch(ctx, src.Location)
		if err != nil {
			return nil, "", fetchError(src.Location, err)
		}
		if err := s.checkSize(int64(len(data))); err != nil {
			return nil, "", err
		}
		return data, src.Location, nil
	}
	return nil, "", &domain.ValidationError{Field: "location", Message: "no fetcher for " + src.Location}
}

// fetchError reports an upstream failure as a network error. Size limits,
// bad locations and cancellation keep their own meaning.
func fetchError(location string, err error) error {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) || errors.Is(err, domain.ErrFileTooLarge) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("fetch %s: %w", location, err)
	}
	appErr := apperrors.NewNetworkError("failed to fetch document", err)
	appErr.Details = location
	return appErr
}

func (s *DocumentService) checkSize(n int64) error {
	if s.opts.MaxFileSize > 0 && n > s.opts.MaxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrFileTooLarge, n, s.opts.MaxFileSize)
	}
	return nil
}

// Viewer returns the viewer of the open document.
func (s *DocumentService) Viewer() (*viewer.Viewer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewer == nil {
		return nil, domain.ErrNoDocument
	}
	return s.viewer, nil
}

// Info describes the open document.
func (s *DocumentService) Info() (*DocumentInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info == nil {
		return nil, domain.ErrNoDocument
	}
	return s.info, nil
}

// Close tears down the viewer and releases the document in the engine.
func (s *DocumentService) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewer == nil {
		return domain.ErrNoDocument
	}
	s.closeLocked(ctx)
	return nil
}

func (s *DocumentService) closeLocked(ctx context.Context) {
	if s.viewer != nil {
		s.viewer.Close()
		s.viewer = nil
	}
	if s.handle != 0 {
		s.release(ctx, s.handle)
		s.handle = 0
	}
	s.info = nil
}

func (s *DocumentService) release(ctx context.Context, h engine.Handle) {
	err := s.engine.Release(ctx, h)
	if err != nil && !errors.Is(err, domain.ErrNoDocument) && !errors.Is(err, domain.ErrChannelTerminated) {
		s.logger.Warn("Failed to release document", "handle", h, "error", err)
	}
}
