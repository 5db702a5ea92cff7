package engine

import (
	"errors"
	"fmt"

	"pdf-tile-renderer/internal/domain"
)

// Backend is the rasterising capability the worker serialises access to.
// Implementations hold at most one open document.
type Backend interface {
	Init() error
	Open(data []byte) error
	NumPages() (int, error)
	Dimensions(page int) (domain.Dimensions, error)
	RenderRegion(page int, box domain.Box, scale float64, opts RenderOptions) ([]byte, error)
	Metadata() (domain.DocumentMetadata, error)
	Close() error
}

// worker executes requests one at a time against its backend.
type worker struct {
	backend Backend
	logger  domain.Logger

	live   Handle
	nextID Handle
}

func newWorker(backend Backend, logger domain.Logger) *worker {
	return &worker{backend: backend, logger: logger}
}

// serve runs until quit is closed. Readiness is announced on resps once the
// backend has initialised; if that fails the worker returns initErr through
// the same message and stops.
func (w *worker) serve(reqs <-chan request, resps chan<- response, quit <-chan struct{}) {
	defer w.shutdown()

	if err := w.backend.Init(); err != nil {
		w.logger.Error("Engine initialisation failed", err)
		select {
		case resps <- response{ID: readyID, Err: err}:
		case <-quit:
		}
		return
	}

	select {
	case resps <- response{ID: readyID, Value: true}:
	case <-quit:
		return
	}

	for {
		select {
		case <-quit:
			return
		case req := <-reqs:
			resp := w.handle(req)
			select {
			case resps <- resp:
			case <-quit:
				return
			}
		}
	}
}

func (w *worker) handle(req request) (resp response) {
	resp.ID = req.ID
	defer func() {
		if r := recover(); r != nil {
			resp.Value = nil
			resp.Err = fmt.Errorf("%w: engine panic in %s: %v", domain.ErrRenderFailure, req.Op, r)
		}
	}()

	if req.Op != opLoad {
		if err := w.checkHandle(req.Handle); err != nil {
			resp.Err = err
			return resp
		}
	}

	switch req.Op {
	case opLoad:
		resp.Value, resp.Err = w.load(req.Data)
	case opCountPages:
		resp.Value, resp.Err = w.backend.NumPages()
	case opDimensions:
		if err := w.checkPage(req.Page); err != nil {
			resp.Err = err
			return resp
		}
		resp.Value, resp.Err = w.backend.Dimensions(req.Page)
	case opRender:
		resp.Value, resp.Err = w.render(req)
	case opRelease:
		resp.Value, resp.Err = struct{}{}, w.release()
	case opMetadata:
		resp.Value, resp.Err = w.backend.Metadata()
	default:
		resp.Err = fmt.Errorf("engine: unknown operation %d", req.Op)
	}
	return resp
}

func (w *worker) load(data []byte) (Handle, error) {
	if w.live != 0 {
		if err := w.release(); err != nil {
			w.logger.Warn("Failed to release previous document", "error", err)
		}
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty document", domain.ErrDocumentLoadFailure)
	}
	if err := w.backend.Open(data); err != nil {
		if errors.Is(err, domain.ErrDocumentLoadFailure) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrDocumentLoadFailure, err)
	}
	w.nextID++
	w.live = w.nextID
	w.logger.Debug("Document opened in engine", "handle", w.live, "bytes", len(data))
	return w.live, nil
}

func (w *worker) render(req request) ([]byte, error) {
	if err := w.checkPage(req.Page); err != nil {
		return nil, err
	}
	if req.Scale <= 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidScale, req.Scale)
	}
	data, err := w.backend.RenderRegion(req.Page, req.Box, req.Scale, req.Options)
	if err != nil {
		if errors.Is(err, domain.ErrRenderFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: page %d box %s: %v", domain.ErrRenderFailure, req.Page, req.Box, err)
	}
	return data, nil
}

func (w *worker) release() error {
	if w.live == 0 {
		return nil
	}
	w.logger.Debug("Releasing document", "handle", w.live)
	w.live = 0
	return w.backend.Close()
}

func (w *worker) checkHandle(h Handle) error {
	if w.live == 0 || h != w.live {
		return fmt.Errorf("%w: handle %d", domain.ErrNoDocument, h)
	}
	return nil
}

func (w *worker) checkPage(page int) error {
	n, err := w.backend.NumPages()
	if err != nil {
		return err
	}
	if page < 0 || page >= n {
		return fmt.Errorf("%w: %d not in [0, %d)", domain.ErrInvalidPageIndex, page, n)
	}
	return nil
}

func (w *worker) shutdown() {
	if err := w.release(); err != nil {
		w.logger.Warn("Failed to release document on shutdown", "error", err)
	}
}
