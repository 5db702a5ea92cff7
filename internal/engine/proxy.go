package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"pdf-tile-renderer/internal/domain"
)

// Options configures a Proxy.
type Options struct {
	QueueSize int
	Logger    domain.Logger
}

// Proxy is the client side of the engine channel. All calls may be issued
// concurrently; the engine executes them in the order it receives them.
type Proxy struct {
	worker *worker
	logger domain.Logger

	reqs  chan request
	resps chan response
	quit  chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	ready     chan struct{}
	nextID    atomic.Uint64

	mu         sync.Mutex
	pending    map[uint64]func(response)
	terminated bool
	cause      error
}

// NewProxy wraps backend. The engine is not started until Initialize.
func NewProxy(backend Backend, opts Options) *Proxy {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	return &Proxy{
		worker:  newWorker(backend, opts.Logger),
		logger:  opts.Logger,
		reqs:    make(chan request, opts.QueueSize),
		resps:   make(chan response, opts.QueueSize),
		quit:    make(chan struct{}),
		ready:   make(chan struct{}),
		pending: make(map[uint64]func(response)),
	}
}

// Initialize starts the engine and returns a channel that is closed exactly
// once, when the engine has finished loading. Repeated calls return the same
// channel.
func (p *Proxy) Initialize() <-chan struct{} {
	p.startOnce.Do(func() {
		go p.worker.serve(p.reqs, p.resps, p.quit)
		go p.dispatch()
	})
	return p.ready
}

// Ready reports whether the readiness signal has fired.
func (p *Proxy) Ready() bool {
	select {
	case <-p.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the engine is ready, terminated, or ctx is done.
func (p *Proxy) WaitReady(ctx context.Context) error {
	select {
	case <-p.Initialize():
		return nil
	case <-p.quit:
		return p.terminatedErr()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Terminate hard-stops the engine. Every outstanding and future call is
// rejected with ErrChannelTerminated.
func (p *Proxy) Terminate() {
	p.terminate(nil)
}

func (p *Proxy) terminate(cause error) {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.terminated = true
		p.cause = cause
		pending := p.pending
		p.pending = make(map[uint64]func(response))
		p.mu.Unlock()

		close(p.quit)

		err := p.terminatedErr()
		for id, settle := range pending {
			settle(response{ID: id, Err: err})
		}
		if p.logger != nil {
			p.logger.Info("Engine terminated", "outstanding", len(pending))
		}
	})
}

func (p *Proxy) terminatedErr() error {
	p.mu.Lock()
	cause := p.cause
	p.mu.Unlock()
	if cause != nil {
		return fmt.Errorf("%w: %v", domain.ErrChannelTerminated, cause)
	}
	return domain.ErrChannelTerminated
}

// dispatch routes responses to their pending futures by request id.
func (p *Proxy) dispatch() {
	for {
		select {
		case <-p.quit:
			return
		case resp := <-p.resps:
			if resp.ID == readyID {
				if resp.Err != nil {
					p.terminate(resp.Err)
					return
				}
				close(p.ready)
				if p.logger != nil {
					p.logger.Info("Engine ready")
				}
				continue
			}
			p.mu.Lock()
			settle, ok := p.pending[resp.ID]
			delete(p.pending, resp.ID)
			p.mu.Unlock()
			if ok {
				settle(resp)
			} else if p.logger != nil {
				p.logger.Warn("Dropping engine response with unknown id", "id", resp.ID)
			}
		}
	}
}

// submit registers a future for req and queues it to the engine.
func submit[T any](ctx context.Context, p *Proxy, req request) *Future[T] {
	if !p.Ready() {
		select {
		case <-p.quit:
			return failedFuture[T](p.terminatedErr())
		default:
		}
		return failedFuture[T](domain.ErrEngineNotReady)
	}

	f := newFuture[T]()
	req.ID = p.nextID.Add(1)

	p.mu.Lock()
	if p.terminated {
		p.mu.Unlock()
		return failedFuture[T](p.terminatedErr())
	}
	p.pending[req.ID] = func(resp response) {
		if resp.Err != nil {
			f.reject(resp.Err)
			return
		}
		v, ok := resp.Value.(T)
		if !ok {
			f.reject(fmt.Errorf("engine: unexpected %s response type %T", req.Op, resp.Value))
			return
		}
		f.resolve(v)
	}
	p.mu.Unlock()

	select {
	case p.reqs <- req:
	case <-p.quit:
		// terminate settles everything still pending
	case <-ctx.Done():
		p.mu.Lock()
		_, stillPending := p.pending[req.ID]
		delete(p.pending, req.ID)
		p.mu.Unlock()
		if stillPending {
			f.reject(ctx.Err())
		}
	}
	return f
}

// LoadDocumentAsync opens data in the engine, replacing any open document.
func (p *Proxy) LoadDocumentAsync(ctx context.Context, data []byte) *Future[Handle] {
	return submit[Handle](ctx, p, request{Op: opLoad, Data: data})
}

// LoadDocument opens data in the engine. Malformed input fails with
// ErrDocumentLoadFailure.
func (p *Proxy) LoadDocument(ctx context.Context, data []byte) (Handle, error) {
	return p.LoadDocumentAsync(ctx, data).Await(ctx)
}

func (p *Proxy) CountPagesAsync(ctx context.Context, h Handle) *Future[int] {
	return submit[int](ctx, p, request{Op: opCountPages, Handle: h})
}

// CountPages returns the number of pages in the document.
func (p *Proxy) CountPages(ctx context.Context, h Handle) (int, error) {
	return p.CountPagesAsync(ctx, h).Await(ctx)
}

func (p *Proxy) PageDimensionsAsync(ctx context.Context, h Handle, page int) *Future[domain.Dimensions] {
	return submit[domain.Dimensions](ctx, p, request{Op: opDimensions, Handle: h, Page: page})
}

// PageDimensions returns the page size. Out-of-range indexes fail with
// ErrInvalidPageIndex.
func (p *Proxy) PageDimensions(ctx context.Context, h Handle, page int) (domain.Dimensions, error) {
	return p.PageDimensionsAsync(ctx, h, page).Await(ctx)
}

// RenderRegionAsync queues a raster of box on page at scale.
func (p *Proxy) RenderRegionAsync(ctx context.Context, h Handle, page int, box domain.Box, scale float64, opts RenderOptions) *Future[[]byte] {
	return submit[[]byte](ctx, p, request{
		Op:      opRender,
		Handle:  h,
		Page:    page,
		Box:     box,
		Scale:   scale,
		Options: opts,
	})
}

// RenderRegion returns the encoded image bytes for box on page at scale.
func (p *Proxy) RenderRegion(ctx context.Context, h Handle, page int, box domain.Box, scale float64, opts RenderOptions) ([]byte, error) {
	return p.RenderRegionAsync(ctx, h, page, box, scale, opts).Await(ctx)
}

func (p *Proxy) MetadataAsync(ctx context.Context, h Handle) *Future[domain.DocumentMetadata] {
	return submit[domain.DocumentMetadata](ctx, p, request{Op: opMetadata, Handle: h})
}

// Metadata returns the information dictionary of the document.
func (p *Proxy) Metadata(ctx context.Context, h Handle) (domain.DocumentMetadata, error) {
	return p.MetadataAsync(ctx, h).Await(ctx)
}

// Release closes the document behind h.
func (p *Proxy) Release(ctx context.Context, h Handle) error {
	_, err := submit[struct{}](ctx, p, request{Op: opRelease, Handle: h}).Await(ctx)
	return err
}
