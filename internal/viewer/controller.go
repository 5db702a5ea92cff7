package viewer

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"pdf-tile-renderer/internal/domain"
	"pdf-tile-renderer/internal/engine"
	"pdf-tile-renderer/internal/resource"
	"pdf-tile-renderer/internal/tiles"
	applog "pdf-tile-renderer/pkg/logger"
)

// DefaultDebounce is the quiet period before a zoom level is rendered.
const DefaultDebounce = 300 * time.Millisecond

// SessionRenderer submits, joins and materialises tile sessions.
type SessionRenderer interface {
	Submit(ctx context.Context, h engine.Handle, page int, dims domain.Dimensions, scale float64) (*tiles.Batch, error)
	Materialize(ctx context.Context, raw *tiles.RawSession) (*domain.RenderSession, error)
}

// PageConfig describes the page a controller drives.
type PageConfig struct {
	Page        int
	Handle      engine.Handle
	Dimensions  domain.Dimensions
	Debounce    time.Duration
	InitialZoom float64
}

// PageResources counts the blob handles held for the displayed render and
// for the placeholder.
type PageResources struct {
	Hires resource.Stats `json:"hires"`
	Base  resource.Stats `json:"base"`
}

// Stats counts render sessions by outcome.
type Stats struct {
	Started   int64 `json:"started"`
	Published int64 `json:"published"`
	Discarded int64 `json:"discarded"`
	Failed    int64 `json:"failed"`
}

type zoomEvent struct{ zoom float64 }

type settleEvent struct {
	zoom float64
	seq  uint64
}

type resultEvent struct {
	gen  uint64
	zoom float64
	raw  *tiles.RawSession
	err  error
}

type baseEvent struct {
	raw *tiles.RawSession
	err error
}

// PageController runs the zoom state machine of one page. Every transition
// happens on its event loop goroutine; nothing else touches the loop state.
type PageController struct {
	cfg      PageConfig
	renderer SessionRenderer
	logger   domain.Logger

	hires *resource.Tracker
	base  *resource.Tracker

	ctx       context.Context
	cancel    context.CancelFunc
	events    chan any
	quit      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	debouncer *Debouncer[float64]

	// loop state
	immediate     float64
	displayed     *domain.Generation
	baseSession   *domain.RenderSession
	nextGen       uint64
	lastPublished uint64
	inflight      map[uint64]float64

	started   atomic.Int64
	published atomic.Int64
	discarded atomic.Int64
	failed    atomic.Int64

	Dimensions    *Value[domain.Dimensions]
	Zoom          *Value[float64]
	DebouncedZoom *Value[float64]
	ScaleDown     *Value[float64]
	Displayed     *Value[*domain.Generation]
	Visible       *Value[*domain.RenderSession]
	LastError     *Value[error]
}

// NewPageController creates a controller. Call Start to run it.
func NewPageController(cfg PageConfig, renderer SessionRenderer, store domain.BlobStore, logger domain.Logger) *PageController {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.InitialZoom <= 0 {
		cfg.InitialZoom = 1
	}
	logger = applog.With(logger, "page", cfg.Page)
	ctx, cancel := context.WithCancel(context.Background())
	c := &PageController{
		cfg:       cfg,
		renderer:  renderer,
		logger:    logger,
		hires:     resource.NewTracker(store, logger),
		base:      resource.NewTracker(store, logger),
		ctx:       ctx,
		cancel:    cancel,
		events:    make(chan any, 64),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		immediate: cfg.InitialZoom,
		inflight:  make(map[uint64]float64),

		Dimensions:    NewValue(cfg.Dimensions),
		Zoom:          NewValue(cfg.InitialZoom),
		DebouncedZoom: NewValue(cfg.InitialZoom),
		ScaleDown:     NewValue(1.0),
		Displayed:     NewValue[*domain.Generation](nil),
		Visible:       NewValue[*domain.RenderSession](nil),
		LastError:     NewValue[error](nil),
	}
	c.debouncer = NewDebouncer(cfg.Debounce, func(z float64, seq uint64) {
		c.send(settleEvent{zoom: z, seq: seq})
	})
	return c
}

// Page is the page index driven by the controller.
func (c *PageController) Page() int {
	return c.cfg.Page
}

// Start launches the event loop and the scale-1 placeholder render. If the
// initial zoom is above 1 it is scheduled like any other zoom change.
func (c *PageController) Start() {
	c.startOnce.Do(func() {
		go c.loop()
		go c.renderBase()
		if c.cfg.InitialZoom != 1 {
			c.debouncer.Trigger(c.cfg.InitialZoom)
		}
	})
}

// SetZoom feeds an immediate zoom change into the state machine.
func (c *PageController) SetZoom(zoom float64) {
	c.send(zoomEvent{zoom: zoom})
}

// Close tears the controller down and revokes every resource it owns.
// It is safe to call more than once.
func (c *PageController) Close() {
	c.stopOnce.Do(func() {
		c.debouncer.Stop()
		close(c.quit)
		c.cancel()
	})
	c.startOnce.Do(func() { close(c.done) })
	<-c.done
}

// Stats reports session counts.
func (c *PageController) Stats() Stats {
	return Stats{
		Started:   c.started.Load(),
		Published: c.published.Load(),
		Discarded: c.discarded.Load(),
		Failed:    c.failed.Load(),
	}
}

// Resources reports how many handles the controller currently owns.
func (c *PageController) Resources() PageResources {
	return PageResources{Hires: c.hires.Stats(), Base: c.base.Stats()}
}

func (c *PageController) send(ev any) {
	select {
	case c.events <- ev:
	case <-c.quit:
	}
}

func (c *PageController) loop() {
	defer close(c.done)
	defer c.teardown()

	for {
		select {
		case <-c.quit:
			return
		case ev := <-c.events:
			switch ev := ev.(type) {
			case zoomEvent:
				c.onZoom(ev.zoom)
			case settleEvent:
				c.onSettle(ev)
			case resultEvent:
				c.onResult(ev)
			case baseEvent:
				c.onBase(ev)
			}
		}
	}
}

// onZoom handles the unthrottled zoom signal. A displayed render that still
// covers the zoom level is kept and scaled down; otherwise it is dropped and
// the placeholder shows until a new render lands.
func (c *PageController) onZoom(zoom float64) {
	if zoom == c.immediate {
		return
	}
	c.immediate = zoom
	c.Zoom.Set(zoom)

	if d := c.displayed; d != nil {
		if zoom <= d.Zoom {
			c.ScaleDown.Set(scaleDown(zoom, d.Zoom))
		} else {
			c.clearDisplayed()
		}
	}
	c.debouncer.Trigger(zoom)
}

// onSettle handles the debounced zoom signal. A delivery overtaken by a
// newer zoom change while queued is dropped.
func (c *PageController) onSettle(ev settleEvent) {
	if !c.debouncer.Current(ev.seq) {
		c.logger.Debug("Dropping stale settled zoom", "zoom", ev.zoom)
		return
	}
	c.DebouncedZoom.Set(ev.zoom)
	c.settle(ev.zoom)
}

// settle starts a render for zoom unless the display or a session in
// flight already covers it.
func (c *PageController) settle(zoom float64) {
	if zoom == 1 {
		return
	}
	if d := c.displayed; d != nil && d.Zoom >= zoom {
		return
	}
	for _, z := range c.inflight {
		if z >= zoom {
			c.logger.Debug("Render already in flight", "zoom", zoom, "inflight", z)
			return
		}
	}

	c.nextGen++
	gen := c.nextGen
	c.inflight[gen] = zoom
	c.started.Add(1)
	go c.renderSession(gen, zoom)
}

func (c *PageController) onResult(ev resultEvent) {
	delete(c.inflight, ev.gen)

	if ev.err != nil {
		c.failed.Add(1)
		c.logger.Error("Render session failed", ev.err, "zoom", ev.zoom, "generation", ev.gen)
		c.LastError.Set(ev.err)
		c.resettle(ev.zoom)
		return
	}

	if !c.accepts(ev.gen, ev.zoom) {
		c.discarded.Add(1)
		c.logger.Debug("Discarding superseded render", "zoom", ev.zoom, "generation", ev.gen, "immediate", c.immediate)
		c.resettle(ev.zoom)
		return
	}

	session, err := c.renderer.Materialize(c.ctx, ev.raw)
	if err != nil {
		c.failed.Add(1)
		c.logger.Error("Failed to materialise render session", err, "generation", ev.gen)
		c.LastError.Set(err)
		c.resettle(ev.zoom)
		return
	}

	gen := &domain.Generation{Number: ev.gen, Zoom: ev.zoom, Session: session}
	c.displayed = gen
	c.lastPublished = ev.gen
	c.Displayed.Set(gen)
	c.Visible.Set(session)
	c.ScaleDown.Set(scaleDown(c.immediate, gen.Zoom))
	c.LastError.Set(nil)
	c.published.Add(1)

	// previous generations are revoked only after the new one is visible
	c.hires.Adopt(ev.gen, session.ResourceURLs())
	c.logger.Info("Render session published", "zoom", ev.zoom, "generation", ev.gen, "tiles", len(session.Tiles))
}

// resettle runs the settled zoom again after a session at finished ended
// without being shown. A settle is skipped while a larger render is in
// flight, so when that render fails or is dropped the settled zoom would
// otherwise never be rendered.
func (c *PageController) resettle(finished float64) {
	settled := c.DebouncedZoom.Get()
	if finished <= settled || settled != c.immediate {
		return
	}
	c.logger.Debug("Rendering settled zoom after uncovered session", "zoom", settled, "finished", finished)
	c.settle(settled)
}

// accepts reports whether a finished render may replace the display. Older
// generations never replace newer ones, a render must beat what is shown,
// and it must still cover the current zoom level.
func (c *PageController) accepts(gen uint64, zoom float64) bool {
	if gen <= c.lastPublished {
		return false
	}
	if c.displayed != nil && zoom <= c.displayed.Zoom {
		return false
	}
	return zoom >= c.immediate
}

func (c *PageController) onBase(ev baseEvent) {
	if ev.err != nil {
		c.failed.Add(1)
		c.logger.Error("Placeholder render failed", ev.err)
		c.LastError.Set(ev.err)
		return
	}
	session, err := c.renderer.Materialize(c.ctx, ev.raw)
	if err != nil {
		c.failed.Add(1)
		c.logger.Error("Failed to materialise placeholder", err)
		c.LastError.Set(err)
		return
	}
	c.baseSession = session
	if c.displayed == nil {
		c.Visible.Set(session)
	}
	c.base.Adopt(1, session.ResourceURLs())
}

func (c *PageController) clearDisplayed() {
	old := c.displayed
	c.displayed = nil
	c.Displayed.Set(nil)
	c.Visible.Set(c.baseSession)
	c.ScaleDown.Set(1)
	c.hires.Release(old.Number)
	c.logger.Debug("Displayed render invalidated", "zoom", old.Zoom, "generation", old.Number)
}

func (c *PageController) teardown() {
	c.displayed = nil
	c.baseSession = nil
	c.Displayed.Set(nil)
	c.Visible.Set(nil)
	hires := c.hires.ReleaseAll()
	base := c.base.ReleaseAll()
	c.logger.Debug("Page controller closed", "revoked", hires+base)
}

func (c *PageController) renderSession(gen uint64, zoom float64) {
	start := time.Now()
	raw, err := c.run(zoom)
	if err == nil {
		c.logger.Debug("Render session joined", "zoom", zoom, "generation", gen, "tiles", len(raw.Tiles), "elapsed", time.Since(start))
	}
	c.send(resultEvent{gen: gen, zoom: zoom, raw: raw, err: err})
}

func (c *PageController) renderBase() {
	raw, err := c.run(1)
	c.send(baseEvent{raw: raw, err: err})
}

func (c *PageController) run(scale float64) (*tiles.RawSession, error) {
	batch, err := c.renderer.Submit(c.ctx, c.cfg.Handle, c.cfg.Page, c.cfg.Dimensions, scale)
	if err != nil {
		return nil, err
	}
	return tiles.Join(c.ctx, batch)
}

func scaleDown(zoom, rendered float64) float64 {
	if rendered <= 0 {
		return 1
	}
	return math.Min(zoom/rendered, 1)
}
