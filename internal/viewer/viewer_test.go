package viewer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pdf-tile-renderer/internal/domain"
	"pdf-tile-renderer/internal/engine"
	"pdf-tile-renderer/internal/resource"
	"pdf-tile-renderer/internal/tiles"
	"pdf-tile-renderer/pkg/logger"
)

func newTestViewer(t *testing.T, pages int) (*Viewer, *resource.MemoryStore) {
	t.Helper()
	log := logger.NewNopLogger()
	store := resource.NewMemoryStore("")
	r := tiles.NewRenderer(newScriptedEngine(), store, engine.DefaultRenderOptions(), log)

	controllers := make([]*PageController, pages)
	for i := range controllers {
		controllers[i] = NewPageController(PageConfig{
			Page:       i,
			Handle:     1,
			Dimensions: domain.Dimensions{Width: 600, Height: 300},
			Debounce:   testDebounce,
		}, r, store, log)
	}
	v := NewViewer(controllers, DefaultZoomBounds(), log)
	t.Cleanup(v.Close)
	return v, store
}

func TestViewer_ZoomStepsAndBounds(t *testing.T) {
	v, _ := newTestViewer(t, 1)

	require.Equal(t, 1.125, v.ZoomIn())
	require.Equal(t, 1.0, v.ZoomOut())
	require.Equal(t, 10.0, v.SetZoom(42))
	require.Equal(t, 10.0, v.ZoomIn())
	require.Equal(t, 0.125, v.SetZoom(-1))
	require.Equal(t, 0.125, v.ZoomOut())
}

func TestViewer_FansZoomOutToPages(t *testing.T) {
	v, store := newTestViewer(t, 2)
	require.Equal(t, 2, v.PageCount())

	v.SetZoom(3)
	for i := 0; i < 2; i++ {
		p, err := v.Page(i)
		require.NoError(t, err)
		require.Eventually(t, func() bool {
			g := p.Displayed.Get()
			return g != nil && g.Zoom == 3
		}, 2*time.Second, 2*time.Millisecond)
	}

	state, err := v.State(1)
	require.NoError(t, err)
	require.Equal(t, 1, state.Page)
	require.Equal(t, 3.0, state.Zoom)
	require.Equal(t, 3.0, state.Session.Scale)
	require.Len(t, state.Session.Tiles, 9)

	require.Eventually(t, func() bool {
		state, err = v.State(1)
		return err == nil && state.Resources.Hires.Handles == 9 && state.Resources.Base.Handles > 0
	}, 2*time.Second, 2*time.Millisecond)
	require.Equal(t, 1, state.Resources.Hires.Generations)

	_, err = v.State(2)
	require.ErrorIs(t, err, domain.ErrInvalidPageIndex)

	v.Close()
	require.Zero(t, store.Len())
}

func TestViewer_ConcurrentZoomStepsAreNotLost(t *testing.T) {
	v, _ := newTestViewer(t, 2)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.ZoomIn()
		}()
	}
	wg.Wait()

	require.Equal(t, 6.0, v.Zoom.Get())
	for i := 0; i < 2; i++ {
		p, err := v.Page(i)
		require.NoError(t, err)
		require.Eventually(t, func() bool { return p.Zoom.Get() == 6 }, 2*time.Second, 2*time.Millisecond)
	}
}
