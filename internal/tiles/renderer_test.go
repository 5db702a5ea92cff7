package tiles

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pdf-tile-renderer/internal/domain"
	"pdf-tile-renderer/internal/engine"
	"pdf-tile-renderer/internal/resource"
	"pdf-tile-renderer/pkg/logger"
)

type call struct {
	box     domain.Box
	resolve func([]byte)
	reject  func(error)
}

// manualEngine hands out futures that the test settles by hand.
type manualEngine struct {
	mu    sync.Mutex
	calls []call
}

func (e *manualEngine) RenderRegionAsync(ctx context.Context, h engine.Handle, page int, box domain.Box, scale float64, opts engine.RenderOptions) *engine.Future[[]byte] {
	f, resolve, reject := engine.NewFuture[[]byte]()
	e.mu.Lock()
	e.calls = append(e.calls, call{box: box, resolve: resolve, reject: reject})
	e.mu.Unlock()
	return f
}

func (e *manualEngine) resolveAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, c := range e.calls {
		c.resolve([]byte(fmt.Sprintf("tile-%d", i)))
	}
}

// failingStore refuses the nth Put.
type failingStore struct {
	*resource.MemoryStore
	failAt int
	puts   int
}

func (s *failingStore) Put(ctx context.Context, contentType string, data []byte) (string, error) {
	s.puts++
	if s.puts == s.failAt {
		return "", errors.New("disk full")
	}
	return s.MemoryStore.Put(ctx, contentType, data)
}

func TestPlace_PreservesEngineArithmetic(t *testing.T) {
	tile := Place("u", domain.Box{250, 500, 500, 250}, 2)
	require.Equal(t, 500.0, tile.Top)
	require.Equal(t, 500.0, tile.Left)
	require.Equal(t, 500.0-250.0*2, tile.Width)
	require.Equal(t, 500.0-250.0*2, tile.Height)
	require.Equal(t, 2.0, tile.Scale)
}

func TestRenderer_SubmitsEveryTileBeforeWaiting(t *testing.T) {
	eng := &manualEngine{}
	r := NewRenderer(eng, resource.NewMemoryStore(""), engine.DefaultRenderOptions(), logger.NewNopLogger())

	batch, err := r.Submit(context.Background(), 1, 0, domain.Dimensions{Width: 600, Height: 300}, 3)
	require.NoError(t, err)
	require.Equal(t, 9, batch.Len())
	require.Len(t, eng.calls, 9)
	for i, c := range eng.calls {
		require.Equal(t, batch.Grid.Boxes[i], c.box)
	}
}

func TestRenderer_SubmitRejectsBadScale(t *testing.T) {
	r := NewRenderer(&manualEngine{}, resource.NewMemoryStore(""), engine.DefaultRenderOptions(), logger.NewNopLogger())
	_, err := r.Submit(context.Background(), 1, 0, domain.Dimensions{Width: 10, Height: 10}, 0)
	require.ErrorIs(t, err, domain.ErrInvalidScale)
}

func TestRenderer_JoinAndMaterialize(t *testing.T) {
	eng := &manualEngine{}
	store := resource.NewMemoryStore("")
	r := NewRenderer(eng, store, engine.DefaultRenderOptions(), logger.NewNopLogger())
	ctx := context.Background()

	batch, err := r.Submit(ctx, 1, 2, domain.Dimensions{Width: 500, Height: 500}, 1)
	require.NoError(t, err)

	// nothing exists until the whole batch is joined and materialised
	require.Zero(t, store.Len())
	eng.resolveAll()

	raw, err := Join(ctx, batch)
	require.NoError(t, err)
	require.Len(t, raw.Tiles, 4)
	require.Zero(t, store.Len())

	session, err := r.Materialize(ctx, raw)
	require.NoError(t, err)
	require.Equal(t, 2, session.Page)
	require.Equal(t, 1.0, session.Scale)
	require.Len(t, session.Tiles, 4)
	require.Equal(t, 4, store.Len())

	require.Equal(t, 250.0, session.Tiles[3].Top)
	require.Equal(t, 250.0, session.Tiles[3].Left)
	blob, err := store.Get(ctx, session.Tiles[3].ResourceURL)
	require.NoError(t, err)
	require.Equal(t, "tile-3", string(blob.Data))
	require.Equal(t, "image/png", blob.ContentType)
}

func TestRenderer_MaterializeRollsBack(t *testing.T) {
	store := &failingStore{MemoryStore: resource.NewMemoryStore(""), failAt: 3}
	r := NewRenderer(&manualEngine{}, store, engine.DefaultRenderOptions(), logger.NewNopLogger())

	raw := &RawSession{Scale: 1, Tiles: []RawTile{
		{Box: domain.Box{0, 1, 1, 0}, Data: []byte("a")},
		{Box: domain.Box{1, 1, 2, 0}, Data: []byte("b")},
		{Box: domain.Box{0, 2, 1, 1}, Data: []byte("c")},
	}}
	_, err := r.Materialize(context.Background(), raw)
	require.Error(t, err)
	require.Zero(t, store.Len())
}

func TestJoin_FirstFailureWins(t *testing.T) {
	eng := &manualEngine{}
	r := NewRenderer(eng, resource.NewMemoryStore(""), engine.DefaultRenderOptions(), logger.NewNopLogger())
	ctx := context.Background()

	batch, err := r.Submit(ctx, 1, 0, domain.Dimensions{Width: 500, Height: 500}, 1)
	require.NoError(t, err)

	eng.calls[0].resolve([]byte("ok"))
	eng.calls[2].reject(fmt.Errorf("%w: boom", domain.ErrRenderFailure))
	// tiles 1 and 3 never settle; the join must not wait for them

	done := make(chan error, 1)
	go func() {
		_, err := Join(ctx, batch)
		done <- err
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, domain.ErrRenderFailure)
		require.Contains(t, err.Error(), "tile 3 of 4")
	case <-time.After(2 * time.Second):
		t.Fatalf("join did not reject after a tile failed")
	}
}

func TestJoin_ContextCancel(t *testing.T) {
	eng := &manualEngine{}
	r := NewRenderer(eng, resource.NewMemoryStore(""), engine.DefaultRenderOptions(), logger.NewNopLogger())

	batch, err := r.Submit(context.Background(), 1, 0, domain.Dimensions{Width: 100, Height: 100}, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = Join(ctx, batch)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
