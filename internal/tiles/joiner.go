package tiles

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Join waits for every tile of the batch. It returns only when all of them
// succeeded, or with the first failure. Tiles still in flight after a
// failure keep running in the engine; their results are dropped.
func Join(ctx context.Context, b *Batch) (*RawSession, error) {
	raw := &RawSession{
		Page:  b.Page,
		Scale: b.Scale,
		Tiles: make([]RawTile, len(b.futures)),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range b.futures {
		g.Go(func() error {
			data, err := f.Await(gctx)
			if err != nil {
				return fmt.Errorf("tile %d of %d (%s): %w", i+1, len(b.futures), b.Grid.Boxes[i], err)
			}
			raw.Tiles[i] = RawTile{Box: b.Grid.Boxes[i], Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return raw, nil
}
