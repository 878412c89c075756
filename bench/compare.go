package bench

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"
)

// minChunk keeps tiny comparisons on one goroutine.
const minChunk = 1024

// Compare returns the ordinals i where |got[i]-want[i]| > tolerance. Chunks of
// the slices are compared on up to workers goroutines.
func Compare(ctx context.Context, got, want []float64, tolerance float64, workers int) (*roaring.Bitmap, error) {
	if len(got) != len(want) {
		return nil, fmt.Errorf("bench: compare %d results with %d oracle results", len(got), len(want))
	}
	if workers < 1 {
		workers = 1
	}
	chunk := max((len(got)+workers-1)/workers, minChunk)

	var mu sync.Mutex
	result := roaring.New()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < len(got); lo += chunk {
		hi := min(lo+chunk, len(got))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			local := roaring.New()
			for i := lo; i < hi; i++ {
				if !(math.Abs(got[i]-want[i]) <= tolerance) {
					local.Add(uint32(i))
				}
			}
			mu.Lock()
			result.Or(local)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
