package bench

import (
	"context"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	idxapi "github.com/viant/sqlite-kdtree/index"
	"github.com/viant/sqlite-kdtree/index/backend"
)

// DefaultTolerance is the largest distance difference accepted between the
// k-d tree and the oracle.
const DefaultTolerance = 1e-6

// Options configures Run.
type Options struct {
	Oracle        backend.Kind
	OracleOptions backend.Options
	Tolerance     float64
	Workers       int
	Logger        *zap.Logger
}

// Mismatch describes one query the k-d tree and the oracle disagree on.
type Mismatch struct {
	Ordinal uint32
	Query   []float64
	Got     float64
	Want    float64
}

// Report holds the measurements of one Run.
type Report struct {
	Points      int
	Queries     int
	Oracle      backend.Kind
	Build       time.Duration
	Query       time.Duration
	OracleBuild time.Duration
	OracleQuery time.Duration
	Mismatches  *roaring.Bitmap
	Details     []Mismatch
}

// Fields returns the report as log fields.
func (r *Report) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("points", r.Points),
		zap.Int("queries", r.Queries),
		zap.String("oracle", string(r.Oracle)),
		zap.Duration("build", r.Build),
		zap.Duration("query", r.Query),
		zap.Duration("oracleBuild", r.OracleBuild),
		zap.Duration("oracleQuery", r.OracleQuery),
		zap.Uint64("mismatches", r.Mismatches.GetCardinality()),
	}
}

// Run builds the k-d tree and the oracle over points, answers every query with
// both on up to opts.Workers goroutines, and reports timings and the queries
// whose distances differ by more than the tolerance.
func Run(ctx context.Context, ids []string, points, queries [][]float64, opts Options) (*Report, error) {
	if len(points) == 0 {
		return nil, idxapi.ErrEmpty
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Oracle == "" {
		opts.Oracle = backend.KindGonum
	}
	if opts.Tolerance == 0 {
		opts.Tolerance = DefaultTolerance
	}
	report := &Report{Points: len(points), Queries: len(queries), Oracle: opts.Oracle}
	timer := NewTimer(logger)

	kd, err := backend.Build(backend.KindKD, backend.Options{}, ids, points)
	if err != nil {
		return nil, err
	}
	report.Build = timer.Stop("kd build")

	timer.Start()
	got, err := queryAll(ctx, kd, queries, opts.Workers)
	if err != nil {
		return nil, err
	}
	report.Query = timer.Stop("kd query")

	timer.Start()
	oracle, err := backend.Build(opts.Oracle, opts.OracleOptions, ids, points)
	if err != nil {
		return nil, err
	}
	report.OracleBuild = timer.Stop(string(opts.Oracle) + " build")

	timer.Start()
	want, err := queryAll(ctx, oracle, queries, opts.Workers)
	if err != nil {
		return nil, err
	}
	report.OracleQuery = timer.Stop(string(opts.Oracle) + " query")

	timer.Start()
	if report.Mismatches, err = Compare(ctx, got, want, opts.Tolerance, opts.Workers); err != nil {
		return nil, err
	}
	it := report.Mismatches.Iterator()
	for it.HasNext() {
		i := it.Next()
		m := Mismatch{Ordinal: i, Query: queries[i], Got: got[i], Want: want[i]}
		report.Details = append(report.Details, m)
		logger.Warn("query did not match",
			zap.Uint32("query", i+1),
			zap.Float64s("coords", m.Query),
			zap.Float64("got", m.Got),
			zap.Float64("want", m.Want))
	}
	timer.Stop("result check")
	return report, nil
}

// queryAll answers queries on up to workers goroutines; each goroutine fills
// its own chunk of the result.
func queryAll(ctx context.Context, idx idxapi.Index, queries [][]float64, workers int) ([]float64, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([]float64, len(queries))
	chunk := max((len(queries)+workers-1)/workers, minChunk)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < len(queries); lo += chunk {
		hi := min(lo+chunk, len(queries))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if (i-lo)%4096 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				_, d, err := idx.Nearest(queries[i])
				if err != nil {
					return err
				}
				out[i] = d
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
