package bench

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/viant/sqlite-kdtree/dataset"
	idxapi "github.com/viant/sqlite-kdtree/index"
	"github.com/viant/sqlite-kdtree/index/backend"
)

func TestTimer(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	clock := time.Unix(100, 0)
	timer := &Timer{logger: zap.New(core), now: func() time.Time { return clock }}
	timer.Start()
	clock = clock.Add(250 * time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, timer.Elapsed())
	assert.Equal(t, 250*time.Millisecond, timer.Stop("kd build"))

	entries := logs.FilterMessage("kd build").All()
	require.Len(t, entries, 1)
	assert.Equal(t, 250*time.Millisecond, entries[0].ContextMap()["elapsed"])

	timer.Start()
	assert.Zero(t, timer.Elapsed())
}

func TestCompare(t *testing.T) {
	got := make([]float64, 5000)
	want := make([]float64, 5000)
	for i := range got {
		got[i] = float64(i)
		want[i] = float64(i) + 1e-9
	}
	got[3] += 1
	want[4500] = math.NaN()
	got[4999] -= 1e-3

	for _, workers := range []int{0, 1, 4, 64} {
		mismatches, err := Compare(context.Background(), got, want, 1e-6, workers)
		require.NoError(t, err)
		assert.Equal(t, []uint32{3, 4500, 4999}, mismatches.ToArray(), "workers=%d", workers)
	}

	_, err := Compare(context.Background(), got, want[:10], 1e-6, 2)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Compare(ctx, got, want, 1e-6, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueryAll(t *testing.T) {
	rng := dataset.NewRand(5)
	points := dataset.Generate(rng, 1500, 3, 100)
	queries := dataset.GenerateQueries(rng, points, 5000, 3, 100)
	kd, err := backend.Build(backend.KindKD, backend.Options{}, dataset.IDs(len(points)), points)
	require.NoError(t, err)

	sequential, err := queryAll(context.Background(), kd, queries, 1)
	require.NoError(t, err)
	require.Len(t, sequential, len(queries))
	for _, workers := range []int{0, 3, 8} {
		parallel, err := queryAll(context.Background(), kd, queries, workers)
		require.NoError(t, err)
		assert.Equal(t, sequential, parallel, "workers=%d", workers)
	}

	_, err = queryAll(context.Background(), kd, [][]float64{{1, 2}}, 2)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = queryAll(ctx, kd, queries, 4)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_AgreesWithOracles(t *testing.T) {
	rng := dataset.NewRand(1)
	points := dataset.Generate(rng, 2000, 2, 1000)
	queries := dataset.GenerateQueries(rng, points, 2000, 2, 1000)
	ids := dataset.IDs(len(points))

	for _, tc := range []struct {
		oracle    backend.Kind
		tolerance float64
	}{
		{oracle: backend.KindGonum, tolerance: 1e-9},
		{oracle: backend.KindBrute, tolerance: 1e-9},
		{oracle: backend.KindCover, tolerance: 1e-3},
	} {
		t.Run(string(tc.oracle), func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			report, err := Run(context.Background(), ids, points, queries, Options{
				Oracle:    tc.oracle,
				Tolerance: tc.tolerance,
				Workers:   4,
				Logger:    zap.New(core),
			})
			require.NoError(t, err)
			assert.Equal(t, len(points), report.Points)
			assert.Equal(t, len(queries), report.Queries)
			assert.Equal(t, tc.oracle, report.Oracle)
			assert.True(t, report.Mismatches.IsEmpty(), "mismatches: %v", report.Details)
			assert.Empty(t, report.Details)
			assert.Len(t, logs.FilterMessage("kd build").All(), 1)
			assert.Len(t, logs.FilterMessage("kd query").All(), 1)
			assert.Len(t, logs.FilterMessage(string(tc.oracle)+" query").All(), 1)
			assert.Len(t, report.Fields(), 8)
		})
	}
}

func TestRun_Empty(t *testing.T) {
	_, err := Run(context.Background(), nil, nil, [][]float64{{1, 2}}, Options{})
	assert.ErrorIs(t, err, idxapi.ErrEmpty)
}
