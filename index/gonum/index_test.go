package gonum

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/sqlite-kdtree/index"
	"github.com/viant/sqlite-kdtree/index/bruteforce"
)

func TestIndex_AgreesWithBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	n := 1500
	ids := make([]string, n)
	pts := make([][]float64, n)
	for j := range pts {
		ids[j] = fmt.Sprintf("id-%d", j)
		pts[j] = []float64{float64(rng.IntN(1000)), float64(rng.IntN(1000)), float64(rng.IntN(1000))}
	}
	oracle := &Index{}
	require.NoError(t, oracle.Build(ids, pts))
	bf := &bruteforce.Index{}
	require.NoError(t, bf.Build(ids, pts))

	for range 200 {
		q := []float64{rng.Float64() * 1000, rng.Float64() * 1000, rng.Float64() * 1000}
		_, got, err := oracle.Nearest(q)
		require.NoError(t, err)
		_, want, err := bf.Nearest(q)
		require.NoError(t, err)
		require.InDelta(t, want, got, 1e-9)
	}
}

func TestIndex_Scenario(t *testing.T) {
	oracle := &Index{}
	require.NoError(t, oracle.Build(
		[]string{"a", "b", "c", "d", "e", "f"},
		[][]float64{{2, 3}, {5, 4}, {9, 6}, {4, 7}, {8, 1}, {7, 2}},
	))
	id, dist, err := oracle.Nearest([]float64{9, 2})
	require.NoError(t, err)
	assert.Equal(t, "e", id)
	assert.InDelta(t, 1.4142135623730951, dist, 1e-12)
}

func TestIndex_EmptyAndRoundTrip(t *testing.T) {
	oracle := &Index{}
	require.NoError(t, oracle.Build(nil, nil))
	_, _, err := oracle.Nearest([]float64{0})
	assert.ErrorIs(t, err, index.ErrEmpty)

	require.NoError(t, oracle.Build([]string{"x", "y"}, [][]float64{{0, 0}, {5, 5}}))
	data, err := oracle.MarshalBinary()
	require.NoError(t, err)
	restored := &Index{}
	require.NoError(t, restored.UnmarshalBinary(data))
	id, dist, err := restored.Nearest([]float64{4, 4})
	require.NoError(t, err)
	assert.Equal(t, "y", id)
	assert.InDelta(t, 1.4142135623730951, dist, 1e-12)
}
