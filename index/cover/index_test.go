package cover

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
	var _ index.Index = New()
	rng := rand.New(rand.NewPCG(31, 41))
	ids := make([]string, 800)
	pts := make([][]float64, len(ids))
	for j := range pts {
		ids[j] = fmt.Sprint(j)
		pts[j] = []float64{float64(rng.IntN(500)), float64(rng.IntN(500)), float64(rng.IntN(500))}
	}
	idx := New(WithBase(1.5))
	require.NoError(t, idx.Build(ids, pts))
	bf := &bruteforce.Index{}
	require.NoError(t, bf.Build(ids, pts))

	for range 100 {
		q := []float64{float64(rng.IntN(500)), float64(rng.IntN(500)), float64(rng.IntN(500))}
		_, got, err := idx.Nearest(q)
		require.NoError(t, err)
		_, want, err := bf.Nearest(q)
		require.NoError(t, err)
		require.InDelta(t, want, got, 1e-3)
	}
}

func TestIndex_EmptyAndRoundTrip(t *testing.T) {
	idx := New()
	_, _, err := idx.Nearest([]float64{1})
	assert.ErrorIs(t, err, index.ErrEmpty)

	require.NoError(t, idx.Build([]string{"a", "b"}, [][]float64{{1, 1}, {9, 9}}))
	data, err := idx.MarshalBinary()
	require.NoError(t, err)
	restored := New()
	require.NoError(t, restored.UnmarshalBinary(data))
	id, dist, err := restored.Nearest([]float64{8, 9})
	require.NoError(t, err)
	assert.Equal(t, "b", id)
	assert.Equal(t, 1.0, dist)
}
