package visual

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/sqlite-kdtree/kdtree"
)

func sixPointIndex(t *testing.T) *kdtree.Index {
	t.Helper()
	store, err := kdtree.NewStore([][]float64{{2, 3}, {5, 4}, {9, 6}, {4, 7}, {8, 1}, {7, 2}})
	require.NoError(t, err)
	return kdtree.Build(store)
}

func TestSegments(t *testing.T) {
	ix := sixPointIndex(t)
	// Reversed bounds are normalized.
	got, err := Segments(ix, Region{X: Range{10, 0}, Y: Range{0, 10}})
	require.NoError(t, err)

	region := func(x0, x1, y0, y1 float64) Region { return Region{X: Range{x0, x1}, Y: Range{y0, y1}} }
	want := []Segment{
		{Index: 5, Depth: 0, Split: 0, Point: [2]float64{7, 2}, From: [2]float64{7, 0}, To: [2]float64{7, 10}, Region: region(0, 10, 0, 10)},
		{Index: 1, Depth: 1, Split: 1, Point: [2]float64{5, 4}, From: [2]float64{0, 4}, To: [2]float64{7, 4}, Region: region(0, 7, 0, 10)},
		{Index: 0, Depth: 2, Split: 0, Point: [2]float64{2, 3}, From: [2]float64{2, 0}, To: [2]float64{2, 4}, Region: region(0, 7, 0, 4)},
		{Index: 3, Depth: 2, Split: 0, Point: [2]float64{4, 7}, From: [2]float64{4, 4}, To: [2]float64{4, 10}, Region: region(0, 7, 4, 10)},
		{Index: 2, Depth: 1, Split: 1, Point: [2]float64{9, 6}, From: [2]float64{7, 6}, To: [2]float64{10, 6}, Region: region(7, 10, 0, 10)},
		{Index: 4, Depth: 2, Split: 0, Point: [2]float64{8, 1}, From: [2]float64{8, 0}, To: [2]float64{8, 6}, Region: region(7, 10, 0, 6)},
	}
	assert.Equal(t, want, got)
}

func TestSegments_WithinRegion(t *testing.T) {
	store, err := kdtree.NewStore([][]float64{{1, 9}, {3, 3}, {6, 2}, {8, 8}, {2, 5}, {7, 4}, {5, 5}, {4, 1}})
	require.NoError(t, err)
	ix := kdtree.Build(store)
	region := Region{X: Range{0, 10}, Y: Range{0, 10}}
	segments, err := Segments(ix, region)
	require.NoError(t, err)
	require.Len(t, segments, ix.Len())
	for _, s := range segments {
		for _, p := range [][2]float64{s.From, s.To} {
			assert.GreaterOrEqual(t, p[0], region.X[0])
			assert.LessOrEqual(t, p[0], region.X[1])
			assert.GreaterOrEqual(t, p[1], region.Y[0])
			assert.LessOrEqual(t, p[1], region.Y[1])
		}
		assert.Equal(t, s.Point[s.Split], s.From[s.Split])
		assert.Equal(t, s.Point[s.Split], s.To[s.Split])
		assert.GreaterOrEqual(t, s.Point[0], s.Region.X[0])
		assert.LessOrEqual(t, s.Point[0], s.Region.X[1])
		assert.GreaterOrEqual(t, s.Point[1], s.Region.Y[0])
		assert.LessOrEqual(t, s.Point[1], s.Region.Y[1])
		if s.Depth == 0 {
			assert.Equal(t, region, s.Region)
		}
	}
}

func TestSegments_Errors(t *testing.T) {
	store, err := kdtree.NewStore([][]float64{{1, 2, 3}})
	require.NoError(t, err)
	_, err = Segments(kdtree.Build(store), Region{})
	assert.ErrorIs(t, err, ErrNot2D)

	empty, err := kdtree.NewStore(nil)
	require.NoError(t, err)
	segments, err := Segments(kdtree.Build(empty), Region{})
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestWriteScript(t *testing.T) {
	ix := sixPointIndex(t)
	var buf bytes.Buffer
	require.NoError(t, WriteScript(&buf, ix, Region{X: Range{0, 10}, Y: Range{0, 10}}))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2+3*ix.Len())
	assert.Equal(t, "figure; hold on; axis equal;", lines[0])
	assert.Equal(t, "hold off;", lines[len(lines)-1])
	assert.Equal(t, "scatter(7.000000,2.000000,'ro');", lines[1])
	assert.Equal(t, "text(12.000000,2.000000,'5_0');", lines[2])
	assert.Equal(t, "line([7.000000,7.000000],[0.000000,10.000000],'Color',[0.000000, 0.3,1.000000]);", lines[3])

	script, err := Script(ix, Region{X: Range{0, 10}, Y: Range{0, 10}})
	require.NoError(t, err)
	assert.Equal(t, buf.String(), script)
	assert.Equal(t, ix.Len(), strings.Count(script, "scatter("))
	assert.Equal(t, ix.Len(), strings.Count(script, "line(["))
}
