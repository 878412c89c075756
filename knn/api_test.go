package knn

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/sqlite-kdtree/dataset"
	"github.com/viant/sqlite-kdtree/index/backend"
	"github.com/viant/sqlite-kdtree/index/bruteforce"
)

func TestDecodeMatchArg(t *testing.T) {
	blob := dataset.EncodePoint([]float64{1.5, -2})
	tests := []struct {
		name    string
		arg     any
		want    []float64
		wantErr bool
	}{
		{name: "blob", arg: blob, want: []float64{1.5, -2}},
		{name: "json", arg: "[1.5, -2]", want: []float64{1.5, -2}},
		{name: "csv", arg: " 1.5 , -2 ", want: []float64{1.5, -2}},
		{name: "single csv", arg: "3", want: []float64{3}},
		{name: "long number", arg: "12345678901234567890123456789012", want: []float64{12345678901234567890123456789012}},
		{name: "base64 blob", arg: base64.StdEncoding.EncodeToString(blob), want: []float64{1.5, -2}},
		{name: "bad base64", arg: "AAAA$", wantErr: true},
		{name: "empty", arg: "  ", wantErr: true},
		{name: "bad json", arg: "[1,", wantErr: true},
		{name: "bad csv", arg: "1,x", wantErr: true},
		{name: "bad blob", arg: []byte{1, 2, 3}, wantErr: true},
		{name: "unsupported", arg: int64(4), wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeMatchArg(tc.arg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseIndexOptions(t *testing.T) {
	kind, opts, err := parseIndexOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, backend.KindKD, kind)
	assert.Zero(t, opts.CoverBase)

	kind, opts, err = parseIndexOptions([]string{" index = 'cover' ", "cover_base=2"})
	require.NoError(t, err)
	assert.Equal(t, backend.KindCover, kind)
	assert.Equal(t, float32(2), opts.CoverBase)

	_, _, err = parseIndexOptions([]string{"index=octree"})
	assert.Error(t, err)
}

func TestShadowNames(t *testing.T) {
	assert.Equal(t, "_knn_pts", ShadowTableName("pts"))
	assert.Equal(t, "pts", tableNameFromShadow("main._knn_pts"))
	assert.Equal(t, "pts", tableNameFromShadow("_knn_pts"))
	assert.Equal(t, "", tableNameFromShadow("points"))
	assert.Equal(t, "trg_knn_main__knn_pts", sanitizeName("trg_knn_main._knn_pts"))
	assert.Equal(t, "'it''s'", quoteLiteral("it's"))
}

func TestInvalidateCache(t *testing.T) {
	idx := &bruteforce.Index{}
	require.NoError(t, idx.Build([]string{"a"}, [][]float64{{1}}))

	for _, ds := range []string{"x", "y"} {
		slot := shared.slot(cacheKey("/tmp/cache.sqlite", "cache_tbl", ds))
		got, owner := slot.claim()
		require.True(t, owner)
		require.Nil(t, got)
		slot.store(idx)
		slot.release()
	}

	got, owner := shared.slot(cacheKey("/tmp/cache.sqlite", "cache_tbl", "x")).claim()
	assert.False(t, owner)
	assert.Same(t, idx, got)

	assert.Equal(t, 1, InvalidateCache("main._knn_cache_tbl", "x"))
	assert.Nil(t, shared.slot(cacheKey("/tmp/cache.sqlite", "cache_tbl", "x")).load())
	assert.NotNil(t, shared.slot(cacheKey("/tmp/cache.sqlite", "cache_tbl", "y")).load())

	assert.Equal(t, 2, InvalidateCache("main._knn_cache_tbl", ""))
	assert.Nil(t, shared.slot(cacheKey("/tmp/cache.sqlite", "cache_tbl", "y")).load())
}
