package backend

import (
	"fmt"
	"strings"

	"github.com/viant/sqlite-kdtree/index"
	"github.com/viant/sqlite-kdtree/index/bruteforce"
	"github.com/viant/sqlite-kdtree/index/cover"
	"github.com/viant/sqlite-kdtree/index/gonum"
	"github.com/viant/sqlite-kdtree/index/kd"
)

// Kind names an index implementation.
type Kind string

const (
	KindKD    Kind = "kd"
	KindBrute Kind = "brute"
	KindGonum Kind = "gonum"
	KindCover Kind = "cover"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindKD, KindBrute, KindGonum, KindCover}

// Options carries per-kind tuning.
type Options struct {
	CoverBase float32
}

// ParseKind resolves a case-insensitive kind name; "" and "auto" map to kd.
func ParseKind(name string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(name))); k {
	case "", "auto":
		return KindKD, nil
	case KindKD, KindBrute, KindGonum, KindCover:
		return k, nil
	case "bruteforce":
		return KindBrute, nil
	default:
		return "", fmt.Errorf("index: unknown kind %q", name)
	}
}

// New returns an empty index of the given kind.
func New(kind Kind, opts Options) (index.Index, error) {
	switch kind {
	case KindKD, "":
		return kd.New(), nil
	case KindBrute:
		return &bruteforce.Index{}, nil
	case KindGonum:
		return &gonum.Index{}, nil
	case KindCover:
		var coverOpts []cover.Option
		if opts.CoverBase > 1 {
			coverOpts = append(coverOpts, cover.WithBase(opts.CoverBase))
		}
		return cover.New(coverOpts...), nil
	default:
		return nil, fmt.Errorf("index: unknown kind %q", kind)
	}
}

// Build creates an index of the given kind over ids and points.
func Build(kind Kind, opts Options, ids []string, points [][]float64) (index.Index, error) {
	idx, err := New(kind, opts)
	if err != nil {
		return nil, err
	}
	if err := idx.Build(ids, points); err != nil {
		return nil, err
	}
	return idx, nil
}

// Restore creates an index of the given kind from a MarshalBinary blob.
func Restore(kind Kind, opts Options, data []byte) (index.Index, error) {
	idx, err := New(kind, opts)
	if err != nil {
		return nil, err
	}
	if err := idx.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return idx, nil
}
