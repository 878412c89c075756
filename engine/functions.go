package engine

import (
	"database/sql"
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"

	sqlite "modernc.org/sqlite"
)

// RegisterPointFunctions registers kd_l2 and kd_dims with the driver so they
// are available on new connections opened after this call.
// Note: existing open connections will not see new functions.
func RegisterPointFunctions(_ *sql.DB) error {
	// Idempotent registration; driver rejects duplicates but we ignore errors silently here.
	_ = sqlite.RegisterDeterministicScalarFunction("kd_l2", 2, kdL2Impl)
	_ = sqlite.RegisterDeterministicScalarFunction("kd_dims", 1, kdDimsImpl)
	return nil
}

func asPoint(arg driver.Value) ([]float64, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return decodePoint(v)
	default:
		return nil, fmt.Errorf("kd: unsupported argument type %T for point; want BLOB", arg)
	}
}

func kdL2Impl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("kd_l2: expected 2 arguments, got %d", len(args))
	}
	a, err := asPoint(args[0])
	if err != nil {
		return nil, err
	}
	b, err := asPoint(args[1])
	if err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, nil
	}
	return l2(a, b)
}

func kdDimsImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("kd_dims: expected 1 argument, got %d", len(args))
	}
	p, err := asPoint(args[0])
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	return int64(len(p)), nil
}

// Local minimal helpers to avoid import cycles in tests.
func decodePoint(b []byte) ([]float64, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("kd: invalid point blob length %d", len(b))
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v, nil
}

func l2(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("kd: L2 dim mismatch %d vs %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}
