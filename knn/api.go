package knn

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	sqlite "modernc.org/sqlite"
	"modernc.org/sqlite/vtab"

	"github.com/viant/sqlite-kdtree/dataset"
	idxapi "github.com/viant/sqlite-kdtree/index"
	"github.com/viant/sqlite-kdtree/index/backend"
)

// Module implements vtab.Module for the knn virtual table. Each table keeps
// its points in a shadow table and answers MATCH with the single nearest
// stored point of a dataset.
type Module struct {
	db     *sql.DB
	logger *zap.Logger
}

// Option configures the module.
type Option func(*Module)

// WithLogger sets the logger used by every table of the module.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Module) { m.logger = logger }
}

// Table represents a single knn virtual table instance.
type Table struct {
	db        *sql.DB
	logger    *zap.Logger
	dbName    string
	tableName string
	shadow    string // qualified shadow table name (e.g. "main._knn_points")

	dbPathOnce sync.Once
	dbPath     string

	kind backend.Kind
	opts backend.Options
}

const (
	idxDatasetScan = iota
	idxDatasetMatch
)

type resultRow struct {
	rowid    int64
	dataset  string
	id       string
	distance float64
}

// Cursor scans results from a knn table.
type Cursor struct {
	table *Table
	rows  []resultRow
	pos   int
}

var registerInvalidateOnce sync.Once

// Register registers the knn virtual table module with the provided *sql.DB.
func Register(db *sql.DB, opts ...Option) error {
	mod := &Module{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(mod)
	}
	if err := vtab.RegisterModule(db, "knn", mod); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
	}
	// knn_invalidate is called by shadow table triggers; registered once for new connections.
	registerInvalidateOnce.Do(func() {
		_ = sqlite.RegisterDeterministicScalarFunction("knn_invalidate", 2, invalidateFunc)
	})
	return nil
}

// invalidateFunc implements SQL scalar knn_invalidate(shadow TEXT, dataset TEXT) -> INT.
func invalidateFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 || args[0] == nil {
		return int64(0), nil
	}
	shadow, err := asString(args[0])
	if err != nil {
		return int64(0), nil
	}
	ds, err := asString(args[1])
	if err != nil {
		return int64(0), nil
	}
	return int64(InvalidateCache(shadow, ds)), nil
}

// Create initializes a knn table instance.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args, "CREATE")
}

// Connect attaches to an existing knn table instance.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args, "CONNECT")
}

// connect declares the schema from args: USING knn([column][, index=kind][, cover_base=f]).
func (m *Module) connect(ctx vtab.Context, args []string, op string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("knn: %s expects at least 3 args, got %d", op, len(args))
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("knn: EnableConstraintSupport failed: %w", err)
	}
	col := "point_id"
	optStart := 3
	if len(args) > 3 {
		if a := strings.TrimSpace(args[3]); a != "" && !strings.Contains(a, "=") {
			col = a
			optStart = 4
		}
	}
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(dataset_id TEXT, %s TEXT, distance REAL HIDDEN)", args[2], col)); err != nil {
		return nil, err
	}
	kind, opts, err := parseIndexOptions(args[optStart:])
	if err != nil {
		return nil, err
	}
	t := &Table{db: m.db, logger: m.logger, dbName: args[1], tableName: args[2], kind: kind, opts: opts}
	t.shadow = t.qualifiedShadow()
	// Shadow and storage tables are created on first use to avoid cross-connection DDL here.
	return t, nil
}

func parseIndexOptions(args []string) (backend.Kind, backend.Options, error) {
	kind := backend.KindKD
	var opts backend.Options
	for _, raw := range args {
		key, val, ok := strings.Cut(strings.TrimSpace(raw), "=")
		if !ok {
			continue
		}
		val = strings.Trim(strings.TrimSpace(val), `'"`)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "index":
			k, err := backend.ParseKind(val)
			if err != nil {
				return "", opts, fmt.Errorf("knn: %w", err)
			}
			kind = k
		case "cover_base":
			if f, err := strconv.ParseFloat(val, 32); err == nil && f > 1 {
				opts.CoverBase = float32(f)
			}
		}
	}
	return kind, opts, nil
}

// qualifiedShadow returns the fully-qualified shadow table name.
func (t *Table) qualifiedShadow() string {
	base := ShadowTableName(t.tableName)
	if strings.TrimSpace(t.dbName) == "" {
		return base
	}
	return t.dbName + "." + base
}

// BestIndex requires dataset_id = ? and optionally pushes down MATCH.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	var datasetConstraint, matchConstraint *vtab.Constraint
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		switch {
		case c.Column == 0 && c.Op == vtab.OpEQ:
			datasetConstraint = c
		case c.Column == 1 && c.Op == vtab.OpMATCH:
			matchConstraint = c
		}
	}
	if datasetConstraint == nil {
		return fmt.Errorf("knn: dataset_id constraint required")
	}
	datasetConstraint.ArgIndex = 0
	datasetConstraint.Omit = true
	info.IdxNum = idxDatasetScan
	if matchConstraint != nil {
		matchConstraint.ArgIndex = 1
		matchConstraint.Omit = true
		info.IdxNum = idxDatasetMatch
	}
	return nil
}

// Open allocates a new cursor.
func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }

// Disconnect cleans up per-connection resources.
func (t *Table) Disconnect() error { return nil }

// Destroy keeps the shadow table; its points outlive the virtual table.
func (t *Table) Destroy() error { return nil }

// Filter computes the result set based on idxNum/vals.
func (c *Cursor) Filter(idxNum int, _ string, vals []vtab.Value) error {
	c.rows, c.pos = nil, 0
	if c.table == nil || c.table.db == nil {
		return nil
	}
	if len(vals) == 0 || vals[0] == nil {
		return fmt.Errorf("knn: dataset_id argument is required")
	}
	datasetID, err := asString(vals[0])
	if err != nil {
		return err
	}
	ctx := context.Background()
	switch idxNum {
	case idxDatasetScan:
		c.rows, err = c.table.scan(ctx, datasetID)
		return err
	case idxDatasetMatch:
		if len(vals) < 2 || vals[1] == nil {
			return fmt.Errorf("knn: MATCH argument is required")
		}
		query, err := decodeMatchArg(vals[1])
		if err != nil {
			return err
		}
		row, ok, err := c.table.nearest(ctx, datasetID, query)
		if err != nil || !ok {
			return err
		}
		c.rows = []resultRow{row}
		return nil
	default:
		return fmt.Errorf("knn: unsupported query plan")
	}
}

func (t *Table) scan(ctx context.Context, datasetID string) ([]resultRow, error) {
	if err := EnsureShadow(ctx, t.db, t.shadow); err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT rowid, id FROM %s WHERE dataset_id = ? ORDER BY rowid", t.shadow)
	rows, err := t.db.QueryContext(ctx, q, datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []resultRow
	for rows.Next() {
		r := resultRow{dataset: datasetID}
		if err := rows.Scan(&r.rowid, &r.id); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// nearest answers a MATCH; ok is false when the dataset holds no points.
func (t *Table) nearest(ctx context.Context, datasetID string, query []float64) (resultRow, bool, error) {
	idx, err := t.ensureIndex(ctx, datasetID)
	if err != nil {
		return resultRow{}, false, err
	}
	id, dist, err := idx.Nearest(query)
	if errors.Is(err, idxapi.ErrEmpty) {
		return resultRow{}, false, nil
	}
	if err != nil {
		return resultRow{}, false, err
	}
	rid, err := t.lookupRow(ctx, datasetID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return resultRow{}, false, nil
	}
	if err != nil {
		return resultRow{}, false, err
	}
	return resultRow{rowid: rid, dataset: datasetID, id: id, distance: dist}, true, nil
}

// lookupRow resolves rowid for a given dataset/id pair.
func (t *Table) lookupRow(ctx context.Context, datasetID, id string) (int64, error) {
	var rid int64
	err := t.db.QueryRowContext(ctx, fmt.Sprintf("SELECT rowid FROM %s WHERE dataset_id = ? AND id = ?", t.shadow), datasetID, id).Scan(&rid)
	return rid, err
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

// Eof reports end-of-rows.
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

// Column returns the value of a column in the current row.
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("knn: Column out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	r := c.rows[c.pos]
	switch col {
	case 0:
		return r.dataset, nil
	case 1:
		return r.id, nil
	case 2:
		return r.distance, nil
	}
	return nil, fmt.Errorf("knn: unsupported column %d", col)
}

// Rowid returns the current rowid.
func (c *Cursor) Rowid() (int64, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return 0, fmt.Errorf("knn: Rowid out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	return c.rows[c.pos].rowid, nil
}

// Close releases resources.
func (c *Cursor) Close() error { c.rows, c.pos = nil, 0; return nil }

// decodeMatchArg accepts an EncodePoint BLOB, or a string holding a JSON array,
// a base64 BLOB or a comma separated list.
func decodeMatchArg(v vtab.Value) ([]float64, error) {
	switch val := v.(type) {
	case []byte:
		return dataset.DecodePoint(val)
	case string:
		return decodeMatchString(val)
	default:
		return nil, fmt.Errorf("knn: expected MATCH arg as BLOB or string, got %T", v)
	}
}

func decodeMatchString(raw string) ([]float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("knn: MATCH string is empty")
	}
	if strings.HasPrefix(s, "[") {
		var coords []float64
		if err := json.Unmarshal([]byte(s), &coords); err != nil {
			return nil, fmt.Errorf("knn: invalid MATCH JSON: %w", err)
		}
		return coords, nil
	}
	coords, csvErr := parseCoordinateList(s)
	if csvErr == nil {
		return coords, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		if coords, err := dataset.DecodePoint(b); err == nil && len(coords) > 0 {
			return coords, nil
		}
	}
	return nil, csvErr
}

// parseCoordinateList reads a comma separated list of numbers.
func parseCoordinateList(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	coords := make([]float64, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("knn: invalid MATCH coordinate %q: %w", p, err)
		}
		coords = append(coords, f)
	}
	if len(coords) == 0 {
		return nil, fmt.Errorf("knn: MATCH string must be a base64 point blob or a JSON/CSV number list")
	}
	return coords, nil
}

func asString(v vtab.Value) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case nil:
		return "", fmt.Errorf("knn: dataset_id is nil")
	default:
		return "", fmt.Errorf("knn: unsupported dataset_id type %T", v)
	}
}
