package knnadmin

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"modernc.org/sqlite/vtab"

	"github.com/viant/sqlite-kdtree/index/backend"
	"github.com/viant/sqlite-kdtree/knn"
)

// Module provides administrative operations via a virtual table.
// Usage:
//
//	CREATE VIRTUAL TABLE knn_admin USING knn_admin(op, index=kd);
//	SELECT op FROM knn_admin WHERE op MATCH 'main._knn_pts';     -- rebuild every dataset
//	SELECT op FROM knn_admin WHERE op MATCH 'main._knn_pts|ds1'; -- rebuild one dataset
//
// Returns a single row with op='reindexed:<points>' on success.
type Module struct {
	db     *sql.DB
	logger *zap.Logger
}

type Table struct {
	db     *sql.DB
	logger *zap.Logger
	kind   backend.Kind
	opts   backend.Options
}

type Cursor struct {
	table *Table
	rows  []string
	pos   int
}

// Option configures the module.
type Option func(*Module)

// WithLogger sets the module logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Module) { m.logger = logger }
}

func Register(db *sql.DB, opts ...Option) error {
	mod := &Module{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(mod)
	}
	if err := vtab.RegisterModule(db, "knn_admin", mod); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
	}
	return nil
}

func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

func (m *Module) connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("knn_admin: need at least 3 args")
	}
	// Single TEXT column `op` reporting results.
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(op)", args[2])); err != nil {
		return nil, err
	}
	t := &Table{db: m.db, logger: m.logger, kind: backend.KindKD}
	for _, raw := range args[3:] {
		key, val, ok := strings.Cut(strings.TrimSpace(raw), "=")
		if !ok || strings.TrimSpace(key) != "index" {
			continue
		}
		kind, err := backend.ParseKind(strings.Trim(strings.TrimSpace(val), `'"`))
		if err != nil {
			return nil, fmt.Errorf("knn_admin: %w", err)
		}
		t.kind = kind
	}
	return t, nil
}

func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		if c.Column == 0 && c.Op == vtab.OpMATCH {
			c.ArgIndex = 0
			c.Omit = true
			info.IdxNum = 1
			break
		}
	}
	return nil
}

func (t *Table) Open() (vtab.Cursor, error) {
	return &Cursor{table: t}, nil
}

func (t *Table) Disconnect() error {
	return nil
}

func (t *Table) Destroy() error {
	return nil
}

func (c *Cursor) Filter(idxNum int, _ string, vals []vtab.Value) error {
	c.rows = nil
	c.pos = 0
	if idxNum != 1 || len(vals) == 0 || vals[0] == nil {
		return nil
	}
	target, ok := vals[0].(string)
	if !ok {
		return fmt.Errorf("knn_admin: MATCH expects '<shadow>[|<dataset>]' as TEXT")
	}
	shadow, datasetID, _ := strings.Cut(strings.TrimSpace(target), "|")
	n, err := c.table.reindex(context.Background(), shadow, datasetID)
	if err != nil {
		return err
	}
	c.rows = []string{fmt.Sprintf("reindexed:%d", n)}
	return nil
}

func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("knn_admin: Column out of range")
	}
	if col == 0 {
		return c.rows[c.pos], nil
	}
	return nil, nil
}

func (c *Cursor) Rowid() (int64, error) {
	return int64(c.pos + 1), nil
}

func (c *Cursor) Close() error {
	c.rows = nil
	c.pos = 0
	return nil
}

// reindex rebuilds, persists and uncaches the index of one dataset, or of
// every dataset of shadow when datasetID is empty. It returns the number of
// indexed points.
func (t *Table) reindex(ctx context.Context, shadow, datasetID string) (int, error) {
	if shadow == "" {
		return 0, fmt.Errorf("knn_admin: shadow table name is required")
	}
	if err := knn.EnsureStorage(ctx, t.db); err != nil {
		return 0, err
	}
	datasets := []string{datasetID}
	if datasetID == "" {
		var err error
		if datasets, err = listDatasets(ctx, t.db, shadow); err != nil {
			return 0, err
		}
	}
	total := 0
	for _, ds := range datasets {
		started := time.Now()
		ids, points, err := knn.LoadPoints(ctx, t.db, shadow, ds)
		if err != nil {
			return total, err
		}
		idx, err := backend.Build(t.kind, t.opts, ids, points)
		if err != nil {
			return total, err
		}
		if err := knn.SaveIndex(ctx, t.db, shadow, ds, t.kind, idx); err != nil {
			return total, err
		}
		knn.InvalidateCache(shadow, ds)
		t.logger.Info("reindexed",
			zap.String("shadow", shadow),
			zap.String("dataset", ds),
			zap.Int("points", len(ids)),
			zap.Duration("elapsed", time.Since(started)))
		total += len(ids)
	}
	return total, nil
}

func listDatasets(ctx context.Context, db *sql.DB, shadow string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT DISTINCT dataset_id FROM %s ORDER BY dataset_id", shadow))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var ds string
		if err := rows.Scan(&ds); err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}
