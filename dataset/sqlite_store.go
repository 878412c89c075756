package dataset

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithTable stores points in table instead of DefaultTable.
func WithTable(table string) Option {
	return func(s *SQLiteStore) { s.table = table }
}

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *SQLiteStore) { s.logger = logger }
}

// SQLiteStore implements Store over a SQLite point table.
type SQLiteStore struct {
	db     *sql.DB
	table  string
	logger *zap.Logger
}

// NewSQLiteStore creates a SQLite-backed Store and ensures its table exists.
func NewSQLiteStore(db *sql.DB, opts ...Option) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("dataset: db is nil")
	}
	s := &SQLiteStore{db: db, table: DefaultTable, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if err := EnsureSchema(db, s.table); err != nil {
		return nil, err
	}
	return s, nil
}

// Table returns the point table name.
func (s *SQLiteStore) Table() string { return s.table }

// NewDatasetID returns a fresh random dataset identifier.
func NewDatasetID() string { return uuid.NewString() }

// Add inserts or replaces points in one transaction. Points without an ID get a
// generated UUID. All points must share the dimension of the first one.
func (s *SQLiteStore) Add(ctx context.Context, datasetID string, points []Point) ([]string, error) {
	if datasetID == "" {
		return nil, fmt.Errorf("dataset: datasetID is required")
	}
	if len(points) == 0 {
		return nil, nil
	}
	dims := len(points[0].Coords)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT OR REPLACE INTO %s(dataset_id, id, coords) VALUES(?, ?, ?)`, s.table))
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]string, 0, len(points))
	for _, p := range points {
		if len(p.Coords) != dims {
			return nil, fmt.Errorf("dataset: point %q has %d coords, want %d", p.ID, len(p.Coords), dims)
		}
		id := p.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, datasetID, id, EncodePoint(p.Coords)); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.logger.Debug("points added", zap.String("dataset", datasetID), zap.Int("count", len(ids)))
	return ids, nil
}

// Load returns the points of a dataset ordered by rowid.
func (s *SQLiteStore) Load(ctx context.Context, datasetID string) ([]Point, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, coords FROM %s WHERE dataset_id = ? AND coords IS NOT NULL ORDER BY rowid`, s.table), datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Point
	for rows.Next() {
		var p Point
		var blob []byte
		if err := rows.Scan(&p.ID, &blob); err != nil {
			return nil, err
		}
		if p.Coords, err = DecodePoint(blob); err != nil {
			return nil, err
		}
		if len(p.Coords) == 0 {
			continue
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Remove deletes points by ID.
func (s *SQLiteStore) Remove(ctx context.Context, datasetID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE dataset_id = ? AND id = ?`, s.table)
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("dataset: Remove called with empty id")
		}
		if _, err := s.db.ExecContext(ctx, stmt, datasetID, id); err != nil {
			return err
		}
	}
	s.logger.Debug("points removed", zap.String("dataset", datasetID), zap.Int("count", len(ids)))
	return nil
}

// Datasets lists the dataset IDs present in the table.
func (s *SQLiteStore) Datasets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT DISTINCT dataset_id FROM %s ORDER BY dataset_id`, s.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

var _ Store = (*SQLiteStore)(nil)
