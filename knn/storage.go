package knn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/viant/sqlite-kdtree/dataset"
	idxapi "github.com/viant/sqlite-kdtree/index"
	"github.com/viant/sqlite-kdtree/index/backend"
)

const (
	// StorageTable persists serialized indices per shadow table and dataset.
	StorageTable = "kdtree_storage"
	// LockTable serializes index builds across processes.
	LockTable = "kdtree_storage_locks"

	shadowPrefix = "_knn_"
)

const (
	lockRetryDelay = 50 * time.Millisecond
	lockStaleAfter = 2 * time.Minute
)

var lockOwnerID = "knn:" + uuid.NewString()

// ShadowTableName returns the unqualified shadow table of a knn virtual table.
func ShadowTableName(virtualTable string) string { return shadowPrefix + virtualTable }

// EnsureStorage creates the storage and lock tables.
func EnsureStorage(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("knn: db is nil")
	}
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+StorageTable+` (
    shadow_table_name TEXT NOT NULL,
    dataset_id        TEXT NOT NULL DEFAULT '',
    kind              TEXT NOT NULL,
    "index"           BLOB,
    PRIMARY KEY (shadow_table_name, dataset_id)
)`)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+LockTable+` (
    shadow_table_name TEXT NOT NULL,
    dataset_id        TEXT NOT NULL DEFAULT '',
    owner             TEXT NOT NULL,
    locked_at         INTEGER NOT NULL,
    PRIMARY KEY (shadow_table_name, dataset_id)
)`)
	return err
}

// EnsureShadow creates a shadow point table and the triggers that drop its
// persisted indices on every write.
func EnsureShadow(ctx context.Context, db *sql.DB, shadow string) error {
	if db == nil {
		return fmt.Errorf("knn: db is nil")
	}
	if err := EnsureStorage(ctx, db); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, dataset.TableDDL(shadow)); err != nil {
		return err
	}
	trigBase := sanitizeName("trg_knn_" + shadow)
	shadowLit := quoteLiteral(shadow)
	forRow := func(ref string) string {
		return `DELETE FROM ` + StorageTable + ` WHERE shadow_table_name = ` + shadowLit + ` AND dataset_id = ` + ref + `.dataset_id; ` +
			`SELECT knn_invalidate(` + shadowLit + `, ` + ref + `.dataset_id);`
	}
	triggers := []string{
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_ins AFTER INSERT ON %s BEGIN %s END;`, trigBase, shadow, forRow("NEW")),
		// Updates may move a point between datasets, so both sides are invalidated.
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_upd AFTER UPDATE ON %s BEGIN %s %s END;`, trigBase, shadow, forRow("NEW"), forRow("OLD")),
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_del AFTER DELETE ON %s BEGIN %s END;`, trigBase, shadow, forRow("OLD")),
	}
	for _, stmt := range triggers {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadPoints reads the ids and coordinates of a dataset from a shadow table.
func LoadPoints(ctx context.Context, db *sql.DB, shadow, datasetID string) ([]string, [][]float64, error) {
	q := fmt.Sprintf("SELECT id, coords FROM %s WHERE dataset_id = ? AND coords IS NOT NULL ORDER BY rowid", shadow)
	rows, err := db.QueryContext(ctx, q, datasetID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var ids []string
	var points [][]float64
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, nil, err
		}
		if len(blob) == 0 {
			continue
		}
		p, err := dataset.DecodePoint(blob)
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		points = append(points, p)
	}
	return ids, points, rows.Err()
}

// SaveIndex persists idx for a shadow table and dataset.
func SaveIndex(ctx context.Context, db *sql.DB, shadow, datasetID string, kind backend.Kind, idx idxapi.Index) error {
	data, err := idx.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT OR REPLACE INTO `+StorageTable+`(shadow_table_name, dataset_id, kind, "index") VALUES(?, ?, ?, ?)`, shadow, datasetID, string(kind), data)
	return err
}

// LoadIndex restores a persisted index; ok is false when none is stored or
// the stored blob cannot be decoded.
func LoadIndex(ctx context.Context, db *sql.DB, shadow, datasetID string, opts backend.Options) (idxapi.Index, bool, error) {
	var kind string
	var blob []byte
	err := db.QueryRowContext(ctx, `SELECT kind, "index" FROM `+StorageTable+` WHERE shadow_table_name = ? AND dataset_id = ?`, shadow, datasetID).Scan(&kind, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(blob) == 0 {
		return nil, false, nil
	}
	k, err := backend.ParseKind(kind)
	if err != nil {
		return nil, false, nil
	}
	idx, err := backend.Restore(k, opts, blob)
	if err != nil {
		return nil, false, nil
	}
	return idx, true, nil
}

// acquireBuildLock takes the cross-process build lock for a dataset. A lock
// older than lockStaleAfter is taken over.
func acquireBuildLock(ctx context.Context, db *sql.DB, shadow, datasetID string) (func(), error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		owner, err := tryLock(ctx, db, shadow, datasetID)
		if err != nil {
			return nil, err
		}
		if owner == lockOwnerID {
			return func() {
				_, _ = db.ExecContext(context.Background(), `DELETE FROM `+LockTable+` WHERE shadow_table_name = ? AND dataset_id = ? AND owner = ?`, shadow, datasetID, lockOwnerID)
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
}

// tryLock returns the current lock owner after attempting to take the lock.
func tryLock(ctx context.Context, db *sql.DB, shadow, datasetID string) (string, error) {
	now := time.Now().Unix()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO `+LockTable+`(shadow_table_name, dataset_id, owner, locked_at) VALUES(?, ?, ?, ?)`, shadow, datasetID, lockOwnerID, now); err != nil {
		return "", err
	}
	var owner string
	var lockedAt int64
	if err := tx.QueryRowContext(ctx, `SELECT owner, locked_at FROM `+LockTable+` WHERE shadow_table_name = ? AND dataset_id = ?`, shadow, datasetID).Scan(&owner, &lockedAt); err != nil {
		return "", err
	}
	if owner != lockOwnerID && lockedAt <= time.Now().Add(-lockStaleAfter).Unix() {
		res, err := tx.ExecContext(ctx, `UPDATE `+LockTable+` SET owner = ?, locked_at = ? WHERE shadow_table_name = ? AND dataset_id = ? AND locked_at = ?`, lockOwnerID, now, shadow, datasetID, lockedAt)
		if err != nil {
			return "", err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			owner = lockOwnerID
		}
	}
	return owner, tx.Commit()
}

// ensureIndex returns the dataset index from the shared cache, the storage
// table, or a fresh build (persisted afterwards), in that order.
func (t *Table) ensureIndex(ctx context.Context, datasetID string) (idxapi.Index, error) {
	if strings.TrimSpace(datasetID) == "" {
		return nil, fmt.Errorf("knn: dataset_id is required")
	}
	if err := EnsureShadow(ctx, t.db, t.shadow); err != nil {
		return nil, err
	}

	slot := shared.slot(cacheKey(t.cachedDbPath(ctx), t.tableName, datasetID))
	idx, owner := slot.claim()
	if !owner {
		return idx, nil
	}
	defer slot.release()

	if idx, ok, err := LoadIndex(ctx, t.db, t.shadow, datasetID, t.opts); err != nil {
		return nil, err
	} else if ok {
		t.logger.Debug("index loaded", zap.String("shadow", t.shadow), zap.String("dataset", datasetID))
		slot.store(idx)
		return idx, nil
	}

	unlock, err := acquireBuildLock(ctx, t.db, t.shadow, datasetID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Another process may have persisted the index while we waited for the lock.
	if idx, ok, err := LoadIndex(ctx, t.db, t.shadow, datasetID, t.opts); err != nil {
		return nil, err
	} else if ok {
		slot.store(idx)
		return idx, nil
	}

	ids, points, err := LoadPoints(ctx, t.db, t.shadow, datasetID)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	built, err := backend.Build(t.kind, t.opts, ids, points)
	if err != nil {
		return nil, err
	}
	t.logger.Info("index built",
		zap.String("shadow", t.shadow),
		zap.String("dataset", datasetID),
		zap.String("kind", string(t.kind)),
		zap.Int("points", len(ids)),
		zap.Duration("elapsed", time.Since(started)))
	if len(ids) > 0 {
		if err := SaveIndex(ctx, t.db, t.shadow, datasetID, t.kind, built); err != nil {
			t.logger.Warn("index not persisted", zap.String("shadow", t.shadow), zap.Error(err))
		}
	}
	slot.store(built)
	return built, nil
}

func resolveDbPath(ctx context.Context, db *sql.DB, dbName string) (string, error) {
	if db == nil {
		return "", fmt.Errorf("knn: db is nil")
	}
	rows, err := db.QueryContext(ctx, `SELECT name, file FROM pragma_database_list`)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	want := dbName
	if want == "" {
		want = "main"
	}
	for rows.Next() {
		var name, file string
		if err := rows.Scan(&name, &file); err != nil {
			return "", err
		}
		if name != want {
			continue
		}
		if file == "" {
			return name, nil
		}
		return file, nil
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return want, nil
}

func (t *Table) cachedDbPath(ctx context.Context) string {
	t.dbPathOnce.Do(func() {
		path, err := resolveDbPath(ctx, t.db, t.dbName)
		if err != nil {
			t.logger.Warn("db path not resolved", zap.Error(err))
			path = t.dbName
			if path == "" {
				path = "main"
			}
		}
		t.dbPath = path
	})
	return t.dbPath
}

// sanitizeName converts a qualified name into a safe identifier for triggers.
func sanitizeName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(name)
}

// quoteLiteral returns SQL string literal with single quotes escaped.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func tableNameFromShadow(shadow string) string {
	if i := strings.Index(shadow, "."+shadowPrefix); i >= 0 {
		return shadow[i+1+len(shadowPrefix):]
	}
	if strings.HasPrefix(shadow, shadowPrefix) {
		return strings.TrimPrefix(shadow, shadowPrefix)
	}
	return ""
}
