// Package store persists cluster utilization history in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"slurmboard/internal/logging"
	"slurmboard/internal/slurm"
)

// Schema versions:
// v1: samples table with per-partition utilization
const CurrentSchemaVersion = 1

// Resources recorded per partition.
const (
	ResourceCPU = "cpu"
	ResourceMem = "mem"
	ResourceGPU = "gpu"
)

// ValidResources lists the recorded resource names.
var ValidResources = []string{ResourceCPU, ResourceMem, ResourceGPU}

const schema = `
CREATE TABLE IF NOT EXISTS samples (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	snapshot_id  TEXT NOT NULL,
	collected_at INTEGER NOT NULL,
	partition    TEXT NOT NULL,
	resource     TEXT NOT NULL,
	utilized     REAL NOT NULL,
	allocated    REAL NOT NULL,
	blocked      REAL NOT NULL,
	unavailable  REAL NOT NULL,
	capacity     REAL NOT NULL,
	jobs         INTEGER NOT NULL,
	users        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_samples_partition_time ON samples(partition, collected_at);
CREATE INDEX IF NOT EXISTS idx_samples_time ON samples(collected_at);
`

// Sample is the utilization of one resource of one partition at one time.
type Sample struct {
	SnapshotID  string
	CollectedAt time.Time
	Partition   string
	Resource    string
	slurm.Utilization
	Jobs  int
	Users int
}

// Filter selects samples in Query. Zero fields match everything.
type Filter struct {
	Partition string
	Resource  string
	Since     time.Time
	Limit     int
}

// History stores utilization samples.
type History struct {
	db     *sql.DB
	dbPath string
}

// OpenHistory opens (creating if needed) the history database at path.
func OpenHistory(path string) (*History, error) {
	timer := logging.StartTimer(logging.CategoryStore, "OpenHistory")
	defer timer.Stop()

	logging.Store("Opening history at path: %s", path)

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	h := &History{db: db, dbPath: path}
	if err := h.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

func (h *History) initialize() error {
	var version int
	if err := h.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("history database %s has schema v%d, newer than supported v%d", h.dbPath, version, CurrentSchemaVersion)
	}
	if _, err := h.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if version < CurrentSchemaVersion {
		if _, err := h.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", CurrentSchemaVersion)); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
		logging.Store("History schema migrated v%d -> v%d", version, CurrentSchemaVersion)
	}
	return nil
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

// Path returns the database location.
func (h *History) Path() string {
	return h.dbPath
}

// Record writes one sample per partition and resource under a new snapshot
// ID, which it returns. memPerCPU overrides node defaults when positive.
func (h *History) Record(ctx context.Context, cluster *slurm.Cluster, memPerCPU int) (string, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Record")
	defer timer.Stop()

	snapshotID := uuid.NewString()
	collectedAt := cluster.CollectedAt
	if collectedAt.IsZero() {
		collectedAt = time.Now()
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples
		(snapshot_id, collected_at, partition, resource, utilized, allocated, blocked, unavailable, capacity, jobs, users)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	rows := 0
	for _, p := range cluster.Partitions {
		u := p.Utilization(memPerCPU)
		for _, r := range []struct {
			name string
			util slurm.Utilization
		}{
			{ResourceCPU, u.CPU},
			{ResourceMem, u.Mem},
			{ResourceGPU, u.GPU},
		} {
			if _, err := stmt.ExecContext(ctx, snapshotID, collectedAt.UnixMilli(), p.Name.Label, r.name,
				r.util.Utilized, r.util.Allocated, r.util.Blocked, r.util.Unavailable, r.util.Capacity,
				len(p.Jobs), p.Users()); err != nil {
				return "", fmt.Errorf("failed to insert sample for %s/%s: %w", p.Name.Label, r.name, err)
			}
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit samples: %w", err)
	}
	logging.StoreDebug("Recorded snapshot %s (%d samples)", snapshotID, rows)
	return snapshotID, nil
}

// Query returns matching samples, newest first.
func (h *History) Query(ctx context.Context, f Filter) ([]Sample, error) {
	var where []string
	var args []interface{}
	if f.Partition != "" {
		where = append(where, "partition = ?")
		args = append(args, f.Partition)
	}
	if f.Resource != "" {
		where = append(where, "resource = ?")
		args = append(args, f.Resource)
	}
	if !f.Since.IsZero() {
		where = append(where, "collected_at >= ?")
		args = append(args, f.Since.UnixMilli())
	}

	query := `SELECT snapshot_id, collected_at, partition, resource,
		utilized, allocated, blocked, unavailable, capacity, jobs, users FROM samples`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY collected_at DESC, id ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		var millis int64
		if err := rows.Scan(&s.SnapshotID, &millis, &s.Partition, &s.Resource,
			&s.Utilized, &s.Allocated, &s.Blocked, &s.Unavailable, &s.Capacity, &s.Jobs, &s.Users); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		s.CollectedAt = time.UnixMilli(millis)
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// Prune deletes samples collected before olderThan and returns how many
// rows were removed.
func (h *History) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := h.db.ExecContext(ctx, "DELETE FROM samples WHERE collected_at < ?", olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune samples: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.Store("Pruned %d samples older than %s", n, olderThan.Format(time.RFC3339))
	}
	return n, nil
}
