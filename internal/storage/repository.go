// Package storage persists a local mirror of the query cache in SQLite so a
// restarted process can serve cached collections before the first fetch.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Snapshot is one persisted cache entry. Payload holds the JSON encoding of
// the cached value.
type Snapshot struct {
	Key       string
	Kind      string
	Partition string
	Payload   []byte
	UpdatedAt time.Time
}

// MutationRecord is an applied mutation event, kept so redelivered events
// are recognised.
type MutationRecord struct {
	EventID           string
	Kind              string
	Action            string
	EntityID          int
	Partition         string
	PreviousPartition string
	OccurredAt        time.Time
}

type SQLiteRepository struct {
	db      *sql.DB
	now     func() time.Time
	version uint
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now, version: version}, nil
}

// SchemaVersion is the migration version the mirror was opened at.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.version
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveSnapshots replaces the whole mirror with snapshots in one transaction.
func (r *SQLiteRepository) SaveSnapshots(ctx context.Context, snapshots []Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_snapshots`); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cache_snapshots (cache_key, kind, partition, payload, updated_at, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	savedAt := r.now().UnixNano()
	for _, s := range snapshots {
		if _, err := stmt.ExecContext(ctx, s.Key, s.Kind, s.Partition, s.Payload, s.UpdatedAt.UnixNano(), savedAt); err != nil {
			return fmt.Errorf("insert snapshot %s: %w", s.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshots: %w", err)
	}

	slog.DebugContext(ctx, "Cache mirror saved", "entries", len(snapshots))
	return nil
}

// LoadSnapshots returns every persisted entry ordered by key.
func (r *SQLiteRepository) LoadSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cache_key, kind, partition, payload, updated_at
		FROM cache_snapshots
		ORDER BY cache_key`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			s         Snapshot
			updatedAt int64
		)
		if err := rows.Scan(&s.Key, &s.Kind, &s.Partition, &s.Payload, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.UpdatedAt = time.Unix(0, updatedAt)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return out, nil
}

// RecordMutation stores an applied event. It returns false when the event
// was already recorded.
func (r *SQLiteRepository) RecordMutation(ctx context.Context, m MutationRecord) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO mutation_log
			(event_id, kind, action, entity_id, partition, previous_partition, occurred_at, applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.EventID, m.Kind, m.Action, m.EntityID, m.Partition, m.PreviousPartition,
		m.OccurredAt.UnixNano(), r.now().UnixNano())
	if err != nil {
		return false, fmt.Errorf("record mutation %s: %w", m.EventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record mutation %s: %w", m.EventID, err)
	}
	return n == 1, nil
}

// ForgetMutation removes eventID from the log so a redelivery of the event
// is applied again.
func (r *SQLiteRepository) ForgetMutation(ctx context.Context, eventID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM mutation_log WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("forget mutation %s: %w", eventID, err)
	}
	return nil
}

// PruneMutations deletes log entries applied before cutoff.
func (r *SQLiteRepository) PruneMutations(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mutation_log WHERE applied_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune mutation log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune mutation log: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Pruned mutation log", "deleted", n, "cutoff", cutoff.Format(time.RFC3339))
	}
	return n, nil
}
