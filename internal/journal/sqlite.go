package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/a2sensor/denormalizer/internal/model"
)

// Cycle is one recorded refresh outcome.
type Cycle struct {
	ID        string
	StartedAt time.Time
	Attempted int
	Refreshed int
	Snapshot  model.Snapshot
}

type Journal interface {
	Record(ctx context.Context, cycle *Cycle) error
	Last(ctx context.Context) (*Cycle, error)
	Cleanup(ctx context.Context, maxAge time.Duration) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

type SQLiteJournal struct {
	log *slog.Logger
	db  *sql.DB
}

func NewSQLiteJournal(log *slog.Logger, dbPath string) (*SQLiteJournal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	j := &SQLiteJournal{
		log: log,
		db:  db,
	}

	if err := j.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return j, nil
}

func (j *SQLiteJournal) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS cycles (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			attempted INTEGER NOT NULL,
			refreshed INTEGER NOT NULL,
			snapshot_json TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_cycles_started_at ON cycles(started_at);
	`
	_, err := j.db.Exec(query)
	return err
}

func (j *SQLiteJournal) Record(ctx context.Context, cycle *Cycle) error {
	snapshotJSON, err := cycle.Snapshot.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO cycles (id, started_at, attempted, refreshed, snapshot_json)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = j.db.ExecContext(ctx, query,
		cycle.ID,
		cycle.StartedAt.UTC().Format(time.RFC3339),
		cycle.Attempted,
		cycle.Refreshed,
		string(snapshotJSON),
	)

	if err != nil {
		return fmt.Errorf("failed to record cycle: %w", err)
	}

	j.log.Debug("cycle recorded", slog.String("cycle_id", cycle.ID))
	return nil
}

// Last returns the most recent recorded cycle, or nil when the journal is
// empty.
func (j *SQLiteJournal) Last(ctx context.Context) (*Cycle, error) {
	query := `
		SELECT id, started_at, attempted, refreshed, snapshot_json
		FROM cycles
		ORDER BY started_at DESC
		LIMIT 1
	`

	var (
		id, startedAtStr, snapshotJSON string
		attempted, refreshed           int
	)

	err := j.db.QueryRowContext(ctx, query).Scan(&id, &startedAtStr, &attempted, &refreshed, &snapshotJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last cycle: %w", err)
	}

	startedAt, err := time.Parse(time.RFC3339, startedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}

	snapshot, err := model.SnapshotFromJSON([]byte(snapshotJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &Cycle{
		ID:        id,
		StartedAt: startedAt,
		Attempted: attempted,
		Refreshed: refreshed,
		Snapshot:  snapshot,
	}, nil
}

func (j *SQLiteJournal) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge).Format(time.RFC3339)

	result, err := j.db.ExecContext(ctx, "DELETE FROM cycles WHERE started_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup old cycles: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		j.log.Info("cleaned up old journal entries", slog.Int64("deleted", deleted))
	}

	return nil
}

func (j *SQLiteJournal) Count(ctx context.Context) (int64, error) {
	var count int64
	err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cycles").Scan(&count)
	return count, err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
