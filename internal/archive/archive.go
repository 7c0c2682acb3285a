package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pskrmon/pskrmon/pkg/types"
)

// DefaultLimit is used by Recent when limit is not positive.
const DefaultLimit = 60

// timeLayout is fixed width so taken_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("archive: store not initialized")

// Entry is one archived snapshot.
type Entry struct {
	ID             int64                  `json:"id"`
	TakenAt        time.Time              `json:"taken_at"`
	Mode           types.MonitorMode      `json:"mode"`
	TotalSpots     int                    `json:"total_spots"`
	SpotsPerMinute float64                `json:"spots_per_minute"`
	FeedHealthy    bool                   `json:"feed_healthy"`
	Snapshot       types.WindowedSnapshot `json:"snapshot"`
}

// Store wraps the SQLite database connection and schema lifecycle.
type Store struct {
	db *sql.DB
}

// Open initializes the database connection, creating directories as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("archive: create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("archive: open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// InitSchema ensures the snapshots table exists.
func (s *Store) InitSchema(ctx context.Context) error {
	if s.db == nil {
		return ErrClosed
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			taken_at TEXT NOT NULL,
			mode TEXT NOT NULL,
			total_spots INTEGER NOT NULL,
			spots_per_minute REAL NOT NULL,
			feed_healthy INTEGER NOT NULL,
			body TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_taken_at ON snapshots(taken_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("archive: init schema: %w", err)
		}
	}
	return nil
}

// Record persists snap.
func (s *Store) Record(ctx context.Context, snap types.WindowedSnapshot) error {
	if s.db == nil {
		return ErrClosed
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("archive: encode snapshot: %w", err)
	}
	takenAt := snap.GeneratedAt
	if takenAt.IsZero() {
		takenAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (taken_at, mode, total_spots, spots_per_minute, feed_healthy, body) VALUES (?, ?, ?, ?, ?, ?);`,
		takenAt.UTC().Format(timeLayout),
		string(snap.Mode),
		snap.TotalSpots,
		snap.SpotsPerMinute,
		snap.Health.FeedHealthy,
		string(body),
	)
	if err != nil {
		return fmt.Errorf("archive: insert snapshot: %w", err)
	}
	return nil
}

// Recent returns up to limit snapshots, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, taken_at, mode, total_spots, spots_per_minute, feed_healthy, body
		 FROM snapshots ORDER BY taken_at DESC, id DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: query recent: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e          Entry
			takenAtStr string
			mode       string
			body       string
		)
		if err := rows.Scan(&e.ID, &takenAtStr, &mode, &e.TotalSpots, &e.SpotsPerMinute, &e.FeedHealthy, &body); err != nil {
			return nil, fmt.Errorf("archive: scan snapshot: %w", err)
		}
		e.TakenAt, err = time.Parse(timeLayout, takenAtStr)
		if err != nil {
			return nil, fmt.Errorf("archive: parse taken_at %q: %w", takenAtStr, err)
		}
		e.Mode = types.MonitorMode(mode)
		if err := json.Unmarshal([]byte(body), &e.Snapshot); err != nil {
			return nil, fmt.Errorf("archive: decode snapshot %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: iterate snapshots: %w", err)
	}
	return entries, nil
}

// Prune deletes snapshots taken before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE taken_at < ?;`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("archive: prune: %w", err)
	}
	return res.RowsAffected()
}
