// Package progress provides SQLite-based persistence for level completions.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
//
// One row is kept per (owner, level). A submission replaces it only when it is
// strictly better: a completion beats an unfinished attempt, and otherwise
// fewer moves win. Equal move counts keep the older row, so on the leaderboard
// ties are broken by the earliest completion.
package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/yassinfayed/sakoban/game/service"
)

// timeLayout is fixed width so text ordering matches time ordering
const timeLayout = "2006-01-02 15:04:05.000000000"

// Store manages the SQLite database connection for progress records.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ service.ProgressStore = (*Store)(nil)

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("progress: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("progress: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("progress: cannot open database: %w", err)
	}
	// SQLite allows one writer; a single connection keeps Submit's
	// read-then-write transaction from racing another one.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("progress: cannot connect to database: %w", err)
	}

	store := &Store{db: db, now: time.Now}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("progress: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS game_progress (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id TEXT NOT NULL,
			level_id INTEGER NOT NULL,
			moves INTEGER NOT NULL,
			is_complete INTEGER NOT NULL DEFAULT 0,
			is_anonymous INTEGER NOT NULL DEFAULT 0,
			display_name TEXT NOT NULL DEFAULT '',
			completed_at TEXT NOT NULL,
			UNIQUE(owner_id, level_id)
		);
		CREATE INDEX IF NOT EXISTS idx_progress_board ON game_progress(is_complete, moves, completed_at);
		CREATE INDEX IF NOT EXISTS idx_progress_level ON game_progress(level_id, is_complete, moves);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Submit stores record when it improves on the owner's existing result for
// the level. It reports whether anything was written.
func (s *Store) Submit(ctx context.Context, record service.ProgressRecord) (bool, error) {
	if record.OwnerID == "" || record.LevelID <= 0 {
		return false, fmt.Errorf("%w: owner and level are required", service.ErrInvalidProgress)
	}
	if record.Moves < 0 {
		return false, fmt.Errorf("%w: moves cannot be negative", service.ErrInvalidProgress)
	}
	if record.CompletedAt.IsZero() {
		record.CompletedAt = s.now()
	}
	completedAt := record.CompletedAt.UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("progress: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingMoves int
	var existingComplete bool
	err = tx.QueryRowContext(ctx,
		"SELECT moves, is_complete FROM game_progress WHERE owner_id = ? AND level_id = ?",
		record.OwnerID, record.LevelID,
	).Scan(&existingMoves, &existingComplete)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO game_progress
			 (owner_id, level_id, moves, is_complete, is_anonymous, display_name, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			record.OwnerID, record.LevelID, record.Moves, record.IsComplete,
			record.IsAnonymous, record.DisplayName, completedAt,
		)
		if err != nil {
			return false, fmt.Errorf("progress: cannot insert record: %w", err)
		}
	case err != nil:
		return false, fmt.Errorf("progress: cannot query record: %w", err)
	case !improves(record.IsComplete, record.Moves, existingComplete, existingMoves):
		return false, nil
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE game_progress
			 SET moves = ?, is_complete = ?, display_name = ?, completed_at = ?
			 WHERE owner_id = ? AND level_id = ?`,
			record.Moves, record.IsComplete, record.DisplayName, completedAt,
			record.OwnerID, record.LevelID,
		)
		if err != nil {
			return false, fmt.Errorf("progress: cannot update record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("progress: cannot commit: %w", err)
	}
	return true, nil
}

// improves reports whether a new result should replace the stored one
func improves(newComplete bool, newMoves int, oldComplete bool, oldMoves int) bool {
	if newComplete != oldComplete {
		return newComplete
	}
	return newMoves < oldMoves
}

// Leaderboard returns completed records ordered by moves, then completion time.
func (s *Store) Leaderboard(ctx context.Context, query service.LeaderboardQuery) ([]*service.ProgressRecord, error) {
	query = query.Normalize()

	stmt := `SELECT owner_id, level_id, moves, is_complete, is_anonymous, display_name, completed_at
		 FROM game_progress
		 WHERE is_complete = 1`
	args := []any{}
	if query.LevelID > 0 {
		stmt += " AND level_id = ?"
		args = append(args, query.LevelID)
	}
	stmt += " ORDER BY moves ASC, completed_at ASC, id ASC LIMIT ? OFFSET ?"
	args = append(args, query.Limit, query.Offset)

	records, err := s.queryRecords(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	for i, r := range records {
		r.Rank = query.Offset + i + 1
	}
	return records, nil
}

// ForOwner returns every record of one owner ordered by level.
func (s *Store) ForOwner(ctx context.Context, ownerID string) ([]*service.ProgressRecord, error) {
	return s.queryRecords(ctx,
		`SELECT owner_id, level_id, moves, is_complete, is_anonymous, display_name, completed_at
		 FROM game_progress
		 WHERE owner_id = ?
		 ORDER BY level_id ASC`,
		ownerID,
	)
}

func (s *Store) queryRecords(ctx context.Context, stmt string, args ...any) ([]*service.ProgressRecord, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("progress: cannot query records: %w", err)
	}
	defer rows.Close()

	records := []*service.ProgressRecord{}
	for rows.Next() {
		var r service.ProgressRecord
		var completedAt any
		if err := rows.Scan(&r.OwnerID, &r.LevelID, &r.Moves, &r.IsComplete,
			&r.IsAnonymous, &r.DisplayName, &completedAt); err != nil {
			return nil, fmt.Errorf("progress: cannot scan row: %w", err)
		}
		r.CompletedAt = parseTime(completedAt)
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("progress: row iteration error: %w", err)
	}
	return records, nil
}

// parseTime handles the driver returning either time.Time or text
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		if parsed, err := time.Parse(timeLayout, t); err == nil {
			return parsed
		}
	case []byte:
		if parsed, err := time.Parse(timeLayout, string(t)); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
