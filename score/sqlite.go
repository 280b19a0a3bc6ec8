package score

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const maxTopScores = 100

// SQLiteStore implements Recorder on SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at path and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: writes are serialized anyway and ":memory:" databases
	// are per connection.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS scores (
			id TEXT PRIMARY KEY,
			player_name TEXT NOT NULL,
			score INTEGER NOT NULL,
			match_id TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_score ON scores(score DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_player ON scores(player_name)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) RecordScore(ctx context.Context, playerName string, score int, matchID string) (bool, error) {
	if score < 0 {
		return false, ErrInvalidScore
	}
	name := strings.TrimSpace(playerName)
	if name == "" {
		name = DefaultPlayerName
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if matchID != "" {
		var n int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM scores WHERE player_name = ? AND match_id = ?`, name, matchID).Scan(&n)
		if err != nil {
			return false, fmt.Errorf("check duplicate: %w", err)
		}
		if n > 0 {
			return false, nil
		}
	}

	var best sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT MAX(score) FROM scores WHERE player_name = ?`, name).Scan(&best)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("load best: %w", err)
	}
	if best.Valid && best.Int64 >= int64(score) {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM scores WHERE player_name = ?`, name); err != nil {
		return false, fmt.Errorf("drop superseded: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO scores (id, player_name, score, match_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), name, score, matchID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("insert score: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) TopScores(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > maxTopScores {
		limit = maxTopScores
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, player_name, score, match_id, created_at FROM scores
		 ORDER BY score DESC, created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top scores: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.PlayerName, &e.Score, &e.MatchID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
