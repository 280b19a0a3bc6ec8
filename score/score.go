package score

import (
	"context"
	"errors"
	"time"
)

// DefaultPlayerName is stored for submissions without a name.
const DefaultPlayerName = "Guest"

var ErrInvalidScore = errors.New("score: score must be non-negative")

// Entry is one leaderboard row.
type Entry struct {
	ID         string    `json:"id"`
	PlayerName string    `json:"playerName"`
	Score      int       `json:"score"`
	MatchID    string    `json:"gameId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Recorder is the ranking collaborator a finished match reports to.
//
// RecordScore is idempotent per (matchID, playerName) and keeps only a
// player's best score: it reports false when the submission was a duplicate
// or did not beat the stored best.
type Recorder interface {
	RecordScore(ctx context.Context, playerName string, score int, matchID string) (bool, error)
	TopScores(ctx context.Context, limit int) ([]Entry, error)
}
