package service

import (
	"time"

	"github.com/yassinfayed/sakoban/game/engine"
)

// CreateSessionRequest describes a new session. Zero values pick the default
// level and an anonymous owner.
type CreateSessionRequest struct {
	LevelID     int    `json:"level_id"`
	OwnerID     string `json:"owner_id"`
	DisplayName string `json:"display_name"`
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string              `json:"id"`
	LevelID        int                 `json:"level_id"`
	LevelName      string              `json:"level_name"`
	OwnerID        string              `json:"owner_id"`
	DisplayName    string              `json:"display_name"`
	IsAnonymous    bool                `json:"is_anonymous"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	GameState      *engine.PuzzleState `json:"game_state"`
	Board          []string            `json:"board,omitempty"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success     bool                `json:"success"`
	Outcome     engine.Outcome      `json:"outcome"`
	GameState   *engine.PuzzleState `json:"game_state"`
	Message     string              `json:"message"`
	Events      []GameEvent         `json:"events,omitempty"`
	Step        *StepInfo           `json:"step,omitempty"`
	AttemptedTo *AttemptInfo        `json:"attempted_to,omitempty"`
	Board       []string            `json:"board,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int                 `json:"moves_executed"`
	RequestedMoves int                 `json:"requested_moves"`
	Success        bool                `json:"success"`
	GameState      *engine.PuzzleState `json:"game_state"`
	Events         []GameEvent         `json:"events"`
	StoppedReason  string              `json:"stopped_reason,omitempty"`
	StopReasonCode string              `json:"stop_reason_code,omitempty"` // blocked_wall|blocked_boundary|blocked_block|invalid_direction|already_complete|complete
	StoppedOnMove  int                 `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool                `json:"truncated,omitempty"`
	Limit          int                 `json:"limit,omitempty"`

	// Start/end snapshot
	StartPos       engine.Position `json:"start_pos"`
	EndPos         engine.Position `json:"end_pos"`
	StartMoves     int             `json:"start_moves"`
	EndMoves       int             `json:"end_moves"`
	BlocksOnTarget int             `json:"blocks_on_target"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Failure diagnostics
	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`

	// Final status aids
	IsComplete    bool     `json:"is_complete"`
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
	Board         []string `json:"board,omitempty"`
}

// StepInfo is a compact record for each executed move
type StepInfo struct {
	Idx       int              `json:"idx"`
	Dir       string           `json:"dir"`
	From      engine.Position  `json:"from"`
	To        engine.Position  `json:"to"`
	Outcome   engine.Outcome   `json:"outcome"`
	BlockFrom *engine.Position `json:"block_from,omitempty"`
	BlockTo   *engine.Position `json:"block_to,omitempty"`
	Complete  bool             `json:"complete,omitempty"`
}

// AttemptInfo details the cell a rejected move tried to enter
type AttemptInfo struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Cell     string `json:"cell"` // floor|target|wall|boundary|block
	Passable bool   `json:"passable"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"` // "move", "push", "level_complete", "progress_saved", "reset", "level_changed"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// LevelInfo provides information about a level in the catalog
type LevelInfo struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Blocks      int    `json:"blocks"`
	Source      string `json:"source"` // "builtin" or the file name
}

// ProgressRecord is one owner's best result on one level
type ProgressRecord struct {
	OwnerID     string    `json:"userId"`
	LevelID     int       `json:"levelId"`
	LevelName   string    `json:"levelName,omitempty"`
	Moves       int       `json:"moves"`
	IsComplete  bool      `json:"isComplete"`
	IsAnonymous bool      `json:"isAnonymous"`
	DisplayName string    `json:"username"`
	CompletedAt time.Time `json:"completedAt"`
	Rank        int       `json:"rank,omitempty"`
}

// SubmitResult reports what happened to a progress submission
type SubmitResult struct {
	Saved  bool            `json:"saved"`
	Record *ProgressRecord `json:"record"`
}

// LeaderboardQuery filters and pages the leaderboard
type LeaderboardQuery struct {
	LevelID int `json:"level_id,omitempty"` // 0 means all levels
	Limit   int `json:"limit,omitempty"`
	Offset  int `json:"offset,omitempty"`
}

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// Normalize applies the default and maximum page size
func (q LeaderboardQuery) Normalize() LeaderboardQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultLeaderboardLimit
	}
	if q.Limit > MaxLeaderboardLimit {
		q.Limit = MaxLeaderboardLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}
