package service

import (
	"context"
	"errors"
	"time"

	"github.com/yassinfayed/sakoban/game/engine"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrLevelNotFound       = errors.New("level not found")
	ErrInvalidLevel        = errors.New("invalid level")
	ErrInvalidProgress     = errors.New("invalid progress record")
	ErrProgressUnavailable = errors.New("progress store not configured")

	ErrLevelStoreUnavailable = errors.New("levels directory not configured")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.PuzzleState, error)
	SelectLevel(ctx context.Context, sessionID string, levelID int) (*SessionInfo, error)
	NextLevel(ctx context.Context, sessionID string) (*SessionInfo, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.PuzzleState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	LoadLevel(ctx context.Context, levelID int) (*engine.LevelDefinition, error)
	SaveLevel(ctx context.Context, def *engine.LevelDefinition) error

	// Progress
	Leaderboard(ctx context.Context, query LeaderboardQuery) ([]*ProgressRecord, error)
	SubmitProgress(ctx context.Context, record ProgressRecord) (*SubmitResult, error)
	UserProgress(ctx context.Context, ownerID string) ([]*ProgressRecord, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, level *engine.LevelDefinition, ownerID, displayName string) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	LastAccessed(id string) (time.Time, error)
	Save(id string) error
}

// LevelManager handles level catalog loading
type LevelManager interface {
	LoadLevel(id int) (*engine.LevelDefinition, error)
	ListLevels() ([]*LevelInfo, error)
	GetDefault() *engine.LevelDefinition
	NextLevel(id int) (*engine.LevelDefinition, error)
	SaveLevel(def *engine.LevelDefinition) error
}

// ProgressStore keeps the best completion per owner and level
type ProgressStore interface {
	// Submit stores record unless a record with fewer or equal moves already exists.
	// It reports whether the stored record changed.
	Submit(ctx context.Context, record ProgressRecord) (bool, error)
	Leaderboard(ctx context.Context, query LeaderboardQuery) ([]*ProgressRecord, error)
	ForOwner(ctx context.Context, ownerID string) ([]*ProgressRecord, error)
}

// IdentityProvider mints and describes owner identifiers
type IdentityProvider interface {
	NewAnonymousID() string
	IsAnonymous(id string) bool
	DisplayName(id, name string) string
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	OwnerID        string
	DisplayName    string
	CreatedAt      time.Time
	// LastAccessedAt is owned by the session manager, which updates it on
	// every access; read it through SessionManager.LastAccessed.
	LastAccessedAt time.Time

	// CompletionRecorded is set once the current attempt's completion has been
	// handed to the progress store. Restarting or switching level clears it.
	CompletionRecorded bool
}

// Level returns the level definition the session is playing
func (s *Session) Level() *engine.LevelDefinition {
	return s.Engine.GetLevel()
}
