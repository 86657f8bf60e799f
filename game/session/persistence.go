package session

import (
	"time"

	"github.com/yassinfayed/sakoban/game/engine"
	"github.com/yassinfayed/sakoban/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted sessions.
// The level definition is stored inline so a session survives catalog edits.
type PersistedSessionData struct {
	ID                 string                    `json:"id"`
	OwnerID            string                    `json:"owner_id"`
	DisplayName        string                    `json:"display_name"`
	CreatedAt          time.Time                 `json:"created_at"`
	LastAccessedAt     time.Time                 `json:"last_accessed_at"`
	CompletionRecorded bool                      `json:"completion_recorded"`
	Level              *engine.LevelDefinition   `json:"level"`
	GameState          engine.PuzzleState        `json:"game_state"`
	MoveHistory        []engine.MoveHistoryEntry `json:"move_history"`
	CurrentMoves       []engine.MoveHistoryEntry `json:"current_moves"`
}
