package engine

import (
	"fmt"
	"strings"
)

// Direction is one of the four movement tokens accepted by the engine
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"

	// Validation constants
	MinGridSize         = 1
	MaxGridSize         = 50
	MaxBulkMoves        = 50
	WebSocketBufferSize = 256
)

// Directions lists the recognised directions in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// ParseDirection normalises a user supplied token. Unknown tokens are kept as-is
// and behave as a zero displacement.
func ParseDirection(s string) Direction {
	return Direction(strings.ToLower(strings.TrimSpace(s)))
}

// Valid reports whether d is one of the four recognised directions
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// Delta returns the unit displacement for d, or (0,0) for an unknown token
func (d Direction) Delta() Position {
	switch d {
	case Up:
		return Position{X: 0, Y: -1}
	case Down:
		return Position{X: 0, Y: 1}
	case Left:
		return Position{X: -1, Y: 0}
	case Right:
		return Position{X: 1, Y: 0}
	}
	return Position{}
}

// Position represents x,y coordinates
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Add returns the coordinate-wise sum of p and o
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// LevelDefinition is the immutable description a puzzle is started from.
// Levels may be authored either with explicit coordinates or with a text Layout;
// ApplyLayout turns the latter into the former.
type LevelDefinition struct {
	Level       int        `json:"level" yaml:"level"`
	Name        string     `json:"name,omitempty" yaml:"name,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Width       int        `json:"width" yaml:"width"`
	Height      int        `json:"height" yaml:"height"`
	Player      Position   `json:"player" yaml:"player"`
	Blocks      []Position `json:"blocks" yaml:"blocks"`
	Targets     []Position `json:"targets" yaml:"targets"`
	Walls       []Position `json:"walls" yaml:"walls"`
	Layout      []string   `json:"layout,omitempty" yaml:"layout,omitempty"`
}

// PuzzleState is one immutable snapshot of a puzzle. Transitions never modify a
// state; they return a new one that may share the Targets and Walls slices.
type PuzzleState struct {
	Level      int        `json:"level"`
	Player     Position   `json:"player"`
	Blocks     []Position `json:"blocks"`
	Targets    []Position `json:"targets"`
	Walls      []Position `json:"walls"`
	Moves      int        `json:"moves"`
	IsComplete bool       `json:"isComplete"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	UserID     string     `json:"userId,omitempty"`
}

// Outcome describes what a single transition did
type Outcome string

const (
	Walked           Outcome = "walked"
	Pushed           Outcome = "pushed"
	BlockedWall      Outcome = "blocked_wall"
	BlockedBoundary  Outcome = "blocked_boundary"
	BlockedBlock     Outcome = "blocked_block"
	InvalidDirection Outcome = "invalid_direction"
	AlreadyComplete  Outcome = "already_complete"
)

// Accepted reports whether the outcome changed the state
func (o Outcome) Accepted() bool {
	return o == Walked || o == Pushed
}

// MoveHistoryEntry represents a single move attempt in a session's history
type MoveHistoryEntry struct {
	Action       string    `json:"action"`
	FromPosition Position  `json:"from_position"`
	ToPosition   Position  `json:"to_position"`
	BlockFrom    *Position `json:"block_from,omitempty"`
	BlockTo      *Position `json:"block_to,omitempty"`
	Outcome      Outcome   `json:"outcome"`
	Moves        int       `json:"moves"`
	Timestamp    int64     `json:"timestamp"`
	Success      bool      `json:"success"`
	MoveNumber   int       `json:"move_number"`
}
