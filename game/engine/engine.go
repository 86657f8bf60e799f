package engine

import (
	"fmt"
	"time"
)

// GameEngine wraps the pure transition functions with the bookkeeping a live
// session needs: the current level, cumulative history across restarts and the
// moves of the current attempt. Input is frozen once the puzzle is complete.
type GameEngine struct {
	level   *LevelDefinition
	ownerID string
	state   PuzzleState

	history     []MoveHistoryEntry
	current     []MoveHistoryEntry
	lastOutcome Outcome
}

// NewEngine creates a new engine for def, owned by ownerID
func NewEngine(def *LevelDefinition, ownerID string) (*GameEngine, error) {
	if err := ValidateLevel(def); err != nil {
		return nil, err
	}

	return &GameEngine{
		level:   def,
		ownerID: ownerID,
		state:   Initialize(*def, ownerID),
		history: []MoveHistoryEntry{},
		current: []MoveHistoryEntry{},
	}, nil
}

// GetState returns the current state
func (e *GameEngine) GetState() PuzzleState {
	return e.state
}

// SetState replaces state and history (used for persistence loading)
func (e *GameEngine) SetState(state PuzzleState, history, current []MoveHistoryEntry) error {
	if err := CheckInvariants(state); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}
	if e.level != nil && state.Level != e.level.Level {
		return fmt.Errorf("restore state: state is for level %d, engine has level %d", state.Level, e.level.Level)
	}
	e.state = state
	if history == nil {
		history = []MoveHistoryEntry{}
	}
	if current == nil {
		current = []MoveHistoryEntry{}
	}
	e.history = history
	e.current = current
	e.lastOutcome = ""
	if len(current) > 0 {
		e.lastOutcome = current[len(current)-1].Outcome
	}
	return nil
}

// Reset restarts the current level. The cumulative history survives.
func (e *GameEngine) Reset() PuzzleState {
	e.state = Initialize(*e.level, e.ownerID)
	e.current = []MoveHistoryEntry{}
	e.lastOutcome = ""
	return e.state
}

// IsComplete returns whether every block is on a target
func (e *GameEngine) IsComplete() bool {
	return e.state.IsComplete
}

// Move attempts a move and records it in the history. A completed puzzle
// rejects all further input.
func (e *GameEngine) Move(direction string) bool {
	dir := ParseDirection(direction)
	prev := e.state

	var next PuzzleState
	var outcome Outcome
	if prev.IsComplete {
		next, outcome = prev, AlreadyComplete
	} else {
		next, outcome = Step(prev, dir)
	}

	e.state = next
	e.lastOutcome = outcome
	e.addMoveToHistory(string(dir), prev, next, outcome)
	return outcome.Accepted()
}

// LastOutcome returns the outcome of the most recent Move
func (e *GameEngine) LastOutcome() Outcome {
	return e.lastOutcome
}

// CanMove checks if the player can move in the specified direction
func (e *GameEngine) CanMove(direction string) bool {
	if e.state.IsComplete {
		return false
	}
	return CanMove(e.state, ParseDirection(direction))
}

// GetPossibleMoves returns all directions that would currently be accepted
func (e *GameEngine) GetPossibleMoves() []string {
	var possible []string
	for _, dir := range Directions {
		if e.CanMove(string(dir)) {
			possible = append(possible, string(dir))
		}
	}
	return possible
}

// BulkMove executes moves in order and stops once the puzzle is complete.
// After each move onStep, when non-nil, receives the move's index and whether
// it was accepted; returning false stops the sequence. BulkMove returns the
// number of moves attempted.
func (e *GameEngine) BulkMove(moves []string, onStep func(i int, accepted bool) bool) int {
	attempted := 0
	for i, direction := range moves {
		if e.IsComplete() {
			break
		}
		accepted := e.Move(direction)
		attempted++
		if onStep != nil && !onStep(i, accepted) {
			break
		}
	}
	return attempted
}

// GetLevel returns the level definition being played
func (e *GameEngine) GetLevel() *LevelDefinition {
	return e.level
}

// SetLevel switches to another level and starts it fresh
func (e *GameEngine) SetLevel(def *LevelDefinition) error {
	if err := ValidateLevel(def); err != nil {
		return err
	}
	e.level = def
	e.Reset()
	return nil
}

// GetMoveHistory returns every move attempt across restarts
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.history
}

// GetCurrentMoves returns the move attempts since the last restart
func (e *GameEngine) GetCurrentMoves() []MoveHistoryEntry {
	return e.current
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

func (e *GameEngine) addMoveToHistory(action string, prev, next PuzzleState, outcome Outcome) {
	entry := MoveHistoryEntry{
		Action:       action,
		FromPosition: prev.Player,
		ToPosition:   next.Player,
		Outcome:      outcome,
		Moves:        next.Moves,
		Timestamp:    time.Now().Unix(),
		Success:      outcome.Accepted(),
		MoveNumber:   len(e.history) + 1,
	}
	if outcome == Pushed {
		from := next.Player
		to := from.Add(ParseDirection(action).Delta())
		entry.BlockFrom = &from
		entry.BlockTo = &to
	}

	e.history = append(e.history, entry)
	e.current = append(e.current, entry)
}
