package engine

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"
)

// Initialize builds the starting state for def. The definition is trusted:
// ValidateLevel is the boundary check and is not repeated here.
func Initialize(def LevelDefinition, ownerID string) PuzzleState {
	state := PuzzleState{
		Level:   def.Level,
		Player:  def.Player,
		Blocks:  clonePositions(def.Blocks),
		Targets: clonePositions(def.Targets),
		Walls:   clonePositions(def.Walls),
		Moves:   0,
		Width:   def.Width,
		Height:  def.Height,
		UserID:  ownerID,
	}
	state.IsComplete = AllOnTargets(state.Blocks, state.Targets)
	return state
}

// Move applies one step in direction and returns the resulting state. A rejected
// move returns s itself.
func Move(s PuzzleState, direction Direction) PuzzleState {
	next, _ := Step(s, direction)
	return next
}

// Step is Move plus the reason the transition was accepted or rejected
func Step(s PuzzleState, direction Direction) (PuzzleState, Outcome) {
	delta := direction.Delta()
	if delta == (Position{}) {
		return s, InvalidDirection
	}

	target := s.Player.Add(delta)
	if !InBounds(s, target) {
		return s, BlockedBoundary
	}
	if IsWall(s, target) {
		return s, BlockedWall
	}

	idx := BlockAt(s.Blocks, target)
	if idx < 0 {
		next := s
		next.Player = target
		next.Moves = s.Moves + 1
		return next, Walked
	}

	blockTarget := target.Add(delta)
	if !InBounds(s, blockTarget) {
		return s, BlockedBoundary
	}
	if IsWall(s, blockTarget) {
		return s, BlockedWall
	}
	// No chain pushes: a block behind a block never moves.
	if BlockAt(s.Blocks, blockTarget) >= 0 {
		return s, BlockedBlock
	}

	next := s
	next.Blocks = clonePositions(s.Blocks)
	next.Blocks[idx] = blockTarget
	next.Player = target
	next.Moves = s.Moves + 1
	next.IsComplete = AllOnTargets(next.Blocks, next.Targets)
	return next, Pushed
}

// InBounds reports whether p lies in [0,width) x [0,height)
func InBounds(s PuzzleState, p Position) bool {
	return p.X >= 0 && p.X < s.Width && p.Y >= 0 && p.Y < s.Height
}

// IsWall reports whether p is one of the state's walls
func IsWall(s PuzzleState, p Position) bool {
	return contains(s.Walls, p)
}

// IsValid reports whether the player or a block may occupy p
func IsValid(s PuzzleState, p Position) bool {
	return InBounds(s, p) && !IsWall(s, p)
}

// BlockAt returns the index of the block at p, or -1
func BlockAt(blocks []Position, p Position) int {
	for i, b := range blocks {
		if b == p {
			return i
		}
	}
	return -1
}

// IsOnTarget reports whether pos is one of targets
func IsOnTarget(pos Position, targets []Position) bool {
	return contains(targets, pos)
}

// AllOnTargets reports whether every block sits on a target
func AllOnTargets(blocks, targets []Position) bool {
	targetSet := mapset.New[Position]()
	for _, t := range targets {
		targetSet.Put(t)
	}
	for _, b := range blocks {
		if !targetSet.Has(b) {
			return false
		}
	}
	return true
}

// CanMove reports whether direction would be accepted from s
func CanMove(s PuzzleState, direction Direction) bool {
	_, outcome := Step(s, direction)
	return outcome.Accepted()
}

// CheckInvariants verifies the structural rules every reachable state obeys.
// It is used when states come from outside the engine (persisted sessions).
func CheckInvariants(s PuzzleState) error {
	if s.Width < MinGridSize || s.Height < MinGridSize {
		return fmt.Errorf("invalid dimensions %dx%d", s.Width, s.Height)
	}
	if s.Moves < 0 {
		return fmt.Errorf("negative move counter %d", s.Moves)
	}
	if !IsValid(s, s.Player) {
		return fmt.Errorf("player at %s is out of bounds or on a wall", s.Player)
	}

	seen := mapset.New[Position]()
	for _, b := range s.Blocks {
		if !IsValid(s, b) {
			return fmt.Errorf("block at %s is out of bounds or on a wall", b)
		}
		if seen.Has(b) {
			return fmt.Errorf("two blocks at %s", b)
		}
		if b == s.Player {
			return fmt.Errorf("block at %s overlaps the player", b)
		}
		seen.Put(b)
	}

	if s.IsComplete != AllOnTargets(s.Blocks, s.Targets) {
		return fmt.Errorf("completion flag %t does not match block placement", s.IsComplete)
	}
	return nil
}

// Equal compares two states field by field
func Equal(a, b PuzzleState) bool {
	return a.Level == b.Level &&
		a.Player == b.Player &&
		a.Moves == b.Moves &&
		a.IsComplete == b.IsComplete &&
		a.Width == b.Width &&
		a.Height == b.Height &&
		a.UserID == b.UserID &&
		equalPositions(a.Blocks, b.Blocks) &&
		equalPositions(a.Targets, b.Targets) &&
		equalPositions(a.Walls, b.Walls)
}

func contains(list []Position, p Position) bool {
	for _, q := range list {
		if q == p {
			return true
		}
	}
	return false
}

func equalPositions(a, b []Position) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// clonePositions copies src into a new non-nil slice so JSON output is [] rather than null
func clonePositions(src []Position) []Position {
	out := make([]Position, len(src))
	copy(out, src)
	return out
}
