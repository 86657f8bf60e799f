// Package engine provides the core puzzle logic for the Sokoban game.
//
// The engine package implements the game mechanics including:
//   - Grid-based movement with wall and boundary collision
//   - Single-block pushing (a block behind a block never moves)
//   - Completion detection from block and target placement
//   - Level definitions in JSON, YAML or text layout form
//
// Core Types:
//
// PuzzleState is an immutable snapshot. Initialize builds the first one from a
// LevelDefinition and Move returns the next one; a rejected move returns the
// input state unchanged and never counts. GameEngine wraps these pure
// functions for a live session, adding move history and restart support, and
// refuses further input once the puzzle is complete.
//
// Usage:
//
//	def, err := engine.LoadLevelFile("levels/level_1.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	state := engine.Initialize(*def, "")
//	state = engine.Move(state, engine.Left)
//	if state.IsComplete {
//		fmt.Println("solved in", state.Moves)
//	}
//
// Layout symbols:
//
//	#  wall            @  player   +  player on target
//	$  block           *  block on target
//	.  target          (space, - or _) floor
package engine
