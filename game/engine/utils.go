package engine

import "strings"

// CountBlocksOnTarget counts the blocks currently sitting on targets
func CountBlocksOnTarget(state PuzzleState) int {
	count := 0
	for _, b := range state.Blocks {
		if IsOnTarget(b, state.Targets) {
			count++
		}
	}
	return count
}

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// BlockDistanceSum sums, for every block, the distance to its nearest target.
// It is a rough progress indicator, not a solver heuristic.
func BlockDistanceSum(state PuzzleState) int {
	total := 0
	for _, b := range state.Blocks {
		best := -1
		for _, t := range state.Targets {
			if d := ManhattanDistance(b, t); best == -1 || d < best {
				best = d
			}
		}
		if best > 0 {
			total += best
		}
	}
	return total
}

// RenderASCII draws the state with the layout symbols, one row per line
func RenderASCII(state PuzzleState) string {
	rows := RenderRows(state)
	return strings.Join(rows, "\n")
}

// RenderRows draws the state as layout rows
func RenderRows(state PuzzleState) []string {
	grid := make([][]byte, state.Height)
	for y := range grid {
		grid[y] = []byte(strings.Repeat(string(SymbolFloor), state.Width))
	}
	set := func(p Position, ch byte) {
		if p.Y >= 0 && p.Y < state.Height && p.X >= 0 && p.X < state.Width {
			grid[p.Y][p.X] = ch
		}
	}

	for _, w := range state.Walls {
		set(w, SymbolWall)
	}
	for _, t := range state.Targets {
		set(t, SymbolTarget)
	}
	for _, b := range state.Blocks {
		if IsOnTarget(b, state.Targets) {
			set(b, SymbolBlockOnTarget)
		} else {
			set(b, SymbolBlock)
		}
	}
	if IsOnTarget(state.Player, state.Targets) {
		set(state.Player, SymbolPlayerOnTarget)
	} else {
		set(state.Player, SymbolPlayer)
	}

	rows := make([]string, state.Height)
	for y := range grid {
		rows[y] = strings.TrimRight(string(grid[y]), " ")
	}
	return rows
}
