// Command validate checks level files (JSON or YAML) in a levels directory.
// It checks:
//   - File structure and the layout symbols
//   - Exactly one player, at least one block, as many targets as blocks
//   - Every block and target reachable by the player
//   - Blocks stuck in a corner that is not a target
//   - Level ids shared by more than one file
//
// Usage: validate [levels-dir]   (defaults to game/config/levels)
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zyedidia/generic/mapset"

	"github.com/yassinfayed/sakoban/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Level  int
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateLevel loads and validates a single level file
func validateLevel(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	if _, err := os.Stat(filePath); err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	def, err := engine.LoadLevelFile(filePath)
	if err != nil {
		result.fail("Invalid level: %v", err)
		return result
	}
	result.Level = def.Level

	reach := validateReachability(def)
	result.Valid = reach.Valid
	result.Errors = append(result.Errors, reach.Errors...)

	for _, b := range stuckBlocks(def) {
		result.fail("Block at %s is stuck in a corner that is not a target", b)
	}

	if result.Valid {
		name := def.Name
		if name == "" {
			name = "(unnamed)"
		}
		result.info("Level: %d %s", def.Level, name)
		result.info("Board: %dx%d", def.Width, def.Height)
		result.info("Blocks: %d", len(def.Blocks))
		state := engine.Initialize(*def, "")
		result.info("Blocks on target: %d", engine.CountBlocksOnTarget(state))
	}

	return result
}

// validateReachability flood fills from the player over non-wall cells and
// reports every block or target the player could never reach
func validateReachability(def *engine.LevelDefinition) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	walls := mapset.New[engine.Position]()
	for _, w := range def.Walls {
		walls.Put(w)
	}
	open := func(p engine.Position) bool {
		return p.X >= 0 && p.Y >= 0 && p.X < def.Width && p.Y < def.Height && !walls.Has(p)
	}

	visited := mapset.New[engine.Position]()
	queue := []engine.Position{def.Player}
	visited.Put(def.Player)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dir := range engine.Directions {
			next := current.Add(dir.Delta())
			if open(next) && !visited.Has(next) {
				visited.Put(next)
				queue = append(queue, next)
			}
		}
	}

	unreachable := []string{}
	for _, b := range def.Blocks {
		if !visited.Has(b) {
			unreachable = append(unreachable, fmt.Sprintf("Block at %s", b))
		}
	}
	for _, t := range def.Targets {
		if !visited.Has(t) {
			unreachable = append(unreachable, fmt.Sprintf("Target at %s", t))
		}
	}

	if len(unreachable) > 0 {
		result.fail("Connectivity failure: %d cells unreachable from the player", len(unreachable))
		for _, cell := range unreachable {
			result.fail("Unreachable: %s", cell)
		}
	} else {
		result.info("Connectivity: all blocks and targets reachable")
	}

	return result
}

// stuckBlocks returns blocks that start off-target with walls on two
// adjacent sides; such a block can never be moved again
func stuckBlocks(def *engine.LevelDefinition) []engine.Position {
	walls := mapset.New[engine.Position]()
	for _, w := range def.Walls {
		walls.Put(w)
	}
	blocked := func(p engine.Position) bool {
		return p.X < 0 || p.Y < 0 || p.X >= def.Width || p.Y >= def.Height || walls.Has(p)
	}

	stuck := []engine.Position{}
	for _, b := range def.Blocks {
		if engine.IsOnTarget(b, def.Targets) {
			continue
		}
		vertical := blocked(b.Add(engine.Up.Delta())) || blocked(b.Add(engine.Down.Delta()))
		horizontal := blocked(b.Add(engine.Left.Delta())) || blocked(b.Add(engine.Right.Delta()))
		if vertical && horizontal {
			stuck = append(stuck, b)
		}
	}
	return stuck
}

// duplicateLevels reports level ids claimed by more than one valid file
func duplicateLevels(results []ValidationResult) []string {
	byLevel := map[int][]string{}
	for _, r := range results {
		if r.Valid {
			byLevel[r.Level] = append(byLevel[r.Level], r.File)
		}
	}

	dups := []string{}
	for level, files := range byLevel {
		if len(files) > 1 {
			sort.Strings(files)
			dups = append(dups, fmt.Sprintf("Level %d is defined by %s", level, strings.Join(files, ", ")))
		}
	}
	sort.Strings(dups)
	return dups
}

// levelFiles lists the level files of dir in name order
func levelFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && engine.IsLevelFile(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// main validates each level file, printing a concise report and exiting with
// non-zero status if any are invalid.
func main() {
	levelsDir := filepath.Join("game", "config", "levels")
	if len(os.Args) > 1 {
		levelsDir = os.Args[1]
	}

	files, err := levelFiles(levelsDir)
	if err != nil {
		fmt.Printf("Error finding level files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		result := validateLevel(file)
		results = append(results, result)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	dups := duplicateLevels(results)
	for _, dup := range dups {
		fmt.Println("⚠️  " + dup)
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid && len(dups) == 0 {
		fmt.Println("✅ All levels are valid!")
	} else {
		fmt.Println("❌ Some levels have errors")
		os.Exit(1)
	}
}
