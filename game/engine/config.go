package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zyedidia/generic/mapset"
	"gopkg.in/yaml.v3"
)

// Layout symbols, XSB style
const (
	SymbolWall           = '#'
	SymbolPlayer         = '@'
	SymbolPlayerOnTarget = '+'
	SymbolBlock          = '$'
	SymbolBlockOnTarget  = '*'
	SymbolTarget         = '.'
	SymbolFloor          = ' '
)

// ValidateLevel validates a level definition for correctness before it reaches Initialize
func ValidateLevel(def *LevelDefinition) error {
	if def == nil {
		return fmt.Errorf("level validation: definition is nil")
	}
	if def.Level <= 0 {
		return fmt.Errorf("level validation: level must be positive, got %d", def.Level)
	}

	// Validate grid size
	if def.Width < MinGridSize || def.Width > MaxGridSize {
		return fmt.Errorf("level validation: width must be between %d and %d, got %d", MinGridSize, MaxGridSize, def.Width)
	}
	if def.Height < MinGridSize || def.Height > MaxGridSize {
		return fmt.Errorf("level validation: height must be between %d and %d, got %d", MinGridSize, MaxGridSize, def.Height)
	}

	inBounds := func(p Position) bool {
		return p.X >= 0 && p.X < def.Width && p.Y >= 0 && p.Y < def.Height
	}

	walls := mapset.New[Position]()
	for _, w := range def.Walls {
		if !inBounds(w) {
			return fmt.Errorf("level validation: wall at %s is out of bounds", w)
		}
		walls.Put(w)
	}

	if !inBounds(def.Player) {
		return fmt.Errorf("level validation: player at %s is out of bounds", def.Player)
	}
	if walls.Has(def.Player) {
		return fmt.Errorf("level validation: player at %s is on a wall", def.Player)
	}

	if len(def.Blocks) == 0 {
		return fmt.Errorf("level validation: level must contain at least one block")
	}
	if len(def.Blocks) != len(def.Targets) {
		return fmt.Errorf("level validation: %d blocks but %d targets", len(def.Blocks), len(def.Targets))
	}

	blocks := mapset.New[Position]()
	for _, b := range def.Blocks {
		switch {
		case !inBounds(b):
			return fmt.Errorf("level validation: block at %s is out of bounds", b)
		case walls.Has(b):
			return fmt.Errorf("level validation: block at %s is on a wall", b)
		case b == def.Player:
			return fmt.Errorf("level validation: block at %s is under the player", b)
		case blocks.Has(b):
			return fmt.Errorf("level validation: duplicate block at %s", b)
		}
		blocks.Put(b)
	}

	targets := mapset.New[Position]()
	for _, t := range def.Targets {
		switch {
		case !inBounds(t):
			return fmt.Errorf("level validation: target at %s is out of bounds", t)
		case walls.Has(t):
			return fmt.Errorf("level validation: target at %s is on a wall", t)
		case targets.Has(t):
			return fmt.Errorf("level validation: duplicate target at %s", t)
		}
		targets.Put(t)
	}

	return nil
}

// ParseLayout converts text rows into a level definition. Rows may be ragged;
// the width is the longest row and missing cells are floor.
func ParseLayout(level int, rows []string) (*LevelDefinition, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("layout: no rows")
	}

	def := &LevelDefinition{
		Level:   level,
		Height:  len(rows),
		Blocks:  []Position{},
		Targets: []Position{},
		Walls:   []Position{},
		Layout:  rows,
	}

	players := 0
	for y, row := range rows {
		if len(row) > def.Width {
			def.Width = len(row)
		}
		for x, ch := range row {
			pos := Position{X: x, Y: y}
			switch ch {
			case SymbolWall:
				def.Walls = append(def.Walls, pos)
			case SymbolPlayer:
				def.Player = pos
				players++
			case SymbolPlayerOnTarget:
				def.Player = pos
				def.Targets = append(def.Targets, pos)
				players++
			case SymbolBlock:
				def.Blocks = append(def.Blocks, pos)
			case SymbolBlockOnTarget:
				def.Blocks = append(def.Blocks, pos)
				def.Targets = append(def.Targets, pos)
			case SymbolTarget:
				def.Targets = append(def.Targets, pos)
			case SymbolFloor, '-', '_':
			default:
				return nil, fmt.Errorf("layout: invalid character '%c' at row %d, col %d", ch, y+1, x+1)
			}
		}
	}

	if players != 1 {
		return nil, fmt.Errorf("layout: expected exactly one player, found %d", players)
	}
	return def, nil
}

// ApplyLayout fills the coordinate fields from Layout when a layout is present
func (def *LevelDefinition) ApplyLayout() error {
	if len(def.Layout) == 0 {
		return nil
	}
	parsed, err := ParseLayout(def.Level, def.Layout)
	if err != nil {
		return err
	}
	parsed.Name = def.Name
	parsed.Description = def.Description
	*def = *parsed
	return nil
}

// ParseLevel decodes a level definition. format is a file extension
// (".json", ".yaml", ".yml"); anything else is treated as JSON.
func ParseLevel(data []byte, format string) (*LevelDefinition, error) {
	var def LevelDefinition
	switch strings.ToLower(format) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("parse yaml level: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("parse json level: %w", err)
		}
	}

	if err := def.ApplyLayout(); err != nil {
		return nil, err
	}
	if err := ValidateLevel(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadLevelFile loads and validates a level definition from a JSON or YAML file
func LoadLevelFile(filename string) (*LevelDefinition, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	def, err := ParseLevel(data, filepath.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filename), err)
	}
	return def, nil
}

// IsLevelFile reports whether name has an extension ParseLevel understands
func IsLevelFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
