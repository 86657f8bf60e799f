package config

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/yassinfayed/sakoban/game/engine"
	"github.com/yassinfayed/sakoban/game/service"
)

var (
	ErrLevelNotFound         = service.ErrLevelNotFound
	ErrInvalidLevel          = service.ErrInvalidLevel
	ErrLevelStoreUnavailable = service.ErrLevelStoreUnavailable
)

//go:embed levels
var builtinLevels embed.FS

const builtinSource = "builtin"

type levelEntry struct {
	def    *engine.LevelDefinition
	source string
}

// Manager is the level catalog: built-in levels overlaid by the files of an
// optional levels directory. A file with the same level id replaces the
// built-in level.
type Manager struct {
	levelsDir string
	levels    map[int]*levelEntry
	mu        sync.RWMutex
}

// NewManager creates a level catalog. An empty levelsDir serves built-in levels only.
func NewManager(levelsDir string) (*Manager, error) {
	if levelsDir != "" {
		if _, err := os.Stat(levelsDir); os.IsNotExist(err) {
			return nil, fmt.Errorf("levels directory does not exist: %s", levelsDir)
		}
	}

	m := &Manager{levelsDir: levelsDir}
	if err := m.RefreshCache(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadLevel returns the level with the given id
func (m *Manager) LoadLevel(id int) (*engine.LevelDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.levels[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrLevelNotFound, id)
	}
	return entry.def, nil
}

// ListLevels returns information about every level, ordered by id
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]*service.LevelInfo, 0, len(m.levels))
	for _, id := range m.sortedIDs() {
		entry := m.levels[id]
		infos = append(infos, &service.LevelInfo{
			ID:          entry.def.Level,
			Name:        levelName(entry.def),
			Description: entry.def.Description,
			Width:       entry.def.Width,
			Height:      entry.def.Height,
			Blocks:      len(entry.def.Blocks),
			Source:      entry.source,
		})
	}
	return infos, nil
}

// GetDefault returns the level with the lowest id
func (m *Manager) GetDefault() *engine.LevelDefinition {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.sortedIDs()
	if len(ids) == 0 {
		return nil
	}
	return m.levels[ids[0]].def
}

// NextLevel returns the level following id in catalog order
func (m *Manager) NextLevel(id int) (*engine.LevelDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, candidate := range m.sortedIDs() {
		if candidate > id {
			return m.levels[candidate].def, nil
		}
	}
	return nil, fmt.Errorf("%w: no level after %d", ErrLevelNotFound, id)
}

// SaveLevel validates def and writes it to the levels directory as JSON
func (m *Manager) SaveLevel(def *engine.LevelDefinition) error {
	if def == nil {
		return fmt.Errorf("%w: definition is nil", ErrInvalidLevel)
	}
	if err := def.ApplyLayout(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	if err := engine.ValidateLevel(def); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	if m.levelsDir == "" {
		return fmt.Errorf("cannot save level %d: %w", def.Level, ErrLevelStoreUnavailable)
	}

	filename := fmt.Sprintf("level_%d.json", def.Level)
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal level: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.levelsDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	m.mu.Lock()
	m.levels[def.Level] = &levelEntry{def: def, source: filename}
	m.mu.Unlock()

	log.Info("level saved", "level", def.Level, "file", filename)
	return nil
}

// RefreshCache reloads built-in levels and the levels directory
func (m *Manager) RefreshCache() error {
	levels := make(map[int]*levelEntry)

	if err := loadBuiltin(levels); err != nil {
		return fmt.Errorf("failed to load built-in levels: %w", err)
	}
	if m.levelsDir != "" {
		if err := loadDir(m.levelsDir, levels); err != nil {
			return fmt.Errorf("failed to read levels directory: %w", err)
		}
	}

	m.mu.Lock()
	m.levels = levels
	m.mu.Unlock()
	return nil
}

// Count returns the number of levels in the catalog
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.levels)
}

func (m *Manager) sortedIDs() []int {
	ids := make([]int, 0, len(m.levels))
	for id := range m.levels {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func loadBuiltin(into map[int]*levelEntry) error {
	entries, err := fs.ReadDir(builtinLevels, "levels")
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !engine.IsLevelFile(entry.Name()) {
			continue
		}
		data, err := builtinLevels.ReadFile(path.Join("levels", entry.Name()))
		if err != nil {
			return err
		}
		def, err := engine.ParseLevel(data, path.Ext(entry.Name()))
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}
		into[def.Level] = &levelEntry{def: def, source: builtinSource}
	}
	return nil
}

// loadDir overlays the level files of dir. Invalid files are skipped with a warning.
func loadDir(dir string, into map[int]*levelEntry) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !engine.IsLevelFile(entry.Name()) {
			continue
		}
		def, err := engine.LoadLevelFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Warn("skipping invalid level file", "file", entry.Name(), "error", err)
			continue
		}
		if prev, ok := into[def.Level]; ok && prev.source != builtinSource {
			log.Warn("duplicate level id", "level", def.Level, "kept", entry.Name(), "dropped", prev.source)
		}
		into[def.Level] = &levelEntry{def: def, source: entry.Name()}
	}
	return nil
}

func levelName(def *engine.LevelDefinition) string {
	if def.Name != "" {
		return def.Name
	}
	return fmt.Sprintf("Level %d", def.Level)
}
