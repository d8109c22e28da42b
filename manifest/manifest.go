// Package manifest handles moorhen.toml configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a moorhen.toml configuration.
type Manifest struct {
	Task  Task        `toml:"task"`
	Store StoreConfig `toml:"store"`
	Log   LogConfig   `toml:"log"`

	// Dir is the directory containing the moorhen.toml file (set at load time).
	Dir string `toml:"-"`
}

// Task bounds what one task execution may consume.
type Task struct {
	MaxTicks      int64   `toml:"max_ticks"`
	MaxSeconds    float64 `toml:"max_seconds"`
	MaxStackDepth int     `toml:"max_stack_depth"`
}

// StoreConfig locates the verb program database.
type StoreConfig struct {
	Path string `toml:"path"`
}

// LogConfig configures logging verbosity.
type LogConfig struct {
	Level string `toml:"level"`
}

// Verbosity maps the configured level name onto the logger's numeric scale.
func (l LogConfig) Verbosity() (int, error) {
	switch l.Level {
	case "none":
		return -1, nil
	case "error":
		return 0, nil
	case "warning":
		return 1, nil
	case "", "info":
		return 2, nil
	case "debug":
		return 3, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", l.Level)
	}
}

func defaults() Manifest {
	return Manifest{
		Task: Task{
			MaxTicks:      300_000,
			MaxSeconds:    5,
			MaxStackDepth: 50,
		},
		Store: StoreConfig{Path: "moorhen.db"},
		Log:   LogConfig{Level: "info"},
	}
}

// Default returns the configuration used when no moorhen.toml exists.
func Default() *Manifest {
	m := defaults()
	return &m
}

// Load parses a moorhen.toml file from the given directory. Absent fields keep
// their defaults.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "moorhen.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := defaults()
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a moorhen.toml file, then loads
// and returns the manifest. Returns the defaults if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "moorhen.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return Default(), nil
		}
		dir = parent
	}
}

func (m *Manifest) validate() error {
	if m.Task.MaxTicks <= 0 {
		return fmt.Errorf("task.max_ticks must be positive, got %d", m.Task.MaxTicks)
	}
	if m.Task.MaxSeconds <= 0 {
		return fmt.Errorf("task.max_seconds must be positive, got %g", m.Task.MaxSeconds)
	}
	if m.Task.MaxStackDepth <= 0 {
		return fmt.Errorf("task.max_stack_depth must be positive, got %d", m.Task.MaxStackDepth)
	}
	if _, err := m.Log.Verbosity(); err != nil {
		return err
	}
	return nil
}

// StorePath returns the verb store path, resolved against the manifest
// directory when it is relative.
func (m *Manifest) StorePath() string {
	if m.Dir == "" || filepath.IsAbs(m.Store.Path) {
		return m.Store.Path
	}
	return filepath.Join(m.Dir, m.Store.Path)
}
