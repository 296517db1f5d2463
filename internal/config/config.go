package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendPebble = "pebble"
	BackendMemory = "memory"
)

// DefaultNamespace prefixes every persisted key.
const DefaultNamespace = "logbook"

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Storage Storage `json:"storage" yaml:"storage"`
	Keys    Keys    `json:"keys" yaml:"keys"`
	Logging Logging `json:"logging" yaml:"logging"`
}

// Storage selects the persistence adapter.
type Storage struct {
	// Backend is one of sqlite, pebble or memory.
	Backend string `json:"backend" yaml:"backend"`
	// Path is the SQLite file or the Pebble directory. Empty means a
	// location under DefaultDataDir.
	Path string `json:"path" yaml:"path"`
	// NoSync skips fsync on Pebble commits.
	NoSync bool `json:"noSync" yaml:"noSync"`
}

// Keys names the persisted keys.
type Keys struct {
	Namespace string `json:"namespace" yaml:"namespace"`
}

// Logging configures the process logger.
type Logging struct {
	// Level is debug, info, warn or error.
	Level string `json:"level" yaml:"level"`
	// Format is text or json.
	Format string `json:"format" yaml:"format"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Storage: Storage{Backend: BackendSQLite},
		Keys:    Keys{Namespace: DefaultNamespace},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON, YAML or CUE file (by extension)
// layered over Default. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	case ".cue":
		if err := decodeCUE(b, path, &cfg); err != nil {
			return Config{}, err
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse json config %s: %w", path, err)
		}
	}

	slog.Debug("config loaded", "path", path, "backend", cfg.Storage.Backend)
	return cfg, nil
}

// decodeCUE evaluates a single CUE file and overlays the result onto cfg.
// Constraints in the file (e.g. backend: "sqlite" | "pebble") are checked by
// CUE before decoding; fields the file leaves out keep their value in cfg.
func decodeCUE(src []byte, path string, cfg *Config) error {
	v := cuecontext.New().CompileBytes(src, cue.Filename(path))
	if err := v.Err(); err != nil {
		return fmt.Errorf("compile cue config %s: %w", path, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("cue config %s is not concrete: %w", path, err)
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Errorf("export cue config %s: %w", path, err)
	}
	if err := json.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("decode cue config %s: %w", path, err)
	}
	return nil
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendPebble, BackendMemory:
	default:
		return fmt.Errorf("storage.backend: unknown backend %q (want sqlite, pebble or memory)", c.Storage.Backend)
	}

	if c.Keys.Namespace == "" || strings.ContainsAny(c.Keys.Namespace, " \t\n") {
		return fmt.Errorf("keys.namespace: %q must be non-empty without whitespace", c.Keys.Namespace)
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q (want text or json)", c.Logging.Format)
	}
	return nil
}

// SlogLevel parses Level. Empty means info.
func (l Logging) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// StoragePath returns Storage.Path, or the backend's default location under
// DefaultDataDir when it is empty. The memory backend has no path.
func (c Config) StoragePath() string {
	if c.Storage.Path != "" || c.Storage.Backend == BackendMemory {
		return c.Storage.Path
	}
	if c.Storage.Backend == BackendPebble {
		return filepath.Join(DefaultDataDir(), "pebble")
	}
	return filepath.Join(DefaultDataDir(), "logbook.db")
}

// AuditLog is the key of the audit log collection.
func (k Keys) AuditLog() string { return k.Namespace + ".actionLog" }

// DebugTrace is the key of the debug trace collection.
func (k Keys) DebugTrace() string { return k.Namespace + ".debugTrace" }

// DebugTraceEnabled is the key of the debug trace switch.
func (k Keys) DebugTraceEnabled() string { return k.Namespace + ".debugTrace.enabled" }

// Settings is the key of the settings object.
func (k Keys) Settings() string { return k.Namespace + ".devConfig" }
