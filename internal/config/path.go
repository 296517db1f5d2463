package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir returns the per-user data directory for logbook files.
// XDG_DATA_HOME wins when set; otherwise the platform's user data location
// is used, falling back to ./data when no home directory is known.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "logbook")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./data"
	}

	// macOS: ~/Library/Application Support/logbook
	if isDir(filepath.Join(homeDir, "Library")) {
		return filepath.Join(homeDir, "Library", "Application Support", "logbook")
	}

	// Windows: %USERPROFILE%/AppData/Local/logbook
	if isDir(filepath.Join(homeDir, "AppData")) {
		return filepath.Join(homeDir, "AppData", "Local", "logbook")
	}

	return filepath.Join(homeDir, ".local", "share", "logbook")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
