package config

import (
	"os"
	"strconv"
)

// FromEnv overlays LOGBOOK_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("LOGBOOK_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("LOGBOOK_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("LOGBOOK_NO_SYNC"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Storage.NoSync = b
		}
	}
	if v := os.Getenv("LOGBOOK_NAMESPACE"); v != "" {
		cfg.Keys.Namespace = v
	}
	if v := os.Getenv("LOGBOOK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOGBOOK_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
