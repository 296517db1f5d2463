// Package config loads logbook's process configuration: which storage
// backend to open and where, the namespace of the persisted keys, and how
// the process logs.
//
// Precedence, lowest first: Default, a config file passed to Load (JSON,
// YAML or CUE, chosen by extension), LOGBOOK_* environment variables applied
// by FromEnv, then command-line flags applied by the caller.
package config
