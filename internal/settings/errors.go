package settings

import "errors"

// ErrNotLoaded is returned by Snapshot before EnsureLoaded, Set or
// ResetDefaults has completed once.
var ErrNotLoaded = errors.New("settings: not loaded")
