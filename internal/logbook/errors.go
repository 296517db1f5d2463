package logbook

import (
	"errors"
	"fmt"
)

// ErrInvalidDraft is wrapped by DraftError.
var ErrInvalidDraft = errors.New("invalid draft")

// DraftError reports a draft whose kind or scope the target log does not
// accept.
type DraftError struct {
	Log   string
	Field string
	Value string
}

func (e *DraftError) Error() string {
	return fmt.Sprintf("%s: %s %q not accepted", e.Log, e.Field, e.Value)
}

func (e *DraftError) Unwrap() error {
	return ErrInvalidDraft
}
