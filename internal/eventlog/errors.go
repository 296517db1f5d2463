package eventlog

import (
	"errors"
	"fmt"
)

// ImportError reports an export document that could not be decoded.
type ImportError struct {
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import: not an entry array: %v", e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// IsImportError returns true if err is or wraps an ImportError.
func IsImportError(err error) bool {
	var ie *ImportError
	return errors.As(err, &ie)
}
