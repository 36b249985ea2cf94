package etag

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is wrapped by every error caused by an unusable
// multipart policy (zero threshold, zero chunk size and the like).
var ErrInvalidConfiguration = errors.New("invalid configuration")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

// IOError records a failed read of one part of a file.
type IOError struct {
	Path  string
	Range ByteRange
	Err   error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read %s bytes %s: %v", e.Path, e.Range, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
