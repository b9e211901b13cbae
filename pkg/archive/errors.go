package archive

import (
	"errors"
	"fmt"
)

// ErrInvalidName is returned when a snapshot name is not a plain file name.
var ErrInvalidName = errors.New("invalid snapshot name")

// IOError reports a failed filesystem operation on the archive.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("archive %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
