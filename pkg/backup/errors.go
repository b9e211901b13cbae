package backup

import "fmt"

// ExtractionError means the producer could not supply a graph. Nothing is
// written when it occurs.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("memory extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
