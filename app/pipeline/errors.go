package pipeline

import "fmt"

// ValidationError rejects a draft that fails the admission gate.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// DuplicateError rejects a draft whose URL was already admitted during the
// current run.
type DuplicateError struct {
	URL string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate article in run: %s", e.URL)
}

// PersistenceError wraps a storage failure at the end of the pipeline.
type PersistenceError struct {
	URL string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s: %v", e.URL, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
