package store

import "fmt"

// PersistError reports a failure of the snapshot backend. The in-memory
// state is rolled back to what it was before the failed mutation.
type PersistError struct {
	Backend   string // Snapshot backend ("file", "sqlite", "postgres")
	Operation string // Operation that failed ("load", "save", "open")
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *PersistError) Error() string {
	return fmt.Sprintf("store error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *PersistError) Unwrap() error {
	return e.Cause
}

// NewPersistError creates a new PersistError.
func NewPersistError(backend, operation string, cause error) *PersistError {
	return &PersistError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}
