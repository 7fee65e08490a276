package publisher

import "fmt"

// WriteError reports that the configuration could not be written.
type WriteError struct {
	EnvironmentID string
	Path          string
	Cause         error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("publish write error [environment=%s, path=%s]: %v", e.EnvironmentID, e.Path, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *WriteError) Unwrap() error {
	return e.Cause
}
