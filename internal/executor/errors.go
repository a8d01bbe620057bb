package executor

import (
	"fmt"

	"github.com/rs/zerolog"
)

// StoreFailedError occurs when a batched store call fails. It carries the
// failing step's query path and aborts the whole request; retry policy
// belongs to the store access layer, never to the executor.
type StoreFailedError struct {
	error
	path string
}

// Path is the query path of the step whose store call failed.
func (err StoreFailedError) Path() string { return err.path }

// MarshalZerologObject implements zerolog object marshalling.
func (err StoreFailedError) MarshalZerologObject(e *zerolog.Event) {
	e.Err(err.error).Str("path", err.path)
}

// DetailsMetadata returns the metadata for details for this error.
func (err StoreFailedError) DetailsMetadata() map[string]string {
	return map[string]string{
		"path": err.path,
	}
}

// Unwrap returns the underlying store error.
func (err StoreFailedError) Unwrap() error { return err.error }

// NewStoreFailedError constructs a new store failure error for a step.
func NewStoreFailedError(path string, cause error) error {
	return StoreFailedError{
		error: fmt.Errorf("store call failed at `%s`: %w", path, cause),
		path:  path,
	}
}
