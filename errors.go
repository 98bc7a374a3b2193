package hashcache

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	// ErrMissingColumn is returned when a record file header lacks a required field.
	ErrMissingColumn = errors.New("missing column")

	// ErrUnknownAlgorithm is returned when an algorithm name or value is not registered.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")

	// ErrInvalidHash is returned when a hash does not validate for its algorithm.
	ErrInvalidHash = errors.New("invalid hash")

	// ErrUnencodablePath is returned when a path cannot be written to a record
	// file and read back unchanged.
	ErrUnencodablePath = errors.New("path cannot be stored")
)

// LoadError reports a record file that could not be opened or whose
// structure could not be parsed. The cache is left as it was before the call.
type LoadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// PersistError reports an append that could not open, write or flush the
// persistence file.
type PersistError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistError) Unwrap() error {
	return e.Err
}

// ValidationError represents one or more problems found with a record.
type ValidationError struct {
	Errors []error
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	if len(ve.Errors) == 0 {
		return "validation failed"
	}
	if len(ve.Errors) == 1 {
		return fmt.Sprintf("validation failed: %v", ve.Errors[0])
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "validation failed with %d errors:\n", len(ve.Errors))
	for i, err := range ve.Errors {
		fmt.Fprintf(&buf, "  %d. %v\n", i+1, err)
	}
	return buf.String()
}

// Unwrap returns the underlying errors for use with errors.Is and errors.As.
func (ve *ValidationError) Unwrap() []error {
	return ve.Errors
}

// newValidationError creates a ValidationError from a slice of errors.
// Returns nil if the slice is empty.
func newValidationError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}
