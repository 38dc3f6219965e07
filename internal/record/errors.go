package record

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrFieldMissing       = errors.New("record field missing")
	ErrFieldType          = errors.New("record field has wrong kind")
	ErrInvalidKey         = errors.New("invalid record key")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported record version")
	ErrChecksumMismatch   = errors.New("checksum mismatch: record may be corrupted")
	ErrSizeMismatch       = errors.New("tensor data size does not match shape")
	ErrUnknownFormat      = errors.New("unknown record format")
	ErrMalformed          = errors.New("malformed record")
	ErrNoRecord           = errors.New("no record stored")
)

// FieldError reports a problem with one field of a node.
type FieldError struct {
	Key    string // Field name
	Kind   Kind   // Expected kind
	Reason error  // Underlying error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s field %q: %v", e.Kind, e.Key, e.Reason)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Reason
}
