package optim

import (
	"errors"
	"fmt"

	"github.com/born-ml/born-optim/internal/nn"
	"github.com/born-ml/born-optim/internal/tensor"
)

// Common errors.
var (
	ErrShapeMismatch      = errors.New("shape mismatch")
	ErrOptimizerMismatch  = errors.New("record belongs to a different optimizer")
	ErrInvalidConfig      = errors.New("invalid optimizer config")
	ErrUnsupportedBackend = errors.New("backend does not support device")
)

// ShapeMismatchError reports a gradient or state tensor whose shape differs
// from its parameter.
type ShapeMismatchError struct {
	ParamID  nn.ParamID   // Parameter identity, empty when raised outside an adaptor
	Field    string       // Offending tensor, e.g. "grad" or "lr_decay.sum"
	Expected tensor.Shape // Parameter shape
	Got      tensor.Shape // Offending shape
}

// Error implements the error interface.
func (e *ShapeMismatchError) Error() string {
	if e.ParamID == "" {
		return fmt.Sprintf("%s: expected %v, got %v", e.Field, e.Expected, e.Got)
	}
	return fmt.Sprintf("parameter %s: %s: expected %v, got %v", e.ParamID, e.Field, e.Expected, e.Got)
}

// Is makes errors.Is(err, ErrShapeMismatch) match.
func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// checkShape returns a *ShapeMismatchError when got differs from expected.
func checkShape(field string, expected, got tensor.Shape) error {
	if expected.Equal(got) {
		return nil
	}
	return &ShapeMismatchError{Field: field, Expected: expected.Clone(), Got: got.Clone()}
}
