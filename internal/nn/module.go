// Package nn implements the parameter containers optimized by this module.
//
// Layers here only own parameters; forward computation and gradients are
// produced elsewhere and handed to an optimizer keyed by ParamID.
package nn

import (
	"github.com/born-ml/born-optim/internal/tensor"
)

// Module is the base interface for everything an optimizer can update.
//
// Parameters must return the same *Parameter values, in the same order, on
// every call; optimizers write updated tensors back through them.
type Module[T tensor.Float, B tensor.Backend] interface {
	// Parameters returns all trainable parameters of this module,
	// including those of nested modules.
	Parameters() []*Parameter[T, B]
}

// Sequential is a container module that groups other modules.
//
// Example:
//
//	model := nn.NewSequential[float32](
//	    nn.NewLinear[float32](784, 128, backend),
//	    nn.NewLinear[float32](128, 10, backend),
//	)
type Sequential[T tensor.Float, B tensor.Backend] struct {
	modules []Module[T, B]
}

// NewSequential creates a new Sequential container.
func NewSequential[T tensor.Float, B tensor.Backend](modules ...Module[T, B]) *Sequential[T, B] {
	return &Sequential[T, B]{
		modules: modules,
	}
}

// Parameters returns the parameters of all contained modules in order.
func (s *Sequential[T, B]) Parameters() []*Parameter[T, B] {
	var params []*Parameter[T, B]
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Modules returns the contained modules.
func (s *Sequential[T, B]) Modules() []Module[T, B] {
	return s.modules
}

// ParamIDs returns the identities of a module's parameters as a set.
func ParamIDs[T tensor.Float, B tensor.Backend](m Module[T, B]) map[ParamID]struct{} {
	params := m.Parameters()
	ids := make(map[ParamID]struct{}, len(params))
	for _, p := range params {
		ids[p.ID()] = struct{}{}
	}
	return ids
}
