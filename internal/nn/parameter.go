package nn

import (
	"github.com/google/uuid"

	"github.com/born-ml/born-optim/internal/tensor"
)

// ParamID identifies a learnable tensor across optimization steps.
//
// IDs are opaque: two parameters with identical names and shapes still get
// distinct IDs, and an ID never changes for the lifetime of its parameter.
type ParamID string

// NewParamID returns a fresh random identity.
func NewParamID() ParamID {
	return ParamID(uuid.NewString())
}

// String returns the ID as a plain string.
func (id ParamID) String() string {
	return string(id)
}

// Parameter represents a trainable parameter in a neural network.
//
// Parameters are tensors that require gradient computation during training.
// They typically represent weights and biases of layers.
//
// Example:
//
//	// Create a weight parameter
//	weight := nn.NewParameter("weight", weightTensor)
//
//	// Access the tensor
//	w := weight.Tensor()
//
//	// Key optimizer state by identity
//	state := registry.Get(weight.ID())
type Parameter[T tensor.Float, B tensor.Backend] struct {
	id     ParamID              // Stable identity used by optimizers
	name   string               // Parameter name (e.g., "weight", "bias")
	tensor *tensor.Tensor[T, B] // The parameter tensor
}

// NewParameter creates a new trainable parameter with a fresh identity.
//
// Parameters:
//   - name: Descriptive name for this parameter (e.g., "linear1.weight")
//   - tensor: The initialized parameter tensor
//
// Returns a new Parameter.
func NewParameter[T tensor.Float, B tensor.Backend](name string, t *tensor.Tensor[T, B]) *Parameter[T, B] {
	return NewParameterWithID(NewParamID(), name, t)
}

// NewParameterWithID creates a parameter with a known identity, e.g. when
// rebuilding a model whose optimizer state was saved earlier.
func NewParameterWithID[T tensor.Float, B tensor.Backend](id ParamID, name string, t *tensor.Tensor[T, B]) *Parameter[T, B] {
	return &Parameter[T, B]{
		id:     id,
		name:   name,
		tensor: t,
	}
}

// ID returns the parameter identity.
func (p *Parameter[T, B]) ID() ParamID {
	return p.id
}

// Name returns the parameter name.
func (p *Parameter[T, B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[T, B]) Tensor() *tensor.Tensor[T, B] {
	return p.tensor
}

// SetTensor replaces the parameter value.
//
// Optimizers call this once per step with the updated tensor; the previous
// tensor is left untouched for anyone still holding it.
func (p *Parameter[T, B]) SetTensor(t *tensor.Tensor[T, B]) {
	p.tensor = t
}
