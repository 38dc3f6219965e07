package optim

import (
	"sort"

	"github.com/born-ml/born-optim/internal/nn"
	"github.com/born-ml/born-optim/internal/tensor"
)

// GradientsParams maps parameter identities to gradients.
//
// A parameter without an entry receives no update.
type GradientsParams[T tensor.Float, B tensor.Backend] struct {
	grads map[nn.ParamID]*tensor.Tensor[T, B]
}

// NewGradientsParams creates an empty gradient set.
func NewGradientsParams[T tensor.Float, B tensor.Backend]() *GradientsParams[T, B] {
	return &GradientsParams[T, B]{grads: make(map[nn.ParamID]*tensor.Tensor[T, B])}
}

// Register sets the gradient for a parameter, replacing any previous one.
func (g *GradientsParams[T, B]) Register(id nn.ParamID, grad *tensor.Tensor[T, B]) {
	g.grads[id] = grad
}

// Get returns the gradient for a parameter.
func (g *GradientsParams[T, B]) Get(id nn.ParamID) (*tensor.Tensor[T, B], bool) {
	grad, ok := g.grads[id]
	return grad, ok
}

// Remove deletes and returns the gradient for a parameter.
func (g *GradientsParams[T, B]) Remove(id nn.ParamID) (*tensor.Tensor[T, B], bool) {
	grad, ok := g.grads[id]
	delete(g.grads, id)
	return grad, ok
}

// Len returns the number of gradients.
func (g *GradientsParams[T, B]) Len() int {
	return len(g.grads)
}

// IDs returns the parameter identities in sorted order.
func (g *GradientsParams[T, B]) IDs() []nn.ParamID {
	ids := make([]nn.ParamID, 0, len(g.grads))
	for id := range g.grads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GradientsFromRaw converts an autodiff-style gradient map keyed by each
// parameter's underlying RawTensor into identity-keyed gradients.
//
// Parameters that did not take part in the computation have no entry in
// grads and are left out.
func GradientsFromRaw[T tensor.Float, B tensor.Backend](
	grads map[*tensor.RawTensor]*tensor.RawTensor,
	module nn.Module[T, B],
	backend B,
) *GradientsParams[T, B] {
	out := NewGradientsParams[T, B]()
	for _, param := range module.Parameters() {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		out.Register(param.ID(), tensor.New[T, B](grad, backend))
	}
	return out
}

// getGradient safely retrieves gradient for a parameter.
//
// Returns nil if no gradient is found (parameter wasn't part of computation graph).
func getGradient[T tensor.Float, B tensor.Backend](param *nn.Parameter[T, B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}
