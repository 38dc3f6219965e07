package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/born-optim/internal/tensor"
)

// Linear holds the parameters of a fully connected layer y = x @ W + b.
//
//   - W has shape [in_features, out_features]
//   - b has shape [out_features]
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear[float32](6, 6, backend)
//	params := layer.Parameters() // [weight, bias]
type Linear[T tensor.Float, B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[T, B]
	bias        *Parameter[T, B] // nil when the layer has no bias
}

// LinearConfig configures a Linear layer.
type LinearConfig struct {
	InFeatures  int
	OutFeatures int
	NoBias      bool
	Rng         *rand.Rand // Source for Xavier init; nil uses the global source
}

// NewLinear creates a Linear layer with Xavier-initialized weights and a zero bias.
func NewLinear[T tensor.Float, B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[T, B] {
	return NewLinearWithConfig[T](LinearConfig{InFeatures: inFeatures, OutFeatures: outFeatures}, backend)
}

// NewLinearWithConfig creates a Linear layer from a config.
func NewLinearWithConfig[T tensor.Float, B tensor.Backend](cfg LinearConfig, backend B) *Linear[T, B] {
	weightShape := tensor.Shape{cfg.InFeatures, cfg.OutFeatures}
	weight := NewParameter("weight", Xavier[T](cfg.InFeatures, cfg.OutFeatures, weightShape, cfg.Rng, backend))

	var bias *Parameter[T, B]
	if !cfg.NoBias {
		bias = NewParameter("bias", tensor.Zeros[T](tensor.Shape{cfg.OutFeatures}, backend))
	}

	return &Linear[T, B]{
		inFeatures:  cfg.InFeatures,
		outFeatures: cfg.OutFeatures,
		weight:      weight,
		bias:        bias,
	}
}

// NewLinearFromTensors builds a Linear layer around existing tensors.
// bias may be nil.
func NewLinearFromTensors[T tensor.Float, B tensor.Backend](weight, bias *tensor.Tensor[T, B]) (*Linear[T, B], error) {
	ws := weight.Shape()
	if len(ws) != 2 {
		return nil, fmt.Errorf("linear: weight must be 2D [in, out], got %v", ws)
	}

	l := &Linear[T, B]{
		inFeatures:  ws[0],
		outFeatures: ws[1],
		weight:      NewParameter("weight", weight),
	}
	if bias != nil {
		if !bias.Shape().Equal(tensor.Shape{ws[1]}) {
			return nil, fmt.Errorf("linear: bias shape %v does not match out_features %d", bias.Shape(), ws[1])
		}
		l.bias = NewParameter("bias", bias)
	}
	return l, nil
}

// Parameters returns [weight, bias] if bias is present, otherwise [weight].
func (l *Linear[T, B]) Parameters() []*Parameter[T, B] {
	if l.bias != nil {
		return []*Parameter[T, B]{l.weight, l.bias}
	}
	return []*Parameter[T, B]{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear[T, B]) Weight() *Parameter[T, B] {
	return l.weight
}

// Bias returns the bias parameter, or nil.
func (l *Linear[T, B]) Bias() *Parameter[T, B] {
	return l.bias
}

// InFeatures returns the input width.
func (l *Linear[T, B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the output width.
func (l *Linear[T, B]) OutFeatures() int {
	return l.outFeatures
}
