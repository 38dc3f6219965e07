// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/born-optim/internal/nn"
	"github.com/born-ml/born-optim/internal/tensor"
)

// ParamID is the stable identity of a Parameter.
type ParamID = nn.ParamID

// NewParamID returns a fresh random identity.
func NewParamID() ParamID {
	return nn.NewParamID()
}

// Module interface defines anything that owns trainable parameters.
type Module[T tensor.Float, B tensor.Backend] = nn.Module[T, B]

// Parameter represents a trainable parameter in a neural network.
type Parameter[T tensor.Float, B tensor.Backend] = nn.Parameter[T, B]

// NewParameter creates a new parameter with a fresh identity.
func NewParameter[T tensor.Float, B tensor.Backend](name string, t *tensor.Tensor[T, B]) *Parameter[T, B] {
	return nn.NewParameter(name, t)
}

// NewParameterWithID creates a parameter with a known identity, e.g. one
// restored alongside an optimizer record.
func NewParameterWithID[T tensor.Float, B tensor.Backend](id ParamID, name string, t *tensor.Tensor[T, B]) *Parameter[T, B] {
	return nn.NewParameterWithID(id, name, t)
}

// ParamIDs returns the set of identities owned by m.
func ParamIDs[T tensor.Float, B tensor.Backend](m Module[T, B]) map[ParamID]struct{} {
	return nn.ParamIDs(m)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[T tensor.Float, B tensor.Backend] = nn.Linear[T, B]

// LinearConfig configures a Linear layer.
type LinearConfig = nn.LinearConfig

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear[float32](784, 128, backend)
func NewLinear[T tensor.Float, B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[T, B] {
	return nn.NewLinear[T](inFeatures, outFeatures, backend)
}

// NewLinearWithConfig creates a linear layer from a config.
func NewLinearWithConfig[T tensor.Float, B tensor.Backend](cfg LinearConfig, backend B) *Linear[T, B] {
	return nn.NewLinearWithConfig[T](cfg, backend)
}

// NewLinearFromTensors builds a linear layer around existing tensors. bias
// may be nil.
func NewLinearFromTensors[T tensor.Float, B tensor.Backend](weight, bias *tensor.Tensor[T, B]) (*Linear[T, B], error) {
	return nn.NewLinearFromTensors(weight, bias)
}

// Sequential concatenates the parameters of its children.
type Sequential[T tensor.Float, B tensor.Backend] = nn.Sequential[T, B]

// NewSequential creates a Sequential module.
func NewSequential[T tensor.Float, B tensor.Backend](modules ...Module[T, B]) *Sequential[T, B] {
	return nn.NewSequential(modules...)
}

// Initialization

// Xavier returns a tensor drawn from the Glorot uniform distribution. rng may
// be nil.
func Xavier[T tensor.Float, B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[T, B] {
	return nn.Xavier[T](fanIn, fanOut, shape, rng, backend)
}
