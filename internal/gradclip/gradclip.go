// Package gradclip limits gradient magnitude before an optimizer step.
package gradclip

import (
	"errors"
	"fmt"
	"math"

	"github.com/born-ml/born-optim/internal/tensor"
)

// normEpsilon keeps the norm scale finite.
const normEpsilon = 1e-6

// ErrInvalidConfig is returned for a clipping config that sets zero or both
// thresholds, or a non-positive threshold.
var ErrInvalidConfig = errors.New("invalid gradient clipping config")

// Config selects one clipping mode. Exactly one field must be set.
type Config struct {
	Value *float64 `yaml:"value,omitempty" json:"value,omitempty"` // Clamp each element to [-Value, Value]
	Norm  *float64 `yaml:"norm,omitempty" json:"norm,omitempty"`   // Rescale when the L2 norm exceeds Norm
}

// ByValue returns a config that clamps elements to [-threshold, threshold].
func ByValue(threshold float64) *Config {
	return &Config{Value: &threshold}
}

// ByNorm returns a config that rescales gradients whose L2 norm exceeds threshold.
func ByNorm(threshold float64) *Config {
	return &Config{Norm: &threshold}
}

// Validate checks that exactly one positive threshold is set.
func (c *Config) Validate() error {
	switch {
	case c.Value == nil && c.Norm == nil:
		return fmt.Errorf("%w: neither value nor norm set", ErrInvalidConfig)
	case c.Value != nil && c.Norm != nil:
		return fmt.Errorf("%w: both value and norm set", ErrInvalidConfig)
	case c.Value != nil && !(*c.Value > 0):
		return fmt.Errorf("%w: value threshold %v must be positive", ErrInvalidConfig, *c.Value)
	case c.Norm != nil && !(*c.Norm > 0):
		return fmt.Errorf("%w: norm threshold %v must be positive", ErrInvalidConfig, *c.Norm)
	}
	return nil
}

// Init validates the config and builds the clipper.
func (c *Config) Init() (*GradientClipping, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Value != nil {
		return &GradientClipping{mode: modeValue, threshold: *c.Value}, nil
	}
	return &GradientClipping{mode: modeNorm, threshold: *c.Norm}, nil
}

type mode int

const (
	modeValue mode = iota
	modeNorm
)

// GradientClipping is an initialized clipper. It holds no per-parameter state.
type GradientClipping struct {
	mode      mode
	threshold float64
}

// Threshold returns the configured threshold.
func (g *GradientClipping) Threshold() float64 {
	return g.threshold
}

// String describes the clipping mode.
func (g *GradientClipping) String() string {
	if g.mode == modeValue {
		return fmt.Sprintf("clip(value=%g)", g.threshold)
	}
	return fmt.Sprintf("clip(norm=%g)", g.threshold)
}

// Clip returns the clipped gradient. The input is never modified; a gradient
// already within bounds under norm clipping is returned as is.
func Clip[T tensor.Float, B tensor.Backend](g *GradientClipping, grad *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	if g.mode == modeValue {
		return grad.Clamp(-g.threshold, g.threshold)
	}

	norm := L2Norm(grad)
	if norm > g.threshold {
		return grad.MulScalar(g.threshold / (norm + normEpsilon))
	}
	return grad
}

// L2Norm returns sqrt(sum(x^2)).
func L2Norm[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B]) float64 {
	return math.Sqrt(x.Powf(2).Sum())
}
