package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/born-optim/internal/gradclip"
	"github.com/born-ml/born-optim/internal/record"
	"github.com/born-ml/born-optim/internal/tensor"
)

// AdamName identifies Adam records.
const AdamName = "adam"

// AdamConfig holds configuration for the Adam optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type AdamConfig struct {
	Beta1        float64            `yaml:"beta1" json:"beta1"`                                     // First moment decay (default: 0.9)
	Beta2        float64            `yaml:"beta2" json:"beta2"`                                     // Second moment decay (default: 0.999)
	Epsilon      float64            `yaml:"epsilon" json:"epsilon"`                                 // Term for numerical stability (default: 1e-8)
	WeightDecay  *WeightDecayConfig `yaml:"weight_decay,omitempty" json:"weight_decay,omitempty"`   // Optional weight decay
	GradClipping *gradclip.Config   `yaml:"grad_clipping,omitempty" json:"grad_clipping,omitempty"` // Optional gradient clipping
}

// withDefaults replaces zero values with defaults.
func (c AdamConfig) withDefaults() AdamConfig {
	if c.Beta1 == 0 {
		c.Beta1 = 0.9
	}
	if c.Beta2 == 0 {
		c.Beta2 = 0.999
	}
	if c.Epsilon == 0 {
		c.Epsilon = 1e-8
	}
	return c
}

// Validate checks the configuration after defaults are applied.
func (c AdamConfig) Validate() error {
	c = c.withDefaults()
	for _, beta := range []struct {
		name  string
		value float64
	}{{"beta1", c.Beta1}, {"beta2", c.Beta2}} {
		if !(beta.value > 0 && beta.value < 1) {
			return fmt.Errorf("%w: %s %v must be in (0, 1)", ErrInvalidConfig, beta.name, beta.value)
		}
	}
	if !(c.Epsilon > 0) || math.IsInf(c.Epsilon, 0) {
		return fmt.Errorf("%w: epsilon %v must be finite and > 0", ErrInvalidConfig, c.Epsilon)
	}
	if c.WeightDecay != nil {
		if err := c.WeightDecay.Validate(); err != nil {
			return err
		}
	}
	if c.GradClipping != nil {
		if err := c.GradClipping.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// AdamState is the composite per-parameter state.
type AdamState[T tensor.Float, B tensor.Backend] struct {
	WeightDecay *WeightDecayState[T, B]
	Momentum    *AdaptiveMomentumState[T, B]
}

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
type Adam[T tensor.Float, B tensor.Backend] struct {
	momentum    *AdaptiveMomentum[T, B]
	weightDecay *WeightDecay[T, B]
}

// NewAdamOptimizer builds the single-tensor Adam rule.
func NewAdamOptimizer[T tensor.Float, B tensor.Backend](cfg AdamConfig) (*Adam[T, B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	a := &Adam[T, B]{
		momentum: &AdaptiveMomentum[T, B]{beta1: cfg.Beta1, beta2: cfg.Beta2, epsilon: cfg.Epsilon},
	}
	if cfg.WeightDecay != nil {
		a.weightDecay = NewWeightDecay[T, B](*cfg.WeightDecay)
	}
	return a, nil
}

// NewAdam builds an Adam optimizer for every parameter of a module.
func NewAdam[T tensor.Float, B tensor.Backend](cfg AdamConfig, backend B, opts ...Option) (*Adaptor[T, B, AdamState[T, B]], error) {
	rule, err := NewAdamOptimizer[T, B](cfg)
	if err != nil {
		return nil, err
	}
	return newConfiguredAdaptor[T, B, AdamState[T, B]](rule, backend, cfg.GradClipping, opts)
}

// Name returns AdamName.
func (a *Adam[T, B]) Name() string {
	return AdamName
}

// Step performs one Adam update.
func (a *Adam[T, B]) Step(lr LearningRate, param, grad *tensor.Tensor[T, B], state *AdamState[T, B]) (*tensor.Tensor[T, B], *AdamState[T, B], error) {
	if err := checkShape("grad", param.Shape(), grad.Shape()); err != nil {
		return nil, nil, err
	}
	if state == nil {
		state = &AdamState[T, B]{}
	}

	next := &AdamState[T, B]{}
	var err error
	if a.weightDecay != nil {
		if grad, next.WeightDecay, err = a.weightDecay.Transform(grad, state.WeightDecay); err != nil {
			return nil, nil, err
		}
	}
	if grad, next.Momentum, err = a.momentum.Transform(grad, state.Momentum); err != nil {
		return nil, nil, err
	}
	return param.Sub(grad.MulScalar(lr)), next, nil
}

// ToDevice returns a copy of state with every tensor placed on device.
func (a *Adam[T, B]) ToDevice(state *AdamState[T, B], device tensor.Device) (*AdamState[T, B], error) {
	if state == nil {
		return nil, nil
	}
	out := &AdamState[T, B]{}
	var err error
	if state.WeightDecay != nil {
		if out.WeightDecay, err = state.WeightDecay.ToDevice(device); err != nil {
			return nil, err
		}
	}
	if state.Momentum != nil {
		if out.Momentum, err = state.Momentum.ToDevice(device); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// StateToRecord converts the state to {weight_decay?, momentum}.
func (a *Adam[T, B]) StateToRecord(state *AdamState[T, B]) *record.Node {
	node := record.NewNode()
	if state.WeightDecay != nil {
		node.SetNode(weightDecayKey, state.WeightDecay.toRecord())
	}
	if state.Momentum != nil {
		node.SetNode(momentumKey, state.Momentum.toRecord())
	}
	return node
}

// StateFromRecord rebuilds a state. momentum is required.
func (a *Adam[T, B]) StateFromRecord(node *record.Node, backend B) (*AdamState[T, B], error) {
	state := &AdamState[T, B]{}
	var err error
	if child := node.OptionalChild(weightDecayKey); child != nil {
		if state.WeightDecay, err = weightDecayStateFromRecord[T](child, backend); err != nil {
			return nil, err
		}
	}
	child, err := node.Child(momentumKey)
	if err != nil {
		return nil, err
	}
	if state.Momentum, err = adaptiveMomentumStateFromRecord[T](child, backend); err != nil {
		return nil, err
	}
	return state, nil
}
