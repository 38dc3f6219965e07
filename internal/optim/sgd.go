package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/born-optim/internal/gradclip"
	"github.com/born-ml/born-optim/internal/record"
	"github.com/born-ml/born-optim/internal/tensor"
)

// SGDName identifies SGD records.
const SGDName = "sgd"

// SGDConfig holds configuration for the SGD optimizer.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + (1 - dampening) * gradient
//	param = param - lr * velocity
//
// With Nesterov the step uses gradient + momentum * velocity instead.
type SGDConfig struct {
	Momentum     float64            `yaml:"momentum" json:"momentum"`                               // Momentum factor (default: 0, range: [0, 1))
	Dampening    float64            `yaml:"dampening" json:"dampening"`                             // Dampening for momentum (default: 0)
	Nesterov     bool               `yaml:"nesterov" json:"nesterov"`                               // Nesterov momentum
	WeightDecay  *WeightDecayConfig `yaml:"weight_decay,omitempty" json:"weight_decay,omitempty"`   // Optional weight decay
	GradClipping *gradclip.Config   `yaml:"grad_clipping,omitempty" json:"grad_clipping,omitempty"` // Optional gradient clipping
}

// Validate checks the configuration.
func (c SGDConfig) Validate() error {
	if c.Momentum < 0 || c.Momentum >= 1 || math.IsNaN(c.Momentum) {
		return fmt.Errorf("%w: momentum %v must be in [0, 1)", ErrInvalidConfig, c.Momentum)
	}
	if c.Dampening < 0 || c.Dampening > 1 || math.IsNaN(c.Dampening) {
		return fmt.Errorf("%w: dampening %v must be in [0, 1]", ErrInvalidConfig, c.Dampening)
	}
	if c.Nesterov && (c.Momentum == 0 || c.Dampening != 0) {
		return fmt.Errorf("%w: nesterov requires momentum > 0 and zero dampening", ErrInvalidConfig)
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

// SGDState is the composite per-parameter state. Each field is nil when the
// matching transform is not configured.
type SGDState[T tensor.Float, B tensor.Backend] struct {
	WeightDecay *WeightDecayState[T, B]
	Momentum    *MomentumState[T, B]
}

// SGD implements Stochastic Gradient Descent with optional momentum.
type SGD[T tensor.Float, B tensor.Backend] struct {
	momentum    *Momentum[T, B]
	weightDecay *WeightDecay[T, B]
}

// NewSGDOptimizer builds the single-tensor SGD rule.
func NewSGDOptimizer[T tensor.Float, B tensor.Backend](cfg SGDConfig) (*SGD[T, B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &SGD[T, B]{}
	if cfg.Momentum != 0 {
		s.momentum = &Momentum[T, B]{momentum: cfg.Momentum, dampening: cfg.Dampening, nesterov: cfg.Nesterov}
	}
	if cfg.WeightDecay != nil {
		s.weightDecay = NewWeightDecay[T, B](*cfg.WeightDecay)
	}
	return s, nil
}

// NewSGD builds an SGD optimizer for every parameter of a module.
func NewSGD[T tensor.Float, B tensor.Backend](cfg SGDConfig, backend B, opts ...Option) (*Adaptor[T, B, SGDState[T, B]], error) {
	rule, err := NewSGDOptimizer[T, B](cfg)
	if err != nil {
		return nil, err
	}
	return newConfiguredAdaptor[T, B, SGDState[T, B]](rule, backend, cfg.GradClipping, opts)
}

// Name returns SGDName.
func (s *SGD[T, B]) Name() string {
	return SGDName
}

// Step performs one SGD update.
func (s *SGD[T, B]) Step(lr LearningRate, param, grad *tensor.Tensor[T, B], state *SGDState[T, B]) (*tensor.Tensor[T, B], *SGDState[T, B], error) {
	if err := checkShape("grad", param.Shape(), grad.Shape()); err != nil {
		return nil, nil, err
	}
	if state == nil {
		state = &SGDState[T, B]{}
	}

	next := &SGDState[T, B]{}
	var err error
	if s.weightDecay != nil {
		if grad, next.WeightDecay, err = s.weightDecay.Transform(grad, state.WeightDecay); err != nil {
			return nil, nil, err
		}
	}
	if s.momentum != nil {
		if grad, next.Momentum, err = s.momentum.Transform(grad, state.Momentum); err != nil {
			return nil, nil, err
		}
	}
	return param.Sub(grad.MulScalar(lr)), next, nil
}

// ToDevice returns a copy of state with every tensor placed on device.
func (s *SGD[T, B]) ToDevice(state *SGDState[T, B], device tensor.Device) (*SGDState[T, B], error) {
	if state == nil {
		return nil, nil
	}
	out := &SGDState[T, B]{}
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

// StateToRecord converts the state to {weight_decay?, momentum?}.
func (s *SGD[T, B]) StateToRecord(state *SGDState[T, B]) *record.Node {
	node := record.NewNode()
	if state.WeightDecay != nil {
		node.SetNode(weightDecayKey, state.WeightDecay.toRecord())
	}
	if state.Momentum != nil {
		node.SetNode(momentumKey, state.Momentum.toRecord())
	}
	return node
}

// StateFromRecord rebuilds a state. Both sub-states are optional.
func (s *SGD[T, B]) StateFromRecord(node *record.Node, backend B) (*SGDState[T, B], error) {
	state := &SGDState[T, B]{}
	var err error
	if child := node.OptionalChild(weightDecayKey); child != nil {
		if state.WeightDecay, err = weightDecayStateFromRecord[T](child, backend); err != nil {
			return nil, err
		}
	}
	if child := node.OptionalChild(momentumKey); child != nil {
		if state.Momentum, err = momentumStateFromRecord[T](child, backend); err != nil {
			return nil, err
		}
	}
	return state, nil
}
