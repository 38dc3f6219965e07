package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/born-optim/internal/record"
	"github.com/born-ml/born-optim/internal/tensor"
)

// Record keys for the weight decay sub-state.
const (
	weightDecayKey   = "weight_decay"
	gradLastStepKey  = "grad_last_step"
	weightDecayField = weightDecayKey + "." + gradLastStepKey
)

// WeightDecayConfig configures the weight decay transform.
type WeightDecayConfig struct {
	Penalty float64 `yaml:"penalty" json:"penalty"` // L2 penalty coefficient
}

// Validate rejects a negative or non-finite penalty.
func (c *WeightDecayConfig) Validate() error {
	if c.Penalty < 0 || math.IsNaN(c.Penalty) || math.IsInf(c.Penalty, 0) {
		return fmt.Errorf("%w: weight decay penalty %v must be finite and >= 0", ErrInvalidConfig, c.Penalty)
	}
	return nil
}

// WeightDecayState holds the gradient seen on the previous step.
type WeightDecayState[T tensor.Float, B tensor.Backend] struct {
	GradLastStep *tensor.Tensor[T, B]
}

// ToDevice returns a copy of the state placed on device.
func (s *WeightDecayState[T, B]) ToDevice(device tensor.Device) (*WeightDecayState[T, B], error) {
	grad, err := s.GradLastStep.ToDevice(device)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", weightDecayField, err)
	}
	return &WeightDecayState[T, B]{GradLastStep: grad}, nil
}

func (s *WeightDecayState[T, B]) toRecord() *record.Node {
	return record.NewNode().SetTensor(gradLastStepKey, record.FromTensor(s.GradLastStep))
}

func weightDecayStateFromRecord[T tensor.Float, B tensor.Backend](node *record.Node, backend B) (*WeightDecayState[T, B], error) {
	data, err := node.Tensor(gradLastStepKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", weightDecayKey, err)
	}
	grad, err := record.ToTensor[T](data, backend)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", weightDecayField, err)
	}
	return &WeightDecayState[T, B]{GradLastStep: grad}, nil
}

// WeightDecay adds a penalty proportional to the previous step's gradient.
//
//	first step: out = grad
//	later:      out = grad + penalty * grad_last_step
//
// The new state always stores the raw incoming gradient.
type WeightDecay[T tensor.Float, B tensor.Backend] struct {
	penalty float64
}

// NewWeightDecay creates the transform from its config.
func NewWeightDecay[T tensor.Float, B tensor.Backend](cfg WeightDecayConfig) *WeightDecay[T, B] {
	return &WeightDecay[T, B]{penalty: cfg.Penalty}
}

// Penalty returns the configured coefficient.
func (w *WeightDecay[T, B]) Penalty() float64 {
	return w.penalty
}

// Transform applies weight decay to grad.
func (w *WeightDecay[T, B]) Transform(grad *tensor.Tensor[T, B], state *WeightDecayState[T, B]) (*tensor.Tensor[T, B], *WeightDecayState[T, B], error) {
	next := &WeightDecayState[T, B]{GradLastStep: grad}
	if state == nil {
		return grad, next, nil
	}
	if err := checkShape(weightDecayField, grad.Shape(), state.GradLastStep.Shape()); err != nil {
		return nil, nil, err
	}
	return state.GradLastStep.MulScalar(w.penalty).Add(grad), next, nil
}
