package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/born-optim/internal/gradclip"
	"github.com/born-ml/born-optim/internal/record"
	"github.com/born-ml/born-optim/internal/tensor"
)

// AdaGradName identifies AdaGrad records.
const AdaGradName = "adagrad"

// DefaultAdaGradEpsilon is used when AdaGradConfig.Epsilon is zero.
const DefaultAdaGradEpsilon = 1e-5

// AdaGradConfig holds configuration for the AdaGrad optimizer.
type AdaGradConfig struct {
	LRDecay      float64            `yaml:"lr_decay" json:"lr_decay"`                               // Time decay of the learning rate (default: 0)
	Epsilon      float64            `yaml:"epsilon" json:"epsilon"`                                 // Term for numerical stability (default: 1e-5)
	WeightDecay  *WeightDecayConfig `yaml:"weight_decay,omitempty" json:"weight_decay,omitempty"`   // Optional weight decay
	GradClipping *gradclip.Config   `yaml:"grad_clipping,omitempty" json:"grad_clipping,omitempty"` // Optional gradient clipping
}

// NewAdaGradConfig returns the default configuration.
func NewAdaGradConfig() AdaGradConfig {
	return AdaGradConfig{Epsilon: DefaultAdaGradEpsilon}
}

// WithLRDecay returns a copy with the learning rate decay set.
func (c AdaGradConfig) WithLRDecay(lrDecay float64) AdaGradConfig {
	c.LRDecay = lrDecay
	return c
}

// WithEpsilon returns a copy with epsilon set.
func (c AdaGradConfig) WithEpsilon(epsilon float64) AdaGradConfig {
	c.Epsilon = epsilon
	return c
}

// WithWeightDecay returns a copy with weight decay set (nil disables it).
func (c AdaGradConfig) WithWeightDecay(wd *WeightDecayConfig) AdaGradConfig {
	c.WeightDecay = wd
	return c
}

// WithGradClipping returns a copy with gradient clipping set (nil disables it).
func (c AdaGradConfig) WithGradClipping(clip *gradclip.Config) AdaGradConfig {
	c.GradClipping = clip
	return c
}

// withDefaults replaces zero values with defaults.
func (c AdaGradConfig) withDefaults() AdaGradConfig {
	if c.Epsilon == 0 {
		c.Epsilon = DefaultAdaGradEpsilon
	}
	return c
}

// Validate checks the configuration after defaults are applied.
func (c AdaGradConfig) Validate() error {
	c = c.withDefaults()
	if c.LRDecay < 0 || math.IsNaN(c.LRDecay) || math.IsInf(c.LRDecay, 0) {
		return fmt.Errorf("%w: lr_decay %v must be finite and >= 0", ErrInvalidConfig, c.LRDecay)
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

// AdaGradState is the composite per-parameter state.
//
// WeightDecay is nil when weight decay is not configured.
type AdaGradState[T tensor.Float, B tensor.Backend] struct {
	WeightDecay *WeightDecayState[T, B]
	LRDecay     *LRDecayState[T, B]
}

// AdaGrad applies weight decay, then adaptive learning rate decay, then
// subtracts the result from the parameter. The order is fixed.
type AdaGrad[T tensor.Float, B tensor.Backend] struct {
	lrDecay     *LRDecay[T, B]
	weightDecay *WeightDecay[T, B]
}

// NewAdaGradOptimizer builds the single-tensor AdaGrad rule.
func NewAdaGradOptimizer[T tensor.Float, B tensor.Backend](cfg AdaGradConfig) (*AdaGrad[T, B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	a := &AdaGrad[T, B]{lrDecay: NewLRDecay[T, B](cfg.LRDecay, cfg.Epsilon)}
	if cfg.WeightDecay != nil {
		a.weightDecay = NewWeightDecay[T, B](*cfg.WeightDecay)
	}
	return a, nil
}

// NewAdaGrad builds an AdaGrad optimizer for every parameter of a module.
//
// Gradient clipping from cfg is installed on the adaptor; opts may add
// parallelism or logging.
func NewAdaGrad[T tensor.Float, B tensor.Backend](cfg AdaGradConfig, backend B, opts ...Option) (*Adaptor[T, B, AdaGradState[T, B]], error) {
	rule, err := NewAdaGradOptimizer[T, B](cfg)
	if err != nil {
		return nil, err
	}
	return newConfiguredAdaptor[T, B, AdaGradState[T, B]](rule, backend, cfg.GradClipping, opts)
}

// Name returns AdaGradName.
func (a *AdaGrad[T, B]) Name() string {
	return AdaGradName
}

// Step performs one AdaGrad update.
func (a *AdaGrad[T, B]) Step(lr LearningRate, param, grad *tensor.Tensor[T, B], state *AdaGradState[T, B]) (*tensor.Tensor[T, B], *AdaGradState[T, B], error) {
	if err := checkShape("grad", param.Shape(), grad.Shape()); err != nil {
		return nil, nil, err
	}

	var wdState *WeightDecayState[T, B]
	var lrState *LRDecayState[T, B]
	if state != nil {
		wdState, lrState = state.WeightDecay, state.LRDecay
	}

	next := &AdaGradState[T, B]{}
	var err error
	if a.weightDecay != nil {
		grad, next.WeightDecay, err = a.weightDecay.Transform(grad, wdState)
		if err != nil {
			return nil, nil, err
		}
	}
	grad, next.LRDecay, err = a.lrDecay.Transform(grad, lr, lrState)
	if err != nil {
		return nil, nil, err
	}

	return param.Sub(grad), next, nil
}

// ToDevice returns a copy of state with every tensor placed on device.
func (a *AdaGrad[T, B]) ToDevice(state *AdaGradState[T, B], device tensor.Device) (*AdaGradState[T, B], error) {
	if state == nil {
		return nil, nil
	}
	out := &AdaGradState[T, B]{}
	var err error
	if state.WeightDecay != nil {
		if out.WeightDecay, err = state.WeightDecay.ToDevice(device); err != nil {
			return nil, err
		}
	}
	if state.LRDecay != nil {
		if out.LRDecay, err = state.LRDecay.ToDevice(device); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// StateToRecord converts the state to {weight_decay?, lr_decay}.
func (a *AdaGrad[T, B]) StateToRecord(state *AdaGradState[T, B]) *record.Node {
	node := record.NewNode()
	if state.WeightDecay != nil {
		node.SetNode(weightDecayKey, state.WeightDecay.toRecord())
	}
	if state.LRDecay != nil {
		node.SetNode(lrDecayKey, state.LRDecay.toRecord())
	}
	return node
}

// StateFromRecord rebuilds a state. lr_decay is required; weight_decay is
// optional.
func (a *AdaGrad[T, B]) StateFromRecord(node *record.Node, backend B) (*AdaGradState[T, B], error) {
	state := &AdaGradState[T, B]{}

	if child := node.OptionalChild(weightDecayKey); child != nil {
		wd, err := weightDecayStateFromRecord[T](child, backend)
		if err != nil {
			return nil, err
		}
		state.WeightDecay = wd
	}

	child, err := node.Child(lrDecayKey)
	if err != nil {
		return nil, err
	}
	if state.LRDecay, err = lrDecayStateFromRecord[T](child, backend); err != nil {
		return nil, err
	}
	if state.WeightDecay != nil {
		if err := checkShape(weightDecayField, state.LRDecay.Sum.Shape(), state.WeightDecay.GradLastStep.Shape()); err != nil {
			return nil, err
		}
	}
	return state, nil
}
