package optim

import (
	"fmt"

	"github.com/born-ml/born-optim/internal/record"
	"github.com/born-ml/born-optim/internal/tensor"
)

// Record keys for the learning rate decay sub-state.
const (
	lrDecayKey = "lr_decay"
	timeKey    = "time"
	sumKey     = "sum"
	sumField   = lrDecayKey + "." + sumKey
)

// LRDecayState is the adaptive-rate accumulator of one parameter.
//
// Time starts at 1 and grows by exactly one per step. Sum is the running
// elementwise sum of squared gradients.
type LRDecayState[T tensor.Float, B tensor.Backend] struct {
	Time int
	Sum  *tensor.Tensor[T, B]
}

// ToDevice returns a copy of the state with Sum placed on device.
func (s *LRDecayState[T, B]) ToDevice(device tensor.Device) (*LRDecayState[T, B], error) {
	sum, err := s.Sum.ToDevice(device)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sumField, err)
	}
	return &LRDecayState[T, B]{Time: s.Time, Sum: sum}, nil
}

func (s *LRDecayState[T, B]) toRecord() *record.Node {
	return record.NewNode().
		SetInt(timeKey, int64(s.Time)).
		SetTensor(sumKey, record.FromTensor(s.Sum))
}

func lrDecayStateFromRecord[T tensor.Float, B tensor.Backend](node *record.Node, backend B) (*LRDecayState[T, B], error) {
	t, err := node.Int(timeKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", lrDecayKey, err)
	}
	if t < 1 {
		return nil, fmt.Errorf("%s.%s: %w: time %d must be >= 1", lrDecayKey, timeKey, record.ErrMalformed, t)
	}
	data, err := node.Tensor(sumKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", lrDecayKey, err)
	}
	sum, err := record.ToTensor[T](data, backend)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sumField, err)
	}
	return &LRDecayState[T, B]{Time: int(t), Sum: sum}, nil
}

// EffectiveLR returns lr / (1 + (time-1) * lrDecay).
//
// At time 1 the result is lr exactly, whatever lrDecay is.
func EffectiveLR(lr LearningRate, lrDecay float64, time int) LearningRate {
	if time <= 1 {
		return lr
	}
	return lr / (1 + float64(time-1)*lrDecay)
}

// LRDecay scales gradients by the inverse root of their accumulated squares
// and a time-decayed learning rate:
//
//	sum  = sum + grad^2
//	out  = EffectiveLR(lr, lrDecay, time) * grad / (sqrt(sum) + epsilon)
type LRDecay[T tensor.Float, B tensor.Backend] struct {
	lrDecay float64
	epsilon float64
}

// NewLRDecay creates the transform.
func NewLRDecay[T tensor.Float, B tensor.Backend](lrDecay, epsilon float64) *LRDecay[T, B] {
	return &LRDecay[T, B]{lrDecay: lrDecay, epsilon: epsilon}
}

// Transform scales grad and returns the advanced state.
func (d *LRDecay[T, B]) Transform(grad *tensor.Tensor[T, B], lr LearningRate, state *LRDecayState[T, B]) (*tensor.Tensor[T, B], *LRDecayState[T, B], error) {
	if state != nil {
		if err := checkShape(sumField, grad.Shape(), state.Sum.Shape()); err != nil {
			return nil, nil, err
		}
	}

	squared := grad.Powf(2)
	var next *LRDecayState[T, B]
	if state == nil {
		next = &LRDecayState[T, B]{Time: 1, Sum: squared}
	} else {
		next = &LRDecayState[T, B]{Time: state.Time + 1, Sum: state.Sum.Add(squared)}
	}

	newLR := EffectiveLR(lr, d.lrDecay, next.Time)
	out := grad.Div(next.Sum.Sqrt().AddScalar(d.epsilon)).MulScalar(newLR)
	return out, next, nil
}
