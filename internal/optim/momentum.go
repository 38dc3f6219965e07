package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/born-optim/internal/record"
	"github.com/born-ml/born-optim/internal/tensor"
)

// Record keys for momentum sub-states.
const (
	momentumKey   = "momentum"
	velocityKey   = "velocity"
	moment1Key    = "moment_1"
	moment2Key    = "moment_2"
	velocityField = momentumKey + "." + velocityKey
	moment1Field  = momentumKey + "." + moment1Key
	moment2Field  = momentumKey + "." + moment2Key
)

// MomentumState holds the SGD velocity buffer.
type MomentumState[T tensor.Float, B tensor.Backend] struct {
	Velocity *tensor.Tensor[T, B]
}

// ToDevice returns a copy of the state placed on device.
func (s *MomentumState[T, B]) ToDevice(device tensor.Device) (*MomentumState[T, B], error) {
	v, err := s.Velocity.ToDevice(device)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", velocityField, err)
	}
	return &MomentumState[T, B]{Velocity: v}, nil
}

func (s *MomentumState[T, B]) toRecord() *record.Node {
	return record.NewNode().SetTensor(velocityKey, record.FromTensor(s.Velocity))
}

func momentumStateFromRecord[T tensor.Float, B tensor.Backend](node *record.Node, backend B) (*MomentumState[T, B], error) {
	data, err := node.Tensor(velocityKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", momentumKey, err)
	}
	v, err := record.ToTensor[T](data, backend)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", velocityField, err)
	}
	return &MomentumState[T, B]{Velocity: v}, nil
}

// Momentum accumulates a velocity:
//
//	first step: v = grad
//	later:      v = momentum * v + (1 - dampening) * grad
//	out       = nesterov ? grad + momentum * v : v
type Momentum[T tensor.Float, B tensor.Backend] struct {
	momentum  float64
	dampening float64
	nesterov  bool
}

// Transform applies momentum to grad.
func (m *Momentum[T, B]) Transform(grad *tensor.Tensor[T, B], state *MomentumState[T, B]) (*tensor.Tensor[T, B], *MomentumState[T, B], error) {
	velocity := grad
	if state != nil {
		if err := checkShape(velocityField, grad.Shape(), state.Velocity.Shape()); err != nil {
			return nil, nil, err
		}
		velocity = grad.MulScalar(1 - m.dampening).Add(state.Velocity.MulScalar(m.momentum))
	}

	out := velocity
	if m.nesterov {
		out = velocity.MulScalar(m.momentum).Add(grad)
	}
	return out, &MomentumState[T, B]{Velocity: velocity}, nil
}

// AdaptiveMomentumState holds Adam's moment estimates.
type AdaptiveMomentumState[T tensor.Float, B tensor.Backend] struct {
	Time    int
	Moment1 *tensor.Tensor[T, B]
	Moment2 *tensor.Tensor[T, B]
}

// ToDevice returns a copy of the state placed on device.
func (s *AdaptiveMomentumState[T, B]) ToDevice(device tensor.Device) (*AdaptiveMomentumState[T, B], error) {
	m1, err := s.Moment1.ToDevice(device)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", moment1Field, err)
	}
	m2, err := s.Moment2.ToDevice(device)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", moment2Field, err)
	}
	return &AdaptiveMomentumState[T, B]{Time: s.Time, Moment1: m1, Moment2: m2}, nil
}

func (s *AdaptiveMomentumState[T, B]) toRecord() *record.Node {
	return record.NewNode().
		SetInt(timeKey, int64(s.Time)).
		SetTensor(moment1Key, record.FromTensor(s.Moment1)).
		SetTensor(moment2Key, record.FromTensor(s.Moment2))
}

func adaptiveMomentumStateFromRecord[T tensor.Float, B tensor.Backend](node *record.Node, backend B) (*AdaptiveMomentumState[T, B], error) {
	t, err := node.Int(timeKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", momentumKey, err)
	}
	if t < 1 {
		return nil, fmt.Errorf("%s.%s: %w: time %d must be >= 1", momentumKey, timeKey, record.ErrMalformed, t)
	}

	moments := make([]*tensor.Tensor[T, B], 2)
	for i, key := range []string{moment1Key, moment2Key} {
		data, err := node.Tensor(key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", momentumKey, err)
		}
		if moments[i], err = record.ToTensor[T](data, backend); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", momentumKey, key, err)
		}
	}
	if err := checkShape(moment2Field, moments[0].Shape(), moments[1].Shape()); err != nil {
		return nil, err
	}
	return &AdaptiveMomentumState[T, B]{Time: int(t), Moment1: moments[0], Moment2: moments[1]}, nil
}

// AdaptiveMomentum computes Adam's bias-corrected update direction:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * grad
//	v_t = beta2 * v_{t-1} + (1-beta2) * grad²
//	out = (m_t / (1-beta1^t)) / (sqrt(v_t / (1-beta2^t)) + eps)
type AdaptiveMomentum[T tensor.Float, B tensor.Backend] struct {
	beta1   float64
	beta2   float64
	epsilon float64
}

// Transform applies adaptive momentum to grad.
func (m *AdaptiveMomentum[T, B]) Transform(grad *tensor.Tensor[T, B], state *AdaptiveMomentumState[T, B]) (*tensor.Tensor[T, B], *AdaptiveMomentumState[T, B], error) {
	var next *AdaptiveMomentumState[T, B]
	if state == nil {
		next = &AdaptiveMomentumState[T, B]{
			Time:    1,
			Moment1: grad.MulScalar(1 - m.beta1),
			Moment2: grad.Powf(2).MulScalar(1 - m.beta2),
		}
	} else {
		if err := checkShape(moment1Field, grad.Shape(), state.Moment1.Shape()); err != nil {
			return nil, nil, err
		}
		if err := checkShape(moment2Field, grad.Shape(), state.Moment2.Shape()); err != nil {
			return nil, nil, err
		}
		next = &AdaptiveMomentumState[T, B]{
			Time:    state.Time + 1,
			Moment1: state.Moment1.MulScalar(m.beta1).Add(grad.MulScalar(1 - m.beta1)),
			Moment2: state.Moment2.MulScalar(m.beta2).Add(grad.Powf(2).MulScalar(1 - m.beta2)),
		}
	}

	t := float64(next.Time)
	m1 := next.Moment1.MulScalar(1 / (1 - math.Pow(m.beta1, t)))
	m2 := next.Moment2.MulScalar(1 / (1 - math.Pow(m.beta2, t)))
	return m1.Div(m2.Sqrt().AddScalar(m.epsilon)), next, nil
}
