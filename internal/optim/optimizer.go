// Package optim implements stateful gradient-transform optimizers.
//
// This package provides:
//   - SimpleOptimizer: a per-tensor update rule with an explicit state value
//   - Adaptor: lifts a SimpleOptimizer to every parameter of a module, keeping
//     one state per parameter identity in a Registry
//   - AdaGrad, SGD, Adam: concrete SimpleOptimizers built from composable
//     transforms (WeightDecay, LRDecay, momentum)
//
// States are values threaded by pointer: nil means "no prior state" and a
// step never modifies the state it was given.
//
// Example usage:
//
//	cfg := optim.NewAdaGradConfig().
//	    WithLRDecay(0.5).
//	    WithWeightDecay(&optim.WeightDecayConfig{Penalty: 0.01})
//	optimizer, err := optim.NewAdaGrad[float32](cfg, backend)
//
//	for step := range steps {
//	    grads := computeGradients(model, batch) // *optim.GradientsParams
//	    if err := optimizer.Step(0.01, model, grads); err != nil {
//	        return err
//	    }
//	}
//
//	rec, _ := optimizer.ToRecord()
package optim

import (
	"github.com/born-ml/born-optim/internal/nn"
	"github.com/born-ml/born-optim/internal/record"
	"github.com/born-ml/born-optim/internal/tensor"
)

// LearningRate is the step size supplied on every call.
type LearningRate = float64

// SimpleOptimizer is an update rule for a single tensor.
//
// Step consumes the prior state (nil before the first step) and returns the
// updated parameter together with a new state. Implementations never modify
// param, grad, or the prior state.
type SimpleOptimizer[T tensor.Float, B tensor.Backend, S any] interface {
	// Step computes one update. Shape mismatches between param, grad and
	// state return a *ShapeMismatchError and compute nothing.
	Step(lr LearningRate, param, grad *tensor.Tensor[T, B], state *S) (*tensor.Tensor[T, B], *S, error)

	// ToDevice returns a copy of state with every tensor placed on device.
	// Scalar fields are carried over unchanged.
	ToDevice(state *S, device tensor.Device) (*S, error)

	// StateToRecord converts a state into its record layout.
	StateToRecord(state *S) *record.Node

	// StateFromRecord rebuilds a state on the backend's default device.
	StateFromRecord(node *record.Node, backend B) (*S, error)

	// Name identifies the optimizer in records.
	Name() string
}

// Optimizer updates every parameter of a module.
type Optimizer[T tensor.Float, B tensor.Backend] interface {
	// Step updates each parameter that has a gradient in grads.
	// Parameters without a gradient, and their states, are left untouched.
	Step(lr LearningRate, module nn.Module[T, B], grads *GradientsParams[T, B]) error

	// ToRecord snapshots every per-parameter state.
	ToRecord() (*record.Record, error)

	// LoadRecord replaces every per-parameter state with the record's contents.
	LoadRecord(rec *record.Record) error

	// ToDevice migrates every per-parameter state to device.
	ToDevice(device tensor.Device) error
}
