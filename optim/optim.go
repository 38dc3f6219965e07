// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"log/slog"

	"github.com/born-ml/born-optim/internal/gradclip"
	"github.com/born-ml/born-optim/internal/nn"
	"github.com/born-ml/born-optim/internal/optim"
	"github.com/born-ml/born-optim/internal/parallel"
	"github.com/born-ml/born-optim/internal/tensor"
)

// LearningRate is the step size supplied on every call.
type LearningRate = optim.LearningRate

// Optimizer interface defines the common interface for all optimizers.
type Optimizer[T tensor.Float, B tensor.Backend] = optim.Optimizer[T, B]

// SimpleOptimizer is an update rule for a single tensor.
type SimpleOptimizer[T tensor.Float, B tensor.Backend, S any] = optim.SimpleOptimizer[T, B, S]

// Adaptor applies a SimpleOptimizer to every parameter of a module.
type Adaptor[T tensor.Float, B tensor.Backend, S any] = optim.Adaptor[T, B, S]

// Option configures an Adaptor.
type Option = optim.Option

// NewAdaptor wraps a custom SimpleOptimizer.
func NewAdaptor[T tensor.Float, B tensor.Backend, S any](rule SimpleOptimizer[T, B, S], backend B, opts ...Option) *Adaptor[T, B, S] {
	return optim.NewAdaptor(rule, backend, opts...)
}

// WithGradClipping clips every gradient before the update rule sees it.
func WithGradClipping(clip *gradclip.GradientClipping) Option {
	return optim.WithGradClipping(clip)
}

// ParallelConfig controls how per-parameter work is fanned out.
type ParallelConfig = parallel.Config

// DefaultParallel uses every CPU, one parameter per task at minimum.
func DefaultParallel() ParallelConfig {
	return parallel.DefaultConfig()
}

// SequentialParallel runs every parameter on the calling goroutine.
func SequentialParallel() ParallelConfig {
	return parallel.Sequential()
}

// WithParallel sets how per-parameter work is fanned out.
func WithParallel(cfg ParallelConfig) Option {
	return optim.WithParallel(cfg)
}

// WithLogger sets the logger for step diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return optim.WithLogger(logger)
}

// Gradients

// GradientsParams maps parameter identities to gradients.
type GradientsParams[T tensor.Float, B tensor.Backend] = optim.GradientsParams[T, B]

// NewGradientsParams creates an empty gradient set.
func NewGradientsParams[T tensor.Float, B tensor.Backend]() *GradientsParams[T, B] {
	return optim.NewGradientsParams[T, B]()
}

// GradientsFromRaw collects gradients keyed by the raw tensor of each
// parameter of module.
func GradientsFromRaw[T tensor.Float, B tensor.Backend](grads map[*tensor.RawTensor]*tensor.RawTensor, module nn.Module[T, B], backend B) *GradientsParams[T, B] {
	return optim.GradientsFromRaw(grads, module, backend)
}

// AdaGrad

// AdaGradName identifies AdaGrad records.
const AdaGradName = optim.AdaGradName

// AdaGradConfig contains configuration for the AdaGrad optimizer.
type AdaGradConfig = optim.AdaGradConfig

// AdaGradState is AdaGrad's per-parameter state.
type AdaGradState[T tensor.Float, B tensor.Backend] = optim.AdaGradState[T, B]

// AdaGrad is the single-tensor AdaGrad rule.
type AdaGrad[T tensor.Float, B tensor.Backend] = optim.AdaGrad[T, B]

// NewAdaGradConfig returns the default AdaGrad configuration.
func NewAdaGradConfig() AdaGradConfig {
	return optim.NewAdaGradConfig()
}

// NewAdaGrad creates an AdaGrad optimizer.
//
// Example:
//
//	optimizer, err := optim.NewAdaGrad[float32](optim.NewAdaGradConfig(), backend)
func NewAdaGrad[T tensor.Float, B tensor.Backend](cfg AdaGradConfig, backend B, opts ...Option) (*Adaptor[T, B, AdaGradState[T, B]], error) {
	return optim.NewAdaGrad[T](cfg, backend, opts...)
}

// SGD (Stochastic Gradient Descent)

// SGDName identifies SGD records.
const SGDName = optim.SGDName

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// SGDState is SGD's per-parameter state.
type SGDState[T tensor.Float, B tensor.Backend] = optim.SGDState[T, B]

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer, err := optim.NewSGD[float32](optim.SGDConfig{Momentum: 0.9}, backend)
func NewSGD[T tensor.Float, B tensor.Backend](cfg SGDConfig, backend B, opts ...Option) (*Adaptor[T, B, SGDState[T, B]], error) {
	return optim.NewSGD[T](cfg, backend, opts...)
}

// Adam (Adaptive Moment Estimation)

// AdamName identifies Adam records.
const AdamName = optim.AdamName

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// AdamState is Adam's per-parameter state.
type AdamState[T tensor.Float, B tensor.Backend] = optim.AdamState[T, B]

// NewAdam creates a new Adam optimizer.
//
// Example:
//
//	optimizer, err := optim.NewAdam[float32](optim.AdamConfig{}, backend)
func NewAdam[T tensor.Float, B tensor.Backend](cfg AdamConfig, backend B, opts ...Option) (*Adaptor[T, B, AdamState[T, B]], error) {
	return optim.NewAdam[T](cfg, backend, opts...)
}

// Transforms

// WeightDecayConfig configures the L2 penalty transform.
type WeightDecayConfig = optim.WeightDecayConfig

// EffectiveLR returns the decayed learning rate used at step time.
func EffectiveLR(lr LearningRate, lrDecay float64, time int) LearningRate {
	return optim.EffectiveLR(lr, lrDecay, time)
}

// Errors

// ShapeMismatchError reports which parameter and state field disagreed.
type ShapeMismatchError = optim.ShapeMismatchError

// Sentinel errors.
var (
	ErrShapeMismatch      = optim.ErrShapeMismatch
	ErrOptimizerMismatch  = optim.ErrOptimizerMismatch
	ErrInvalidConfig      = optim.ErrInvalidConfig
	ErrUnsupportedBackend = optim.ErrUnsupportedBackend
)
