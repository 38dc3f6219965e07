// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package gradclip limits gradient magnitude before an optimizer step.
//
// Example:
//
//	cfg := optim.NewAdaGradConfig().WithGradClipping(gradclip.ByNorm(1.0))
//
// or, for a custom optimizer:
//
//	clip, err := gradclip.ByValue(0.5).Init()
//	optimizer := optim.NewAdaptor(rule, backend, optim.WithGradClipping(clip))
package gradclip

import (
	"github.com/born-ml/born-optim/internal/gradclip"
	"github.com/born-ml/born-optim/internal/tensor"
)

// Config selects one clipping mode. Exactly one field must be set.
type Config = gradclip.Config

// GradientClipping is a validated clipping rule.
type GradientClipping = gradclip.GradientClipping

// ErrInvalidConfig is returned by Config.Validate and Config.Init.
var ErrInvalidConfig = gradclip.ErrInvalidConfig

// ByValue clamps every element to [-threshold, threshold].
func ByValue(threshold float64) *Config {
	return gradclip.ByValue(threshold)
}

// ByNorm rescales a gradient whose L2 norm exceeds threshold.
func ByNorm(threshold float64) *Config {
	return gradclip.ByNorm(threshold)
}

// Clip applies g to grad.
func Clip[T tensor.Float, B tensor.Backend](g *GradientClipping, grad *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return gradclip.Clip(g, grad)
}

// L2Norm returns the Euclidean norm of x.
func L2Norm[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B]) float64 {
	return gradclip.L2Norm(x)
}
