// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training neural networks.
//
// # Overview
//
// This package contains:
//   - AdaGrad: per-element adaptive learning rate with optional learning rate
//     decay and weight decay
//   - SGD: Stochastic Gradient Descent with momentum, dampening and Nesterov
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Adaptor: applies a single-tensor rule to every parameter of a module
//   - Records: optimizer state snapshots that can be saved and restored
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/born-optim/optim"
//	    "github.com/born-ml/born-optim/nn"
//	    "github.com/born-ml/born-optim/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    model := nn.NewLinear[float32](784, 10, backend)
//
//	    optimizer, err := optim.NewAdaGrad[float32](
//	        optim.NewAdaGradConfig().WithLRDecay(0.01),
//	        backend,
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // Training loop
//	    for step := range 100 {
//	        grads := optim.NewGradientsParams[float32, *cpu.Backend]()
//	        for _, p := range model.Parameters() {
//	            grads.Register(p.ID(), gradientOf(p))
//	        }
//	        if err := optimizer.Step(0.01, model, grads); err != nil {
//	            log.Fatal(err)
//	        }
//	    }
//	}
//
// # Optimizers
//
// AdaGrad:
//
//	cfg := optim.NewAdaGradConfig().
//	    WithLRDecay(0.5).
//	    WithEpsilon(1e-8).
//	    WithWeightDecay(&optim.WeightDecayConfig{Penalty: 0.05}).
//	    WithGradClipping(gradclip.ByNorm(1.0))
//	optimizer, err := optim.NewAdaGrad[float32](cfg, backend)
//
// SGD (Stochastic Gradient Descent):
//
//	optimizer, err := optim.NewSGD[float32](optim.SGDConfig{Momentum: 0.9}, backend)
//
// Adam (Adaptive Moment Estimation):
//
//	optimizer, err := optim.NewAdam[float32](optim.AdamConfig{Beta1: 0.9, Beta2: 0.999}, backend)
//
// # Saving State
//
//	rec, err := optimizer.ToRecord()
//	recorder, err := record.RecorderFor(record.FormatBin)
//	err = recorder.Save(rec, "adagrad.boro")
//
//	loaded, err := recorder.Load("adagrad.boro")
//	err = optimizer.LoadRecord(loaded)
//
// State is keyed by parameter identity (nn.ParamID), so a record only
// applies to a model whose parameters carry the same identities.
package optim
