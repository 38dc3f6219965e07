// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides parameter containers for optimizers.
//
// # Overview
//
// This package contains:
//   - Parameter: a named tensor with a stable identity (ParamID)
//   - Module: anything that exposes its parameters
//   - Linear: a fully connected layer's weight and bias
//   - Sequential: a module that concatenates the parameters of its children
//   - Initialization: Xavier
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/born-optim/nn"
//	    "github.com/born-ml/born-optim/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    model := nn.NewSequential[float32, *cpu.Backend](
//	        nn.NewLinear[float32](784, 128, backend),
//	        nn.NewLinear[float32](128, 10, backend),
//	    )
//
//	    for _, p := range model.Parameters() {
//	        fmt.Println(p.ID(), p.Name(), p.Tensor().Shape())
//	    }
//	}
//
// # Identity
//
// A ParamID is assigned once when a Parameter is created and never changes.
// Optimizers key their per-parameter state by it, so replacing a
// parameter's tensor keeps its optimizer state, while a new Parameter
// always starts from scratch.
package nn
