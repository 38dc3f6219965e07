// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensors for the Born optimizer library.
//
// # Overview
//
// Tensors are the values optimizers read and produce. This package provides:
//   - Generic type-safe tensors (Tensor[T, B]) over float32 and float64
//   - Immutable values: every operation returns a new tensor
//   - Device placement (cpu:0, cpu:1, ...) with ToDevice
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/born-optim/tensor"
//	    "github.com/born-ml/born-optim/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y).MulScalar(0.5)
//
//	    moved, err := z.ToDevice(tensor.CPU(1))
//	}
//
// # Devices
//
// A Device names a kind and an index. The CPU backend accepts any cpu:N
// device; other kinds are rejected with ErrUnsupportedDevice.
package tensor
