// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/born-optim/internal/backend/cpu"
	"github.com/born-ml/born-optim/tensor"
)

// Backend represents the CPU backend implementation.
//
// CPU backend provides pure Go implementations of the element-wise
// operations optimizers need.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend whose tensors are placed on cpu:0.
//
// Example:
//
//	import (
//	    "github.com/born-ml/born-optim/backend/cpu"
//	    "github.com/born-ml/born-optim/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewWithDevice creates a CPU backend that places new tensors on device.
// device must be a cpu device.
func NewWithDevice(device tensor.Device) *Backend {
	return internalcpu.NewWithDevice(device)
}
