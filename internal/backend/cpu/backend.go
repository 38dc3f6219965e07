// Package cpu implements the CPU backend of the tensor contract.
package cpu

import (
	"fmt"

	"github.com/born-ml/born-optim/internal/tensor"
)

// CPUBackend implements tensor operations in host memory.
//
// Every cpu:N ordinal is a logical device sharing host memory; moving a
// tensor between ordinals copies its buffer.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend whose default device is cpu:0.
func New() *CPUBackend {
	return NewWithDevice(tensor.CPU(0))
}

// NewWithDevice creates a CPU backend with a specific default device.
// Panics if device is not a CPU device.
func NewWithDevice(device tensor.Device) *CPUBackend {
	if device.Kind != tensor.CPUKind {
		panic(fmt.Sprintf("cpu backend: cannot use %s as default device", device))
	}
	return &CPUBackend{
		device: device,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the default device for new tensors.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Supports reports whether tensors can be placed on device.
func (cpu *CPUBackend) Supports(device tensor.Device) bool {
	return device.Kind == tensor.CPUKind && device.Index >= 0
}

// ToDevice moves x onto device.
//
// A tensor already on device is returned as is.
func (cpu *CPUBackend) ToDevice(x *tensor.RawTensor, device tensor.Device) (*tensor.RawTensor, error) {
	if !cpu.Supports(device) {
		return nil, fmt.Errorf("%w: %s backend cannot place tensors on %s", tensor.ErrUnsupportedDevice, cpu.Name(), device)
	}
	if x.Device() == device {
		return x, nil
	}
	return x.CopyTo(device), nil
}

// Add performs element-wise addition.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	result := newBinaryResult("add", a, b)
	binaryOp(result, a, b, addFloat32, addFloat64)
	return result
}

// Sub performs element-wise subtraction.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	result := newBinaryResult("sub", a, b)
	binaryOp(result, a, b, subFloat32, subFloat64)
	return result
}

// Mul performs element-wise multiplication.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	result := newBinaryResult("mul", a, b)
	binaryOp(result, a, b, mulFloat32, mulFloat64)
	return result
}

// Div performs element-wise division.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	result := newBinaryResult("div", a, b)
	binaryOp(result, a, b, divFloat32, divFloat64)
	return result
}
