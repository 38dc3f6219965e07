// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/born-optim/internal/tensor"
)

// Float is the constraint for tensor element types (float32, float64).
type Float = tensor.Float

// DataType represents the runtime element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// DeviceKind identifies the family of compute device.
type DeviceKind = tensor.DeviceKind

// Device kind constants.
const (
	CPUKind    DeviceKind = tensor.CPUKind
	CUDAKind   DeviceKind = tensor.CUDAKind
	VulkanKind DeviceKind = tensor.VulkanKind
	MetalKind  DeviceKind = tensor.MetalKind
	WebGPUKind DeviceKind = tensor.WebGPUKind
)

// Device is a device kind plus an index, e.g. cpu:0.
type Device = tensor.Device

// CPU returns the cpu device with the given index.
func CPU(index int) Device {
	return tensor.CPU(index)
}

// ParseDevice parses "cpu", "cpu:1", "cuda:0" and similar.
func ParseDevice(s string) (Device, error) {
	return tensor.ParseDevice(s)
}

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// RawTensor is the untyped storage behind a Tensor.
type RawTensor = tensor.RawTensor

// Backend is the interface for device-specific compute implementations.
type Backend = tensor.Backend

// Tensor is a generic type-safe tensor.
//
// T is the element type (float32, float64).
// B is the backend implementation.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)  // Element-wise addition
type Tensor[T Float, B Backend] = tensor.Tensor[T, B]

// Errors returned by tensor constructors and device moves.
var (
	ErrUnsupportedDevice = tensor.ErrUnsupportedDevice
	ErrDataSize          = tensor.ErrDataSize
)

// Zeros creates a tensor filled with zeros.
func Zeros[T Float, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T Float, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T](shape, b)
}

// Full creates a tensor filled with value.
func Full[T Float, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full(shape, value, b)
}

// FromSlice creates a tensor from data. len(data) must equal the number of
// elements of shape.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
func FromSlice[T Float, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice(data, shape, b)
}

// New wraps a RawTensor. The raw dtype must match T.
func New[T Float, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T](raw, b)
}
