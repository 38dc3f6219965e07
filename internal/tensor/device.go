package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

// DeviceKind identifies the family of compute device.
type DeviceKind int

// Supported device kinds.
const (
	CPUKind DeviceKind = iota
	CUDAKind
	VulkanKind
	MetalKind
	WebGPUKind
)

// String returns a lowercase device kind name.
func (k DeviceKind) String() string {
	switch k {
	case CPUKind:
		return "cpu"
	case CUDAKind:
		return "cuda"
	case VulkanKind:
		return "vulkan"
	case MetalKind:
		return "metal"
	case WebGPUKind:
		return "webgpu"
	default:
		return "unknown"
	}
}

// Device is a concrete placement: a device kind plus an ordinal.
//
// Two tensors live in the same memory space iff their devices are equal.
type Device struct {
	Kind  DeviceKind
	Index int
}

// CPU returns the CPU device with the given ordinal.
func CPU(index int) Device {
	return Device{Kind: CPUKind, Index: index}
}

// String returns the device in "kind:index" form (e.g. "cpu:0").
func (d Device) String() string {
	return fmt.Sprintf("%s:%d", d.Kind, d.Index)
}

// ParseDevice parses "kind" or "kind:index" (e.g. "cpu", "cpu:1").
func ParseDevice(s string) (Device, error) {
	name, idx, hasIdx := strings.Cut(strings.TrimSpace(strings.ToLower(s)), ":")

	var kind DeviceKind
	switch name {
	case "cpu":
		kind = CPUKind
	case "cuda":
		kind = CUDAKind
	case "vulkan":
		kind = VulkanKind
	case "metal":
		kind = MetalKind
	case "webgpu":
		kind = WebGPUKind
	default:
		return Device{}, fmt.Errorf("unknown device kind %q", name)
	}

	d := Device{Kind: kind}
	if hasIdx {
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 {
			return Device{}, fmt.Errorf("invalid device index %q", idx)
		}
		d.Index = n
	}
	return d, nil
}
