package cpu

import (
	"fmt"

	"github.com/born-ml/born-optim/internal/tensor"
)

// Sqrt computes the element-wise square root.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	result := newUnaryResult("sqrt", x)
	unaryOp(result, x, sqrtFloat32, sqrtFloat64)
	return result
}

// Pow raises each element to exponent.
func (cpu *CPUBackend) Pow(x *tensor.RawTensor, exponent float64) *tensor.RawTensor {
	result := newUnaryResult("pow", x)

	switch x.DType() {
	case tensor.Float32:
		powFloat32(result.AsFloat32(), x.AsFloat32(), exponent)
	case tensor.Float64:
		powFloat64(result.AsFloat64(), x.AsFloat64(), exponent)
	default:
		panic(fmt.Sprintf("pow: unsupported dtype %v", x.DType()))
	}

	return result
}

// Clamp limits each element to [lo, hi].
func (cpu *CPUBackend) Clamp(x *tensor.RawTensor, lo, hi float64) *tensor.RawTensor {
	if lo > hi {
		panic(fmt.Sprintf("clamp: lower bound %v exceeds upper bound %v", lo, hi))
	}
	result := newUnaryResult("clamp", x)

	switch x.DType() {
	case tensor.Float32:
		clampFloat32(result.AsFloat32(), x.AsFloat32(), float32(lo), float32(hi))
	case tensor.Float64:
		clampFloat64(result.AsFloat64(), x.AsFloat64(), lo, hi)
	default:
		panic(fmt.Sprintf("clamp: unsupported dtype %v", x.DType()))
	}

	return result
}
