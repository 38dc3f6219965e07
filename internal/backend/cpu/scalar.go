package cpu

import (
	"fmt"

	"github.com/born-ml/born-optim/internal/tensor"
)

// Scalar operations - element-wise operations with a scalar value.

// AddScalar adds a scalar value to each element of the tensor.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result := newUnaryResult("addScalar", x)

	switch x.DType() {
	case tensor.Float32:
		addScalarFloat32(result.AsFloat32(), x.AsFloat32(), float32(scalar))
	case tensor.Float64:
		addScalarFloat64(result.AsFloat64(), x.AsFloat64(), scalar)
	default:
		panic(fmt.Sprintf("addScalar: unsupported dtype %v", x.DType()))
	}

	return result
}

// MulScalar multiplies each element of the tensor by a scalar value.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result := newUnaryResult("mulScalar", x)

	switch x.DType() {
	case tensor.Float32:
		mulScalarFloat32(result.AsFloat32(), x.AsFloat32(), float32(scalar))
	case tensor.Float64:
		mulScalarFloat64(result.AsFloat64(), x.AsFloat64(), scalar)
	default:
		panic(fmt.Sprintf("mulScalar: unsupported dtype %v", x.DType()))
	}

	return result
}
