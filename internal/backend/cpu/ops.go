package cpu

import (
	"fmt"

	"github.com/born-ml/born-optim/internal/tensor"
)

// newBinaryResult allocates the output of an element-wise binary op.
// Operands must agree on shape and dtype; the result lives on a's device.
func newBinaryResult(op string, a, b *tensor.RawTensor) *tensor.RawTensor {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("%s: shape mismatch %v vs %v", op, a.Shape(), b.Shape()))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op, a.DType(), b.DType()))
	}
	return newUnaryResult(op, a)
}

// newUnaryResult allocates a tensor shaped like x on x's device.
func newUnaryResult(op string, x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), x.Device())
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return result
}

// binaryOp dispatches an element-wise kernel by dtype.
func binaryOp(
	result, a, b *tensor.RawTensor,
	f32 func(dst, a, b []float32),
	f64 func(dst, a, b []float64),
) {
	switch a.DType() {
	case tensor.Float32:
		f32(result.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case tensor.Float64:
		f64(result.AsFloat64(), a.AsFloat64(), b.AsFloat64())
	default:
		panic(fmt.Sprintf("binaryOp: unsupported dtype %v", a.DType()))
	}
}

// unaryOp dispatches an element-wise kernel by dtype.
func unaryOp(
	result, x *tensor.RawTensor,
	f32 func(dst, x []float32),
	f64 func(dst, x []float64),
) {
	switch x.DType() {
	case tensor.Float32:
		f32(result.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		f64(result.AsFloat64(), x.AsFloat64())
	default:
		panic(fmt.Sprintf("unaryOp: unsupported dtype %v", x.DType()))
	}
}
