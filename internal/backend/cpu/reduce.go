package cpu

import (
	"fmt"

	"github.com/born-ml/born-optim/internal/tensor"
)

// Sum returns the sum of all elements.
//
// Float32 inputs are accumulated in float64.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) float64 {
	switch x.DType() {
	case tensor.Float32:
		return sumFloat32(x.AsFloat32())
	case tensor.Float64:
		return sumFloat64(x.AsFloat64())
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %v", x.DType()))
	}
}
