package optim_test

import (
	"testing"

	"github.com/born-ml/born-optim/internal/backend/cpu"
	"github.com/born-ml/born-optim/internal/nn"
	"github.com/born-ml/born-optim/internal/optim"
	"github.com/born-ml/born-optim/internal/tensor"
	"github.com/stretchr/testify/require"
)

type cpuBackend = *cpu.CPUBackend

// paramList is the smallest nn.Module: a fixed list of parameters.
type paramList []*nn.Parameter[float32, cpuBackend]

func (p paramList) Parameters() []*nn.Parameter[float32, cpuBackend] {
	return p
}

func fromSlice(t *testing.T, backend cpuBackend, data []float32, shape ...int) *tensor.Tensor[float32, cpuBackend] {
	t.Helper()
	out, err := tensor.FromSlice(data, tensor.Shape(shape), backend)
	require.NoError(t, err)
	return out
}

func newParam(t *testing.T, backend cpuBackend, name string, data []float32, shape ...int) *nn.Parameter[float32, cpuBackend] {
	t.Helper()
	return nn.NewParameter(name, fromSlice(t, backend, data, shape...))
}

type gradEntry struct {
	param *nn.Parameter[float32, cpuBackend]
	grad  []float32
}

func gradsFor(t *testing.T, backend cpuBackend, entries ...gradEntry) *optim.GradientsParams[float32, cpuBackend] {
	t.Helper()
	grads := optim.NewGradientsParams[float32, cpuBackend]()
	for _, e := range entries {
		grads.Register(e.param.ID(), fromSlice(t, backend, e.grad, e.param.Tensor().Shape()...))
	}
	return grads
}

// Helper to check float equality with tolerance.
func floatEqual(a, b, eps float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < eps
}

func assertSliceInDelta(t *testing.T, expected []float64, actual []float32, delta float64) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		require.InDelta(t, expected[i], float64(actual[i]), delta, "element %d", i)
	}
}
