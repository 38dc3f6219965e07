package tensor_test

import (
	"testing"

	"github.com/born-ml/born-optim/internal/backend/cpu"
	"github.com/born-ml/born-optim/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTensorOps(t *testing.T) {
	backend := cpu.New()

	a, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	b := tensor.Full[float32](tensor.Shape{2, 2}, 2, backend)

	assert.Equal(t, []float32{3, 4, 5, 6}, a.Add(b).Data())
	assert.Equal(t, []float32{-1, 0, 1, 2}, a.Sub(b).Data())
	assert.Equal(t, []float32{2, 4, 6, 8}, a.Mul(b).Data())
	assert.Equal(t, []float32{0.5, 1, 1.5, 2}, a.Div(b).Data())
	assert.Equal(t, []float32{1, 4, 9, 16}, a.Powf(2).Data())
	assert.Equal(t, []float32{2, 3, 4, 5}, a.AddScalar(1).Data())
	assert.Equal(t, []float32{-1, -2, -3, -4}, a.MulScalar(-1).Data())
	assert.Equal(t, []float32{2, 2, 3, 3}, a.Clamp(2, 3).Data())
	assert.InDelta(t, 10.0, a.Sum(), 1e-9)
	assert.InDelta(t, 3.0, float64(a.Powf(2).Sqrt().At(1, 0)), 1e-6)
	assert.Equal(t, float32(3), a.At(1, 0))

	// Inputs stay untouched.
	assert.Equal(t, []float32{1, 2, 3, 4}, a.Data())
}

func TestTensorCreation(t *testing.T) {
	backend := cpu.New()

	z := tensor.Zeros[float64](tensor.Shape{3}, backend)
	assert.Equal(t, []float64{0, 0, 0}, z.Data())
	assert.Equal(t, tensor.Float64, z.DType())
	assert.Equal(t, tensor.CPU(0), z.Device())

	o := tensor.Ones[float32](tensor.Shape{2}, backend)
	assert.Equal(t, []float32{1, 1}, o.Data())

	_, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{2, 2}, backend)
	assert.Error(t, err)

	c := o.Clone()
	c.Data()[0] = 5
	assert.Equal(t, []float32{1, 1}, o.Data())
	assert.Equal(t, []float32{1, 1}, o.ToSlice())
	assert.Contains(t, o.String(), "float32")
}

func TestTensorToDevice(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float64{1, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	moved, err := x.ToDevice(tensor.CPU(1))
	require.NoError(t, err)
	assert.Equal(t, tensor.CPU(1), moved.Device())
	assert.Equal(t, []float64{1, 2}, moved.Data())

	again, err := moved.ToDevice(tensor.CPU(1))
	require.NoError(t, err)
	assert.Same(t, moved.Raw(), again.Raw())

	_, err = x.ToDevice(tensor.Device{Kind: tensor.MetalKind})
	assert.ErrorIs(t, err, tensor.ErrUnsupportedDevice)
}
