package tensor_test

import (
	"testing"

	"github.com/born-ml/born-optim/backend/cpu"
	"github.com/born-ml/born-optim/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicTensorAPI(t *testing.T) {
	backend := cpu.New()

	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
	z := x.Add(y).MulScalar(2)

	assert.Equal(t, tensor.Shape{2, 3}, z.Shape())
	assert.Equal(t, tensor.Float32, z.DType())
	assert.Equal(t, []float32{2, 2, 2, 2, 2, 2}, z.Data())
	assert.Equal(t, []float32{0, 0, 0, 0, 0, 0}, x.Data(), "operations do not modify inputs")

	_, err := tensor.FromSlice([]float64{1, 2, 3}, tensor.Shape{2, 2}, backend)
	require.ErrorIs(t, err, tensor.ErrDataSize)
}

func TestPublicDevices(t *testing.T) {
	backend := cpu.New()
	x := tensor.Full[float64](tensor.Shape{2}, 1.5, backend)

	d, err := tensor.ParseDevice("cpu:1")
	require.NoError(t, err)
	assert.Equal(t, tensor.CPU(1), d)

	moved, err := x.ToDevice(d)
	require.NoError(t, err)
	assert.Equal(t, d, moved.Device())
	assert.Equal(t, x.Data(), moved.Data())

	_, err = x.ToDevice(tensor.Device{Kind: tensor.CUDAKind})
	require.ErrorIs(t, err, tensor.ErrUnsupportedDevice)
}
