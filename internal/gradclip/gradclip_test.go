package gradclip_test

import (
	"math"
	"testing"

	"github.com/born-ml/born-optim/internal/backend/cpu"
	"github.com/born-ml/born-optim/internal/gradclip"
	"github.com/born-ml/born-optim/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	neg := -1.0
	zero := 0.0
	one := 1.0

	tests := []struct {
		name    string
		cfg     gradclip.Config
		wantErr bool
	}{
		{"value", gradclip.Config{Value: &one}, false},
		{"norm", gradclip.Config{Norm: &one}, false},
		{"empty", gradclip.Config{}, true},
		{"both", gradclip.Config{Value: &one, Norm: &one}, true},
		{"negative value", gradclip.Config{Value: &neg}, true},
		{"zero norm", gradclip.Config{Norm: &zero}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Init()
			if tt.wantErr {
				require.ErrorIs(t, err, gradclip.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestClipByValue(t *testing.T) {
	backend := cpu.New()
	clip, err := gradclip.ByValue(0.5).Init()
	require.NoError(t, err)

	grad, err := tensor.FromSlice([]float32{-2, -0.25, 0, 0.3, 7}, tensor.Shape{5}, backend)
	require.NoError(t, err)

	out := gradclip.Clip(clip, grad)
	assert.Equal(t, []float32{-0.5, -0.25, 0, 0.3, 0.5}, out.Data())
	assert.Equal(t, []float32{-2, -0.25, 0, 0.3, 7}, grad.Data(), "input must be untouched")
}

func TestClipByNorm(t *testing.T) {
	backend := cpu.New()
	clip, err := gradclip.ByNorm(1).Init()
	require.NoError(t, err)

	// Norm 5 exceeds the threshold.
	grad, err := tensor.FromSlice([]float64{3, 4}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	out := gradclip.Clip(clip, grad)

	scale := 1 / (5 + 1e-6)
	assert.InDelta(t, 3*scale, out.At(0), 1e-12)
	assert.InDelta(t, 4*scale, out.At(1), 1e-12)
	assert.InDelta(t, 1, gradclip.L2Norm(out), 1e-6)

	// Norm 0.5 is within bounds.
	small, err := tensor.FromSlice([]float64{0.3, 0.4}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	assert.Same(t, small, gradclip.Clip(clip, small))
}

func TestL2Norm(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float32{1, 2, 2}, tensor.Shape{3}, backend)
	require.NoError(t, err)
	assert.InDelta(t, 3, gradclip.L2Norm(x), 1e-6)
	assert.False(t, math.IsNaN(gradclip.L2Norm(tensor.Zeros[float32](tensor.Shape{4}, backend))))
}
