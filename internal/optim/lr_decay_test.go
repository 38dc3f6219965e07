package optim_test

import (
	"math"
	"testing"

	"github.com/born-ml/born-optim/internal/backend/cpu"
	"github.com/born-ml/born-optim/internal/optim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRDecayFirstStep(t *testing.T) {
	backend := cpu.New()
	grad := fromSlice(t, backend, []float32{1, -2, 3, 0.5}, 2, 2)

	for _, lrDecay := range []float64{0, 0.5, 10} {
		d := optim.NewLRDecay[float32, cpuBackend](lrDecay, 1e-8)
		out, state, err := d.Transform(grad, 0.1, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, state.Time)
		assert.Equal(t, []float32{1, 4, 9, 0.25}, state.Sum.Data())
		assert.InDelta(t, 0.1, optim.EffectiveLR(0.1, lrDecay, state.Time), 0)

		// g / |g| * lr
		assertSliceInDelta(t, []float64{0.1, -0.1, 0.1, 0.1}, out.Data(), 1e-6)
	}
	assert.Equal(t, []float32{1, -2, 3, 0.5}, grad.Data(), "gradient must be untouched")
}

func TestLRDecayAccumulates(t *testing.T) {
	backend := cpu.New()
	d := optim.NewLRDecay[float32, cpuBackend](0.5, 1e-8)

	grads := [][]float32{{1, 2}, {-3, 0}, {0.5, 4}}
	var state *optim.LRDecayState[float32, cpuBackend]
	want := []float64{0, 0}

	for k, g := range grads {
		prev := state
		var err error
		_, state, err = d.Transform(fromSlice(t, backend, g, 2), 0.01, state)
		require.NoError(t, err)

		for i := range want {
			want[i] += float64(g[i]) * float64(g[i])
		}
		assert.Equal(t, k+1, state.Time)
		assertSliceInDelta(t, want, state.Sum.Data(), 1e-6)

		if prev != nil {
			assert.Equal(t, k, prev.Time, "prior state must not be modified")
			for i, v := range prev.Sum.Data() {
				assert.LessOrEqual(t, v, state.Sum.Data()[i], "sum must never decrease")
			}
		}
	}
}

func TestEffectiveLR(t *testing.T) {
	lr := 0.01
	prev := optim.EffectiveLR(lr, 0.5, 1)
	assert.InDelta(t, lr, prev, 0)
	for k := 2; k <= 20; k++ {
		cur := optim.EffectiveLR(lr, 0.5, k)
		assert.Less(t, cur, prev, "step %d", k)
		assert.InDelta(t, lr/(1+float64(k-1)*0.5), cur, 1e-15)
		prev = cur
	}

	for k := 1; k <= 20; k++ {
		assert.InDelta(t, lr, optim.EffectiveLR(lr, 0, k), 0)
	}
}

func TestLRDecayZeroGradient(t *testing.T) {
	backend := cpu.New()
	d := optim.NewLRDecay[float32, cpuBackend](0, 1e-5)

	out, state, err := d.Transform(fromSlice(t, backend, []float32{0, 0, 0}, 3), 1, nil)
	require.NoError(t, err)
	for _, v := range out.Data() {
		assert.False(t, math.IsNaN(float64(v)))
		assert.Zero(t, v)
	}
	assert.Equal(t, []float32{0, 0, 0}, state.Sum.Data())
}

func TestLRDecayShapeMismatch(t *testing.T) {
	backend := cpu.New()
	d := optim.NewLRDecay[float32, cpuBackend](0, 1e-5)

	_, state, err := d.Transform(fromSlice(t, backend, []float32{1, 2}, 2), 1, nil)
	require.NoError(t, err)

	_, _, err = d.Transform(fromSlice(t, backend, []float32{1, 2, 3}, 3), 1, state)
	require.ErrorIs(t, err, optim.ErrShapeMismatch)

	var sm *optim.ShapeMismatchError
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, "lr_decay.sum", sm.Field)
}

func TestWeightDecayTransform(t *testing.T) {
	backend := cpu.New()
	wd := optim.NewWeightDecay[float32, cpuBackend](optim.WeightDecayConfig{Penalty: 0.5})

	g1 := fromSlice(t, backend, []float32{1, -2}, 2)
	out, state, err := wd.Transform(g1, nil)
	require.NoError(t, err)
	assert.Same(t, g1, out, "first step passes the gradient through")
	assert.Same(t, g1, state.GradLastStep)

	g2 := fromSlice(t, backend, []float32{3, 4}, 2)
	out, next, err := wd.Transform(g2, state)
	require.NoError(t, err)
	assert.Equal(t, []float32{3.5, 3}, out.Data())
	assert.Same(t, g2, next.GradLastStep, "state keeps the raw gradient")
	assert.Same(t, g1, state.GradLastStep, "prior state must not be modified")
}

func TestWeightDecayConfigValidate(t *testing.T) {
	require.NoError(t, (&optim.WeightDecayConfig{Penalty: 0}).Validate())
	require.ErrorIs(t, (&optim.WeightDecayConfig{Penalty: -1}).Validate(), optim.ErrInvalidConfig)
	require.ErrorIs(t, (&optim.WeightDecayConfig{Penalty: math.Inf(1)}).Validate(), optim.ErrInvalidConfig)
}
