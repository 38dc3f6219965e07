package optim_test

import (
	"errors"
	"math"
	"testing"

	"github.com/born-ml/born-optim/internal/backend/cpu"
	"github.com/born-ml/born-optim/internal/optim"
	"github.com/born-ml/born-optim/internal/record"
)

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	backend := cpu.New()

	// x = [2.0]
	param := newParam(t, backend, "x", []float32{2.0}, 1)

	optimizer, err := optim.NewSGD[float32](optim.SGDConfig{}, backend)
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	// grad_x = 1.0
	if err := optimizer.Step(0.1, paramList{param}, gradsFor(t, backend, gradEntry{param, []float32{1.0}})); err != nil {
		t.Fatalf("Step: %v", err)
	}

	// Expected: x_new = x_old - lr * grad = 2.0 - 0.1 * 1.0 = 1.9
	expected := float32(1.9)
	actual := param.Tensor().At(0)

	if !floatEqual(actual, expected, 1e-6) {
		t.Errorf("SGD update: got %f, want %f", actual, expected)
	}
}

// TestSGD_WithMomentum tests SGD with momentum.
func TestSGD_WithMomentum(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, "x", []float32{1.0}, 1)

	optimizer, err := optim.NewSGD[float32](optim.SGDConfig{Momentum: 0.9}, backend)
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	step := func() {
		if err := optimizer.Step(0.1, paramList{param}, gradsFor(t, backend, gradEntry{param, []float32{1.0}})); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	step()

	// First step:
	// v_1 = 1.0
	// x_1 = 1.0 - 0.1 * 1.0 = 0.9
	if actual := param.Tensor().At(0); !floatEqual(actual, 0.9, 1e-6) {
		t.Errorf("SGD momentum step 1: got %f, want 0.9", actual)
	}

	step()

	// Second step:
	// v_2 = 0.9 * 1.0 + 1.0 = 1.9
	// x_2 = 0.9 - 0.1 * 1.9 = 0.71
	if actual := param.Tensor().At(0); !floatEqual(actual, 0.71, 1e-5) {
		t.Errorf("SGD momentum step 2: got %f, want 0.71", actual)
	}

	state, ok := optimizer.State(param.ID())
	if !ok || state.Momentum == nil {
		t.Fatal("momentum state should be stored")
	}
	if v := state.Momentum.Velocity.At(0); !floatEqual(v, 1.9, 1e-6) {
		t.Errorf("velocity: got %f, want 1.9", v)
	}
}

// TestSGD_NesterovAndDampening tests the velocity variants.
func TestSGD_NesterovAndDampening(t *testing.T) {
	backend := cpu.New()

	t.Run("Nesterov", func(t *testing.T) {
		param := newParam(t, backend, "x", []float32{1.0}, 1)
		optimizer, err := optim.NewSGD[float32](optim.SGDConfig{Momentum: 0.9, Nesterov: true}, backend)
		if err != nil {
			t.Fatalf("NewSGD: %v", err)
		}
		if err := optimizer.Step(0.1, paramList{param}, gradsFor(t, backend, gradEntry{param, []float32{1.0}})); err != nil {
			t.Fatalf("Step: %v", err)
		}
		// out = grad + 0.9 * v = 1.9, x = 1.0 - 0.19
		if actual := param.Tensor().At(0); !floatEqual(actual, 0.81, 1e-6) {
			t.Errorf("nesterov: got %f, want 0.81", actual)
		}
	})

	t.Run("Dampening", func(t *testing.T) {
		param := newParam(t, backend, "x", []float32{1.0}, 1)
		optimizer, err := optim.NewSGD[float32](optim.SGDConfig{Momentum: 0.5, Dampening: 0.5}, backend)
		if err != nil {
			t.Fatalf("NewSGD: %v", err)
		}
		for range 2 {
			if err := optimizer.Step(1, paramList{param}, gradsFor(t, backend, gradEntry{param, []float32{1.0}})); err != nil {
				t.Fatalf("Step: %v", err)
			}
		}
		// v_1 = 1, v_2 = 0.5 * 1 + 0.5 * 1 = 1, x = 1 - 1 - 1
		if actual := param.Tensor().At(0); !floatEqual(actual, -1, 1e-6) {
			t.Errorf("dampening: got %f, want -1", actual)
		}
	})

	t.Run("InvalidNesterov", func(t *testing.T) {
		_, err := optim.NewSGD[float32](optim.SGDConfig{Nesterov: true}, backend)
		if !errors.Is(err, optim.ErrInvalidConfig) {
			t.Errorf("nesterov without momentum: got %v, want ErrInvalidConfig", err)
		}
	})
}

// TestAdam_SimpleUpdate tests Adam optimizer update.
func TestAdam_SimpleUpdate(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, "x", []float32{1.0}, 1)

	optimizer, err := optim.NewAdam[float32](optim.AdamConfig{Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-8}, backend)
	if err != nil {
		t.Fatalf("NewAdam: %v", err)
	}

	if err := optimizer.Step(0.001, paramList{param}, gradsFor(t, backend, gradEntry{param, []float32{1.0}})); err != nil {
		t.Fatalf("Step: %v", err)
	}

	// After first step (with bias correction):
	// m_1 = 0.1, v_1 = 0.001
	// m_hat = 0.1 / (1 - 0.9^1) = 1.0
	// v_hat = 0.001 / (1 - 0.999^1) = 1.0
	// x_new = 1.0 - 0.001 * 1.0 / (sqrt(1.0) + 1e-8) ≈ 0.999
	actual := param.Tensor().At(0)
	expected := float32(0.999)

	if !floatEqual(actual, expected, 1e-5) {
		t.Errorf("Adam first step: got %f, want %f", actual, expected)
	}
}

// TestAdam_BiasCorrection tests that the Adam timestep advances per step.
func TestAdam_BiasCorrection(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, "x", []float32{1.0}, 1)

	optimizer, err := optim.NewAdam[float32](optim.AdamConfig{}, backend)
	if err != nil {
		t.Fatalf("NewAdam: %v", err)
	}

	if _, ok := optimizer.State(param.ID()); ok {
		t.Error("no state before the first step")
	}

	for i := 1; i <= 3; i++ {
		if err := optimizer.Step(0.01, paramList{param}, gradsFor(t, backend, gradEntry{param, []float32{1.0}})); err != nil {
			t.Fatalf("Step: %v", err)
		}
		state, _ := optimizer.State(param.ID())
		if state.Momentum.Time != i {
			t.Errorf("After step %d, timestep: got %d, want %d", i, state.Momentum.Time, i)
		}
	}

	// A constant gradient gives a bias-corrected step of exactly lr.
	final := param.Tensor().At(0)
	if !floatEqual(final, 0.97, 1e-5) {
		t.Errorf("After 3 Adam steps: got %f, want 0.97", final)
	}
}

// TestConvergence_SimpleQuadratic tests optimizer convergence on f(x) = x².
//
// The minimum is at x = 0.
func TestConvergence_SimpleQuadratic(t *testing.T) {
	backend := cpu.New()

	cases := []struct {
		name string
		lr   float64
		make func() (optim.Optimizer[float32, cpuBackend], error)
	}{
		{"SGD", 0.1, func() (optim.Optimizer[float32, cpuBackend], error) {
			return optim.NewSGD[float32](optim.SGDConfig{Momentum: 0.9}, backend)
		}},
		{"Adam", 0.1, func() (optim.Optimizer[float32, cpuBackend], error) {
			return optim.NewAdam[float32](optim.AdamConfig{}, backend)
		}},
		{"AdaGrad", 1.0, func() (optim.Optimizer[float32, cpuBackend], error) {
			return optim.NewAdaGrad[float32](optim.NewAdaGradConfig(), backend)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Start at x = 3.0
			param := newParam(t, backend, "x", []float32{3.0}, 1)
			optimizer, err := tc.make()
			if err != nil {
				t.Fatalf("new optimizer: %v", err)
			}

			// f(x) = x², df/dx = 2x
			for i := 0; i < 100; i++ {
				x := param.Tensor().At(0)
				if err := optimizer.Step(tc.lr, paramList{param}, gradsFor(t, backend, gradEntry{param, []float32{2 * x}})); err != nil {
					t.Fatalf("Step %d: %v", i, err)
				}
			}

			final := param.Tensor().At(0)
			if math.Abs(float64(final)) > 0.1 {
				t.Errorf("%s convergence: x = %f, expected close to 0", tc.name, final)
			}
		})
	}
}

// TestMultipleParameters tests optimizers with multiple parameters.
func TestMultipleParameters(t *testing.T) {
	backend := cpu.New()

	param1 := newParam(t, backend, "x1", []float32{1.0, 2.0}, 2)
	param2 := newParam(t, backend, "x2", []float32{3.0}, 1)

	optimizer, err := optim.NewSGD[float32](optim.SGDConfig{}, backend)
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	grads := gradsFor(t, backend,
		gradEntry{param1, []float32{1.0, 2.0}},
		gradEntry{param2, []float32{0.5}},
	)
	if err := optimizer.Step(0.1, paramList{param1, param2}, grads); err != nil {
		t.Fatalf("Step: %v", err)
	}

	// param1: [1.0, 2.0] - 0.1 * [1.0, 2.0] = [0.9, 1.8]
	p1Data := param1.Tensor().Data()
	if !floatEqual(p1Data[0], 0.9, 1e-6) || !floatEqual(p1Data[1], 1.8, 1e-6) {
		t.Errorf("param1: got [%f, %f], want [0.9, 1.8]", p1Data[0], p1Data[1])
	}

	// param2: 3.0 - 0.1 * 0.5 = 2.95
	p2Data := param2.Tensor().Data()
	if !floatEqual(p2Data[0], 2.95, 1e-6) {
		t.Errorf("param2: got %f, want 2.95", p2Data[0])
	}
}

// TestMomentumRecordRoundTrip tests SGD and Adam states survive a record.
func TestMomentumRecordRoundTrip(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, "x", []float32{1.0, -1.0}, 2)
	grads := gradsFor(t, backend, gradEntry{param, []float32{0.5, 0.25}})

	sgd, err := optim.NewSGD[float32](optim.SGDConfig{Momentum: 0.9, WeightDecay: &optim.WeightDecayConfig{Penalty: 0.1}}, backend)
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}
	if err := sgd.Step(0.1, paramList{param}, grads); err != nil {
		t.Fatalf("Step: %v", err)
	}
	rec, err := sgd.ToRecord()
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}
	restored, _ := optim.NewSGD[float32](optim.SGDConfig{Momentum: 0.9, WeightDecay: &optim.WeightDecayConfig{Penalty: 0.1}}, backend)
	if err := restored.LoadRecord(rec); err != nil {
		t.Fatalf("LoadRecord: %v", err)
	}
	state, ok := restored.State(param.ID())
	if !ok || state.Momentum == nil || state.WeightDecay == nil {
		t.Fatalf("restored SGD state incomplete: %+v", state)
	}
	if v := state.Momentum.Velocity.At(1); !floatEqual(v, 0.25, 1e-6) {
		t.Errorf("velocity: got %f, want 0.25", v)
	}

	adam, _ := optim.NewAdam[float32](optim.AdamConfig{}, backend)
	if err := adam.Step(0.1, paramList{param}, grads); err != nil {
		t.Fatalf("Step: %v", err)
	}
	rec, _ = adam.ToRecord()
	if err := sgd.LoadRecord(rec); !errors.Is(err, optim.ErrOptimizerMismatch) {
		t.Errorf("sgd loading adam record: got %v, want ErrOptimizerMismatch", err)
	}

	other, _ := optim.NewAdam[float32](optim.AdamConfig{}, backend)
	if err := other.LoadRecord(rec); err != nil {
		t.Fatalf("LoadRecord: %v", err)
	}
	adamState, _ := other.State(param.ID())
	if adamState.Momentum.Time != 1 {
		t.Errorf("adam time: got %d, want 1", adamState.Momentum.Time)
	}

	missing := record.New(optim.AdamName)
	missing.Items[string(param.ID())] = record.NewNode()
	if err := other.LoadRecord(missing); !errors.Is(err, record.ErrFieldMissing) {
		t.Errorf("adam without momentum: got %v, want ErrFieldMissing", err)
	}
}

func TestOptimizerNames(t *testing.T) {
	backend := cpu.New()
	sgd, _ := optim.NewSGD[float32](optim.SGDConfig{}, backend)
	adam, _ := optim.NewAdam[float32](optim.AdamConfig{}, backend)
	adagrad, _ := optim.NewAdaGrad[float32](optim.NewAdaGradConfig(), backend)

	for want, got := range map[string]string{
		optim.SGDName:     sgd.Name(),
		optim.AdamName:    adam.Name(),
		optim.AdaGradName: adagrad.Name(),
	} {
		if got != want {
			t.Errorf("Name: got %q, want %q", got, want)
		}
	}
}
