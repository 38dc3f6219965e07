package cpu

import (
	"errors"
	"math"
	"testing"

	"github.com/born-ml/born-optim/internal/tensor"
)

// Helper to create test backend.
func newTestBackend() *CPUBackend {
	return New()
}

// Helper to check float32 slices are equal within epsilon.
func float32SliceEqual(a, b []float32) bool {
	const epsilon = 1e-6
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > epsilon {
			return false
		}
	}
	return true
}

func float64SliceEqual(a, b []float64) bool {
	const epsilon = 1e-12
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > epsilon {
			return false
		}
	}
	return true
}

func raw32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU(0))
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func raw64(t *testing.T, data []float64, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float64, tensor.CPU(0))
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat64(), data)
	return raw
}

// TestCPUBackend_New tests backend creation.
func TestCPUBackend_New(t *testing.T) {
	backend := New()
	if backend.Name() != "CPU" {
		t.Errorf("Expected name 'CPU', got '%s'", backend.Name())
	}
	if backend.Device() != tensor.CPU(0) {
		t.Errorf("Expected device cpu:0, got %v", backend.Device())
	}
}

func TestCPUBackend_NewWithDevicePanicsOnGPU(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for non-CPU default device")
		}
	}()
	NewWithDevice(tensor.Device{Kind: tensor.CUDAKind})
}

// TestCPUBackend_Binary tests element-wise binary ops for both float widths.
func TestCPUBackend_Binary(t *testing.T) {
	backend := newTestBackend()

	a32 := raw32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b32 := raw32(t, []float32{2, 4, 6, 8}, tensor.Shape{2, 2})
	a64 := raw64(t, []float64{1, 2, 3, 4}, tensor.Shape{4})
	b64 := raw64(t, []float64{2, 4, 6, 8}, tensor.Shape{4})

	tests := []struct {
		name string
		op   func(a, b *tensor.RawTensor) *tensor.RawTensor
		want []float64
	}{
		{"add", backend.Add, []float64{3, 6, 9, 12}},
		{"sub", backend.Sub, []float64{-1, -2, -3, -4}},
		{"mul", backend.Mul, []float64{2, 8, 18, 32}},
		{"div", backend.Div, []float64{0.5, 0.5, 0.5, 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/float32", func(t *testing.T) {
			got := tt.op(a32, b32)
			want := make([]float32, len(tt.want))
			for i, v := range tt.want {
				want[i] = float32(v)
			}
			if !float32SliceEqual(got.AsFloat32(), want) {
				t.Errorf("got %v, want %v", got.AsFloat32(), want)
			}
			if !got.Shape().Equal(tensor.Shape{2, 2}) {
				t.Errorf("shape = %v", got.Shape())
			}
		})
		t.Run(tt.name+"/float64", func(t *testing.T) {
			got := tt.op(a64, b64)
			if !float64SliceEqual(got.AsFloat64(), tt.want) {
				t.Errorf("got %v, want %v", got.AsFloat64(), tt.want)
			}
		})
	}

	// Inputs are never written.
	if !float32SliceEqual(a32.AsFloat32(), []float32{1, 2, 3, 4}) {
		t.Errorf("input modified: %v", a32.AsFloat32())
	}
}

func TestCPUBackend_BinaryShapeMismatchPanics(t *testing.T) {
	backend := newTestBackend()
	a := raw32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := raw32(t, []float32{1, 2, 3, 4}, tensor.Shape{4})

	defer func() {
		if recover() == nil {
			t.Error("expected panic on shape mismatch")
		}
	}()
	backend.Add(a, b)
}

func TestCPUBackend_ScalarAndMath(t *testing.T) {
	backend := newTestBackend()
	x := raw32(t, []float32{1, 4, 9, 16}, tensor.Shape{4})

	if got := backend.AddScalar(x, 0.5).AsFloat32(); !float32SliceEqual(got, []float32{1.5, 4.5, 9.5, 16.5}) {
		t.Errorf("AddScalar = %v", got)
	}
	if got := backend.MulScalar(x, 2).AsFloat32(); !float32SliceEqual(got, []float32{2, 8, 18, 32}) {
		t.Errorf("MulScalar = %v", got)
	}
	if got := backend.Sqrt(x).AsFloat32(); !float32SliceEqual(got, []float32{1, 2, 3, 4}) {
		t.Errorf("Sqrt = %v", got)
	}
	if got := backend.Pow(x, 2).AsFloat32(); !float32SliceEqual(got, []float32{1, 16, 81, 256}) {
		t.Errorf("Pow(2) = %v", got)
	}
	if got := backend.Pow(x, 0.5).AsFloat32(); !float32SliceEqual(got, []float32{1, 2, 3, 4}) {
		t.Errorf("Pow(0.5) = %v", got)
	}
	if got := backend.Clamp(x, 2, 10).AsFloat32(); !float32SliceEqual(got, []float32{2, 4, 9, 10}) {
		t.Errorf("Clamp = %v", got)
	}
	if got := backend.Sum(x); got != 30 {
		t.Errorf("Sum = %v, want 30", got)
	}

	y := raw64(t, []float64{1, 4, 9, 16}, tensor.Shape{2, 2})
	if got := backend.AddScalar(y, -1).AsFloat64(); !float64SliceEqual(got, []float64{0, 3, 8, 15}) {
		t.Errorf("AddScalar float64 = %v", got)
	}
	if got := backend.MulScalar(y, 0.5).AsFloat64(); !float64SliceEqual(got, []float64{0.5, 2, 4.5, 8}) {
		t.Errorf("MulScalar float64 = %v", got)
	}
	if got := backend.Pow(y, 2).AsFloat64(); !float64SliceEqual(got, []float64{1, 16, 81, 256}) {
		t.Errorf("Pow float64 = %v", got)
	}
	if got := backend.Sqrt(y).AsFloat64(); !float64SliceEqual(got, []float64{1, 2, 3, 4}) {
		t.Errorf("Sqrt float64 = %v", got)
	}
	if got := backend.Clamp(y, -3, 3).AsFloat64(); !float64SliceEqual(got, []float64{1, 3, 3, 3}) {
		t.Errorf("Clamp float64 = %v", got)
	}
	if got := backend.Sum(y); got != 30 {
		t.Errorf("Sum float64 = %v, want 30", got)
	}
}

func TestCPUBackend_ToDevice(t *testing.T) {
	backend := newTestBackend()
	x := raw32(t, []float32{1, 2, 3}, tensor.Shape{3})

	same, err := backend.ToDevice(x, tensor.CPU(0))
	if err != nil {
		t.Fatalf("ToDevice same: %v", err)
	}
	if same != x {
		t.Error("ToDevice onto current device should return the input")
	}

	moved, err := backend.ToDevice(x, tensor.CPU(1))
	if err != nil {
		t.Fatalf("ToDevice cpu:1: %v", err)
	}
	if moved.Device() != tensor.CPU(1) {
		t.Errorf("device = %v, want cpu:1", moved.Device())
	}
	if !float32SliceEqual(moved.AsFloat32(), x.AsFloat32()) {
		t.Errorf("data changed during transfer: %v", moved.AsFloat32())
	}
	moved.AsFloat32()[0] = 42
	if x.AsFloat32()[0] != 1 {
		t.Error("transfer must copy the buffer")
	}

	// Results of ops stay on the operand's device.
	if got := backend.MulScalar(moved, 2).Device(); got != tensor.CPU(1) {
		t.Errorf("op result device = %v, want cpu:1", got)
	}

	_, err = backend.ToDevice(x, tensor.Device{Kind: tensor.WebGPUKind})
	if !errors.Is(err, tensor.ErrUnsupportedDevice) {
		t.Errorf("expected ErrUnsupportedDevice, got %v", err)
	}
}
