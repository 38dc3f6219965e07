package tensor

import (
	"errors"
	"testing"
)

func assertEqualShape(t *testing.T, expected, actual Shape, msg string) {
	t.Helper()
	if !expected.Equal(actual) {
		t.Errorf("%s: expected shape %v, got %v", msg, expected, actual)
	}
}

func TestDataTypeSize(t *testing.T) {
	tests := []struct {
		dtype DataType
		size  int
		str   string
	}{
		{Float32, 4, "float32"},
		{Float64, 8, "float64"},
	}

	for _, tt := range tests {
		if got := tt.dtype.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.dtype, got, tt.size)
		}
		if got := tt.dtype.String(); got != tt.str {
			t.Errorf("String() = %q, want %q", got, tt.str)
		}
		parsed, ok := ParseDataType(tt.str)
		if !ok || parsed != tt.dtype {
			t.Errorf("ParseDataType(%q) = %v, %v", tt.str, parsed, ok)
		}
	}

	if _, ok := ParseDataType("int8"); ok {
		t.Error("ParseDataType should reject int8")
	}
	if DataTypeOf[float32]() != Float32 || DataTypeOf[float64]() != Float64 {
		t.Error("DataTypeOf mismatch")
	}
}

func TestShape(t *testing.T) {
	s := Shape{2, 3, 4}
	if s.NumElements() != 24 {
		t.Errorf("NumElements = %d, want 24", s.NumElements())
	}
	if got := s.String(); got != "[2x3x4]" {
		t.Errorf("String = %q, want [2x3x4]", got)
	}
	if got := (Shape{}).String(); got != "[]" {
		t.Errorf("scalar String = %q, want []", got)
	}
	if (Shape{}).NumElements() != 1 {
		t.Error("scalar shape should have one element")
	}
	if err := (Shape{2, 0}).Validate(); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("Validate should reject zero dimension, got %v", err)
	}

	c := s.Clone()
	c[0] = 9
	assertEqualShape(t, Shape{2, 3, 4}, s, "Clone must not alias")
	if (Shape{2, 3}).Equal(Shape{3, 2}) {
		t.Error("Equal should compare order")
	}
}

func TestParseDevice(t *testing.T) {
	tests := []struct {
		in      string
		want    Device
		wantErr bool
	}{
		{"cpu", CPU(0), false},
		{"cpu:3", CPU(3), false},
		{" CUDA:1 ", Device{Kind: CUDAKind, Index: 1}, false},
		{"webgpu", Device{Kind: WebGPUKind}, false},
		{"tpu:0", Device{}, true},
		{"cpu:-1", Device{}, true},
		{"cpu:x", Device{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDevice(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if CPU(2).String() != "cpu:2" {
		t.Errorf("String = %q", CPU(2).String())
	}
}

func TestRawTensor(t *testing.T) {
	raw, err := NewRaw(Shape{3, 2}, Float32, CPU(0))
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	if raw.ByteSize() != 24 {
		t.Errorf("ByteSize = %d, want 24", raw.ByteSize())
	}

	data := raw.AsFloat32()
	data[0] = 42
	if raw.AsFloat32()[0] != 42 {
		t.Error("AsFloat32 should return zero-copy slice")
	}

	clone := raw.Clone()
	clone.AsFloat32()[0] = 7
	if raw.AsFloat32()[0] != 42 {
		t.Error("Clone must deep copy")
	}

	moved := raw.CopyTo(CPU(1))
	if moved.Device() != CPU(1) || moved.AsFloat32()[0] != 42 {
		t.Errorf("CopyTo: device %v first %v", moved.Device(), moved.AsFloat32()[0])
	}

	if _, err := NewRaw(Shape{0}, Float32, CPU(0)); err == nil {
		t.Error("NewRaw should reject invalid shape")
	}
}

func TestRawTensorFromBytes(t *testing.T) {
	src, _ := NewRaw(Shape{2}, Float64, CPU(0))
	copy(src.AsFloat64(), []float64{1.5, -2.25})

	raw, err := NewRawFromBytes(Shape{2}, Float64, CPU(0), src.Data())
	if err != nil {
		t.Fatalf("NewRawFromBytes: %v", err)
	}
	if got := raw.AsFloat64(); got[0] != 1.5 || got[1] != -2.25 {
		t.Errorf("got %v", got)
	}

	_, err = NewRawFromBytes(Shape{3}, Float64, CPU(0), src.Data())
	if !errors.Is(err, ErrDataSize) {
		t.Errorf("expected ErrDataSize, got %v", err)
	}
}

func TestRawTensorWrongDTypePanics(t *testing.T) {
	raw, _ := NewRaw(Shape{2}, Float64, CPU(0))
	defer func() {
		if recover() == nil {
			t.Error("AsFloat32 on float64 tensor should panic")
		}
	}()
	raw.AsFloat32()
}
