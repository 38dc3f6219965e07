package record

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/born-ml/born-optim/internal/tensor"
)

// TensorData is a device-independent tensor payload.
//
// Data holds the elements in little-endian order, which is the in-memory
// layout of RawTensor on every supported platform.
type TensorData struct {
	DType string `json:"dtype"` // "float32" or "float64"
	Shape []int  `json:"shape"` // Dimensions, empty for a scalar
	Data  []byte `json:"data"`  // Element bytes (base64 in JSON)
}

// FromRaw captures a copy of raw's contents.
func FromRaw(raw *tensor.RawTensor) *TensorData {
	data := make([]byte, raw.ByteSize())
	copy(data, raw.Data())
	shape := raw.Shape().Ints()
	return &TensorData{
		DType: raw.DType().String(),
		Shape: shape,
		Data:  data,
	}
}

// FromTensor captures a copy of a typed tensor's contents.
func FromTensor[T tensor.Float, B tensor.Backend](t *tensor.Tensor[T, B]) *TensorData {
	return FromRaw(t.Raw())
}

// Validate checks dtype, shape and payload size agree.
func (t *TensorData) Validate() error {
	dtype, ok := tensor.ParseDataType(t.DType)
	if !ok {
		return fmt.Errorf("%w: unknown dtype %q", ErrMalformed, t.DType)
	}
	shape := tensor.Shape(t.Shape)
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	want, ok := byteSize(shape, dtype.Size())
	if !ok {
		return fmt.Errorf("%w: shape %v as %s overflows", ErrMalformed, t.Shape, t.DType)
	}
	if want != len(t.Data) {
		return fmt.Errorf("%w: shape %v as %s needs %d bytes, got %d",
			ErrSizeMismatch, t.Shape, t.DType, want, len(t.Data))
	}
	return nil
}

// byteSize multiplies the positive dimensions by elemSize, reporting false
// if the product does not fit in an int.
func byteSize(shape tensor.Shape, elemSize int) (int, bool) {
	n := elemSize
	for _, dim := range shape {
		if n > math.MaxInt/dim {
			return 0, false
		}
		n *= dim
	}
	return n, true
}

// ToRaw materializes the payload as a RawTensor placed on device.
func (t *TensorData) ToRaw(device tensor.Device) (*tensor.RawTensor, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	dtype, _ := tensor.ParseDataType(t.DType)
	return tensor.NewRawFromBytes(tensor.Shape(t.Shape), dtype, device, t.Data)
}

// ToTensor materializes the payload as a typed tensor on the backend's
// default device. The stored dtype must match T.
func ToTensor[T tensor.Float, B tensor.Backend](t *TensorData, backend B) (*tensor.Tensor[T, B], error) {
	if want := tensor.DataTypeOf[T]().String(); t.DType != want {
		return nil, fmt.Errorf("%w: stored dtype %s, want %s", ErrMalformed, t.DType, want)
	}
	raw, err := t.ToRaw(backend.Device())
	if err != nil {
		return nil, err
	}
	return tensor.New[T, B](raw, backend), nil
}

// Float64s decodes the payload as float64 values regardless of dtype.
func (t *TensorData) Float64s() ([]float64, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	switch t.DType {
	case tensor.Float32.String():
		out := make([]float64, len(t.Data)/4)
		for i := range out {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(t.Data[i*4:])))
		}
		return out, nil
	default:
		out := make([]float64, len(t.Data)/8)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(t.Data[i*8:]))
		}
		return out, nil
	}
}

// NumElements returns the element count implied by the shape.
func (t *TensorData) NumElements() int {
	return tensor.Shape(t.Shape).NumElements()
}

// normalizeShape replaces a nil shape with an empty one so scalars decode
// identically across formats.
func normalizeShape(shape []int) []int {
	if shape == nil {
		return []int{}
	}
	return shape
}
