package tensor

// Zeros returns a zero-filled tensor on the backend's default device.
// It panics if shape is invalid.
//
//	z := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T Float, B Backend](shape Shape, b B) *Tensor[T, B] {
	raw, err := NewRaw(shape, DataTypeOf[T](), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, b)
}

// Ones returns a tensor of ones.
func Ones[T Float, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
}

// Full returns a tensor with every element set to value.
//
//	eps := tensor.Full[float32](Shape{3, 3}, 1e-8, backend)
func Full[T Float, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	if value != 0 {
		fill(t.Data(), value)
	}
	return t
}

func fill[T Float](data []T, value T) {
	for i := range data {
		data[i] = value
	}
}
