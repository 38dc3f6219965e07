package tensor

// Backend defines the fixed contract the optimizer core computes through.
//
// Elementwise binary operations require operands of identical shape and
// dtype; implementations panic otherwise. Callers validate shapes before
// reaching the backend. Every operation returns a freshly allocated tensor
// (or, for ToDevice onto the current device, the input itself) and never
// modifies its inputs.
type Backend interface {
	// Element-wise binary operations
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar operations (element-wise with scalar)
	AddScalar(x *RawTensor, scalar float64) *RawTensor
	MulScalar(x *RawTensor, scalar float64) *RawTensor

	// Math operations (element-wise)
	Pow(x *RawTensor, exponent float64) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Clamp(x *RawTensor, lo, hi float64) *RawTensor

	// Reduction operations
	Sum(x *RawTensor) float64

	// Placement
	ToDevice(x *RawTensor, device Device) (*RawTensor, error)
	Supports(device Device) bool

	// Metadata
	Name() string
	Device() Device
}
