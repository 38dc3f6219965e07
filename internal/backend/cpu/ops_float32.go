package cpu

import "math"

// Float32 kernels. Lengths are checked by the callers.

func addFloat32(dst, a, b []float32) {
	for i := range dst {
		dst[i] = a[i] + b[i]
	}
}

func subFloat32(dst, a, b []float32) {
	for i := range dst {
		dst[i] = a[i] - b[i]
	}
}

func mulFloat32(dst, a, b []float32) {
	for i := range dst {
		dst[i] = a[i] * b[i]
	}
}

func divFloat32(dst, a, b []float32) {
	for i := range dst {
		dst[i] = a[i] / b[i]
	}
}

func addScalarFloat32(dst, x []float32, s float32) {
	for i := range dst {
		dst[i] = x[i] + s
	}
}

func mulScalarFloat32(dst, x []float32, s float32) {
	for i := range dst {
		dst[i] = x[i] * s
	}
}

func sqrtFloat32(dst, x []float32) {
	for i := range dst {
		dst[i] = float32(math.Sqrt(float64(x[i])))
	}
}

func powFloat32(dst, x []float32, p float64) {
	if p == 2 {
		for i := range dst {
			dst[i] = x[i] * x[i]
		}
		return
	}
	for i := range dst {
		dst[i] = float32(math.Pow(float64(x[i]), p))
	}
}

func clampFloat32(dst, x []float32, lo, hi float32) {
	for i := range dst {
		dst[i] = min(max(x[i], lo), hi)
	}
}

func sumFloat32(x []float32) float64 {
	var s float64
	for _, v := range x {
		s += float64(v)
	}
	return s
}
