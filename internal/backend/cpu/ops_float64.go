package cpu

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Float64 kernels delegate to gonum where a routine exists.

func addFloat64(dst, a, b []float64) {
	floats.AddTo(dst, a, b)
}

func subFloat64(dst, a, b []float64) {
	floats.SubTo(dst, a, b)
}

func mulFloat64(dst, a, b []float64) {
	floats.MulTo(dst, a, b)
}

func divFloat64(dst, a, b []float64) {
	floats.DivTo(dst, a, b)
}

func addScalarFloat64(dst, x []float64, s float64) {
	copy(dst, x)
	floats.AddConst(s, dst)
}

func mulScalarFloat64(dst, x []float64, s float64) {
	floats.ScaleTo(dst, s, x)
}

func sqrtFloat64(dst, x []float64) {
	for i := range dst {
		dst[i] = math.Sqrt(x[i])
	}
}

func powFloat64(dst, x []float64, p float64) {
	if p == 2 {
		floats.MulTo(dst, x, x)
		return
	}
	for i := range dst {
		dst[i] = math.Pow(x[i], p)
	}
}

func clampFloat64(dst, x []float64, lo, hi float64) {
	for i := range dst {
		dst[i] = min(max(x[i], lo), hi)
	}
}

func sumFloat64(x []float64) float64 {
	return floats.Sum(x)
}
