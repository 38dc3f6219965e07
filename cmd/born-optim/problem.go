package main

import (
	"math/rand"

	"github.com/born-ml/born-optim/internal/backend/cpu"
	"github.com/born-ml/born-optim/internal/config"
	"github.com/born-ml/born-optim/internal/nn"
	"github.com/born-ml/born-optim/internal/optim"
	"github.com/born-ml/born-optim/internal/tensor"
)

// Parameter identities are fixed so records from different runs line up.
const (
	weightID nn.ParamID = "linear.weight"
	biasID   nn.ParamID = "linear.bias"
)

// leastSquares fits y = x @ W + b to targets generated from a hidden W*, b*.
//
//	loss = 1/(2n) * sum((x @ W + b - y)²)
type leastSquares struct {
	in, out, batch int
	x, y           []float64 // Row-major [batch, in] and [batch, out]

	backend *cpu.CPUBackend
	weight  *nn.Parameter[float32, *cpu.CPUBackend]
	bias    *nn.Parameter[float32, *cpu.CPUBackend]
}

func newLeastSquares(cfg config.TrainingConfig, backend *cpu.CPUBackend) *leastSquares {
	//nolint:gosec // Synthetic data, not security-critical
	rng := rand.New(rand.NewSource(cfg.Seed))
	in, out, n := cfg.InFeatures, cfg.OutFeatures, cfg.BatchSize

	trueW := make([]float64, in*out)
	for i := range trueW {
		trueW[i] = rng.NormFloat64()
	}
	trueB := make([]float64, out)
	for i := range trueB {
		trueB[i] = rng.NormFloat64()
	}

	x := make([]float64, n*in)
	for i := range x {
		x[i] = rng.Float64()*2 - 1
	}
	y := make([]float64, n*out)
	for r := range n {
		for j := range out {
			sum := trueB[j]
			for k := range in {
				sum += x[r*in+k] * trueW[k*out+j]
			}
			y[r*out+j] = sum
		}
	}

	weight := nn.Xavier[float32](in, out, tensor.Shape{in, out}, rng, backend)
	bias := tensor.Zeros[float32](tensor.Shape{out}, backend)

	return &leastSquares{
		in: in, out: out, batch: n,
		x: x, y: y,
		backend: backend,
		weight:  nn.NewParameterWithID(weightID, "weight", weight),
		bias:    nn.NewParameterWithID(biasID, "bias", bias),
	}
}

func (p *leastSquares) Parameters() []*nn.Parameter[float32, *cpu.CPUBackend] {
	return []*nn.Parameter[float32, *cpu.CPUBackend]{p.weight, p.bias}
}

// residuals returns x @ W + b - y.
func (p *leastSquares) residuals() []float64 {
	w := p.weight.Tensor().Data()
	b := p.bias.Tensor().Data()
	r := make([]float64, p.batch*p.out)
	for i := range p.batch {
		for j := range p.out {
			sum := float64(b[j])
			for k := range p.in {
				sum += p.x[i*p.in+k] * float64(w[k*p.out+j])
			}
			r[i*p.out+j] = sum - p.y[i*p.out+j]
		}
	}
	return r
}

// gradients returns the loss and its gradients for the current parameters.
func (p *leastSquares) gradients() (float64, *optim.GradientsParams[float32, *cpu.CPUBackend], error) {
	r := p.residuals()
	n := float64(p.batch)

	loss := 0.0
	for _, v := range r {
		loss += v * v
	}
	loss /= 2 * n

	gw := make([]float32, p.in*p.out)
	for k := range p.in {
		for j := range p.out {
			sum := 0.0
			for i := range p.batch {
				sum += p.x[i*p.in+k] * r[i*p.out+j]
			}
			gw[k*p.out+j] = float32(sum / n)
		}
	}
	gb := make([]float32, p.out)
	for j := range p.out {
		sum := 0.0
		for i := range p.batch {
			sum += r[i*p.out+j]
		}
		gb[j] = float32(sum / n)
	}

	grads := optim.NewGradientsParams[float32, *cpu.CPUBackend]()
	gwt, err := tensor.FromSlice(gw, tensor.Shape{p.in, p.out}, p.backend)
	if err != nil {
		return 0, nil, err
	}
	gbt, err := tensor.FromSlice(gb, tensor.Shape{p.out}, p.backend)
	if err != nil {
		return 0, nil, err
	}
	grads.Register(p.weight.ID(), gwt)
	grads.Register(p.bias.ID(), gbt)
	return loss, grads, nil
}
