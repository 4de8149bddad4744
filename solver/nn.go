package solver

import (
	"fmt"
	"math"
)

// Linear is a fully-connected layer. Weights are row-major (Out x In);
// parameters are read-only after snapshot load, so Forward is safe for
// concurrent use.
type Linear struct {
	In, Out int
	W       []float64
	B       []float64
}

// Forward computes W*x + b into a fresh slice.
func (l *Linear) Forward(x []float64) []float64 {
	out := make([]float64, l.Out)
	for o := 0; o < l.Out; o++ {
		row := l.W[o*l.In : (o+1)*l.In]
		acc := l.B[o]
		for i, w := range row {
			acc += w * x[i]
		}
		out[o] = acc
	}
	return out
}

func (l *Linear) bind(t tensorPair, name string) error {
	wantW := l.Out * l.In
	if len(t.W) != wantW || len(t.B) != l.Out {
		return fmt.Errorf("solver: %s shape mismatch: want %dx%d weights and %d bias, got %d and %d",
			name, l.Out, l.In, l.Out, len(t.W), len(t.B))
	}
	l.W = t.W
	l.B = t.B
	return nil
}

// gelu is the exact erf-based formulation matching the trained weights.
func gelu(x []float64) []float64 {
	for i, v := range x {
		x[i] = 0.5 * v * (1 + math.Erf(v/math.Sqrt2))
	}
	return x
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// softplus is numerically stable for large |x|.
func softplus(x float64) float64 {
	if x > 30 {
		return x
	}
	if x < -30 {
		return math.Exp(x)
	}
	return math.Log1p(math.Exp(x))
}

// residualBlock is a constant-width feed-forward block:
// fc1 -> GELU -> fc2 -> additive skip -> GELU. The dropout present during
// training is identity at inference and not modeled here.
type residualBlock struct {
	FC1 Linear
	FC2 Linear
}

func (b *residualBlock) forward(x []float64) []float64 {
	h := gelu(b.FC1.Forward(x))
	h = b.FC2.Forward(h)
	for i := range h {
		h[i] += x[i]
	}
	return gelu(h)
}

// mlp3 is the two-hidden-layer head shared by the regularization
// predictor: in -> hidden -> hidden -> out with GELU between layers.
type mlp3 struct {
	FC0, FC1, FC2 Linear
}

func (m *mlp3) forward(x []float64) []float64 {
	h := gelu(m.FC0.Forward(x))
	h = gelu(m.FC1.Forward(h))
	return m.FC2.Forward(h)
}
