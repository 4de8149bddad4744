package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTikhonovSolveRecoversSolution(t *testing.T) {
	rx, tags := 3, 2
	h := []complex128{
		1 + 0.5i, 0.2 - 0.1i,
		-0.3 + 0.8i, 1.1 + 0i,
		0.4 - 0.6i, -0.7 + 0.2i,
	}
	want := []float64{0.3, -0.7}
	y := make([]complex128, rx)
	for r := 0; r < rx; r++ {
		for c := 0; c < tags; c++ {
			y[r] += h[r*tags+c] * complex(want[c], 0)
		}
	}

	got := tikhonovSolve(h, y, []float64{LambdaFloor, LambdaFloor}, rx, tags)
	require.Len(t, got, tags)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4)
	}
}

func TestTikhonovSolveShrinksWithLambda(t *testing.T) {
	rx, tags := 2, 2
	h := []complex128{1, 0.2i, -0.1, 1 + 0.3i}
	y := []complex128{0.8 + 0.1i, -0.5}

	small := tikhonovSolve(h, y, []float64{1e-6, 1e-6}, rx, tags)
	large := tikhonovSolve(h, y, []float64{1e3, 1e3}, rx, tags)

	var ns, nl float64
	for i := range small {
		ns += small[i] * small[i]
		nl += large[i] * large[i]
	}
	assert.Less(t, nl, ns/100)
}

func TestTikhonovSolveZeroChannel(t *testing.T) {
	rx, tags := 3, 2
	h := make([]complex128, rx*tags)
	y := []complex128{1, 2i, -3}

	got := tikhonovSolve(h, y, []float64{BaseLambda, BaseLambda}, rx, tags)
	require.Len(t, got, tags)
	for i, v := range got {
		assert.InDelta(t, 0, v, 1e-9, "component %d", i)
		assert.False(t, math.IsNaN(v))
	}
}

func TestConditionProxyIdentity(t *testing.T) {
	h := []complex128{1, 0, 0, 1}
	cond := conditionProxy(h, 2, 2)
	assert.InDelta(t, CondMin, cond, 1e-9)
}

func TestConditionProxyClampsDegenerate(t *testing.T) {
	// Nearly rank-deficient channel saturates at the clamp.
	h := []complex128{1, 0, 0, 1e-6}
	cond := conditionProxy(h, 2, 2)
	assert.InDelta(t, CondMax, cond, 1e-9)

	// All-zero channel floors every singular value equally.
	zero := make([]complex128, 4)
	cond = conditionProxy(zero, 2, 2)
	assert.GreaterOrEqual(t, cond, CondMin)
	assert.LessOrEqual(t, cond, CondMax)
}

func TestSanitize(t *testing.T) {
	x := []float64{math.NaN(), math.Inf(1), math.Inf(-1), 2e6, -2e6, 1.5}
	sanitize(x)
	assert.Equal(t, []float64{0, 0, 0, SolveClamp, -SolveClamp, 1.5}, x)
}
