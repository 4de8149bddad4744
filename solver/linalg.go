package solver

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// The complex channel math runs on gonum's real dense types through the
// standard block embedding: a complex matrix A maps to
// [[Re A, -Im A], [Im A, Re A]]. Singular values of the embedding are the
// singular values of A with doubled multiplicity, so ratios survive, and
// solving the embedded system solves the complex one.

// gram computes A = H^H H for H of shape (rx x tags), row-major.
func gram(h []complex128, rx, tags int) []complex128 {
	a := make([]complex128, tags*tags)
	for i := 0; i < tags; i++ {
		for j := 0; j < tags; j++ {
			var acc complex128
			for r := 0; r < rx; r++ {
				hi := h[r*tags+i]
				hj := h[r*tags+j]
				acc += complex(real(hi), -imag(hi)) * hj
			}
			a[i*tags+j] = acc
		}
	}
	return a
}

// gramVec computes b = H^H y.
func gramVec(h []complex128, y []complex128, rx, tags int) []complex128 {
	b := make([]complex128, tags)
	for i := 0; i < tags; i++ {
		var acc complex128
		for r := 0; r < rx; r++ {
			hi := h[r*tags+i]
			acc += complex(real(hi), -imag(hi)) * y[r]
		}
		b[i] = acc
	}
	return b
}

// embed builds the real 2n x 2n block form of a complex n x n matrix.
func embed(a []complex128, n int) *mat.Dense {
	m := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			re := real(a[i*n+j])
			im := imag(a[i*n+j])
			m.Set(i, j, re)
			m.Set(i, j+n, -im)
			m.Set(i+n, j, im)
			m.Set(i+n, j+n, re)
		}
	}
	return m
}

// conditionProxy is the ratio of largest to smallest singular value of
// H^H H, floored and clamped to [CondMin, CondMax].
func conditionProxy(h []complex128, rx, tags int) float64 {
	a := gram(h, rx, tags)
	m := embed(a, tags)

	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDNone) {
		return CondMax
	}
	s := svd.Values(nil)
	smax, smin := 0.0, math.MaxFloat64
	for _, v := range s {
		v = maxF(v, EpsSingular)
		if v > smax {
			smax = v
		}
		if v < smin {
			smin = v
		}
	}
	if smax == 0 {
		return CondMax
	}
	return clamp(smax/smin, CondMin, CondMax)
}

// tikhonovSolve solves (H^H H + diag(lambda)) x = H^H y and returns the
// real part of x. The lambda floor keeps the system non-singular for any
// channel; if the factorization still fails or produces non-finite
// entries, the affected components fall back to zero and the rest are
// clamped to the valid numeric range.
func tikhonovSolve(h []complex128, y []complex128, lambda []float64, rx, tags int) []float64 {
	a := gram(h, rx, tags)
	for t := 0; t < tags; t++ {
		a[t*tags+t] += complex(lambda[t], 0)
	}
	b := gramVec(h, y, rx, tags)

	m := embed(a, tags)
	rhs := mat.NewVecDense(2*tags, nil)
	for t := 0; t < tags; t++ {
		rhs.SetVec(t, real(b[t]))
		rhs.SetVec(t+tags, imag(b[t]))
	}

	x := make([]float64, tags)
	var sol mat.VecDense
	if err := sol.SolveVec(m, rhs); err == nil {
		for t := 0; t < tags; t++ {
			x[t] = sol.AtVec(t)
		}
	}
	sanitize(x)
	return x
}

// sanitize zeroes non-finite entries and clamps the rest in place.
func sanitize(x []float64) {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			x[i] = 0
			continue
		}
		x[i] = clamp(v, -SolveClamp, SolveClamp)
	}
}
