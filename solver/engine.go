package solver

import (
	"math"
	"runtime"
	"sync"
)

// SolvePath records which estimator variant produced the fused solution.
type SolvePath uint8

const (
	// PathBaseline: closed-form regularized solve only.
	PathBaseline SolvePath = iota
	// PathCorrected: residual-corrected channel re-solve, gate-fused
	// with the baseline.
	PathCorrected
)

func (p SolvePath) String() string {
	if p == PathCorrected {
		return "corrected"
	}
	return "baseline"
}

// Diagnostics are the per-frame conditioning features, kept on the result
// for monitoring and offline analysis.
type Diagnostics struct {
	LogCond float64
	YNorm   float64
	LogSNR  float64
	Lambda  []float64
	Gate    float64
}

// Result is the outcome of one inference call.
type Result struct {
	Path SolvePath

	// Gamma is the tag estimate vector, interpreted downstream as
	// reflection coefficients. HAbs is the channel magnitude matrix,
	// row-major Rx x Tags. Output is their concatenation, the raw
	// engine output of length Tags + Rx*Tags.
	Gamma  []float64
	HAbs   []float64
	Output []float64

	// Temperatures in Celsius, one per tag; entries may be NaN. Valid
	// flags mark values inside the physically plausible band.
	Temperatures []float64
	Valid        []bool

	Diag Diagnostics
}

// Engine runs the hybrid estimator. Construct with NewEngine, load a
// parameter snapshot once, then call Infer from any number of goroutines:
// parameters are read-only after load and every call allocates its own
// working state.
type Engine struct {
	cfg    Config
	params *Parameters
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

func (e *Engine) Config() Config { return e.cfg }

// Loaded reports whether a parameter snapshot has been bound.
func (e *Engine) Loaded() bool { return e.params != nil }

// LoadSnapshotFile reads and binds a parameter snapshot from disk.
func (e *Engine) LoadSnapshotFile(path string) error {
	snap, err := LoadSnapshot(path)
	if err != nil {
		return err
	}
	return e.Load(snap)
}

// Load binds an already-decoded snapshot to the engine architecture.
func (e *Engine) Load(snap Snapshot) error {
	p, err := newParameters(e.cfg, snap)
	if err != nil {
		return err
	}
	e.params = p
	return nil
}

// Infer runs the full pipeline on one frame.
func (e *Engine) Infer(f *Frame) (*Result, error) {
	if e.params == nil {
		return nil, ErrNotLoaded
	}
	if err := f.checkShape(e.cfg); err != nil {
		return nil, err
	}

	t := e.cfg.Tags
	r := e.cfg.RxAntennas

	// Slot averaging and noise estimation run on the raw samples; the
	// noise variance is taken about the pre-normalization coherent
	// means.
	slots := f.slotAverage()
	sigma2 := f.noisePower(slots)
	pilotNormalize(slots, t)
	pilotPw := meanPilotPower(slots, t)
	logSNR := math.Log(pilotPw/(sigma2+EpsNoise) + EpsNoise)

	h, y := buildChannel(slots, t)
	cond := conditionProxy(h, r, t)
	logCond := math.Log(cond + EpsLog)
	ynorm := vecNorm(y)

	feats := []float64{logCond, ynorm, logSNR}
	lambda := e.predictLambda(feats)
	xLS := tikhonovSolve(h, y, lambda, r, t)

	path := PathBaseline
	var xTilde []float64
	if e.cfg.EnableDeltaH {
		hTilde := e.correctChannel(h, y)
		// Regularization is recomputed against the corrected
		// channel before re-solving.
		cond2 := conditionProxy(hTilde, r, t)
		lambda2 := e.predictLambda([]float64{math.Log(cond2 + EpsLog), ynorm, logSNR})
		xTilde = tikhonovSolve(hTilde, y, lambda2, r, t)
		path = PathCorrected
	}

	xBase, gate := e.fuse(path, xLS, xTilde, feats)
	xHat := e.refine(h, y, xBase, feats)
	e.applyOutput(xHat)

	hAbs := absMatrix(h)
	out := make([]float64, 0, t+r*t)
	out = append(out, xHat...)
	out = append(out, hAbs...)

	res := &Result{
		Path:         path,
		Gamma:        xHat,
		HAbs:         hAbs,
		Output:       out,
		Temperatures: make([]float64, t),
		Valid:        make([]bool, t),
		Diag: Diagnostics{
			LogCond: logCond,
			YNorm:   ynorm,
			LogSNR:  logSNR,
			Lambda:  lambda,
			Gate:    gate,
		},
	}
	for i := 0; i < t; i++ {
		res.Temperatures[i], res.Valid[i] = GammaToTemperature(xHat[i])
	}
	return res, nil
}

// InferBatch runs Infer over independent frames in parallel. Frames fail
// individually: a shape error on one leaves the others' results intact,
// and the first error encountered is returned.
func (e *Engine) InferBatch(frames []*Frame) ([]*Result, error) {
	results := make([]*Result, len(frames))
	errs := make([]error, len(frames))

	workers := runtime.NumCPU()
	if workers > len(frames) {
		workers = len(frames)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	idx := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				results[i], errs[i] = e.Infer(frames[i])
			}
		}()
	}
	for i := range frames {
		idx <- i
	}
	close(idx)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// predictLambda maps the conditioning features to a strictly positive
// per-tag regularization strength.
func (e *Engine) predictLambda(feats []float64) []float64 {
	lambda := make([]float64, e.cfg.Tags)
	if !e.cfg.AdaptiveLambda {
		for i := range lambda {
			lambda[i] = e.cfg.BaseLambda
		}
		return lambda
	}
	raw := e.params.LambdaNet.forward(feats)
	for i, v := range raw {
		lambda[i] = (softplus(v) + LambdaFloor) * e.cfg.BaseLambda
	}
	return lambda
}

// correctChannel applies the learned residual: H~ = H + dH.
func (e *Engine) correctChannel(h, y []complex128) []complex128 {
	rt := len(h)
	in := make([]float64, 0, 2*rt+2*len(y))
	for _, c := range h {
		in = append(in, real(c))
	}
	for _, c := range h {
		in = append(in, imag(c))
	}
	for _, c := range y {
		in = append(in, real(c))
	}
	for _, c := range y {
		in = append(in, imag(c))
	}
	dh := e.params.DeltaH.forward(in)

	hTilde := make([]complex128, rt)
	for i := range hTilde {
		hTilde[i] = h[i] + complex(dh[i], dh[rt+i])
	}
	return hTilde
}

// fuse blends the candidate solutions. The switch is total over both
// paths: the baseline variant returns x_ls untouched without evaluating
// the gate network.
func (e *Engine) fuse(path SolvePath, xLS, xTilde, feats []float64) ([]float64, float64) {
	switch path {
	case PathCorrected:
		g := sigmoid(e.params.GateFC1.Forward(gelu(e.params.GateFC0.Forward(feats)))[0])
		out := make([]float64, len(xLS))
		for i := range out {
			out[i] = (1-g)*xLS[i] + g*xTilde[i]
		}
		return out, g
	default:
		out := make([]float64, len(xLS))
		copy(out, xLS)
		return out, 0
	}
}

// refine applies the deep residual correction around the fused estimate.
func (e *Engine) refine(h, y []complex128, xBase, feats []float64) []float64 {
	in := make([]float64, 0, 2*len(h)+2*len(y)+len(xBase)+len(feats))
	for _, c := range h {
		in = append(in, real(c))
	}
	for _, c := range h {
		in = append(in, imag(c))
	}
	for _, c := range y {
		in = append(in, real(c))
	}
	for _, c := range y {
		in = append(in, imag(c))
	}
	in = append(in, xBase...)
	in = append(in, feats...)

	hid := gelu(e.params.RefineStem.Forward(in))
	for i := range e.params.RefineBlocks {
		hid = e.params.RefineBlocks[i].forward(hid)
	}
	dx := e.params.RefineHead.Forward(hid)

	out := make([]float64, len(xBase))
	for i := range out {
		out[i] = xBase[i] + dx[i]
	}
	return out
}

// applyOutput resolves the configured output transform in place: strictly
// positive transform first, then clip bounds, else linear unbounded.
func (e *Engine) applyOutput(x []float64) {
	if e.cfg.SoftplusOut {
		for i, v := range x {
			x[i] = softplus(v)
		}
	}
	if e.cfg.Clip {
		for i, v := range x {
			x[i] = clamp(v, e.cfg.ClipLow, e.cfg.ClipHigh)
		}
	}
}
