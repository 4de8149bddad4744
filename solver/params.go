package solver

import "fmt"

// Parameters are the learned heads of the estimator, bound from a flat
// snapshot against the dimensions of one Config. Immutable after load and
// owned by the engine instance.
type Parameters struct {
	// Regularization predictor: [log cond, ||y||, log SNR] -> per-tag
	// raw lambda signal.
	LambdaNet mlp3

	// Channel residual head: [vec Re H, vec Im H, Re y, Im y] ->
	// [vec Re dH, vec Im dH]. Bound only when the residual path is on.
	DeltaH mlp3

	// Gate blending the baseline and corrected solutions.
	GateFC0 Linear
	GateFC1 Linear

	// Residual refinement: widening stem, constant-width blocks, final
	// projection to the tag estimate correction.
	RefineStem   Linear
	RefineBlocks []residualBlock
	RefineHead   Linear
}

type tensorPair struct {
	W []float64
	B []float64
}

func pair(snap Snapshot, prefix string, out, in int) (tensorPair, error) {
	w, ok := snap[prefix+".weight"]
	if !ok {
		return tensorPair{}, fmt.Errorf("solver: snapshot missing %s.weight", prefix)
	}
	b, ok := snap[prefix+".bias"]
	if !ok {
		return tensorPair{}, fmt.Errorf("solver: snapshot missing %s.bias", prefix)
	}
	if len(w.Shape) != 2 || w.Shape[0] != out || w.Shape[1] != in {
		return tensorPair{}, fmt.Errorf("solver: %s.weight shape %v, want [%d %d]", prefix, w.Shape, out, in)
	}
	if len(b.Shape) != 1 || b.Shape[0] != out {
		return tensorPair{}, fmt.Errorf("solver: %s.bias shape %v, want [%d]", prefix, b.Shape, out)
	}
	return tensorPair{W: w.Data, B: b.Data}, nil
}

func bindLinear(l *Linear, snap Snapshot, prefix string, out, in int) error {
	t, err := pair(snap, prefix, out, in)
	if err != nil {
		return err
	}
	l.In, l.Out = in, out
	return l.bind(t, prefix)
}

// newParameters binds a snapshot to the architecture implied by cfg.
// Any missing tensor or shape mismatch is fatal; there is no
// forward-compatibility handling.
func newParameters(cfg Config, snap Snapshot) (*Parameters, error) {
	t := cfg.Tags
	r := cfg.RxAntennas
	dhIn := 2*r*t + 2*r
	refineIn := dhIn + t + 3

	p := &Parameters{}

	if err := bindLinear(&p.LambdaNet.FC0, snap, "lambda_net.fc0", HiddenDim, 3); err != nil {
		return nil, err
	}
	if err := bindLinear(&p.LambdaNet.FC1, snap, "lambda_net.fc1", HiddenDim, HiddenDim); err != nil {
		return nil, err
	}
	if err := bindLinear(&p.LambdaNet.FC2, snap, "lambda_net.fc2", t, HiddenDim); err != nil {
		return nil, err
	}

	if cfg.EnableDeltaH {
		if err := bindLinear(&p.DeltaH.FC0, snap, "delta_h.fc0", DeltaHHiddenDim, dhIn); err != nil {
			return nil, err
		}
		if err := bindLinear(&p.DeltaH.FC1, snap, "delta_h.fc1", DeltaHHiddenDim, DeltaHHiddenDim); err != nil {
			return nil, err
		}
		if err := bindLinear(&p.DeltaH.FC2, snap, "delta_h.fc2", 2*r*t, DeltaHHiddenDim); err != nil {
			return nil, err
		}
		if err := bindLinear(&p.GateFC0, snap, "gate.fc0", HiddenDim, 3); err != nil {
			return nil, err
		}
		if err := bindLinear(&p.GateFC1, snap, "gate.fc1", 1, HiddenDim); err != nil {
			return nil, err
		}
	}

	if err := bindLinear(&p.RefineStem, snap, "refine.stem", HiddenDim, refineIn); err != nil {
		return nil, err
	}
	p.RefineBlocks = make([]residualBlock, RefineBlockCount)
	for i := range p.RefineBlocks {
		fc1 := fmt.Sprintf("refine.block%d.fc1", i)
		fc2 := fmt.Sprintf("refine.block%d.fc2", i)
		if err := bindLinear(&p.RefineBlocks[i].FC1, snap, fc1, HiddenDim, HiddenDim); err != nil {
			return nil, err
		}
		if err := bindLinear(&p.RefineBlocks[i].FC2, snap, fc2, HiddenDim, HiddenDim); err != nil {
			return nil, err
		}
	}
	if err := bindLinear(&p.RefineHead, snap, "refine.head", t, HiddenDim); err != nil {
		return nil, err
	}

	return p, nil
}

// BlankSnapshot builds a snapshot with all weights and biases at zero for
// the architecture implied by cfg. With zero heads the engine degrades to
// the pure closed-form solve (dx = 0, dH = 0, gate = 1/2), which is the
// shape smoke tests and fresh deployments run with until trained weights
// are handed over.
func BlankSnapshot(cfg Config) Snapshot {
	t := cfg.Tags
	r := cfg.RxAntennas
	dhIn := 2*r*t + 2*r
	refineIn := dhIn + t + 3

	snap := Snapshot{}
	add := func(prefix string, out, in int) {
		snap[prefix+".weight"] = Tensor{Shape: []int{out, in}, Data: make([]float64, out*in)}
		snap[prefix+".bias"] = Tensor{Shape: []int{out}, Data: make([]float64, out)}
	}

	add("lambda_net.fc0", HiddenDim, 3)
	add("lambda_net.fc1", HiddenDim, HiddenDim)
	add("lambda_net.fc2", t, HiddenDim)
	add("delta_h.fc0", DeltaHHiddenDim, dhIn)
	add("delta_h.fc1", DeltaHHiddenDim, DeltaHHiddenDim)
	add("delta_h.fc2", 2*r*t, DeltaHHiddenDim)
	add("gate.fc0", HiddenDim, 3)
	add("gate.fc1", 1, HiddenDim)
	add("refine.stem", HiddenDim, refineIn)
	for i := 0; i < RefineBlockCount; i++ {
		add(fmt.Sprintf("refine.block%d.fc1", i), HiddenDim, HiddenDim)
		add(fmt.Sprintf("refine.block%d.fc2", i), HiddenDim, HiddenDim)
	}
	add("refine.head", t, HiddenDim)
	return snap
}
