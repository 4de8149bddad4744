package solver

// Engine constants mirrored from the deployed ZC706/AD9361 system.
const (
	DefaultTags           = 4
	DefaultRxAntennas     = 4
	DefaultSamplesPerSlot = 64

	// NumSlots is fixed: one pilot slot per tag plus the data slot.
	NumSlots = DefaultTags + 1

	// Tikhonov base regularization and its adaptive bounds.
	BaseLambda  = 1e-3
	LambdaFloor = 1e-6

	// Condition proxy clamp range; guards against degenerate channel
	// geometries driving the regularization features to extremes.
	CondMin = 1.0
	CondMax = 1e4

	// Numeric floors for power/variance/singular-value ratios.
	EpsPilotScale = 1e-8
	EpsNoise      = 1e-12
	EpsLog        = 1e-8
	EpsSingular   = 1e-9

	// Solutions escaping the solve with non-finite entries are zeroed
	// and the rest clamped to this range.
	SolveClamp = 1e6
)

// Thermistor model constants (50 ohm line, Beta-model NTC element).
const (
	Z0Ohms      = 50.0
	R25Ohms     = 330.0
	BetaKelvin  = 3500.0
	T25Kelvin   = 298.15
	KelvinZeroC = 273.15

	// Physically plausible band; outside it the numeric value is still
	// reported but flagged invalid.
	TempValidMinC = -40.0
	TempValidMaxC = 150.0

	// Reflection coefficients are clamped away from the +/-1 poles.
	GammaClamp = 0.999
)

// Hidden-layer widths of the learned heads.
const (
	HiddenDim        = 256
	DeltaHHiddenDim  = 384
	RefineBlockCount = 3
)

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
