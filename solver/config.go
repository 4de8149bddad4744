package solver

import "fmt"

// Config carries the immutable dimension and pipeline options of one
// inference engine instance. Pass it by value to NewEngine; the engine
// never mutates it afterwards.
type Config struct {
	Tags           int
	RxAntennas     int
	SamplesPerSlot int

	// Tikhonov regularization. When AdaptiveLambda is off every tag
	// gets the flat BaseLambda.
	BaseLambda     float64
	AdaptiveLambda bool

	// EnableDeltaH switches on the channel residual head and the gated
	// fusion of the baseline and corrected solutions.
	EnableDeltaH bool

	// Output stage. SoftplusOut forces a strictly positive output; Clip
	// additionally bounds it to [ClipLow, ClipHigh]. Both off means the
	// estimate is emitted linear and unbounded.
	SoftplusOut bool
	Clip        bool
	ClipLow     float64
	ClipHigh    float64
}

// DefaultConfig mirrors the deployed system: 4 tags, 4 antennas, 64
// samples per slot, adaptive lambda and the residual path enabled,
// linear unbounded output.
func DefaultConfig() Config {
	return Config{
		Tags:           DefaultTags,
		RxAntennas:     DefaultRxAntennas,
		SamplesPerSlot: DefaultSamplesPerSlot,
		BaseLambda:     BaseLambda,
		AdaptiveLambda: true,
		EnableDeltaH:   true,
	}
}

// Slots returns the number of observation slots: one pilot per tag plus
// the data slot.
func (c Config) Slots() int { return c.Tags + 1 }

// OutputLen is the length of the flat engine output: the tag estimate
// vector followed by the flattened channel magnitude matrix.
func (c Config) OutputLen() int { return c.Tags + c.RxAntennas*c.Tags }

// Validate rejects configurations the numeric pipeline cannot run with.
func (c Config) Validate() error {
	if c.Tags < 1 || c.RxAntennas < 1 || c.SamplesPerSlot < 1 {
		return fmt.Errorf("solver: invalid dimensions tags=%d rx=%d samples=%d",
			c.Tags, c.RxAntennas, c.SamplesPerSlot)
	}
	if c.BaseLambda <= 0 {
		return fmt.Errorf("solver: base lambda must be positive, got %g", c.BaseLambda)
	}
	if c.Clip && c.ClipLow >= c.ClipHigh {
		return fmt.Errorf("solver: empty clip range [%g, %g]", c.ClipLow, c.ClipHigh)
	}
	return nil
}
