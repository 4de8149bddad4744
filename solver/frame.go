package solver

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Frame is one acquisition cycle of raw complex-baseband samples:
// Slots x 2 (I/Q) x Rx x Samples real values, slot-major. Slot order is
// fixed: pilot slots 0..Tags-1 excite one tag each, the last slot is the
// data slot with all tags active.
type Frame struct {
	Slots   int
	Rx      int
	Samples int
	Data    []float64
}

// NewFrame allocates a zeroed frame with the given dimensions.
func NewFrame(slots, rx, samples int) *Frame {
	return &Frame{
		Slots:   slots,
		Rx:      rx,
		Samples: samples,
		Data:    make([]float64, slots*2*rx*samples),
	}
}

func (f *Frame) index(slot, iq, ant, w int) int {
	return ((slot*2+iq)*f.Rx+ant)*f.Samples + w
}

// At returns the raw sample at (slot, iq, antenna, sample). iq is 0 for
// in-phase, 1 for quadrature.
func (f *Frame) At(slot, iq, ant, w int) float64 {
	return f.Data[f.index(slot, iq, ant, w)]
}

// Set writes the raw sample at (slot, iq, antenna, sample).
func (f *Frame) Set(slot, iq, ant, w int, v float64) {
	f.Data[f.index(slot, iq, ant, w)] = v
}

// checkShape validates the frame against the engine dimensions.
func (f *Frame) checkShape(cfg Config) error {
	want := len1D(cfg.Slots(), cfg.RxAntennas, cfg.SamplesPerSlot)
	if f.Slots != cfg.Slots() || f.Rx != cfg.RxAntennas ||
		f.Samples != cfg.SamplesPerSlot || len(f.Data) != want {
		return &ShapeError{
			Want: fmt.Sprintf("(%d,2,%d,%d)", cfg.Slots(), cfg.RxAntennas, cfg.SamplesPerSlot),
			Got:  fmt.Sprintf("(%d,2,%d,%d) len=%d", f.Slots, f.Rx, f.Samples, len(f.Data)),
		}
	}
	return nil
}

func len1D(slots, rx, samples int) int { return slots * 2 * rx * samples }

// slotAverage collapses the time axis by coherent averaging, yielding one
// complex observation per slot per antenna. Within a slot the channel is
// assumed static, so the coherent mean both denoises and compresses.
func (f *Frame) slotAverage() [][]complex128 {
	out := make([][]complex128, f.Slots)
	inv := 1.0 / float64(f.Samples)
	for s := 0; s < f.Slots; s++ {
		out[s] = make([]complex128, f.Rx)
		for a := 0; a < f.Rx; a++ {
			iBase := f.index(s, 0, a, 0)
			qBase := f.index(s, 1, a, 0)
			var sumI, sumQ float64
			for w := 0; w < f.Samples; w++ {
				sumI += f.Data[iBase+w]
				sumQ += f.Data[qBase+w]
			}
			out[s][a] = complex(sumI*inv, sumQ*inv)
		}
	}
	return out
}

// pilotNormalize removes per-antenna front-end gain: each antenna's slots
// are divided by the square root of its mean pilot power, floored to keep
// dead antennas from dividing by zero. Modifies slots in place.
func pilotNormalize(slots [][]complex128, pilots int) {
	if len(slots) == 0 {
		return
	}
	rx := len(slots[0])
	for a := 0; a < rx; a++ {
		var pw float64
		for s := 0; s < pilots; s++ {
			c := slots[s][a]
			pw += real(c)*real(c) + imag(c)*imag(c)
		}
		pw /= float64(pilots)
		scale := maxF(math.Sqrt(pw), EpsPilotScale)
		for s := range slots {
			slots[s][a] /= complex(scale, 0)
		}
	}
}

// noisePower estimates the background noise power from the raw samples:
// the within-slot variance about the coherent mean, averaged over all
// slots and antennas. Floored so the SNR proxy stays finite.
func (f *Frame) noisePower(slotMeans [][]complex128) float64 {
	var acc float64
	n := 0
	for s := 0; s < f.Slots; s++ {
		for a := 0; a < f.Rx; a++ {
			m := slotMeans[s][a]
			iBase := f.index(s, 0, a, 0)
			qBase := f.index(s, 1, a, 0)
			var v float64
			for w := 0; w < f.Samples; w++ {
				d := complex(f.Data[iBase+w], f.Data[qBase+w]) - m
				v += real(d)*real(d) + imag(d)*imag(d)
			}
			acc += v / float64(f.Samples)
			n++
		}
	}
	return maxF(acc/float64(n), EpsNoise)
}

// meanPilotPower is the post-normalization pilot power used as the SNR
// proxy numerator.
func meanPilotPower(slots [][]complex128, pilots int) float64 {
	var pw float64
	n := 0
	for s := 0; s < pilots; s++ {
		for _, c := range slots[s] {
			pw += real(c)*real(c) + imag(c)*imag(c)
			n++
		}
	}
	return pw / float64(n)
}

// buildChannel stacks the pilot slots as columns of H (Rx x Tags,
// row-major) and takes the data slot as y.
func buildChannel(slots [][]complex128, tags int) (h []complex128, y []complex128) {
	rx := len(slots[0])
	h = make([]complex128, rx*tags)
	for t := 0; t < tags; t++ {
		for a := 0; a < rx; a++ {
			h[a*tags+t] = slots[t][a]
		}
	}
	y = make([]complex128, rx)
	copy(y, slots[tags])
	return h, y
}

func vecNorm(y []complex128) float64 {
	var acc float64
	for _, c := range y {
		acc += real(c)*real(c) + imag(c)*imag(c)
	}
	return math.Sqrt(acc)
}

func absMatrix(h []complex128) []float64 {
	out := make([]float64, len(h))
	for i, c := range h {
		out[i] = cmplx.Abs(c)
	}
	return out
}
