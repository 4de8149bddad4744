package solver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotAverageCoherent(t *testing.T) {
	f := NewFrame(2, 1, 4)
	for w, v := range []float64{1, 3, 1, 3} {
		f.Set(0, 0, 0, w, v)
		f.Set(0, 1, 0, w, -0.5)
	}

	slots := f.slotAverage()
	require.Len(t, slots, 2)
	assert.InDelta(t, 2.0, real(slots[0][0]), 1e-12)
	assert.InDelta(t, -0.5, imag(slots[0][0]), 1e-12)
	assert.Equal(t, complex(0, 0), slots[1][0])
}

func TestNoisePower(t *testing.T) {
	// Zero-mean alternating I gives unit within-slot variance.
	f := NewFrame(1, 1, 4)
	for w, v := range []float64{1, -1, 1, -1} {
		f.Set(0, 0, 0, w, v)
	}
	slots := f.slotAverage()
	assert.InDelta(t, 1.0, f.noisePower(slots), 1e-12)

	// Constant samples have no variance; the floor keeps it positive.
	g := NewFrame(1, 1, 4)
	for w := 0; w < 4; w++ {
		g.Set(0, 0, 0, w, 0.7)
	}
	assert.InDelta(t, EpsNoise, g.noisePower(g.slotAverage()), 1e-15)
}

func TestPilotNormalizeUnitPower(t *testing.T) {
	slots := [][]complex128{
		{2 + 0i, 4 + 0i},
		{0 + 2i, 0 - 4i},
		{1 + 1i, 2 + 2i},
	}
	pilotNormalize(slots, 2)

	assert.InDelta(t, 1.0, meanPilotPower(slots, 2), 1e-12)
	// The data slot is scaled by the same per-antenna factor.
	assert.InDelta(t, 0.5, real(slots[2][0]), 1e-12)
	assert.InDelta(t, 0.5, imag(slots[2][0]), 1e-12)
}

func TestPilotNormalizeDeadAntenna(t *testing.T) {
	slots := [][]complex128{{0}, {0}, {0}}
	pilotNormalize(slots, 2)
	for s := range slots {
		assert.Equal(t, complex(0, 0), slots[s][0])
	}
}

func TestBuildChannelLayout(t *testing.T) {
	slots := [][]complex128{
		{1 + 1i, 2 + 2i},
		{3 + 3i, 4 + 4i},
		{5 + 5i, 6 + 6i},
	}
	h, y := buildChannel(slots, 2)

	// H is rx x tags row-major with pilot slots as columns.
	require.Len(t, h, 4)
	assert.Equal(t, slots[0][0], h[0])
	assert.Equal(t, slots[1][0], h[1])
	assert.Equal(t, slots[0][1], h[2])
	assert.Equal(t, slots[1][1], h[3])

	require.Len(t, y, 2)
	assert.Equal(t, slots[2][0], y[0])
	assert.Equal(t, slots[2][1], y[1])
}

func TestCheckShape(t *testing.T) {
	cfg := DefaultConfig()
	good := NewFrame(cfg.Slots(), cfg.RxAntennas, cfg.SamplesPerSlot)
	assert.NoError(t, good.checkShape(cfg))

	bad := NewFrame(cfg.Slots()-1, cfg.RxAntennas, cfg.SamplesPerSlot)
	err := bad.checkShape(cfg)
	require.Error(t, err)
	var shapeErr *ShapeError
	assert.True(t, errors.As(err, &shapeErr))
}
