package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elliot971/ZYNQ/solver"
)

func TestFramePacketRoundTrip(t *testing.T) {
	f := solver.NewFrame(frameSlots, 2, 3)
	k := 1
	for s := 0; s < f.Slots; s++ {
		for a := 0; a < f.Rx; a++ {
			for w := 0; w < f.Samples; w++ {
				f.Set(s, 0, a, w, float64(k)/ADCFullScale)
				f.Set(s, 1, a, w, float64(-k)/ADCFullScale)
				k++
			}
		}
	}

	pkt := EncodeFramePacket(42, f)
	hdr, err := ParseHeader(pkt)
	require.NoError(t, err)
	assert.Equal(t, uint8(TypeIQFrame), hdr.Type)
	assert.Equal(t, uint16(42), hdr.Seq)
	assert.Equal(t, 2, hdr.Rx)
	assert.Equal(t, 3, hdr.Samples)
	assert.Equal(t, len(pkt)-FrameHdrLen, hdr.BodyLen)

	got, err := DecodeFrame(hdr, pkt[FrameHdrLen:])
	require.NoError(t, err)
	assert.Equal(t, f.Data, got.Data)
}

func TestParseHeaderRejects(t *testing.T) {
	_, err := ParseHeader([]byte{0x5A})
	assert.Error(t, err)

	bad := make([]byte, FrameHdrLen)
	bad[0] = 0xDE
	bad[1] = 0xAD
	_, err = ParseHeader(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "magic")
}

func TestDecodeFrameBodyLengthMismatch(t *testing.T) {
	f := solver.NewFrame(frameSlots, 1, 2)
	pkt := EncodeFramePacket(1, f)
	hdr, err := ParseHeader(pkt)
	require.NoError(t, err)

	_, err = DecodeFrame(hdr, pkt[FrameHdrLen:len(pkt)-4])
	assert.Error(t, err)
}

func TestEncodeFramePacketClipsADC(t *testing.T) {
	f := solver.NewFrame(frameSlots, 1, 1)
	f.Set(0, 0, 0, 0, 5.0)
	f.Set(0, 1, 0, 0, -5.0)

	pkt := EncodeFramePacket(0, f)
	hdr, err := ParseHeader(pkt)
	require.NoError(t, err)
	got, err := DecodeFrame(hdr, pkt[FrameHdrLen:])
	require.NoError(t, err)

	assert.Equal(t, 2047.0/ADCFullScale, got.At(0, 0, 0, 0))
	assert.Equal(t, -2048.0/ADCFullScale, got.At(0, 1, 0, 0))
}
