package txlink

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeHexLayout(t *testing.T) {
	pkt := EncodeHex([]float64{25.0, 30.5}, []bool{true, false})
	// AA 55 | 250 BE | sentinel | xor
	assert.Equal(t, []byte{0xAA, 0x55, 0x00, 0xFA, 0xFF, 0xFF, 0x05}, pkt)
}

func TestEncodeHexClampsBand(t *testing.T) {
	pkt := EncodeHex([]float64{200, -100}, []bool{true, true})
	// 1500 and -400, int16 big endian
	assert.Equal(t, []byte{0xAA, 0x55, 0x05, 0xDC, 0xFE, 0x70, 0xA8}, pkt)
}

func TestEncodeHexNaNIsSentinel(t *testing.T) {
	pkt := EncodeHex([]float64{math.NaN()}, []bool{true})
	assert.Equal(t, []byte{0xAA, 0x55, 0xFF, 0xFF, 0xFF}, pkt)
}

func TestEncodeBinaryLayout(t *testing.T) {
	gamma := []float64{0.5, -0.25}
	temps := []float64{25, -5}
	valid := []bool{true, false}

	pkt := EncodeBinary(gamma, temps, valid)
	require.Len(t, pkt, 3+8+8+2+1)
	assert.Equal(t, []byte{0xAA, 0x55, BinaryTypeFull}, pkt[:3])

	for i, g := range gamma {
		got := math.Float32frombits(binary.LittleEndian.Uint32(pkt[3+4*i:]))
		assert.Equal(t, float32(g), got)
	}
	for i, tc := range temps {
		got := math.Float32frombits(binary.LittleEndian.Uint32(pkt[11+4*i:]))
		assert.Equal(t, float32(tc), got)
	}
	assert.Equal(t, byte(0x01), pkt[19])
	assert.Equal(t, byte(0x00), pkt[20])

	var sum int
	for _, b := range pkt[:21] {
		sum += int(b)
	}
	assert.Equal(t, byte(sum&0xFF), pkt[21])
}
