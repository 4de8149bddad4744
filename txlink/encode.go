package txlink

import (
	"encoding/binary"
	"math"
)

// EncodeHex packs temperatures into the compact downlink frame:
//
//	[AA 55] [T x int16 BE, temp*10] [xor check]
//
// Invalid tags carry the 0xFFFF sentinel; valid values are clamped to the
// -40..150 C band before scaling.
func EncodeHex(temps []float64, valid []bool) []byte {
	pkt := make([]byte, 0, 2+2*len(temps)+1)
	pkt = append(pkt, HeaderByte0, HeaderByte1)

	for i, tc := range temps {
		var word uint16
		if i < len(valid) && valid[i] && !math.IsNaN(tc) {
			scaled := int(math.Round(tc * TempScale))
			if scaled < TempMinScaled {
				scaled = TempMinScaled
			}
			if scaled > TempMaxScaled {
				scaled = TempMaxScaled
			}
			word = uint16(int16(scaled))
		} else {
			word = InvalidSentinel
		}
		pkt = binary.BigEndian.AppendUint16(pkt, word)
	}

	var crc byte
	for _, b := range pkt {
		crc ^= b
	}
	return append(pkt, crc)
}

// EncodeBinary packs the full result record:
//
//	[AA 55 01] [T x float32 LE gamma] [T x float32 LE temp]
//	[T x u8 valid] [sum-mod-256 check]
func EncodeBinary(gamma, temps []float64, valid []bool) []byte {
	n := len(gamma)
	pkt := make([]byte, 0, 3+8*n+n+1)
	pkt = append(pkt, HeaderByte0, HeaderByte1, BinaryTypeFull)

	for _, g := range gamma {
		pkt = binary.LittleEndian.AppendUint32(pkt, math.Float32bits(float32(g)))
	}
	for _, tc := range temps {
		pkt = binary.LittleEndian.AppendUint32(pkt, math.Float32bits(float32(tc)))
	}
	for i := 0; i < n; i++ {
		if i < len(valid) && valid[i] {
			pkt = append(pkt, 0x01)
		} else {
			pkt = append(pkt, 0x00)
		}
	}

	var sum int
	for _, b := range pkt {
		sum += int(b)
	}
	return append(pkt, byte(sum&0xFF))
}
