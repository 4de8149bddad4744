package server

import (
	"encoding/binary"
	"fmt"

	"github.com/Elliot971/ZYNQ/solver"
)

// Acquisition wire format. The receiver front-end streams one packet per
// observation frame:
//
//	magic(2 LE) type(1) seq(2 LE) rx(1) samples(2 LE) bodyLen(2 LE) body
//
// The body carries slots*rx*samples complex samples as interleaved
// int16 LE I/Q pairs, ordered [slot][antenna][sample], at +/-2048 ADC
// full scale.
const (
	FrameMagic  = 0x545A // 'Z','T' little endian
	FrameHdrLen = 10

	TypeIQFrame = 0x10

	// ADC full scale: 12-bit converter, samples normalized to [-1, 1).
	ADCFullScale = 2048.0

	// Slot count is fixed by the air protocol: four pilots plus data.
	frameSlots = solver.NumSlots
)

// FrameHeader is the decoded packet header.
type FrameHeader struct {
	Type    uint8
	Seq     uint16
	Rx      int
	Samples int
	BodyLen int
}

// ParseHeader decodes and validates the packet header.
func ParseHeader(data []byte) (*FrameHeader, error) {
	if len(data) < FrameHdrLen {
		return nil, fmt.Errorf("packet too short: %d bytes", len(data))
	}
	magic := binary.LittleEndian.Uint16(data[0:2])
	if magic != FrameMagic {
		return nil, fmt.Errorf("invalid magic: 0x%04X", magic)
	}
	hdr := &FrameHeader{
		Type:    data[2],
		Seq:     binary.LittleEndian.Uint16(data[3:5]),
		Rx:      int(data[5]),
		Samples: int(binary.LittleEndian.Uint16(data[6:8])),
		BodyLen: int(binary.LittleEndian.Uint16(data[8:10])),
	}
	if hdr.Rx < 1 || hdr.Samples < 1 {
		return nil, fmt.Errorf("invalid dimensions rx=%d samples=%d", hdr.Rx, hdr.Samples)
	}
	return hdr, nil
}

// DecodeFrame converts a packet body into a raw observation frame,
// normalizing int16 ADC codes to full scale.
func DecodeFrame(hdr *FrameHeader, body []byte) (*solver.Frame, error) {
	want := frameSlots * hdr.Rx * hdr.Samples * 4
	if len(body) != want || hdr.BodyLen != want {
		return nil, fmt.Errorf("frame body length %d (header %d), want %d", len(body), hdr.BodyLen, want)
	}

	f := solver.NewFrame(frameSlots, hdr.Rx, hdr.Samples)
	off := 0
	for s := 0; s < frameSlots; s++ {
		for a := 0; a < hdr.Rx; a++ {
			for w := 0; w < hdr.Samples; w++ {
				iRaw := int16(binary.LittleEndian.Uint16(body[off:]))
				qRaw := int16(binary.LittleEndian.Uint16(body[off+2:]))
				off += 4
				f.Set(s, 0, a, w, float64(iRaw)/ADCFullScale)
				f.Set(s, 1, a, w, float64(qRaw)/ADCFullScale)
			}
		}
	}
	return f, nil
}

// EncodeFramePacket is the inverse of ParseHeader+DecodeFrame, used by
// the replay tooling and tests. Samples are clipped to ADC range.
func EncodeFramePacket(seq uint16, f *solver.Frame) []byte {
	bodyLen := f.Slots * f.Rx * f.Samples * 4
	pkt := make([]byte, FrameHdrLen+bodyLen)

	binary.LittleEndian.PutUint16(pkt[0:2], FrameMagic)
	pkt[2] = TypeIQFrame
	binary.LittleEndian.PutUint16(pkt[3:5], seq)
	pkt[5] = uint8(f.Rx)
	binary.LittleEndian.PutUint16(pkt[6:8], uint16(f.Samples))
	binary.LittleEndian.PutUint16(pkt[8:10], uint16(bodyLen))

	off := FrameHdrLen
	for s := 0; s < f.Slots; s++ {
		for a := 0; a < f.Rx; a++ {
			for w := 0; w < f.Samples; w++ {
				binary.LittleEndian.PutUint16(pkt[off:], uint16(adcCode(f.At(s, 0, a, w))))
				binary.LittleEndian.PutUint16(pkt[off+2:], uint16(adcCode(f.At(s, 1, a, w))))
				off += 4
			}
		}
	}
	return pkt
}

func adcCode(v float64) int16 {
	scaled := v * ADCFullScale
	if scaled > 2047 {
		scaled = 2047
	}
	if scaled < -2048 {
		scaled = -2048
	}
	return int16(scaled)
}
