package server

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elliot971/ZYNQ/solver"
)

func pipelineServer(t *testing.T) *UdpServer {
	t.Helper()
	cfg := solver.DefaultConfig()
	eng, err := solver.NewEngine(cfg)
	require.NoError(t, err)
	require.NoError(t, eng.Load(solver.BlankSnapshot(cfg)))
	// No socket: handlePacket is exercised directly.
	return &UdpServer{engine: eng, protocol: "hex"}
}

func iqPacket(seq uint16) []byte {
	cfg := solver.DefaultConfig()
	f := solver.NewFrame(cfg.Slots(), cfg.RxAntennas, cfg.SamplesPerSlot)
	for a := 0; a < f.Rx; a++ {
		for w := 0; w < f.Samples; w++ {
			f.Set(a, 0, a, w, 0.5)
			f.Set(f.Slots-1, 0, a, w, 0.25)
		}
	}
	return EncodeFramePacket(seq, f)
}

func TestHandlePacketProcessesFrame(t *testing.T) {
	s := pipelineServer(t)
	addr := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 5000}

	s.handlePacket(iqPacket(7), addr, 1000)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, int64(1), s.stats.frames)
	assert.Equal(t, int64(0), s.stats.dropped)
	require.NotNil(t, s.last)
	assert.Equal(t, uint16(7), s.last.Seq)
	assert.Len(t, s.last.Temperatures, solver.DefaultTags)
}

func TestHandlePacketCoalescedDatagram(t *testing.T) {
	s := pipelineServer(t)
	data := append(iqPacket(1), iqPacket(2)...)

	s.handlePacket(data, nil, 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, int64(2), s.stats.frames)
	assert.Equal(t, uint16(2), s.last.Seq)
}

func TestHandlePacketDropsTruncatedFrame(t *testing.T) {
	s := pipelineServer(t)
	pkt := iqPacket(3)

	// Header claims more body than the datagram carries.
	s.handlePacket(pkt[:len(pkt)-10], nil, 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, int64(0), s.stats.frames)
	assert.Nil(t, s.last)
}

func TestHandlePacketIgnoresGarbage(t *testing.T) {
	s := pipelineServer(t)
	s.handlePacket([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, nil, 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, int64(0), s.stats.frames)
}

func TestStatusSnapshot(t *testing.T) {
	s := pipelineServer(t)
	s.handlePacket(iqPacket(9), nil, 0)

	st := s.Status()
	assert.NotNil(t, st)
}
