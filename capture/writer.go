package capture

import (
	"encoding/binary"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

// Raw acquisition traffic is captured in pcap-compatible files so stock
// tooling can open them: the standard global and record headers, then an
// 8-byte sub-header (flag, source port, source IP) before each payload.
const (
	PcapMagic = 0xA1B2C3D4

	// Packet kind flags stored in the sub-header.
	FlagIQFrame = 0x01
	FlagResult  = 0x02
)

// Writer appends captured packets to a pcap-style file. Safe for
// concurrent use.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte
}

func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	cw := &Writer{
		w:   f,
		buf: make([]byte, 32), // reused buffer for headers
	}
	if err := cw.writeGlobalHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return cw, nil
}

func (cw *Writer) writeGlobalHeader() error {
	// Magic(4), Major(2), Minor(2), Zone(4), Sig(4), Snap(4), Link(4)
	b := make([]byte, 24)
	binary.LittleEndian.PutUint32(b[0:], PcapMagic)
	binary.LittleEndian.PutUint16(b[4:], 2)
	binary.LittleEndian.PutUint16(b[6:], 4)
	binary.LittleEndian.PutUint32(b[16:], 65535) // snap length
	binary.LittleEndian.PutUint32(b[20:], 1)     // link type

	_, err := cw.w.Write(b)
	return err
}

// WritePacket records one packet with its source address.
func (cw *Writer) WritePacket(flag uint16, addr *net.UDPAddr, data []byte) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	now := time.Now()
	totalLen := uint32(len(data) + subHdrLen)

	// Record header: ts_sec(4), ts_usec(4), incl_len(4), orig_len(4).
	binary.LittleEndian.PutUint32(cw.buf[0:], uint32(now.Unix()))
	binary.LittleEndian.PutUint32(cw.buf[4:], uint32(now.Nanosecond()/1000))
	binary.LittleEndian.PutUint32(cw.buf[8:], totalLen)
	binary.LittleEndian.PutUint32(cw.buf[12:], totalLen)
	if _, err := cw.w.Write(cw.buf[:16]); err != nil {
		return err
	}

	// Sub-header: flag(2), port(2), ip(4 network order).
	binary.LittleEndian.PutUint16(cw.buf[0:], flag)
	port := uint16(0)
	var ip4 net.IP
	if addr != nil {
		port = uint16(addr.Port)
		ip4 = addr.IP.To4()
	}
	binary.LittleEndian.PutUint16(cw.buf[2:], port)
	if ip4 != nil && len(ip4) == 4 {
		copy(cw.buf[4:8], ip4)
	} else {
		binary.LittleEndian.PutUint32(cw.buf[4:], 0)
	}
	if _, err := cw.w.Write(cw.buf[:8]); err != nil {
		return err
	}

	_, err := cw.w.Write(data)
	return err
}

func (cw *Writer) Close() error {
	if c, ok := cw.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
