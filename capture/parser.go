package capture

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
)

const (
	globalHdrLen = 24
	recordHdrLen = 16
	subHdrLen    = 8
)

// Record is one captured packet, payload still encoded in the
// acquisition wire format.
type Record struct {
	Timestamp float64
	Flag      uint16
	Addr      *net.UDPAddr
	Payload   []byte
}

// ReadFile parses a capture file into its packet records.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(bufio.NewReader(f))
}

// Read parses capture records from r until EOF.
func Read(r io.Reader) ([]Record, error) {
	hdr := make([]byte, globalHdrLen)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("read global header: %w", err)
	}
	if magic := binary.LittleEndian.Uint32(hdr[0:4]); magic != PcapMagic {
		return nil, fmt.Errorf("bad capture magic: 0x%08X", magic)
	}

	var records []Record
	rec := make([]byte, recordHdrLen)
	sub := make([]byte, subHdrLen)
	for {
		if _, err := io.ReadFull(r, rec); err != nil {
			if err == io.EOF {
				break
			}
			return records, fmt.Errorf("read record header: %w", err)
		}

		tsSec := binary.LittleEndian.Uint32(rec[0:4])
		tsUsec := binary.LittleEndian.Uint32(rec[4:8])
		inclLen := binary.LittleEndian.Uint32(rec[8:12])

		if inclLen < subHdrLen {
			if _, err := io.CopyN(io.Discard, r, int64(inclLen)); err != nil {
				return records, err
			}
			continue
		}
		if _, err := io.ReadFull(r, sub); err != nil {
			return records, fmt.Errorf("read sub-header: %w", err)
		}

		flag := binary.LittleEndian.Uint16(sub[0:2])
		port := binary.LittleEndian.Uint16(sub[2:4])
		ip := make(net.IP, 4)
		copy(ip, sub[4:8])

		payload := make([]byte, int(inclLen)-subHdrLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return records, fmt.Errorf("read payload: %w", err)
		}

		records = append(records, Record{
			Timestamp: float64(tsSec) + float64(tsUsec)/1e6,
			Flag:      flag,
			Addr:      &net.UDPAddr{IP: ip, Port: int(port)},
			Payload:   payload,
		})
	}
	return records, nil
}
