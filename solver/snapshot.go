package solver

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
)

// Parameter snapshots are a versionless flat map of named tensors, written
// little-endian:
//
//	magic(4) count(4)
//	per tensor: nameLen(2) name ndims(1) dims(4 each) data(float32 each)
//
// The snapshot is loaded wholesale at startup; there is no partial or
// incremental load, and an architecture mismatch against the constructed
// model is a fatal load-time error.
const snapshotMagic = 0x5350545A // "ZTPS"

// Tensor is one named parameter array from a snapshot.
type Tensor struct {
	Shape []int
	Data  []float64
}

func (t Tensor) size() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Snapshot maps parameter names to their tensors.
type Snapshot map[string]Tensor

// LoadSnapshot reads a parameter snapshot file.
func LoadSnapshot(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingSnapshot, path)
		}
		return nil, err
	}
	defer f.Close()
	return ReadSnapshot(bufio.NewReader(f))
}

// ReadSnapshot decodes a snapshot from r.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var magic, count uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("read snapshot magic: %w", err)
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("bad snapshot magic: 0x%08X", magic)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read tensor count: %w", err)
	}

	snap := make(Snapshot, count)
	for i := uint32(0); i < count; i++ {
		var nameLen uint16
		if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
			return nil, fmt.Errorf("tensor %d: read name length: %w", i, err)
		}
		nameBuf := make([]byte, nameLen)
		if _, err := io.ReadFull(r, nameBuf); err != nil {
			return nil, fmt.Errorf("tensor %d: read name: %w", i, err)
		}
		var ndims uint8
		if err := binary.Read(r, binary.LittleEndian, &ndims); err != nil {
			return nil, fmt.Errorf("tensor %q: read rank: %w", nameBuf, err)
		}
		shape := make([]int, ndims)
		n := 1
		for d := range shape {
			var dim uint32
			if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
				return nil, fmt.Errorf("tensor %q: read dim: %w", nameBuf, err)
			}
			shape[d] = int(dim)
			n *= int(dim)
		}
		raw := make([]byte, 4*n)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("tensor %q: read data: %w", nameBuf, err)
		}
		data := make([]float64, n)
		for j := 0; j < n; j++ {
			data[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[4*j:])))
		}
		snap[string(nameBuf)] = Tensor{Shape: shape, Data: data}
	}
	return snap, nil
}

// WriteSnapshot writes a snapshot file. Tensors are emitted in name order
// so files are reproducible.
func WriteSnapshot(path string, snap Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, uint32(snapshotMagic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(snap))); err != nil {
		return err
	}

	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t := snap[name]
		if t.size() != len(t.Data) {
			return fmt.Errorf("tensor %q: shape %v does not match %d values", name, t.Shape, len(t.Data))
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(name))); err != nil {
			return err
		}
		if _, err := w.WriteString(name); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint8(len(t.Shape))); err != nil {
			return err
		}
		for _, d := range t.Shape {
			if err := binary.Write(w, binary.LittleEndian, uint32(d)); err != nil {
				return err
			}
		}
		buf := make([]byte, 4*len(t.Data))
		for j, v := range t.Data {
			binary.LittleEndian.PutUint32(buf[4*j:], math.Float32bits(float32(v)))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return w.Flush()
}
