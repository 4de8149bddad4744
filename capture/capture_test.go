package capture

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cap.pcap")
	w, err := NewWriter(path)
	require.NoError(t, err)

	addr := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 10), Port: 9000}
	require.NoError(t, w.WritePacket(FlagIQFrame, addr, []byte{1, 2, 3, 4}))
	require.NoError(t, w.WritePacket(FlagResult, nil, []byte{9, 8}))
	require.NoError(t, w.Close())

	recs, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, uint16(FlagIQFrame), recs[0].Flag)
	assert.Equal(t, []byte{1, 2, 3, 4}, recs[0].Payload)
	assert.Equal(t, 9000, recs[0].Addr.Port)
	assert.True(t, recs[0].Addr.IP.Equal(net.IPv4(192, 168, 1, 10)))
	assert.Greater(t, recs[0].Timestamp, 0.0)

	assert.Equal(t, uint16(FlagResult), recs[1].Flag)
	assert.Equal(t, []byte{9, 8}, recs[1].Payload)
	assert.Equal(t, 0, recs[1].Addr.Port)
}

func TestReadFileBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pcap")
	require.NoError(t, os.WriteFile(path, make([]byte, 24), 0o644))

	_, err := ReadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "magic")
}

func TestReadFileTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.pcap")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	_, err := ReadFile(path)
	assert.Error(t, err)
}
