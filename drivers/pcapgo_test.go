package drivers

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david415/ipstream/types"
)

func writeTestPcap(t *testing.T, w io.Writer, linkType layers.LinkType, packets ...[]byte) {
	writer := pcapgo.NewWriter(w)
	require.NoError(t, writer.WriteFileHeader(65536, linkType))
	for i, packet := range packets {
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Unix(int64(1000+i), 0),
			CaptureLength: len(packet),
			Length:        len(packet),
		}
		require.NoError(t, writer.WritePacket(ci, packet))
	}
}

func TestPcapgoReader(t *testing.T) {
	var buf bytes.Buffer
	writeTestPcap(t, &buf, layers.LinkTypeRaw, []byte{0x45, 1, 2, 3}, []byte{0x45, 4, 5})

	handle, err := NewPcapgoReader(io.NopCloser(&buf))
	require.NoError(t, err)
	defer handle.Close()
	assert.Equal(t, layers.LinkTypeRaw, handle.LinkType())

	data, ci, err := handle.ReadPacketData()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x45, 1, 2, 3}, data)
	assert.Equal(t, int64(1000), ci.Timestamp.Unix())

	data, _, err = handle.ReadPacketData()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x45, 4, 5}, data)

	_, _, err = handle.ReadPacketData()
	assert.Equal(t, io.EOF, err)
}

func TestPcapgoReaderBadHeader(t *testing.T) {
	_, err := NewPcapgoReader(io.NopCloser(bytes.NewReader([]byte("not a pcap file at all, sorry"))))
	assert.Error(t, err)
}

func TestOpenPcapgo(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "capture.pcap")
	f, err := os.Create(filename)
	require.NoError(t, err)
	writeTestPcap(t, f, layers.LinkTypeEthernet, make([]byte, 60))
	require.NoError(t, f.Close())

	source, err := Open(&types.SnifferDriverOptions{DAQ: "pcapgo", Filename: filename})
	require.NoError(t, err)
	defer source.Close()
	assert.Equal(t, layers.LinkTypeEthernet, source.LinkType())
	data, _, err := source.ReadPacketData()
	require.NoError(t, err)
	assert.Len(t, data, 60)
}

func TestOpenPcapgoMissingFile(t *testing.T) {
	_, err := Open(&types.SnifferDriverOptions{
		DAQ:      "pcapgo",
		Filename: filepath.Join(t.TempDir(), "missing.pcap"),
	})
	assert.Error(t, err)
}
