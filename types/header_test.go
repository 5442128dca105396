package types

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTestFragment(t *testing.T, flags layers.IPv4Flag, fragOffset uint16, payload []byte) []byte {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}
	ip := layers.IPv4{
		SrcIP:      net.IP{1, 1, 1, 1},
		DstIP:      net.IP{2, 2, 2, 2},
		Version:    4,
		TTL:        64,
		Id:         12345,
		Flags:      flags,
		FragOffset: fragOffset,
		Protocol:   layers.IPProtocolUDP,
	}
	err := gopacket.SerializeLayers(buf, opts, &ip, gopacket.Payload(payload))
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecodeIPv4Header(t *testing.T) {
	raw := makeTestFragment(t, layers.IPv4MoreFragments, 50, make([]byte, 400))

	h, err := DecodeIPv4Header(raw, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(4), h.Version)
	assert.True(t, h.Src.Equal(net.IP{1, 1, 1, 1}))
	assert.True(t, h.Dst.Equal(net.IP{2, 2, 2, 2}))
	assert.Equal(t, uint16(12345), h.Id)
	assert.True(t, h.MoreFragments)
	assert.False(t, h.DontFragment)
	assert.Equal(t, uint16(50), h.FragOffset)
	assert.Equal(t, 20, h.Length)
	assert.Equal(t, 400, h.DataLength)
	assert.Equal(t, 420, h.TotalLength)
	assert.True(t, h.IsFragment())
}

func TestDecodeIPv4HeaderAtOffset(t *testing.T) {
	raw := makeTestFragment(t, 0, 0, []byte{1, 2, 3, 4})
	framed := append([]byte{0xaa, 0xbb, 0xcc}, raw...)

	h, err := DecodeIPv4Header(framed, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, h.DataLength)
	assert.False(t, h.IsFragment())
}

func TestDecodeIPv4HeaderErrors(t *testing.T) {
	_, err := DecodeIPv4Header([]byte{1, 2, 3}, 0)
	assert.ErrorIs(t, err, ErrHeaderTooShort)

	_, err = DecodeIPv4Header(make([]byte, 40), 41)
	assert.ErrorIs(t, err, ErrHeaderTooShort)

	// IHL of zero is rejected by the decoder.
	_, err = DecodeIPv4Header(make([]byte, 40), 0)
	assert.Error(t, err)

	raw := makeTestFragment(t, 0, 0, []byte{1, 2, 3, 4})
	raw[0] = 6<<4 | 5
	_, err = DecodeIPv4Header(raw, 0)
	assert.Error(t, err)
}

func TestIPv4HeaderRoundTrip(t *testing.T) {
	h := NewIPv4Header(net.IP{52, 13, 128, 211}, net.IP{1, 2, 3, 4}, layers.IPProtocolTCP, 672)
	h.Id = 7
	h.MoreFragments = true
	h.FragOffset = 3

	buf := make([]byte, 8*1024)
	require.NoError(t, h.SerializeTo(buf, 0))

	decoded, err := DecodeIPv4Header(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, h.Id, decoded.Id)
	assert.Equal(t, h.Protocol, decoded.Protocol)
	assert.Equal(t, h.TTL, decoded.TTL)
	assert.Equal(t, h.FragOffset, decoded.FragOffset)
	assert.Equal(t, h.MoreFragments, decoded.MoreFragments)
	assert.Equal(t, 692, decoded.TotalLength)
	assert.Equal(t, 672, decoded.DataLength)
	assert.True(t, h.Src.Equal(decoded.Src))
	assert.True(t, h.Dst.Equal(decoded.Dst))
}

func TestIPv4HeaderSerializeErrors(t *testing.T) {
	h := NewIPv4Header(net.IP{1, 2, 3, 4}, net.IP{5, 6, 7, 8}, layers.IPProtocolUDP, 10)
	assert.ErrorIs(t, h.SerializeTo(make([]byte, 10), 0), ErrHeaderTooShort)

	h.Src = nil
	_, err := h.Bytes()
	assert.Error(t, err)

	h = NewIPv4Header(net.IP{1, 2, 3, 4}, net.IP{5, 6, 7, 8}, layers.IPProtocolUDP, 10)
	h.Length = 22
	_, err = h.Bytes()
	assert.Error(t, err)
}

func TestIPv4HeaderClone(t *testing.T) {
	h := NewIPv4Header(net.IP{1, 2, 3, 4}, net.IP{5, 6, 7, 8}, layers.IPProtocolUDP, 10)
	c := h.Clone()
	c.Src[0] = 9
	c.DataLength = 99
	assert.Equal(t, byte(1), h.Src.To4()[0])
	assert.Equal(t, 10, h.DataLength)
}
