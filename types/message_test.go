package types

import (
	"net"
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
)

func TestMessagePayload(t *testing.T) {
	m := NewMessage([]byte{0, 1, 2, 3, 4, 5, 6})
	m.Offset = 2
	assert.Equal(t, []byte{2, 3, 4, 5, 6}, m.Payload())

	m.IP = &IPv4Header{DataLength: 3}
	assert.Equal(t, []byte{2, 3, 4}, m.Payload())

	m.Offset = 10
	assert.Empty(t, m.Payload())
}

func TestMessageDatagram(t *testing.T) {
	m := NewMessage([]byte{1, 2, 3, 4})
	_, err := m.Datagram()
	assert.ErrorIs(t, err, ErrNoIPHeader)

	m.IP = NewIPv4Header(net.IP{1, 1, 1, 1}, net.IP{2, 2, 2, 2}, layers.IPProtocolUDP, 4)
	datagram, err := m.Datagram()
	assert.NoError(t, err)
	assert.Len(t, datagram, 24)
	assert.Equal(t, []byte{1, 2, 3, 4}, datagram[20:])

	h, err := DecodeIPv4Header(datagram, 0)
	assert.NoError(t, err)
	assert.Equal(t, 4, h.DataLength)
}
