package types

import (
	"net"
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
)

func TestFragmentKeyEquality(t *testing.T) {
	a := NewIPv4Header(net.IP{1, 1, 1, 1}, net.IP{2, 2, 2, 2}, layers.IPProtocolUDP, 8)
	a.Id = 12345
	b := a.Clone()
	b.Protocol = layers.IPProtocolTCP
	b.FragOffset = 100

	assert.Equal(t, NewFragmentKey(a), NewFragmentKey(b))

	c := a.Clone()
	c.Id = 1
	assert.NotEqual(t, NewFragmentKey(a), NewFragmentKey(c))

	d := a.Clone()
	d.Src, d.Dst = d.Dst, d.Src
	assert.NotEqual(t, NewFragmentKey(a), NewFragmentKey(d))

	// 16 byte forms of the same IPv4 address produce the same key.
	e := a.Clone()
	e.Src = net.IPv4(1, 1, 1, 1)
	assert.Equal(t, NewFragmentKey(a), NewFragmentKey(e))
}

func TestFragmentKeyString(t *testing.T) {
	h := NewIPv4Header(net.IP{1, 1, 1, 1}, net.IP{2, 2, 2, 2}, layers.IPProtocolUDP, 8)
	h.Id = 12345
	k := NewFragmentKey(h)
	assert.Equal(t, "1.1.1.1-2.2.2.2-12345", k.String())
	assert.Equal(t, uint16(12345), k.Id())
	assert.Equal(t, "1.1.1.1", k.Flow().Src().String())
}
