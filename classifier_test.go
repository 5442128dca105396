package ipstream

import (
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEthernetFrame(t *testing.T, ethernetType layers.EthernetType, vlan bool, payload []byte) []byte {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0xde, 0xad, 0xbe, 0xee, 0xee, 0xff},
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: ethernetType,
	}
	var err error
	if vlan {
		eth.EthernetType = layers.EthernetTypeDot1Q
		tag := &layers.Dot1Q{
			VLANIdentifier: 42,
			Type:           ethernetType,
		}
		err = gopacket.SerializeLayers(buf, opts, eth, tag, gopacket.Payload(payload))
	} else {
		err = gopacket.SerializeLayers(buf, opts, eth, gopacket.Payload(payload))
	}
	require.NoError(t, err)
	return buf.Bytes()
}

func TestNewMessageFromEthernetFrame(t *testing.T) {
	ip := makeWholeDatagram(t, []byte{1, 2, 3, 4})
	now := time.Now()
	frame := makeEthernetFrame(t, layers.EthernetTypeIPv4, false, ip)

	msg, err := NewMessageFromFrame(frame, layers.LinkTypeEthernet, now)
	require.NoError(t, err)
	assert.Equal(t, 14, msg.Offset)
	assert.Equal(t, layers.EthernetTypeIPv4, msg.Ether.EthernetType)
	assert.Equal(t, now, msg.Timestamp)
	assert.NoError(t, ClassifyEthernet(msg))

	s, _, _ := newTestStream(t, StreamOptions{})
	result := s.Reduce(msg)
	require.Equal(t, ResultEmit, result.Kind)
	assert.Equal(t, []byte{1, 2, 3, 4}, result.Message.Payload())
}

func TestNewMessageFromVLANFrame(t *testing.T) {
	ip := makeWholeDatagram(t, []byte{1, 2, 3, 4})
	frame := makeEthernetFrame(t, layers.EthernetTypeIPv4, true, ip)

	msg, err := NewMessageFromFrame(frame, layers.LinkTypeEthernet, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 18, msg.Offset)
	assert.Equal(t, layers.EthernetTypeIPv4, msg.Ether.EthernetType)
}

func TestNewMessageFromRawFrame(t *testing.T) {
	ip := makeWholeDatagram(t, []byte{1, 2, 3, 4})
	for _, linkType := range []layers.LinkType{layers.LinkTypeRaw, layers.LinkTypeIPv4} {
		msg, err := NewMessageFromFrame(ip, linkType, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 0, msg.Offset)
		assert.Nil(t, msg.Ether)
	}
}

func TestNewMessageFromFrameErrors(t *testing.T) {
	_, err := NewMessageFromFrame([]byte{1, 2, 3}, layers.LinkTypeEthernet, time.Time{})
	assert.Error(t, err)

	_, err = NewMessageFromFrame([]byte{1, 2, 3}, layers.LinkTypeIEEE802_11, time.Time{})
	assert.ErrorIs(t, err, ErrUnsupportedLinkType)
}

func TestClassifyEthernet(t *testing.T) {
	frame := makeEthernetFrame(t, layers.EthernetTypeARP, false, make([]byte, 28))
	msg, err := NewMessageFromFrame(frame, layers.LinkTypeEthernet, time.Time{})
	require.NoError(t, err)
	assert.ErrorIs(t, ClassifyEthernet(msg), ErrNotIP)

	msg.Ether = nil
	assert.NoError(t, ClassifyEthernet(msg))
}
