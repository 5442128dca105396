/*
 *    ipstream library for IPv4 fragment reassembly
 *
 *    Copyright (C) 2014, 2015  David Stainton
 *
 *    This program is free software: you can redistribute it and/or modify
 *    it under the terms of the GNU General Public License as published by
 *    the Free Software Foundation, either version 3 of the License, or
 *    (at your option) any later version.
 *
 *    This program is distributed in the hope that it will be useful,
 *    but WITHOUT ANY WARRANTY; without even the implied warranty of
 *    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 *    GNU General Public License for more details.
 *
 *    You should have received a copy of the GNU General Public License
 *    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package types

import (
	"errors"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// IPv4MinimumHeaderLength is the length of an IPv4 header without options.
	IPv4MinimumHeaderLength = 20
	// IPv4MaximumSize is the largest datagram a 16 bit total length can describe.
	IPv4MaximumSize = 65535
)

var (
	ErrHeaderTooShort = errors.New("buffer too short for IPv4 header")
	ErrNoIPHeader     = errors.New("message has no IP header")
)

// IPv4Header is the decoded form of an IPv4 header. The reassembly code
// only ever reads and writes these typed fields; the wire format is
// handled by gopacket's layers.IPv4.
type IPv4Header struct {
	Version       uint8
	TOS           uint8
	Id            uint16
	TTL           uint8
	Protocol      layers.IPProtocol
	DontFragment  bool
	MoreFragments bool
	// FragOffset is counted in 8 byte units.
	FragOffset uint16
	Src        net.IP
	Dst        net.IP
	Options    []layers.IPv4Option

	// Length is the header length in bytes, options included.
	Length int
	// DataLength is the number of payload bytes following the header.
	DataLength int
	// TotalLength is Length + DataLength.
	TotalLength int
}

// NewIPv4Header returns a template header for dataLength bytes of payload.
func NewIPv4Header(src, dst net.IP, protocol layers.IPProtocol, dataLength int) *IPv4Header {
	return &IPv4Header{
		Version:     4,
		TTL:         64,
		Protocol:    protocol,
		Src:         src,
		Dst:         dst,
		Length:      IPv4MinimumHeaderLength,
		DataLength:  dataLength,
		TotalLength: IPv4MinimumHeaderLength + dataLength,
	}
}

// DecodeIPv4Header decodes the IPv4 header found at offset in data.
func DecodeIPv4Header(data []byte, offset int) (*IPv4Header, error) {
	if offset < 0 || offset > len(data) {
		return nil, fmt.Errorf("header offset %d outside %d byte buffer: %w", offset, len(data), ErrHeaderTooShort)
	}
	if len(data)-offset < IPv4MinimumHeaderLength {
		return nil, ErrHeaderTooShort
	}
	var ip layers.IPv4
	if err := ip.DecodeFromBytes(data[offset:], gopacket.NilDecodeFeedback); err != nil {
		return nil, err
	}
	if ip.Version != 4 {
		return nil, fmt.Errorf("IP version %d is not 4", ip.Version)
	}
	return newIPv4HeaderFromLayer(&ip), nil
}

func newIPv4HeaderFromLayer(ip *layers.IPv4) *IPv4Header {
	headerLength := int(ip.IHL) * 4
	h := &IPv4Header{
		Version:       ip.Version,
		TOS:           ip.TOS,
		Id:            ip.Id,
		TTL:           ip.TTL,
		Protocol:      ip.Protocol,
		DontFragment:  ip.Flags&layers.IPv4DontFragment != 0,
		MoreFragments: ip.Flags&layers.IPv4MoreFragments != 0,
		FragOffset:    ip.FragOffset,
		Src:           copyIP(ip.SrcIP),
		Dst:           copyIP(ip.DstIP),
		Length:        headerLength,
		DataLength:    int(ip.Length) - headerLength,
		TotalLength:   int(ip.Length),
	}
	for _, opt := range ip.Options {
		opt.OptionData = append([]byte(nil), opt.OptionData...)
		h.Options = append(h.Options, opt)
	}
	return h
}

// IsFragment reports whether the header describes part of a larger datagram.
func (h *IPv4Header) IsFragment() bool {
	return h.MoreFragments || h.FragOffset != 0
}

// Clone returns a deep copy of the header.
func (h *IPv4Header) Clone() *IPv4Header {
	c := *h
	c.Src = copyIP(h.Src)
	c.Dst = copyIP(h.Dst)
	c.Options = nil
	for _, opt := range h.Options {
		opt.OptionData = append([]byte(nil), opt.OptionData...)
		c.Options = append(c.Options, opt)
	}
	return &c
}

func (h *IPv4Header) layer() (*layers.IPv4, error) {
	length := h.Length
	if length == 0 {
		length = IPv4MinimumHeaderLength
	}
	if length < IPv4MinimumHeaderLength || length%4 != 0 || length > 60 {
		return nil, fmt.Errorf("invalid IPv4 header length %d", length)
	}
	if length+h.DataLength > IPv4MaximumSize {
		return nil, fmt.Errorf("IPv4 total length %d exceeds %d", length+h.DataLength, IPv4MaximumSize)
	}
	version := h.Version
	if version == 0 {
		version = 4
	}
	ip := &layers.IPv4{
		Version:    version,
		IHL:        uint8(length / 4),
		TOS:        h.TOS,
		Length:     uint16(length + h.DataLength),
		Id:         h.Id,
		FragOffset: h.FragOffset,
		TTL:        h.TTL,
		Protocol:   h.Protocol,
		SrcIP:      h.Src,
		DstIP:      h.Dst,
		Options:    h.Options,
	}
	if h.DontFragment {
		ip.Flags |= layers.IPv4DontFragment
	}
	if h.MoreFragments {
		ip.Flags |= layers.IPv4MoreFragments
	}
	return ip, nil
}

// Bytes returns the wire encoding of the header with a fresh checksum.
func (h *IPv4Header) Bytes() ([]byte, error) {
	ip, err := h.layer()
	if err != nil {
		return nil, err
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		ComputeChecksums: true,
	}
	if err := ip.SerializeTo(buf, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SerializeTo writes the header into data starting at offset.
func (h *IPv4Header) SerializeTo(data []byte, offset int) error {
	b, err := h.Bytes()
	if err != nil {
		return err
	}
	if offset < 0 || len(data)-offset < len(b) {
		return fmt.Errorf("need %d bytes at offset %d of %d byte buffer: %w", len(b), offset, len(data), ErrHeaderTooShort)
	}
	copy(data[offset:], b)
	return nil
}

// String returns a short human readable description of the header.
func (h *IPv4Header) String() string {
	return fmt.Sprintf("IPv4 %s > %s id %d proto %s off %d mf %v len %d", h.Src, h.Dst, h.Id, h.Protocol, h.FragOffset, h.MoreFragments, h.TotalLength)
}

func copyIP(ip net.IP) net.IP {
	if ip == nil {
		return nil
	}
	if ip4 := ip.To4(); ip4 != nil {
		ip = ip4
	}
	return append(net.IP(nil), ip...)
}
