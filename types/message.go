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
	"time"

	"github.com/google/gopacket/layers"
)

// Message is one unit flowing through the pipeline: a buffer, a cursor
// marking where the not yet consumed part of the buffer starts, and the
// headers decoded so far.
type Message struct {
	Data []byte
	// Offset is the cursor into Data. Once the IP header is decoded it
	// points at the first payload byte.
	Offset int
	// IP is set once the network layer has been decoded, or by a
	// producer that wants the header written on its behalf.
	IP *IPv4Header
	// Ether is the outer frame classification; nil means the message is
	// assumed to carry IP.
	Ether     *layers.Ethernet
	Timestamp time.Time
}

// NewMessage wraps a bare buffer with its cursor at zero.
func NewMessage(data []byte) *Message {
	return &Message{
		Data: data,
	}
}

// Payload returns the bytes after the cursor, bounded by the header's
// payload length when a header is present so that link layer padding
// is left out.
func (m *Message) Payload() []byte {
	if m.Offset >= len(m.Data) {
		return []byte{}
	}
	payload := m.Data[m.Offset:]
	if m.IP != nil && m.IP.DataLength >= 0 && m.IP.DataLength < len(payload) {
		payload = payload[:m.IP.DataLength]
	}
	return payload
}

// Datagram returns the encoded IP header followed by the payload, the
// form in which a decoded or reassembled message leaves the pipeline.
func (m *Message) Datagram() ([]byte, error) {
	if m.IP == nil {
		return nil, ErrNoIPHeader
	}
	header, err := m.IP.Bytes()
	if err != nil {
		return nil, err
	}
	payload := m.Payload()
	datagram := make([]byte, 0, len(header)+len(payload))
	datagram = append(datagram, header...)
	return append(datagram, payload...), nil
}
