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
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// FragmentKey identifies the fragment train of one in-flight datagram.
// It is comparable and is used directly as a map key.
type FragmentKey struct {
	flow gopacket.Flow
	id   uint16
}

// NewFragmentKey returns the key shared by every fragment carrying the
// same source, destination and identifier. The protocol field is not
// part of the key.
func NewFragmentKey(h *IPv4Header) FragmentKey {
	return FragmentKey{
		flow: gopacket.NewFlow(layers.EndpointIPv4, h.Src.To4(), h.Dst.To4()),
		id:   h.Id,
	}
}

// Flow returns the source and destination of the fragment train.
func (k FragmentKey) Flow() gopacket.Flow {
	return k.flow
}

// Id returns the IP identifier of the fragment train.
func (k FragmentKey) Id() uint16 {
	return k.id
}

// String returns the string representation of a FragmentKey
func (k FragmentKey) String() string {
	return fmt.Sprintf("%s-%s-%d", k.flow.Src(), k.flow.Dst(), k.id)
}
