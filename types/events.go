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
)

// Reason tells why a message was reported on the diagnostic channel
// instead of being emitted.
type Reason string

const (
	ReasonNotIP           Reason = "not-ip"
	ReasonDecodeFailed    Reason = "decode-failed"
	ReasonFragmentDropped Reason = "fragment-dropped"
	ReasonFragmentTimeout Reason = "fragment-timeout"
	ReasonEncodeFailed    Reason = "encode-failed"
)

// Logger receives diagnostic events. Log may be called from a timer
// goroutine and must not call back into the stream that produced the event.
type Logger interface {
	Log(e *Event)
}

// PacketLogger receives the datagrams a stream emits.
type PacketLogger interface {
	WritePacket(rawPacket []byte, timestamp time.Time)
	Start()
	Stop()
}

// Event is one diagnostic: the message that was not emitted and why.
type Event struct {
	Reason  Reason
	Time    time.Time
	Message *Message
	Err     error
	// Key is set for fragment diagnostics only.
	Key *FragmentKey
}
