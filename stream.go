/*
 *    ipstream core library for IPv4 fragment reassembly
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

package ipstream

import (
	"fmt"
	"time"

	"github.com/op/go-logging"

	"github.com/david415/ipstream/types"
)

var log = logging.MustGetLogger("ipstream")

// DefaultFragmentTimeout is how long fragments wait for the rest of their
// datagram when StreamOptions.FragmentTimeout is zero.
const DefaultFragmentTimeout = 30 * time.Second

// StreamOptions are the construction time settings of a Stream.
type StreamOptions struct {
	// Fragments is one of "reassemble" (the default), "drop" or "pass".
	Fragments       string
	FragmentTimeout time.Duration
	// IP is an optional default header written by Expand when a message
	// does not carry its own.
	IP *types.IPv4Header
	// Logger receives every diagnostic, including fragment timeouts.
	Logger     types.Logger
	Classifier Classifier
	// MaxGroups limits the number of datagrams being reassembled at once;
	// zero means unlimited.
	MaxGroups int
}

// ResultKind tells what became of one item handed to a Stream.
type ResultKind int

const (
	// ResultHeld means the item was consumed and is waiting in a fragment group.
	ResultHeld ResultKind = iota
	// ResultEmit means Result.Message is ready for the next stage.
	ResultEmit
	// ResultIgnored means the item was reported on the diagnostic channel.
	ResultIgnored
)

func (k ResultKind) String() string {
	switch k {
	case ResultHeld:
		return "held"
	case ResultEmit:
		return "emit"
	case ResultIgnored:
		return "ignored"
	}
	return fmt.Sprintf("ResultKind(%d)", int(k))
}

// Result is the outcome of handing one item to a Stream.
type Result struct {
	Kind    ResultKind
	Message *types.Message
	Reason  types.Reason
	Err     error
}

// Stream decodes the IPv4 layer of the messages written to it and
// handles fragmented datagrams according to its FragmentsMode.
// Items are handled one at a time; fragment timeouts fire on their own
// goroutine but only touch the stream's fragment tracker under its lock.
type Stream struct {
	mode     FragmentsMode
	ip       *types.IPv4Header
	logger   types.Logger
	classify Classifier
	tracker  *fragmentTracker
}

// NewStream validates options and returns a ready Stream.
func NewStream(options StreamOptions) (*Stream, error) {
	mode, err := ParseFragmentsMode(options.Fragments)
	if err != nil {
		return nil, err
	}

	timeout := options.FragmentTimeout
	if timeout < 0 {
		return nil, fmt.Errorf("fragment timeout must be positive, got %s", timeout)
	}
	if timeout == 0 {
		timeout = DefaultFragmentTimeout
	}
	if options.MaxGroups < 0 {
		return nil, fmt.Errorf("max groups must not be negative, got %d", options.MaxGroups)
	}

	var ip *types.IPv4Header
	if options.IP != nil {
		if _, err := options.IP.Bytes(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
		}
		ip = options.IP.Clone()
	}

	logger := options.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	classify := options.Classifier
	if classify == nil {
		classify = ClassifyEthernet
	}

	return &Stream{
		mode:     mode,
		ip:       ip,
		logger:   logger,
		classify: classify,
		tracker:  newFragmentTracker(timeout, options.MaxGroups, logger),
	}, nil
}

// Mode returns the fragments mode chosen at construction.
func (s *Stream) Mode() FragmentsMode {
	return s.mode
}

// Pending returns the number of datagrams waiting for more fragments.
func (s *Stream) Pending() int {
	return s.tracker.pending()
}

// Write is the object stream entry point. Messages that already carry an
// IP header, and every item when the stream has a default header, are
// expanded; everything else is reduced.
func (s *Stream) Write(item interface{}) Result {
	msg, err := toMessage(item)
	if err != nil {
		return s.ignore(nil, types.ReasonDecodeFailed, err)
	}
	if msg.IP != nil || s.ip != nil {
		if _, err := s.Expand(msg); err != nil {
			return s.ignore(msg, types.ReasonEncodeFailed, err)
		}
		return Result{Kind: ResultEmit, Message: msg}
	}
	return s.reduce(msg)
}

// Reduce decodes the IPv4 header of item, a []byte or *types.Message,
// advances the cursor past it and applies the fragments mode.
func (s *Stream) Reduce(item interface{}) Result {
	msg, err := toMessage(item)
	if err != nil {
		return s.ignore(nil, types.ReasonDecodeFailed, err)
	}
	return s.reduce(msg)
}

func (s *Stream) reduce(msg *types.Message) Result {
	if err := s.classify(msg); err != nil {
		return s.ignore(msg, types.ReasonNotIP, err)
	}

	ip, err := types.DecodeIPv4Header(msg.Data, msg.Offset)
	if err != nil {
		return s.ignore(msg, types.ReasonDecodeFailed, err)
	}
	msg.IP = ip
	msg.Offset += ip.Length

	if !ip.IsFragment() {
		return Result{Kind: ResultEmit, Message: msg}
	}

	switch s.mode {
	case FragmentsDrop:
		return s.ignore(msg, types.ReasonFragmentDropped, ErrFragmentDropped)
	case FragmentsPass:
		return Result{Kind: ResultEmit, Message: msg}
	}

	// a fragment cut short by the capture length would shift every
	// payload merged after it
	if captured := len(msg.Payload()); captured < ip.DataLength {
		return s.ignore(msg, types.ReasonDecodeFailed, fmt.Errorf("%d of %d payload bytes captured: %w", captured, ip.DataLength, ErrTruncatedFragment))
	}
	merged := s.tracker.admit(msg)
	if merged == nil {
		return Result{Kind: ResultHeld}
	}
	return Result{Kind: ResultEmit, Message: merged}
}

// Expand writes msg.IP, or a copy of the stream's default header when
// msg.IP is nil, into msg.Data at the cursor and advances the cursor past
// it. The buffer must already have room for the header.
func (s *Stream) Expand(msg *types.Message) (*types.Message, error) {
	ip := msg.IP
	if ip == nil {
		if s.ip == nil {
			return nil, ErrNoHeader
		}
		ip = s.ip.Clone()
	}
	b, err := ip.Bytes()
	if err != nil {
		return nil, err
	}
	if msg.Offset < 0 || len(msg.Data)-msg.Offset < len(b) {
		return nil, fmt.Errorf("need %d bytes at offset %d of %d byte buffer: %w", len(b), msg.Offset, len(msg.Data), types.ErrHeaderTooShort)
	}
	copy(msg.Data[msg.Offset:], b)
	ip.Length = len(b)
	ip.TotalLength = ip.Length + ip.DataLength
	msg.IP = ip
	msg.Offset += len(b)
	return msg, nil
}

// Close reports every fragment still held as timed out and stops the
// pending timers. The stream may still be written to afterwards.
func (s *Stream) Close() {
	if n := s.tracker.flush(); n != 0 {
		log.Infof("flushed %d incomplete fragment group(s)", n)
	}
}

func (s *Stream) ignore(msg *types.Message, reason types.Reason, err error) Result {
	log.Debugf("ignored message: %s: %v", reason, err)
	s.logger.Log(&types.Event{
		Reason:  reason,
		Time:    time.Now(),
		Message: msg,
		Err:     err,
	})
	return Result{
		Kind:    ResultIgnored,
		Message: msg,
		Reason:  reason,
		Err:     err,
	}
}

func toMessage(item interface{}) (*types.Message, error) {
	switch v := item.(type) {
	case []byte:
		return types.NewMessage(v), nil
	case *types.Message:
		if v == nil {
			return nil, ErrUnsupportedItem
		}
		return v, nil
	}
	return nil, fmt.Errorf("%T: %w", item, ErrUnsupportedItem)
}

type nopLogger struct{}

func (nopLogger) Log(*types.Event) {}
