package ipstream

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"

	"github.com/david415/ipstream/types"
)

func makeTestDatagram(size int) []byte {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = byte(i & 0xff)
	}
	return buf
}

func serializeIPv4(t *testing.T, ip *layers.IPv4, payload []byte) []byte {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}
	err := gopacket.SerializeLayers(buf, opts, ip, gopacket.Payload(payload))
	require.NoError(t, err)
	return buf.Bytes()
}

func testIPv4Layer(id uint16) *layers.IPv4 {
	return &layers.IPv4{
		SrcIP:    net.IP{1, 1, 1, 1},
		DstIP:    net.IP{2, 2, 2, 2},
		Version:  4,
		TTL:      64,
		Id:       id,
		Protocol: layers.IPProtocolUDP,
	}
}

// makeFragments splits buf into count equal fragments of one datagram.
// len(buf)/count must be a multiple of 8.
func makeFragments(t *testing.T, buf []byte, count int, id uint16) [][]byte {
	segLength := len(buf) / count
	frags := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		ip := testIPv4Layer(id)
		ip.FragOffset = uint16(i * segLength / 8)
		if i != count-1 {
			ip.Flags = layers.IPv4MoreFragments
		}
		frags = append(frags, serializeIPv4(t, ip, buf[i*segLength:(i+1)*segLength]))
	}
	return frags
}

func makeWholeDatagram(t *testing.T, payload []byte) []byte {
	return serializeIPv4(t, testIPv4Layer(777), payload)
}

type recordingLogger struct {
	sync.Mutex
	events []*types.Event
	signal chan struct{}
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{
		signal: make(chan struct{}, 1024),
	}
}

func (r *recordingLogger) Log(e *types.Event) {
	r.Lock()
	r.events = append(r.events, e)
	r.Unlock()
	r.signal <- struct{}{}
}

func (r *recordingLogger) Events() []*types.Event {
	r.Lock()
	defer r.Unlock()
	return append([]*types.Event(nil), r.events...)
}

func (r *recordingLogger) waitFor(t *testing.T, n int) []*types.Event {
	deadline := time.After(5 * time.Second)
	for len(r.Events()) < n {
		select {
		case <-r.signal:
		case <-deadline:
			t.Fatalf("timed out waiting for %d events, got %d", n, len(r.Events()))
		}
	}
	return r.Events()
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (f *fakeTimer) Stop() bool {
	wasActive := !f.stopped
	f.stopped = true
	return wasActive
}

// fakeTimers replaces time.AfterFunc so tests decide when a group expires.
type fakeTimers struct {
	sync.Mutex
	timers []*fakeTimer
}

func (f *fakeTimers) afterFunc(d time.Duration, fn func()) timer {
	f.Lock()
	defer f.Unlock()
	t := &fakeTimer{d: d, f: fn}
	f.timers = append(f.timers, t)
	return t
}

func (f *fakeTimers) get(i int) *fakeTimer {
	f.Lock()
	defer f.Unlock()
	return f.timers[i]
}

func (f *fakeTimers) count() int {
	f.Lock()
	defer f.Unlock()
	return len(f.timers)
}

func newTestStream(t *testing.T, options StreamOptions) (*Stream, *recordingLogger, *fakeTimers) {
	logger := newRecordingLogger()
	options.Logger = logger
	s, err := NewStream(options)
	require.NoError(t, err)
	timers := &fakeTimers{}
	s.tracker.afterFunc = timers.afterFunc
	return s, logger, timers
}
