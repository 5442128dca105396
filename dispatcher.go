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
	"sync"

	"github.com/david415/ipstream/types"
)

// PacketDispatcher receives the messages a packet source produces.
type PacketDispatcher interface {
	ReceivePacket(*types.Message)
	Stop()
}

// DispatcherOptions are user set parameters for the reassembly pipeline.
type DispatcherOptions struct {
	StreamOptions StreamOptions
	// PacketLogger, if set, receives every datagram the stream emits.
	PacketLogger types.PacketLogger
}

// DispatcherStats counts what became of the messages received so far.
type DispatcherStats struct {
	Received uint64
	Emitted  uint64
	Held     uint64
	Ignored  uint64
}

// Dispatcher feeds messages from a packet source through a Stream one at
// a time, on a single goroutine, and hands emitted datagrams to the
// packet logger.
type Dispatcher struct {
	options            DispatcherOptions
	stream             *Stream
	dispatchPacketChan chan *types.Message
	stopDispatchChan   chan bool
	stoppedChan        chan bool
	stopOnce           sync.Once
	startLock          sync.Mutex
	started            bool

	statsLock sync.Mutex
	stats     DispatcherStats
}

// NewDispatcher creates a new Dispatcher struct
func NewDispatcher(options DispatcherOptions) (*Dispatcher, error) {
	stream, err := NewStream(options.StreamOptions)
	if err != nil {
		return nil, err
	}
	d := Dispatcher{
		options:            options,
		stream:             stream,
		dispatchPacketChan: make(chan *types.Message),
		stopDispatchChan:   make(chan bool),
		stoppedChan:        make(chan bool),
	}
	return &d, nil
}

// Start starts the dispatch loop and the packet logger.
func (d *Dispatcher) Start() {
	d.startLock.Lock()
	defer d.startLock.Unlock()
	if d.started {
		return
	}
	d.started = true
	if d.options.PacketLogger != nil {
		d.options.PacketLogger.Start()
	}
	go d.dispatchPackets()
}

// Stop stops the dispatch loop, reports every fragment still held as
// timed out and stops the packet logger. Calling Stop more than once, or
// before Start, is harmless.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.startLock.Lock()
		started := d.started
		d.startLock.Unlock()
		if started {
			d.stopDispatchChan <- true
			<-d.stoppedChan
		}
		d.stream.Close()
		if started && d.options.PacketLogger != nil {
			d.options.PacketLogger.Stop()
		}
		stats := d.Stats()
		log.Infof("dispatcher stopped: %d received, %d emitted, %d held, %d ignored", stats.Received, stats.Emitted, stats.Held, stats.Ignored)
	})
}

func (d *Dispatcher) ReceivePacket(msg *types.Message) {
	d.dispatchPacketChan <- msg
}

// Stats returns a snapshot of the dispatcher counters.
func (d *Dispatcher) Stats() DispatcherStats {
	d.statsLock.Lock()
	defer d.statsLock.Unlock()
	return d.stats
}

// Stream returns the stream messages are fed through.
func (d *Dispatcher) Stream() *Stream {
	return d.stream
}

func (d *Dispatcher) dispatchPackets() {
	for {
		select {
		case <-d.stopDispatchChan:
			d.stoppedChan <- true
			return
		case msg := <-d.dispatchPacketChan:
			d.dispatch(msg)
		}
	}
}

func (d *Dispatcher) dispatch(msg *types.Message) {
	result := d.stream.Reduce(msg)

	d.statsLock.Lock()
	d.stats.Received += 1
	switch result.Kind {
	case ResultEmit:
		d.stats.Emitted += 1
	case ResultHeld:
		d.stats.Held += 1
	case ResultIgnored:
		d.stats.Ignored += 1
	}
	d.statsLock.Unlock()

	if result.Kind != ResultEmit || d.options.PacketLogger == nil {
		return
	}
	datagram, err := result.Message.Datagram()
	if err != nil {
		log.Errorf("cannot encode emitted datagram: %v", err)
		return
	}
	d.options.PacketLogger.WritePacket(datagram, result.Message.Timestamp)
}
