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
	"io"

	"github.com/david415/ipstream/drivers"
	"github.com/david415/ipstream/types"
)

// Sniffer reads frames from a packet data source, either a pcap file or
// directly off the wire, and hands them to a PacketDispatcher.
type Sniffer struct {
	options          *types.SnifferDriverOptions
	supervisor       types.Supervisor
	dispatcher       PacketDispatcher
	packetDataSource types.PacketDataSourceCloser
	stopCaptureChan  chan bool
	doneChan         chan bool
}

// NewSniffer creates a new Sniffer struct
func NewSniffer(options *types.SnifferDriverOptions, dispatcher PacketDispatcher) types.PacketSource {
	i := Sniffer{
		dispatcher:      dispatcher,
		options:         options,
		stopCaptureChan: make(chan bool, 1),
		doneChan:        make(chan bool),
	}
	return &i
}

func (i *Sniffer) SetSupervisor(supervisor types.Supervisor) {
	i.supervisor = supervisor
}

// Start opens the packet data source and starts capturing.
func (i *Sniffer) Start() {
	if err := i.setupHandle(); err != nil {
		log.Errorf("sniffer: %v", err)
		close(i.doneChan)
		go i.stopped()
		return
	}
	go i.capturePackets()
}

// Stop stops capturing and waits for the capture loop to exit.
func (i *Sniffer) Stop() {
	log.Info("sniffer: sending stopCaptureChan signal")
	select {
	case i.stopCaptureChan <- true:
	default:
	}
	<-i.doneChan
}

func (i *Sniffer) setupHandle() error {
	var err error
	var what string

	i.packetDataSource, err = drivers.Open(i.options)
	if err != nil {
		return err
	}

	if i.options.Filename != "" {
		what = fmt.Sprintf("file %s", i.options.Filename)
	} else {
		what = fmt.Sprintf("interface %s", i.options.Device)
	}

	log.Infof("Starting %s packet capture on %s", i.options.DAQ, what)
	return nil
}

func (i *Sniffer) capturePackets() {
	defer func() {
		log.Info("closing packet capture source")
		i.packetDataSource.Close()
		close(i.doneChan)
	}()
	linkType := i.packetDataSource.LinkType()
	for {
		select {
		case <-i.stopCaptureChan:
			return
		default:
		}
		rawPacket, captureInfo, err := i.packetDataSource.ReadPacketData()
		if err == io.EOF {
			log.Info("ReadPacketData got EOF")
			go i.stopped()
			return
		}
		if err != nil {
			continue
		}
		msg, err := NewMessageFromFrame(rawPacket, linkType, captureInfo.Timestamp)
		if err != nil {
			log.Debugf("skipping undecodable %s frame: %v", linkType, err)
			continue
		}
		i.dispatcher.ReceivePacket(msg)
	}
}

// stopped tells the dispatcher and supervisor that no more packets will come.
func (i *Sniffer) stopped() {
	i.dispatcher.Stop()
	if i.supervisor != nil {
		i.supervisor.Stopped()
	}
}
