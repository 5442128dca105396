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
	"os"
	"os/signal"

	"github.com/david415/ipstream/types"
)

type SupervisorOptions struct {
	SnifferDriverOptions *types.SnifferDriverOptions
	DispatcherOptions    DispatcherOptions
	SnifferFactory       func(*types.SnifferDriverOptions, PacketDispatcher) types.PacketSource
}

// Supervisor runs a packet source and a Dispatcher until the source is
// exhausted or the user interrupts.
type Supervisor struct {
	dispatcher       *Dispatcher
	sniffer          types.PacketSource
	childStoppedChan chan bool
	forceQuitChan    chan os.Signal
}

func NewSupervisor(options SupervisorOptions) (*Supervisor, error) {
	dispatcher, err := NewDispatcher(options.DispatcherOptions)
	if err != nil {
		return nil, err
	}
	factory := options.SnifferFactory
	if factory == nil {
		factory = NewSniffer
	}
	sniffer := factory(options.SnifferDriverOptions, dispatcher)
	supervisor := Supervisor{
		forceQuitChan:    make(chan os.Signal, 1),
		childStoppedChan: make(chan bool, 1),
		dispatcher:       dispatcher,
		sniffer:          sniffer,
	}
	sniffer.SetSupervisor(supervisor)
	return &supervisor, nil
}

func (b Supervisor) GetDispatcher() *Dispatcher {
	return b.dispatcher
}

func (b Supervisor) GetSniffer() types.PacketSource {
	return b.sniffer
}

func (b Supervisor) Stopped() {
	log.Info("Supervisor.Stopped()")
	b.childStoppedChan <- true
}

func (b Supervisor) Run() {
	b.dispatcher.Start()
	b.sniffer.Start()

	signal.Notify(b.forceQuitChan, os.Interrupt)
	defer signal.Stop(b.forceQuitChan)

	select {
	case <-b.forceQuitChan:
		log.Info("graceful shutdown: user force quit")
		log.Info("stopping sniffer")
		b.sniffer.Stop()
		log.Info("stopping dispatcher")
		b.dispatcher.Stop()
	case <-b.childStoppedChan:
		log.Info("graceful shutdown: packet-source stopped")
	}
}
