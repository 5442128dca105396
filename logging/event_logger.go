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

package logging

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/david415/ipstream/types"
)

// SerializedEvent is the JSON form of a diagnostic event.
type SerializedEvent struct {
	Reason     types.Reason
	Time       time.Time
	Error      string
	Key        string `json:",omitempty"`
	Src        string `json:",omitempty"`
	Dst        string `json:",omitempty"`
	Id         uint16
	FragOffset uint16
	MoreFrags  bool
	DataLength int
	Timestamp  time.Time
	Data       string
	OuterFrame string `json:",omitempty"`
}

// NewSerializedEvent flattens an event for the JSON log.
func NewSerializedEvent(event *types.Event) *SerializedEvent {
	serialized := &SerializedEvent{
		Reason: event.Reason,
		Time:   event.Time,
	}
	if event.Err != nil {
		serialized.Error = event.Err.Error()
	}
	if event.Key != nil {
		serialized.Key = event.Key.String()
	}
	msg := event.Message
	if msg == nil {
		return serialized
	}
	serialized.Timestamp = msg.Timestamp
	serialized.Data = base64.StdEncoding.EncodeToString(msg.Data)
	if msg.Ether != nil {
		serialized.OuterFrame = msg.Ether.EthernetType.String()
	}
	if ip := msg.IP; ip != nil {
		serialized.Src = ip.Src.String()
		serialized.Dst = ip.Dst.String()
		serialized.Id = ip.Id
		serialized.FragOffset = ip.FragOffset
		serialized.MoreFrags = ip.MoreFragments
		serialized.DataLength = ip.DataLength
	}
	return serialized
}

// EventJsonLogger records every diagnostic event as one JSON object per
// line. Events are written by a single goroutine so Log never touches the
// file itself.
type EventJsonLogger struct {
	writer    io.WriteCloser
	LogFile   string
	stopChan  chan bool
	eventChan chan *types.Event
	// AckChan, if set, is signalled after each event has been written.
	AckChan *chan bool
}

// NewEventJsonLogger returns a logger appending to logFile.
func NewEventJsonLogger(logFile string) *EventJsonLogger {
	a := EventJsonLogger{
		LogFile:   logFile,
		stopChan:  make(chan bool),
		eventChan: make(chan *types.Event, 1024),
	}
	return &a
}

// SetWriter replaces the log file, for use before Start.
func (a *EventJsonLogger) SetWriter(writer io.WriteCloser) {
	a.writer = writer
}

func (a *EventJsonLogger) Start() error {
	if a.writer == nil {
		writer, err := os.OpenFile(a.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("error opening event log: %w", err)
		}
		a.writer = writer
	}
	go a.receiveEvents()
	return nil
}

// Stop writes the events already queued and closes the log.
func (a *EventJsonLogger) Stop() {
	a.stopChan <- true
	<-a.stopChan
	a.writer.Close()
}

func (a *EventJsonLogger) receiveEvents() {
	for {
		select {
		case <-a.stopChan:
			for {
				select {
				case event := <-a.eventChan:
					a.SerializeAndWrite(event)
				default:
					a.stopChan <- true
					return
				}
			}
		case event := <-a.eventChan:
			a.SerializeAndWrite(event)
		}
	}
}

// Log queues an event; it implements types.Logger.
func (a *EventJsonLogger) Log(event *types.Event) {
	a.eventChan <- event
}

func (a *EventJsonLogger) SerializeAndWrite(event *types.Event) {
	if err := a.Publish(NewSerializedEvent(event)); err != nil {
		log.Errorf("cannot write %s event: %v", event.Reason, err)
	}
	if a.AckChan != nil {
		*a.AckChan <- true
	}
}

// Publish writes one JSON line.
func (a *EventJsonLogger) Publish(event *SerializedEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = a.writer.Write(append(b, '\n'))
	return err
}
