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
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

type TimedPacket struct {
	RawPacket []byte
	Timestamp time.Time
}

// PcapLogger writes the datagrams a stream emits to a pcap file of raw IP
// packets, rotating it once it reaches its share of the quota.
type PcapLogger struct {
	packetChan chan TimedPacket
	stopChan   chan bool
	Filename   string
	record     bytes.Buffer
	writer     *pcapgo.Writer
	fileWriter io.WriteCloser
	pcapLogNum int
	pcapQuota  int
	// AckChan, if set, is signalled after each packet has been written.
	AckChan *chan bool
}

// NewPcapLogger returns a PcapLogger keeping at most pcapLogNum files
// totalling pcapQuota megabytes.
func NewPcapLogger(filename string, pcapLogNum int, pcapQuota int) *PcapLogger {
	p := PcapLogger{
		packetChan: make(chan TimedPacket),
		stopChan:   make(chan bool),
		Filename:   filename,
		pcapLogNum: pcapLogNum,
		pcapQuota:  pcapQuota,
	}
	return &p
}

// SetFileWriter replaces the rotating file writer, for use before Start.
func (p *PcapLogger) SetFileWriter(writer io.WriteCloser) {
	p.fileWriter = writer
}

// WriteHeader writes the pcap file header to the file writer.
func (p *PcapLogger) WriteHeader() error {
	return pcapgo.NewWriter(p.fileWriter).WriteFileHeader(65536, layers.LinkTypeRaw)
}

func (p *PcapLogger) Start() {
	// records are assembled in memory so each one reaches the file
	// writer in a single Write and is never split by a rotation
	p.writer = pcapgo.NewWriter(&p.record)
	if p.fileWriter != nil {
		if err := p.WriteHeader(); err != nil {
			log.Errorf("cannot write pcap header: %v", err)
		}
	} else {
		fileWriter, err := NewRotatingQuotaWriter(p.Filename, p.pcapQuota, p.pcapLogNum, p.WriteHeader)
		if err != nil {
			log.Errorf("pcap logger disabled: %v", err)
			p.fileWriter = nopWriteCloser{}
		} else {
			p.fileWriter = fileWriter
		}
	}
	go p.logPackets()
}

func (p *PcapLogger) Stop() {
	p.stopChan <- true
	if err := p.fileWriter.Close(); err != nil {
		log.Errorf("closing %s: %v", p.Filename, err)
	}
}

// Remove deletes the current pcap file and its rotations.
func (p *PcapLogger) Remove() {
	os.Remove(p.Filename)
	for i := 1; i < p.pcapLogNum; i++ {
		os.Remove(fmt.Sprintf("%s.%d", p.Filename, i))
	}
}

func (p *PcapLogger) logPackets() {
	for {
		select {
		case <-p.stopChan:
			return
		case timedPacket := <-p.packetChan:
			p.WritePacketToFile(timedPacket.RawPacket, timedPacket.Timestamp)
		}
	}
}

func (p *PcapLogger) WritePacket(rawPacket []byte, timestamp time.Time) {
	p.packetChan <- TimedPacket{
		RawPacket: rawPacket,
		Timestamp: timestamp,
	}
}

func (p *PcapLogger) WritePacketToFile(rawPacket []byte, timestamp time.Time) {
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	p.record.Reset()
	err := p.writer.WritePacket(gopacket.CaptureInfo{
		Timestamp:     timestamp,
		CaptureLength: len(rawPacket),
		Length:        len(rawPacket),
	}, rawPacket)
	if err == nil {
		_, err = p.fileWriter.Write(p.record.Bytes())
	}
	if err != nil {
		log.Errorf("cannot write packet to %s: %v", p.Filename, err)
	}
	if p.AckChan != nil {
		*p.AckChan <- true
	}
}

type nopWriteCloser struct{}

func (nopWriteCloser) Write(b []byte) (int, error) { return len(b), nil }
func (nopWriteCloser) Close() error                { return nil }
