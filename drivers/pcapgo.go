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

package drivers

import (
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/david415/ipstream/types"
)

func init() {
	SnifferRegister("pcapgo", NewPcapgoHandle)
}

// PcapgoHandle reads a pcap file without libpcap.
type PcapgoHandle struct {
	reader     *pcapgo.Reader
	fileReader io.ReadCloser
}

func NewPcapgoHandle(options *types.SnifferDriverOptions) (types.PacketDataSourceCloser, error) {
	fileReader, err := os.Open(options.Filename)
	if err != nil {
		return nil, err
	}
	return NewPcapgoReader(fileReader)
}

// NewPcapgoReader reads pcap data from r and closes it on Close.
func NewPcapgoReader(r io.ReadCloser) (*PcapgoHandle, error) {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		r.Close()
		return nil, err
	}
	return &PcapgoHandle{
		reader:     reader,
		fileReader: r,
	}, nil
}

func (a *PcapgoHandle) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	return a.reader.ReadPacketData()
}

func (a *PcapgoHandle) LinkType() layers.LinkType {
	return a.reader.LinkType()
}

func (a *PcapgoHandle) Close() error {
	return a.fileReader.Close()
}
