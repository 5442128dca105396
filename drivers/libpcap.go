//go:build libpcap && (linux || freebsd || smartos)
// +build libpcap
// +build linux freebsd smartos

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
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/david415/ipstream/types"
)

func init() {
	SnifferRegister("libpcap", NewPcapSniffer)
}

type PcapHandle struct {
	handle *pcap.Handle
}

// NewPcapSniffer opens options.Filename if set, the live device otherwise.
// The BPF filter is applied to both.
func NewPcapSniffer(options *types.SnifferDriverOptions) (types.PacketDataSourceCloser, error) {
	var handle *pcap.Handle
	var err error
	if options.Filename != "" {
		handle, err = pcap.OpenOffline(options.Filename)
	} else {
		handle, err = pcap.OpenLive(options.Device, options.Snaplen, true, options.WireDuration)
	}
	if err != nil {
		return nil, err
	}
	if options.Filter != "" {
		if err = handle.SetBPFFilter(options.Filter); err != nil {
			handle.Close()
			return nil, err
		}
	}
	return &PcapHandle{
		handle: handle,
	}, nil
}

func (p *PcapHandle) ReadPacketData() (data []byte, ci gopacket.CaptureInfo, err error) {
	return p.handle.ReadPacketData()
}

func (p *PcapHandle) LinkType() layers.LinkType {
	return p.handle.LinkType()
}

func (p *PcapHandle) Close() error {
	p.handle.Close()
	return nil
}
