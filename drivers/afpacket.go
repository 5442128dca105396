//go:build linux
// +build linux

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
	"github.com/google/gopacket/afpacket"
	"github.com/google/gopacket/layers"

	"github.com/david415/ipstream/types"
)

func init() {
	SnifferRegister("AF_PACKET", NewAfpacketHandle)
}

type AfpacketHandle struct {
	afpacketHandle *afpacket.TPacket
}

func NewAfpacketHandle(options *types.SnifferDriverOptions) (types.PacketDataSourceCloser, error) {
	opts := []interface{}{afpacket.OptInterface(options.Device)}
	if options.WireDuration > 0 {
		opts = append(opts, afpacket.OptPollTimeout(options.WireDuration))
	}
	afpacketHandle, err := afpacket.NewTPacket(opts...)
	if err != nil {
		return nil, err
	}
	return &AfpacketHandle{
		afpacketHandle: afpacketHandle,
	}, nil
}

func (a *AfpacketHandle) ReadPacketData() (data []byte, ci gopacket.CaptureInfo, err error) {
	return a.afpacketHandle.ReadPacketData()
}

func (a *AfpacketHandle) LinkType() layers.LinkType {
	return layers.LinkTypeEthernet
}

func (a *AfpacketHandle) Close() error {
	a.afpacketHandle.Close()
	return nil
}
