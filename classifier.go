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

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/david415/ipstream/types"
)

// Classifier decides whether a message carries IP before its network
// header is decoded. A non-nil error turns the message into a not-ip
// diagnostic.
type Classifier func(msg *types.Message) error

// ClassifyEthernet accepts messages without an outer frame and messages
// whose outer frame announces IPv4.
func ClassifyEthernet(msg *types.Message) error {
	if msg.Ether == nil {
		return nil
	}
	if msg.Ether.EthernetType != layers.EthernetTypeIPv4 {
		return fmt.Errorf("message type is [%s]; must be IPv4: %w", msg.Ether.EthernetType, ErrNotIP)
	}
	return nil
}

// NewMessageFromFrame decodes the link layer of a captured frame and
// returns a message whose cursor points at the network layer. 802.1Q tags
// are skipped and the innermost EtherType is recorded on Ether.
func NewMessageFromFrame(data []byte, linkType layers.LinkType, timestamp time.Time) (*types.Message, error) {
	msg := &types.Message{
		Data:      data,
		Timestamp: timestamp,
	}
	switch linkType {
	case layers.LinkTypeEthernet:
		eth := &layers.Ethernet{}
		if err := eth.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
			return nil, err
		}
		msg.Offset = len(eth.Contents)
		for eth.EthernetType == layers.EthernetTypeDot1Q {
			var tag layers.Dot1Q
			if err := tag.DecodeFromBytes(data[msg.Offset:], gopacket.NilDecodeFeedback); err != nil {
				return nil, err
			}
			msg.Offset += len(tag.Contents)
			eth.EthernetType = tag.Type
		}
		msg.Ether = eth
	case layers.LinkTypeLinuxSLL:
		var sll layers.LinuxSLL
		if err := sll.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
			return nil, err
		}
		msg.Offset = len(sll.Contents)
		msg.Ether = &layers.Ethernet{
			EthernetType: sll.EthernetType,
		}
	case layers.LinkTypeRaw, layers.LinkTypeIPv4:
	default:
		return nil, fmt.Errorf("%s: %w", linkType, ErrUnsupportedLinkType)
	}
	return msg, nil
}
