/*
 * Cherry - An OpenFlow Controller
 *
 * Copyright (C) 2015 Samjung Data Service, Inc. All rights reserved.
 * Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package network

import (
	"bytes"
	"net"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
)

var (
	// 01:80:C2:00:00:00 - 01:80:C2:00:00:0F are reserved for link-local control protocols
	// (e.g., LLDP, STP) and are never forwarded by bridges.
	linkLocalPrefix = []byte{0x01, 0x80, 0xC2, 0x00, 0x00}
)

// frame is the Ethernet header of a first packet.
type frame struct {
	src, dst  net.HardwareAddr
	ethertype layers.EthernetType
}

// decodeFrame returns false if packet is not an Ethernet frame.
func decodeFrame(packet []byte) (frame, bool) {
	eth := new(layers.Ethernet)
	if err := eth.DecodeFromBytes(packet, gopacket.NilDecodeFeedback); err != nil {
		logger.Debugf("failed to decode an Ethernet frame: %v", err)
		return frame{}, false
	}

	return frame{
		src:       eth.SrcMAC,
		dst:       eth.DstMAC,
		ethertype: eth.EthernetType,
	}, true
}

// isControlFrame returns whether f is a topology probe or another link-local control
// frame that should not be forwarded as payload traffic.
func isControlFrame(f frame) bool {
	if f.ethertype == layers.EthernetTypeLinkLayerDiscovery {
		return true
	}

	return isLinkLocal(f.dst)
}

func isLinkLocal(mac net.HardwareAddr) bool {
	return len(mac) == 6 && bytes.HasPrefix(mac, linkLocalPrefix) && mac[5] <= 0x0F
}
