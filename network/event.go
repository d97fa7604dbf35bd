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
	"fmt"
	"net"
)

type EventKind uint8

const (
	// A switch is registered with the runtime. Its table-miss rule is not installed yet.
	SwitchJoined EventKind = iota
	// A switch is ready to receive the table-miss rule.
	SwitchReady
	// A switch is disconnected from the runtime.
	SwitchLeft
	// A link between two switches is discovered.
	LinkDiscovered
	// A packet that does not match any rule on the ingress switch.
	PacketIn
)

func (r EventKind) String() string {
	switch r {
	case SwitchJoined:
		return "SwitchJoined"
	case SwitchReady:
		return "SwitchReady"
	case SwitchLeft:
		return "SwitchLeft"
	case LinkDiscovered:
		return "LinkDiscovered"
	case PacketIn:
		return "PacketIn"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(r))
	}
}

// Event is a notification from the switch runtime. Which fields are meaningful depends on Kind.
type Event struct {
	Kind EventKind
	DPID uint64

	// LinkDiscovered
	Port     uint32
	PeerDPID uint64
	PeerPort uint32
	// Nil means the default weight.
	Weight *float64

	// PacketIn. Nil addresses are taken from the Ethernet header of Payload.
	InPort  uint32
	SrcMAC  net.HardwareAddr
	DstMAC  net.HardwareAddr
	Payload []byte
}

func (r Event) String() string {
	switch r.Kind {
	case LinkDiscovered:
		return fmt.Sprintf("%v (%v:%v <-> %v:%v)", r.Kind, r.DPID, r.Port, r.PeerDPID, r.PeerPort)
	case PacketIn:
		return fmt.Sprintf("%v (DPID=%v, InPort=%v, Src=%v, Dst=%v, Len=%v)", r.Kind, r.DPID, r.InPort, r.SrcMAC, r.DstMAC, len(r.Payload))
	default:
		return fmt.Sprintf("%v (DPID=%v)", r.Kind, r.DPID)
	}
}

func NewSwitchJoined(dpid uint64) Event {
	return Event{Kind: SwitchJoined, DPID: dpid}
}

func NewSwitchReady(dpid uint64) Event {
	return Event{Kind: SwitchReady, DPID: dpid}
}

func NewSwitchLeft(dpid uint64) Event {
	return Event{Kind: SwitchLeft, DPID: dpid}
}

func NewLinkDiscovered(dpid uint64, port uint32, peerDPID uint64, peerPort uint32) Event {
	return Event{
		Kind:     LinkDiscovered,
		DPID:     dpid,
		Port:     port,
		PeerDPID: peerDPID,
		PeerPort: peerPort,
	}
}

func NewPacketIn(dpid uint64, inPort uint32, src, dst net.HardwareAddr, payload []byte) Event {
	return Event{
		Kind:    PacketIn,
		DPID:    dpid,
		InPort:  inPort,
		SrcMAC:  src,
		DstMAC:  dst,
		Payload: payload,
	}
}
