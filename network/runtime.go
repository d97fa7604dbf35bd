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

const (
	// Priority of the table-miss flow entry.
	TableMissPriority uint16 = 0
)

// Runtime is the switch runtime that owns the south-bound protocol. Both calls are
// fire-and-forget: the runtime is responsible for delivery, retries and timeouts.
type Runtime interface {
	InstallRule(dpid uint64, rule Rule) error
	EmitPacket(dpid uint64, packet Packet, action Action) error
}

type ActionKind uint8

const (
	OutputAction ActionKind = iota
	ControllerAction
	FloodAction
)

func (r ActionKind) String() string {
	switch r {
	case OutputAction:
		return "output"
	case ControllerAction:
		return "controller"
	case FloodAction:
		return "flood"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

type Action struct {
	Kind ActionKind
	// Egress port number of OutputAction.
	Port uint32
}

func Output(port uint32) Action {
	return Action{Kind: OutputAction, Port: port}
}

// SendToController sends whole packets to the controller without buffering them on the switch.
func SendToController() Action {
	return Action{Kind: ControllerAction}
}

// FloodPorts emits a packet on all ports except its ingress port.
func FloodPorts() Action {
	return Action{Kind: FloodAction}
}

func (r Action) String() string {
	if r.Kind == OutputAction {
		return fmt.Sprintf("output:%v", r.Port)
	}

	return r.Kind.String()
}

// Match is a flow match. Zero InPort and nil DstMAC are wildcards.
type Match struct {
	InPort uint32
	DstMAC net.HardwareAddr
}

func (r Match) IsWildcard() bool {
	return r.InPort == 0 && len(r.DstMAC) == 0
}

func (r Match) String() string {
	return fmt.Sprintf("in_port=%v, eth_dst=%v", r.InPort, r.DstMAC)
}

type Rule struct {
	Priority uint16
	Match    Match
	Action   Action
	// Zero means a permanent flow entry.
	IdleTimeout uint16
	HardTimeout uint16
}

func (r Rule) String() string {
	return fmt.Sprintf("Priority=%v, Match={%v}, Action=%v, IdleTimeout=%v, HardTimeout=%v", r.Priority, r.Match, r.Action, r.IdleTimeout, r.HardTimeout)
}

// Packet is a frame sent to the controller, and to be emitted again by the switch.
type Packet struct {
	InPort uint32
	Data   []byte
}
