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

package bridge

import (
	"encoding/json"
	"fmt"
	"net"

	"github.com/superkkt/pathway/network"

	"github.com/pkg/errors"
)

// Event types on the wire.
const (
	typeSwitchJoined = "switch_joined"
	typeSwitchReady  = "switch_ready"
	typeSwitchLeft   = "switch_left"
	typeLink         = "link"
	typePacketIn     = "packet_in"
)

// Command types on the wire.
const (
	typeInstallRule = "install_rule"
	typeEmitPacket  = "emit_packet"
)

var (
	ErrInvalidMessage = errors.New("invalid message")
)

type eventMessage struct {
	Type string `json:"type"`
	DPID uint64 `json:"dpid"`

	Port     uint32   `json:"port,omitempty"`
	PeerDPID uint64   `json:"peer_dpid,omitempty"`
	PeerPort uint32   `json:"peer_port,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`

	InPort uint32 `json:"in_port,omitempty"`
	Src    string `json:"src,omitempty"`
	Dst    string `json:"dst,omitempty"`
	// Base64 encoded raw frame.
	Payload []byte `json:"payload,omitempty"`
}

type actionMessage struct {
	Type string `json:"type"`
	Port uint32 `json:"port,omitempty"`
}

type ruleMessage struct {
	Priority    uint16        `json:"priority"`
	InPort      uint32        `json:"in_port,omitempty"`
	DstMAC      string        `json:"dst_mac,omitempty"`
	Action      actionMessage `json:"action"`
	IdleTimeout uint16        `json:"idle_timeout,omitempty"`
	HardTimeout uint16        `json:"hard_timeout,omitempty"`
}

type packetMessage struct {
	InPort uint32        `json:"in_port"`
	Data   []byte        `json:"data"`
	Action actionMessage `json:"action"`
}

type commandMessage struct {
	Type   string         `json:"type"`
	DPID   uint64         `json:"dpid"`
	Rule   *ruleMessage   `json:"rule,omitempty"`
	Packet *packetMessage `json:"packet,omitempty"`
}

func parseMAC(s string) (net.HardwareAddr, error) {
	if s == "" {
		return nil, nil
	}
	mac, err := net.ParseMAC(s)
	if err != nil {
		return nil, err
	}
	if len(mac) != 6 {
		return nil, errors.New(fmt.Sprintf("not an Ethernet address: %v", s))
	}

	return mac, nil
}

// decodeEvent converts a JSON message from the runtime into an event. Field validation
// beyond the wire format is left to the router.
func decodeEvent(data []byte) (network.Event, error) {
	msg := new(eventMessage)
	if err := json.Unmarshal(data, msg); err != nil {
		return network.Event{}, errors.Wrap(ErrInvalidMessage, err.Error())
	}

	switch msg.Type {
	case typeSwitchJoined:
		return network.NewSwitchJoined(msg.DPID), nil
	case typeSwitchReady:
		return network.NewSwitchReady(msg.DPID), nil
	case typeSwitchLeft:
		return network.NewSwitchLeft(msg.DPID), nil
	case typeLink:
		ev := network.NewLinkDiscovered(msg.DPID, msg.Port, msg.PeerDPID, msg.PeerPort)
		ev.Weight = msg.Weight
		return ev, nil
	case typePacketIn:
		src, err := parseMAC(msg.Src)
		if err != nil {
			return network.Event{}, errors.Wrap(ErrInvalidMessage, fmt.Sprintf("source address: %v", err))
		}
		dst, err := parseMAC(msg.Dst)
		if err != nil {
			return network.Event{}, errors.Wrap(ErrInvalidMessage, fmt.Sprintf("destination address: %v", err))
		}
		return network.NewPacketIn(msg.DPID, msg.InPort, src, dst, msg.Payload), nil
	default:
		return network.Event{}, errors.Wrap(ErrInvalidMessage, fmt.Sprintf("unknown event type: %q", msg.Type))
	}
}

func encodeAction(action network.Action) actionMessage {
	msg := actionMessage{Type: action.Kind.String()}
	if action.Kind == network.OutputAction {
		msg.Port = action.Port
	}

	return msg
}

func encodeRule(dpid uint64, rule network.Rule) ([]byte, error) {
	r := &ruleMessage{
		Priority:    rule.Priority,
		InPort:      rule.Match.InPort,
		Action:      encodeAction(rule.Action),
		IdleTimeout: rule.IdleTimeout,
		HardTimeout: rule.HardTimeout,
	}
	if rule.Match.DstMAC != nil {
		r.DstMAC = rule.Match.DstMAC.String()
	}

	return json.Marshal(&commandMessage{Type: typeInstallRule, DPID: dpid, Rule: r})
}

func encodePacket(dpid uint64, packet network.Packet, action network.Action) ([]byte, error) {
	p := &packetMessage{
		InPort: packet.InPort,
		Data:   packet.Data,
		Action: encodeAction(action),
	}

	return json.Marshal(&commandMessage{Type: typeEmitPacket, DPID: dpid, Packet: p})
}
