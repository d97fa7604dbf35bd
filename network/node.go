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
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type NodeKind uint8

const (
	SwitchKind NodeKind = iota
	EndpointKind
)

func (r NodeKind) String() string {
	switch r {
	case SwitchKind:
		return "switch"
	case EndpointKind:
		return "endpoint"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// Node is either a switch identified by its datapath ID, or an endpoint (host)
// identified by its MAC address. Node is comparable so that it can be used as a map key.
type Node struct {
	kind NodeKind
	dpid uint64
	mac  [6]byte
}

func SwitchNode(dpid uint64) Node {
	return Node{kind: SwitchKind, dpid: dpid}
}

// EndpointNode panics if mac is not a 48-bit MAC address.
func EndpointNode(mac net.HardwareAddr) Node {
	if len(mac) != 6 {
		panic(fmt.Sprintf("invalid MAC address length: %v", len(mac)))
	}
	n := Node{kind: EndpointKind}
	copy(n.mac[:], mac)

	return n
}

func (r Node) Kind() NodeKind {
	return r.kind
}

func (r Node) IsSwitch() bool {
	return r.kind == SwitchKind
}

// DPID returns zero if this node is not a switch.
func (r Node) DPID() uint64 {
	return r.dpid
}

// MAC returns nil if this node is not an endpoint.
func (r Node) MAC() net.HardwareAddr {
	if r.kind != EndpointKind {
		return nil
	}
	mac := make(net.HardwareAddr, 6)
	copy(mac, r.mac[:])

	return mac
}

// ID returns the key of this node on the topology graph. The lexicographic order of
// IDs is the node ordering used to break ties among equal-cost paths.
func (r Node) ID() string {
	if r.kind == SwitchKind {
		return fmt.Sprintf("dpid:%016x", r.dpid)
	}

	return fmt.Sprintf("mac:%v", net.HardwareAddr(r.mac[:]))
}

func (r Node) String() string {
	return r.ID()
}

// ParseNode is the inverse of Node.ID. It also accepts a bare decimal DPID or MAC address.
func ParseNode(s string) (Node, error) {
	switch {
	case strings.HasPrefix(s, "dpid:"):
		dpid, err := strconv.ParseUint(s[len("dpid:"):], 16, 64)
		if err != nil {
			return Node{}, errors.Wrap(err, fmt.Sprintf("invalid node ID %q", s))
		}
		return SwitchNode(dpid), nil
	case strings.HasPrefix(s, "mac:"):
		s = s[len("mac:"):]
	}

	if mac, err := net.ParseMAC(s); err == nil && len(mac) == 6 {
		return EndpointNode(mac), nil
	}
	dpid, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Node{}, errors.New(fmt.Sprintf("invalid node ID %q", s))
	}

	return SwitchNode(dpid), nil
}
