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

	"github.com/pkg/errors"
)

const (
	// Number of path resolutions tried when the topology keeps changing under a decision.
	maxResolveAttempts = 3
)

type DecisionKind uint8

const (
	FloodDecision DecisionKind = iota
	ForwardDecision
)

// Decision is the disposition of a first packet on its ingress switch.
type Decision struct {
	kind DecisionKind
	port uint32
}

func Forward(port uint32) Decision {
	return Decision{kind: ForwardDecision, port: port}
}

func Flood() Decision {
	return Decision{kind: FloodDecision}
}

func (r Decision) Kind() DecisionKind {
	return r.kind
}

func (r Decision) IsFlood() bool {
	return r.kind == FloodDecision
}

// Port returns the egress port of a forward decision.
func (r Decision) Port() uint32 {
	return r.port
}

func (r Decision) String() string {
	if r.kind == FloodDecision {
		return "FLOOD"
	}

	return fmt.Sprintf("FORWARD(%v)", r.port)
}

// Planner decides the egress port of a first packet on its ingress switch.
type Planner struct {
	topo     *Topology
	resolver *Resolver
	// Called after each path resolution if not nil.
	resolved func(path Path)
}

func NewPlanner(topo *Topology, resolver *Resolver) *Planner {
	if topo == nil {
		panic("nil topology")
	}
	if resolver == nil {
		panic("nil resolver")
	}

	return &Planner{
		topo:     topo,
		resolver: resolver,
	}
}

// Plan learns the source endpoint from this packet, and then returns Forward with the
// next-hop port on the ingress switch toward dst, or Flood if the path to dst is not known.
func (r *Planner) Plan(ingress uint64, src, dst net.HardwareAddr, inPort uint32) (Decision, error) {
	if err := r.learn(ingress, src, inPort); err != nil {
		return Flood(), err
	}
	if len(dst) != 6 {
		return Flood(), nil
	}

	from, to, sw := EndpointNode(src), EndpointNode(dst), SwitchNode(ingress)
	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		if !r.topo.HasNode(to) {
			logger.Debugf("unknown destination: %v", dst)
			return Flood(), nil
		}
		path, err := r.resolver.Resolve(from, to)
		if err != nil {
			if errors.Is(err, ErrNoPath) {
				return Flood(), nil
			}
			return Flood(), err
		}

		if r.resolved != nil {
			r.resolved(path)
		}

		next, ok := path.Next(sw)
		if !ok {
			logger.Debugf("ingress switch is not on the path: DPID=%v, path=%v", ingress, path)
			return Flood(), nil
		}
		port, err := r.topo.neighborPortAt(path.Version, sw, next)
		if err == errStaleVersion {
			logger.Debugf("topology is changed while planning: src=%v, dst=%v, attempt=%v", src, dst, attempt+1)
			continue
		}
		if err != nil {
			logger.Warningf("inconsistent path: %v: %v", path, err)
			return Flood(), nil
		}

		return Forward(port), nil
	}
	logger.Infof("giving up planning due to topology changes: src=%v, dst=%v", src, dst)

	return Flood(), nil
}

// learn binds src to the ingress port if it has not been learned yet, or if src has
// moved to this port. Ports connected to another switch carry transit traffic, so an
// already learned endpoint is never moved onto them.
func (r *Planner) learn(ingress uint64, src net.HardwareAddr, inPort uint32) error {
	dpid, port, ok := r.topo.Binding(src)
	if ok {
		if dpid == ingress && port == inPort {
			return nil
		}
		if r.topo.IsLinkPort(ingress, inPort) {
			return nil
		}
		logger.Infof("endpoint is moved: MAC=%v, from=%v:%v, to=%v:%v", src, dpid, port, ingress, inPort)
	}

	if _, err := r.topo.LearnEndpoint(src, ingress, inPort); err != nil {
		return errors.Wrap(err, fmt.Sprintf("learning the source endpoint %v", src))
	}

	return nil
}
