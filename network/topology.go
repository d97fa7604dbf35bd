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
	"fmt"
	"math"
	"net"
	"sort"
	"sync"

	"github.com/superkkt/pathway/graph"

	"github.com/pkg/errors"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidEndpoint = errors.New("invalid endpoint address")
	ErrInvalidLink     = errors.New("invalid link")
	errStaleVersion    = errors.New("stale topology version")
)

// Edge is a directed adjacency between two nodes. Port is the egress port on From.
type Edge struct {
	From   Node
	To     Node
	Port   uint32
	Weight float64
}

type attachment struct {
	dpid uint64
	port uint32
}

// Topology is the live graph of switches and learned endpoints. All the mutators
// serialize on a single write lock and are the only place where the version changes.
type Topology struct {
	mutex   sync.RWMutex
	graph   *graph.Graph
	version uint64
	// Weight of a link added without an explicit weight.
	weight float64
	// Key is an endpoint node.
	bindings map[Node]attachment
}

// NewTopology returns an empty topology. graph.DefaultWeight is used if defaultWeight is invalid.
func NewTopology(defaultWeight float64) *Topology {
	if defaultWeight < 0 || math.IsNaN(defaultWeight) || math.IsInf(defaultWeight, 0) {
		defaultWeight = graph.DefaultWeight
	}

	return &Topology{
		graph:    graph.New(),
		weight:   defaultWeight,
		bindings: make(map[Node]attachment),
	}
}

func (r *Topology) String() string {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Topology version: %v\n", r.version))
	endpoints := make([]Node, 0, len(r.bindings))
	for ep := range r.bindings {
		endpoints = append(endpoints, ep)
	}
	sort.Slice(endpoints, func(i, j int) bool { return endpoints[i].ID() < endpoints[j].ID() })
	for _, ep := range endpoints {
		v := r.bindings[ep]
		buf.WriteString(fmt.Sprintf("Endpoint: %v (DPID=%v, Port=%v)\n", ep, v.dpid, v.port))
	}
	buf.WriteString(r.graph.String())

	return buf.String()
}

// Version returns the current topology version.
func (r *Topology) Version() uint64 {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.version
}

// XXX: Caller should lock the mutex.
func (r *Topology) bump() {
	r.version++
	logger.Debugf("topology version is updated: version=%v", r.version)
}

// AddSwitch inserts a switch node. added is false if the switch already exists.
func (r *Topology) AddSwitch(dpid uint64) (added bool) {
	// Write lock
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.graph.AddVertex(SwitchNode(dpid)) {
		return false
	}
	r.bump()
	logger.Infof("added a new switch: DPID=%v", dpid)

	return true
}

// AddLink is same with AddWeightedLink except that it uses the default weight.
func (r *Topology) AddLink(a, b uint64, portA, portB uint32) (changed bool, err error) {
	return r.AddWeightedLink(a, b, portA, portB, r.weight)
}

// AddWeightedLink inserts or updates the pair of directed edges representing a
// bi-directional link between the switch a and b. Unknown switches are inserted.
// changed is false if the topology already has the identical link.
func (r *Topology) AddWeightedLink(a, b uint64, portA, portB uint32, weight float64) (changed bool, err error) {
	if a == b {
		return false, errors.Wrap(ErrInvalidLink, fmt.Sprintf("loop on DPID %v", a))
	}
	if portA == 0 || portB == 0 {
		return false, errors.Wrap(ErrInvalidLink, fmt.Sprintf("zero port number: %v:%v - %v:%v", a, portA, b, portB))
	}

	// Write lock
	r.mutex.Lock()
	defer r.mutex.Unlock()

	first, second := SwitchNode(a), SwitchNode(b)
	if r.graph.AddVertex(first) {
		changed = true
	}
	if r.graph.AddVertex(second) {
		changed = true
	}
	c1, err := r.graph.AddEdge(first, second, portA, weight)
	if err != nil {
		if changed {
			r.bump()
		}
		return changed, errors.Wrap(err, "adding a link")
	}
	c2, err := r.graph.AddEdge(second, first, portB, weight)
	if err != nil {
		// Not reachable: both vertexies exist and the weight is already validated.
		panic(fmt.Sprintf("adding the reverse edge: %v", err))
	}
	// A port is cabled to at most one neighbor switch.
	d1 := r.detachPort(a, portA, b)
	d2 := r.detachPort(b, portB, a)
	// Endpoints learned on these ports were transit traffic seen before the link was discovered.
	u1 := r.unbindPort(attachment{a, portA})
	u2 := r.unbindPort(attachment{b, portB})

	changed = changed || c1 || c2 || d1 || d2 || u1 || u2
	if changed {
		r.bump()
		logger.Infof("updated a link: %v:%v <-> %v:%v (weight=%v)", a, portA, b, portB, weight)
	}

	return changed, nil
}

// detachPort removes the links on the port of the switch dpid, both directions, except
// the one towards the switch peer.
// XXX: Caller should lock the mutex.
func (r *Topology) detachPort(dpid uint64, port uint32, peer uint64) (removed bool) {
	sw := SwitchNode(dpid)
	for _, e := range r.graph.EdgesFrom(sw.ID()) {
		neighbor := e.To.(Node)
		if e.Port != port || !neighbor.IsSwitch() || neighbor.DPID() == peer {
			continue
		}
		r.graph.RemoveEdge(sw.ID(), neighbor.ID())
		r.graph.RemoveEdge(neighbor.ID(), sw.ID())
		logger.Infof("removed a stale link on the recabled port: %v:%v <-> %v", dpid, port, neighbor)
		removed = true
	}

	return removed
}

// XXX: Caller should lock the mutex.
func (r *Topology) unbindPort(p attachment) (removed bool) {
	for ep, v := range r.bindings {
		if v != p {
			continue
		}
		r.unbind(ep)
		logger.Infof("unbound an endpoint on the link port: endpoint=%v, DPID=%v, port=%v", ep, p.dpid, p.port)
		removed = true
	}

	return removed
}

// XXX: Caller should lock the mutex.
func (r *Topology) unbind(ep Node) {
	v, ok := r.bindings[ep]
	if !ok {
		return
	}
	sw := SwitchNode(v.dpid)
	r.graph.RemoveEdge(sw.ID(), ep.ID())
	r.graph.RemoveEdge(ep.ID(), sw.ID())
	delete(r.bindings, ep)
}

func validEndpoint(mac net.HardwareAddr) bool {
	if len(mac) != 6 {
		return false
	}
	// Multicast or broadcast?
	if mac[0]&0x01 != 0 {
		return false
	}
	for _, v := range mac {
		if v != 0 {
			return true
		}
	}

	// All zero
	return false
}

// LearnEndpoint binds the endpoint mac to the port of the switch dpid. A previous
// binding of the endpoint on another switch or port is replaced. changed is false if
// the endpoint is already bound to the same place.
func (r *Topology) LearnEndpoint(mac net.HardwareAddr, dpid uint64, port uint32) (changed bool, err error) {
	if !validEndpoint(mac) {
		return false, errors.Wrap(ErrInvalidEndpoint, mac.String())
	}

	// Write lock
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ep, sw := EndpointNode(mac), SwitchNode(dpid)
	p := attachment{dpid, port}
	if v, ok := r.bindings[ep]; ok && v == p {
		return false, nil
	}

	r.graph.AddVertex(sw)
	r.graph.AddVertex(ep)
	r.unbind(ep)
	// Zero-cost last hop
	if _, err := r.graph.AddEdge(sw, ep, port, 0); err != nil {
		panic(fmt.Sprintf("adding an endpoint edge: %v", err))
	}
	if _, err := r.graph.AddEdge(ep, sw, 0, 0); err != nil {
		panic(fmt.Sprintf("adding an endpoint edge: %v", err))
	}
	r.bindings[ep] = p
	r.bump()
	logger.Infof("learned an endpoint: MAC=%v, DPID=%v, port=%v", mac, dpid, port)

	return true, nil
}

// Binding returns the switch and port where the endpoint mac is attached.
func (r *Topology) Binding(mac net.HardwareAddr) (dpid uint64, port uint32, ok bool) {
	if len(mac) != 6 {
		return 0, 0, false
	}

	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	v, ok := r.bindings[EndpointNode(mac)]
	if !ok {
		return 0, 0, false
	}

	return v.dpid, v.port, true
}

func (r *Topology) HasNode(n Node) bool {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.graph.HasVertex(n.ID())
}

// NeighborPort returns the egress port on from through which to is reached.
func (r *Topology) NeighborPort(from, to Node) (uint32, error) {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.neighborPort(from, to)
}

// XXX: Caller should lock the mutex.
func (r *Topology) neighborPort(from, to Node) (uint32, error) {
	e, ok := r.graph.Edge(from.ID(), to.ID())
	if !ok {
		return 0, errors.Wrap(ErrNotFound, fmt.Sprintf("edge %v -> %v", from, to))
	}

	return e.Port, nil
}

// neighborPortAt is same with NeighborPort, but it fails with errStaleVersion if the
// topology has been changed since version.
func (r *Topology) neighborPortAt(version uint64, from, to Node) (uint32, error) {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.version != version {
		return 0, errStaleVersion
	}

	return r.neighborPort(from, to)
}

// IsLinkPort returns whether the port of the switch dpid is connected to another switch.
func (r *Topology) IsLinkPort(dpid uint64, port uint32) bool {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, e := range r.graph.EdgesFrom(SwitchNode(dpid).ID()) {
		if e.Port == port && e.To.(Node).IsSwitch() {
			return true
		}
	}

	return false
}

// shortestPath runs the search and reports the version of the snapshot it used.
func (r *Topology) shortestPath(src, dst Node, cost graph.WeightFunc) (path []Node, total float64, version uint64, ok bool) {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	vertexies, total, ok := r.graph.ShortestPath(src.ID(), dst.ID(), cost)
	if !ok {
		return nil, 0, r.version, false
	}
	path = make([]Node, len(vertexies))
	for i, v := range vertexies {
		path[i] = v.(Node)
	}

	return path, total, r.version, true
}

// Nodes returns all the nodes sorted by their ID.
func (r *Topology) Nodes() []Node {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	vertexies := r.graph.Vertexies()
	result := make([]Node, len(vertexies))
	for i, v := range vertexies {
		result[i] = v.(Node)
	}

	return result
}

// Edges returns all the directed edges sorted by their source and destination node.
func (r *Topology) Edges() []Edge {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	edges := r.graph.Edges()
	result := make([]Edge, len(edges))
	for i, e := range edges {
		result[i] = Edge{
			From:   e.From.(Node),
			To:     e.To.(Node),
			Port:   e.Port,
			Weight: e.Weight,
		}
	}

	return result
}
