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

package graph

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var (
	logger = logging.MustGetLogger("graph")
)

var (
	ErrUnknownVertex = errors.New("unknown vertex")
	ErrInvalidWeight = errors.New("invalid edge weight")
)

// DefaultWeight is the cost of an edge whose weight is not specified explicitly.
const DefaultWeight float64 = 1

// Vertex is a node (e.g., switch or host) of the graph.
type Vertex interface {
	ID() string
}

// Edge is a directed link from one vertex to another. Port is the egress port on From
// through which To is reached.
type Edge struct {
	From   Vertex
	To     Vertex
	Port   uint32
	Weight float64
}

func (r Edge) String() string {
	return fmt.Sprintf("%v -> %v (port=%v, weight=%v)", r.From.ID(), r.To.ID(), r.Port, r.Weight)
}

type vertex struct {
	value Vertex
	// Key is the ID of the destination vertex.
	edges map[string]*Edge
}

// Graph is a directed graph whose edges are annotated with an egress port and a weight.
// There is at most one edge for each ordered pair of vertexies.
//
// Graph is not safe for concurrent use. The owner should serialize all accesses.
type Graph struct {
	vertexies map[string]*vertex
}

func New() *Graph {
	return &Graph{
		vertexies: make(map[string]*vertex),
	}
}

func (r *Graph) String() string {
	var buf bytes.Buffer
	for _, e := range r.Edges() {
		buf.WriteString(fmt.Sprintf("Edge: %v\n", e))
	}

	return buf.String()
}

// AddVertex inserts v if the graph does not have a vertex whose ID is same with v.
func (r *Graph) AddVertex(v Vertex) (added bool) {
	if v == nil {
		panic("adding nil vertex")
	}
	// Check duplication
	if _, ok := r.vertexies[v.ID()]; ok {
		return false
	}

	r.vertexies[v.ID()] = &vertex{
		value: v,
		edges: make(map[string]*Edge),
	}
	logger.Debugf("added a new vertex: id=%v", v.ID())

	return true
}

func (r *Graph) HasVertex(id string) bool {
	_, ok := r.vertexies[id]
	return ok
}

// Vertex may return false if a vertex whose ID is id does not exist.
func (r *Graph) Vertex(id string) (Vertex, bool) {
	v, ok := r.vertexies[id]
	if !ok {
		return nil, false
	}

	return v.value, true
}

// Vertexies returns all the vertexies sorted by their ID.
func (r *Graph) Vertexies() []Vertex {
	result := make([]Vertex, 0, len(r.vertexies))
	for _, v := range r.vertexies {
		result = append(result, v.value)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })

	return result
}

func validWeight(w float64) bool {
	return w >= 0 && !math.IsNaN(w) && !math.IsInf(w, 0)
}

// AddEdge inserts a directed edge from the vertex from to the vertex to, or replaces
// the existing one if its port or weight is different. changed is false if the graph
// already has an identical edge.
func (r *Graph) AddEdge(from, to Vertex, port uint32, weight float64) (changed bool, err error) {
	if from == nil || to == nil {
		panic("adding an edge pointing to nil vertex")
	}
	if !validWeight(weight) {
		return false, errors.Wrap(ErrInvalidWeight, fmt.Sprintf("weight=%v", weight))
	}
	src, ok := r.vertexies[from.ID()]
	if !ok {
		return false, errors.Wrap(ErrUnknownVertex, fmt.Sprintf("source=%v", from.ID()))
	}
	if _, ok := r.vertexies[to.ID()]; !ok {
		return false, errors.Wrap(ErrUnknownVertex, fmt.Sprintf("destination=%v", to.ID()))
	}

	if e, ok := src.edges[to.ID()]; ok && e.Port == port && e.Weight == weight {
		return false, nil
	}
	src.edges[to.ID()] = &Edge{From: src.value, To: r.vertexies[to.ID()].value, Port: port, Weight: weight}
	logger.Debugf("added a new edge: %v", src.edges[to.ID()])

	return true, nil
}

// RemoveEdge removes the directed edge from the vertex whose ID is from to the vertex whose ID is to.
func (r *Graph) RemoveEdge(from, to string) (removed bool) {
	src, ok := r.vertexies[from]
	if !ok {
		return false
	}
	if _, ok := src.edges[to]; !ok {
		return false
	}
	delete(src.edges, to)
	logger.Debugf("removed an edge: %v -> %v", from, to)

	return true
}

// Edge may return false if there is no edge from the vertex from to the vertex to.
func (r *Graph) Edge(from, to string) (Edge, bool) {
	src, ok := r.vertexies[from]
	if !ok {
		return Edge{}, false
	}
	e, ok := src.edges[to]
	if !ok {
		return Edge{}, false
	}

	return *e, true
}

// Edges returns all the edges sorted by the IDs of their source and destination vertexies.
func (r *Graph) Edges() []Edge {
	result := make([]Edge, 0)
	for _, v := range r.vertexies {
		for _, e := range v.edges {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].From.ID() != result[j].From.ID() {
			return result[i].From.ID() < result[j].From.ID()
		}
		return result[i].To.ID() < result[j].To.ID()
	})

	return result
}

// OutDegree returns the number of edges leaving the vertex whose ID is id.
func (r *Graph) OutDegree(id string) int {
	v, ok := r.vertexies[id]
	if !ok {
		return 0
	}

	return len(v.edges)
}

// EdgesFrom returns the edges leaving the vertex whose ID is id, sorted by the ID of
// their destination vertex.
func (r *Graph) EdgesFrom(id string) []Edge {
	v, ok := r.vertexies[id]
	if !ok {
		return nil
	}

	result := make([]Edge, 0, len(v.edges))
	for _, e := range v.edges {
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].To.ID() < result[j].To.ID() })

	return result
}
