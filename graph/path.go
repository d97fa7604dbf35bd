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
	"container/heap"
	"math"
)

// WeightFunc returns the cost of traversing e.
type WeightFunc func(e Edge) float64

// Weighted uses the weight of each edge as its cost.
func Weighted(e Edge) float64 {
	return e.Weight
}

// HopCount regards every edge as a single hop.
func HopCount(e Edge) float64 {
	return 1
}

type item struct {
	id   string
	dist float64
}

// queue is a min-heap of items ordered by distance, and then by vertex ID so that
// the search visits vertexies in a deterministic order.
type queue []item

func (r queue) Len() int {
	return len(r)
}

func (r queue) Less(i, j int) bool {
	if r[i].dist != r[j].dist {
		return r[i].dist < r[j].dist
	}

	return r[i].id < r[j].id
}

func (r queue) Swap(i, j int) {
	r[i], r[j] = r[j], r[i]
}

func (r *queue) Push(v interface{}) {
	*r = append(*r, v.(item))
}

func (r *queue) Pop() interface{} {
	old := *r
	n := len(old)
	v := old[n-1]
	*r = old[:n-1]

	return v
}

// ShortestPath finds the least-cost path from src to dst using Dijkstra's algorithm.
// The search stops as soon as dst is settled. Among paths of equal cost, the one that
// reaches each vertex first in (distance, ID) order wins, so the result is reproducible.
// ok is false if src or dst is unknown, or dst is unreachable from src.
func (r *Graph) ShortestPath(src, dst string, cost WeightFunc) (path []Vertex, total float64, ok bool) {
	if cost == nil {
		cost = Weighted
	}
	if _, ok := r.vertexies[src]; !ok {
		return nil, 0, false
	}
	if _, ok := r.vertexies[dst]; !ok {
		return nil, 0, false
	}

	dist := map[string]float64{src: 0}
	prev := make(map[string]string)
	settled := make(map[string]bool)

	q := &queue{{id: src, dist: 0}}
	for q.Len() > 0 {
		u := heap.Pop(q).(item)
		if settled[u.id] {
			// Stale queue entry
			continue
		}
		settled[u.id] = true
		if u.id == dst {
			break
		}

		for _, e := range r.vertexies[u.id].edges {
			next := e.To.ID()
			if settled[next] {
				continue
			}
			d := u.dist + cost(*e)
			if old, ok := dist[next]; ok && d >= old {
				continue
			}
			dist[next] = d
			prev[next] = u.id
			heap.Push(q, item{id: next, dist: d})
		}
	}

	if !settled[dst] {
		return nil, math.Inf(1), false
	}

	ids := []string{dst}
	for id := dst; id != src; {
		id = prev[id]
		ids = append(ids, id)
	}
	path = make([]Vertex, len(ids))
	for i, j := 0, len(ids)-1; j >= 0; i, j = i+1, j-1 {
		path[i] = r.vertexies[ids[j]].value
	}

	return path, dist[dst], true
}
