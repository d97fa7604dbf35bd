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

	"github.com/superkkt/pathway/graph"

	"github.com/pkg/errors"
)

var (
	ErrNoPath = errors.New("no path found")
)

// Path is an ordered sequence of nodes from a source to a destination. Version is the
// topology version the path was computed against.
type Path struct {
	Nodes   []Node
	Cost    float64
	Version uint64
}

func (r Path) String() string {
	return fmt.Sprintf("%v (cost=%v, version=%v)", r.Nodes, r.Cost, r.Version)
}

// Next returns the node that follows n on this path. ok is false if n is not on this
// path or n is the last node.
func (r Path) Next(n Node) (next Node, ok bool) {
	for i := 0; i < len(r.Nodes)-1; i++ {
		if r.Nodes[i] == n {
			return r.Nodes[i+1], true
		}
	}

	return Node{}, false
}

// Resolver computes least-cost paths over a topology and memoizes them for each pair
// of source and destination.
type Resolver struct {
	topo    *Topology
	cost    graph.WeightFunc
	cache   *pathCache
	metrics *Metrics
}

// NewResolver returns a resolver that uses edge weights if weighted is true, or the
// hop count otherwise.
func NewResolver(topo *Topology, weighted bool, cacheSize int, metrics *Metrics) *Resolver {
	if topo == nil {
		panic("nil topology")
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	cost := graph.HopCount
	if weighted {
		cost = graph.Weighted
	}

	return &Resolver{
		topo:    topo,
		cost:    cost,
		cache:   newPathCache(cacheSize),
		metrics: metrics,
	}
}

// Resolve returns the least-cost path from src to dst. ErrNoPath is returned if dst is
// unknown or unreachable from src.
func (r *Resolver) Resolve(src, dst Node) (Path, error) {
	entry, ok, stale := r.cache.get(src, dst, r.topo.Version())
	if ok {
		r.metrics.PathCache.WithLabelValues("hit").Inc()
		if !entry.found {
			return Path{}, ErrNoPath
		}
		return entry.path, nil
	}
	if stale {
		r.metrics.PathCache.WithLabelValues("stale").Inc()
	} else {
		r.metrics.PathCache.WithLabelValues("miss").Inc()
	}

	nodes, cost, version, found := r.topo.shortestPath(src, dst, r.cost)
	entry = pathEntry{
		path:  Path{Nodes: nodes, Cost: cost, Version: version},
		found: found,
	}
	r.cache.add(src, dst, entry)
	if !found {
		logger.Debugf("no path: src=%v, dst=%v, version=%v", src, dst, version)
		return Path{}, ErrNoPath
	}
	logger.Debugf("resolved a new path: %v", entry.path)

	return entry.path, nil
}

// Invalidate removes all the memoized paths.
func (r *Resolver) Invalidate() {
	r.cache.purge()
}
