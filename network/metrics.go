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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pathway"

// Metrics holds the collectors updated by the forwarding core.
type Metrics struct {
	PacketIn        *prometheus.CounterVec
	Events          *prometheus.CounterVec
	PathCache       *prometheus.CounterVec
	InstallFailures prometheus.Counter
	EmitFailures    prometheus.Counter
}

// NewMetrics creates the collectors and registers them to reg. The collectors are not
// registered anywhere if reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		PacketIn: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "packet_in_total",
				Help:      "Number of first-packet events by their disposition.",
			},
			[]string{"decision"},
		),
		Events: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Number of dispatched events by kind and result.",
			},
			[]string{"kind", "result"},
		),
		PathCache: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "path_cache_lookups_total",
				Help:      "Number of path cache lookups by result.",
			},
			[]string{"result"},
		),
		InstallFailures: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_install_failures_total",
				Help:      "Number of forwarding rules rejected by the switch runtime.",
			},
		),
		EmitFailures: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "packet_emit_failures_total",
				Help:      "Number of packets the switch runtime failed to emit.",
			},
		),
	}
}

// RegisterTopology exports the version and size of topo as gauges.
func RegisterTopology(reg prometheus.Registerer, topo *Topology) {
	f := promauto.With(reg)
	f.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "topology_version",
			Help:      "Current topology version.",
		},
		func() float64 { return float64(topo.Version()) },
	)
	f.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "topology_nodes",
			Help:      "Number of switches and endpoints on the topology.",
		},
		func() float64 { return float64(len(topo.Nodes())) },
	)
}
