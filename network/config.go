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
	"time"

	"github.com/superkkt/pathway/graph"

	"github.com/pkg/errors"
)

// Config is the set of options of the forwarding core.
type Config struct {
	// Use edge weights for path costs if true, or hop counts otherwise.
	Weighted bool
	// Weight of a link discovered without an explicit weight.
	DefaultWeight float64
	// Priority of learned forwarding rules. It should be higher than the table-miss priority.
	FlowPriority uint16
	IdleTimeout  uint16
	HardTimeout  uint16
	// Maximum number of memoized paths.
	PathCacheSize int
	// Maximum number of remembered forwarding rules, and how long they are remembered.
	FlowCacheSize    int
	FlowCacheTimeout time.Duration
	// Metrics may be nil.
	Metrics *Metrics
}

func DefaultConfig() Config {
	return Config{
		Weighted:         true,
		DefaultWeight:    graph.DefaultWeight,
		FlowPriority:     1,
		PathCacheSize:    8192,
		FlowCacheSize:    8192,
		FlowCacheTimeout: 5 * time.Second,
	}
}

func (r Config) Validate() error {
	if r.DefaultWeight < 0 {
		return errors.New("negative default weight")
	}
	if r.FlowPriority <= TableMissPriority {
		return errors.New("flow priority should be higher than the table-miss priority")
	}
	if r.PathCacheSize <= 0 {
		return errors.New("invalid path cache size")
	}
	if r.FlowCacheSize <= 0 {
		return errors.New("invalid flow cache size")
	}
	if r.FlowCacheTimeout < 0 {
		return errors.New("negative flow cache timeout")
	}

	return nil
}
