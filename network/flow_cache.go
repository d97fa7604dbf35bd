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
	"time"

	lru "github.com/hashicorp/golang-lru"
)

type flowKey struct {
	dpid   uint64
	inPort uint32
	dstMAC string
}

type flowEntry struct {
	outPort   uint32
	timestamp time.Time
}

// flowCache remembers the last forwarding rule installed for each (switch, ingress port,
// destination) so that an identical decision does not install the same rule again.
type flowCache struct {
	cache      *lru.Cache
	expiration time.Duration
}

func newFlowCache(size int, expiration time.Duration) *flowCache {
	c, err := lru.New(size)
	if err != nil {
		panic(fmt.Sprintf("failed to init a LRU flow cache: %v", err))
	}

	return &flowCache{
		cache:      c,
		expiration: expiration,
	}
}

func (r *flowCache) key(dpid uint64, inPort uint32, dst net.HardwareAddr) flowKey {
	return flowKey{dpid: dpid, inPort: inPort, dstMAC: dst.String()}
}

func (r *flowCache) Add(dpid uint64, inPort uint32, dst net.HardwareAddr, outPort uint32) {
	key := r.key(dpid, inPort, dst)
	t := time.Now()
	// Update if the key already exists.
	r.cache.Add(key, flowEntry{outPort: outPort, timestamp: t})
	logger.Debugf("added a new flow cache: key=%+v, outPort=%v, timestamp=%v", key, outPort, t)
}

// Installed returns whether the same rule was installed recently.
func (r *flowCache) Installed(dpid uint64, inPort uint32, dst net.HardwareAddr, outPort uint32) bool {
	key := r.key(dpid, inPort, dst)
	v, ok := r.cache.Get(key)
	if !ok {
		return false
	}
	entry := v.(flowEntry)

	// Timeout?
	if time.Since(entry.timestamp) > r.expiration {
		r.cache.Remove(key)
		logger.Debugf("removed the timed-out flow cache: key=%+v", key)
		return false
	}

	return entry.outPort == outPort
}

func (r *flowCache) Remove(dpid uint64, inPort uint32, dst net.HardwareAddr) {
	r.cache.Remove(r.key(dpid, inPort, dst))
}

// RemoveDevice removes all the flow caches of the switch dpid.
func (r *flowCache) RemoveDevice(dpid uint64) {
	for _, k := range r.cache.Keys() {
		if k.(flowKey).dpid != dpid {
			continue
		}
		r.cache.Remove(k)
	}
	logger.Debugf("removed all the flow caches of DPID %v", dpid)
}

func (r *flowCache) RemoveAll() {
	r.cache.Purge()
	logger.Debug("removed all the flow caches")
}
