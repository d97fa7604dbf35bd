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

	lru "github.com/hashicorp/golang-lru"
)

type pathKey struct {
	src, dst Node
}

type pathEntry struct {
	path Path
	// False if there was no path from the source to the destination.
	found bool
}

// pathCache memoizes resolved paths. An entry is only valid for the topology version
// its path was computed against.
type pathCache struct {
	cache *lru.Cache
}

func newPathCache(size int) *pathCache {
	c, err := lru.New(size)
	if err != nil {
		panic(fmt.Sprintf("failed to init a LRU path cache: %v", err))
	}

	return &pathCache{
		cache: c,
	}
}

// get returns the entry for (src, dst) if it was computed against version. A stale
// entry is removed.
func (r *pathCache) get(src, dst Node, version uint64) (entry pathEntry, ok, stale bool) {
	key := pathKey{src, dst}
	v, ok := r.cache.Get(key)
	if !ok {
		return pathEntry{}, false, false
	}
	entry = v.(pathEntry)

	if entry.path.Version != version {
		r.cache.Remove(key)
		logger.Debugf("removed the stale path cache: src=%v, dst=%v, version=%v, current=%v", src, dst, entry.path.Version, version)
		return pathEntry{}, false, true
	}

	return entry, true, false
}

func (r *pathCache) add(src, dst Node, entry pathEntry) {
	// Update if the key already exists.
	r.cache.Add(pathKey{src, dst}, entry)
}

func (r *pathCache) len() int {
	return r.cache.Len()
}

func (r *pathCache) purge() {
	r.cache.Purge()
	logger.Debug("removed all the path caches")
}
