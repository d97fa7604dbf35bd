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
	"sort"
	"sync"
	"time"
)

type SessionState uint8

const (
	// The switch is registered, but its table-miss rule is not installed yet.
	Joining SessionState = iota
	// The table-miss rule is installed. First packets from the switch are processed.
	Active
)

func (r SessionState) String() string {
	if r == Active {
		return "ACTIVE"
	}

	return "JOINING"
}

// Session is the state of a switch connected to the runtime.
type Session struct {
	DPID  uint64
	State SessionState
	// When the session entered the current state.
	Since time.Time
}

type sessionTable struct {
	mutex sync.RWMutex
	// Key is the DPID.
	sessions map[uint64]*Session
}

func newSessionTable() *sessionTable {
	return &sessionTable{
		sessions: make(map[uint64]*Session),
	}
}

// join starts the session of dpid in the Joining state. An active session is left as it
// is, and then started is false.
func (r *sessionTable) join(dpid uint64) (started bool) {
	// Write lock
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if s, ok := r.sessions[dpid]; ok && s.State == Active {
		return false
	}
	r.sessions[dpid] = &Session{DPID: dpid, State: Joining, Since: time.Now()}

	return true
}

// deactivate moves the session of dpid back to the Joining state.
func (r *sessionTable) deactivate(dpid uint64) {
	// Write lock
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.sessions[dpid] = &Session{DPID: dpid, State: Joining, Since: time.Now()}
}

func (r *sessionTable) activate(dpid uint64) {
	// Write lock
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.sessions[dpid] = &Session{DPID: dpid, State: Active, Since: time.Now()}
}

func (r *sessionTable) remove(dpid uint64) (ok bool) {
	// Write lock
	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, ok = r.sessions[dpid]
	delete(r.sessions, dpid)

	return ok
}

func (r *sessionTable) isActive(dpid uint64) bool {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	s, ok := r.sessions[dpid]
	return ok && s.State == Active
}

// all returns a copy of the sessions sorted by DPID.
func (r *sessionTable) all() []Session {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DPID < result[j].DPID })

	return result
}
