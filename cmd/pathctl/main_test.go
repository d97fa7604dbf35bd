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

package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/superkkt/pathway/api"

	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	topo     *api.Topology
	path     *api.Path
	sessions []api.Session
	err      error
}

func (r *fakeClient) Topology() (*api.Topology, error) {
	return r.topo, r.err
}

func (r *fakeClient) Path(src, dst string) (*api.Path, error) {
	return r.path, r.err
}

func (r *fakeClient) Sessions() ([]api.Session, error) {
	return r.sessions, r.err
}

// hasRow returns whether out has a line whose fields are exactly fields.
func hasRow(out string, fields ...string) bool {
	for _, line := range strings.Split(out, "\n") {
		f := strings.Fields(line)
		if len(f) != len(fields) {
			continue
		}
		match := true
		for i := range f {
			if f[i] != fields[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}

	return false
}

func TestRunTopology(t *testing.T) {
	client := &fakeClient{
		topo: &api.Topology{
			Version: 3,
			Nodes:   []string{"dpid:0000000000000001", "dpid:0000000000000002"},
			Edges:   []api.Edge{{From: "dpid:0000000000000001", To: "dpid:0000000000000002", Port: 2, Weight: 1}},
		},
	}
	out := new(bytes.Buffer)
	require.NoError(t, run(client, []string{"topology"}, out))
	require.Contains(t, out.String(), "Version: 3")
	require.True(t, hasRow(out.String(), "FROM", "TO", "PORT", "WEIGHT"), out.String())
	require.True(t, hasRow(out.String(), "dpid:0000000000000001", "dpid:0000000000000002", "2", "1"), out.String())
}

func TestRunPath(t *testing.T) {
	client := &fakeClient{path: &api.Path{Version: 1, Cost: 2, Nodes: []string{"a", "b", "c"}}}
	out := new(bytes.Buffer)
	require.NoError(t, run(client, []string{"path", "a", "c"}, out))
	require.Contains(t, out.String(), "Cost: 2")
	require.True(t, hasRow(out.String(), "2", "c"), out.String())

	require.Error(t, run(client, []string{"path", "a"}, out))

	client = &fakeClient{err: &api.StatusError{Status: api.StatusNotFound}}
	out.Reset()
	require.NoError(t, run(client, []string{"path", "a", "c"}, out))
	require.Contains(t, out.String(), "No path from a to c")

	client = &fakeClient{err: errors.New("connection refused")}
	require.Error(t, run(client, []string{"path", "a", "c"}, out))
}

func TestRunSession(t *testing.T) {
	since := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	client := &fakeClient{sessions: []api.Session{{DPID: 1, State: "ACTIVE", Since: since}}}
	out := new(bytes.Buffer)
	require.NoError(t, run(client, []string{"session"}, out))
	require.True(t, hasRow(out.String(), "1", "ACTIVE", "2024-01-02T03:04:05Z"), out.String())

	require.Error(t, run(client, []string{"bogus"}, out))
}
