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

package api

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/superkkt/pathway/network"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type nopRuntime struct{}

func (r nopRuntime) InstallRule(dpid uint64, rule network.Rule) error {
	return nil
}

func (r nopRuntime) EmitPacket(dpid uint64, packet network.Packet, action network.Action) error {
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *network.Router) {
	reg := prometheus.NewRegistry()
	conf := network.DefaultConfig()
	conf.Metrics = network.NewMetrics(reg)
	router, err := network.NewRouter(nopRuntime{}, conf)
	require.NoError(t, err)
	network.RegisterTopology(reg, router.Topology())

	server := &Server{Controller: router, Gatherer: reg}
	handler, err := server.Handler()
	require.NoError(t, err)

	return httptest.NewServer(handler), router
}

type testResponse struct {
	Status  Status          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func get(t *testing.T, url string) testResponse {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var result testResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	return result
}

func TestTopology(t *testing.T) {
	server, router := newTestServer(t)
	defer server.Close()

	topo := router.Topology()
	_, err := topo.AddLink(1, 2, 1, 1)
	require.NoError(t, err)
	mac, _ := net.ParseMAC("00:00:00:00:00:0a")
	_, err = topo.LearnEndpoint(mac, 1, 2)
	require.NoError(t, err)

	resp := get(t, server.URL+"/api/v1/topology")
	require.Equal(t, Status(StatusOkay), resp.Status)
	var result Topology
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	require.Equal(t, topo.Version(), result.Version)
	require.ElementsMatch(t, []string{"dpid:0000000000000001", "dpid:0000000000000002", "mac:00:00:00:00:00:0a"}, result.Nodes)
	require.Len(t, result.Edges, 4)
	require.Contains(t, result.Edges, Edge{From: "dpid:0000000000000001", To: "dpid:0000000000000002", Port: 1, Weight: 1})
	require.Contains(t, result.Edges, Edge{From: "dpid:0000000000000001", To: "mac:00:00:00:00:00:0a", Port: 2, Weight: 0})
}

func TestPath(t *testing.T) {
	server, router := newTestServer(t)
	defer server.Close()

	topo := router.Topology()
	topo.AddLink(1, 2, 2, 1)
	topo.AddLink(2, 3, 2, 2)
	topo.AddSwitch(9)

	resp := get(t, server.URL+"/api/v1/path?src=1&dst=dpid:0000000000000003")
	require.Equal(t, Status(StatusOkay), resp.Status)
	var result Path
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	require.Equal(t, []string{"dpid:0000000000000001", "dpid:0000000000000002", "dpid:0000000000000003"}, result.Nodes)
	require.Equal(t, float64(2), result.Cost)

	resp = get(t, server.URL+"/api/v1/path?src=1&dst=9")
	require.Equal(t, Status(StatusNotFound), resp.Status)

	resp = get(t, server.URL+"/api/v1/path?src=bogus&dst=9")
	require.Equal(t, Status(StatusInvalidParameter), resp.Status)
	resp = get(t, server.URL+"/api/v1/path?src=1")
	require.Equal(t, Status(StatusInvalidParameter), resp.Status)
}

func TestSession(t *testing.T) {
	server, router := newTestServer(t)
	defer server.Close()

	require.NoError(t, router.Handle(network.NewSwitchJoined(2)))
	require.NoError(t, router.Handle(network.NewSwitchJoined(1)))
	require.NoError(t, router.Handle(network.NewSwitchReady(1)))

	resp := get(t, server.URL+"/api/v1/session")
	require.Equal(t, Status(StatusOkay), resp.Status)
	var result []Session
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	require.Len(t, result, 2)
	require.Equal(t, uint64(1), result[0].DPID)
	require.Equal(t, "ACTIVE", result[0].State)
	require.Equal(t, uint64(2), result[1].DPID)
	require.Equal(t, "JOINING", result[1].State)
}

func TestMetrics(t *testing.T) {
	server, router := newTestServer(t)
	defer server.Close()
	router.Topology().AddSwitch(1)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "pathway_topology_version 1"), string(body))
}

func TestInvalidServer(t *testing.T) {
	_, err := new(Server).Handler()
	require.Error(t, err)
}
