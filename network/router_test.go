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
	"sync"
	"testing"
	"time"

	"github.com/gopacket/gopacket/layers"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/net/context"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	hostA = "00:00:00:00:00:0a"
	hostB = "00:00:00:00:00:0b"
)

func newRouter(t *testing.T) (*Router, *fakeRuntime) {
	runtime := new(fakeRuntime)
	conf := DefaultConfig()
	conf.Metrics = NewMetrics(prometheus.NewRegistry())
	router, err := NewRouter(runtime, conf)
	require.NoError(t, err)

	return router, runtime
}

// startLine brings up switches {1,2,3} connected in a line: 1:2 <-> 2:1 and 2:2 <-> 3:2.
func startLine(t *testing.T, router *Router) {
	for _, dpid := range []uint64{1, 2, 3} {
		require.NoError(t, router.Handle(NewSwitchJoined(dpid)))
		require.NoError(t, router.Handle(NewSwitchReady(dpid)))
	}
	require.NoError(t, router.Handle(NewLinkDiscovered(1, 2, 2, 1)))
	require.NoError(t, router.Handle(NewLinkDiscovered(2, 2, 3, 2)))
}

func packetIn(t *testing.T, dpid uint64, inPort uint32, src, dst string) Event {
	s, d := mustMAC(t, src), mustMAC(t, dst)
	return NewPacketIn(dpid, inPort, nil, nil, newFrame(t, s, d, layers.EthernetTypeIPv4))
}

func lastPacket(t *testing.T, runtime *fakeRuntime) emittedPacket {
	packets := runtime.emitted()
	require.NotEmpty(t, packets)
	return packets[len(packets)-1]
}

func TestRouterTableMiss(t *testing.T) {
	router, runtime := newRouter(t)
	startLine(t, router)

	rules := runtime.installed()
	require.Len(t, rules, 3)
	for i, r := range rules {
		require.Equal(t, uint64(i+1), r.dpid)
		require.Equal(t, TableMissPriority, r.rule.Priority)
		require.True(t, r.rule.Match.IsWildcard())
		require.Equal(t, SendToController(), r.rule.Action)
	}

	sessions := router.Sessions()
	require.Len(t, sessions, 3)
	for _, s := range sessions {
		require.Equal(t, Active, s.State)
	}
}

func TestRouterLine(t *testing.T) {
	router, runtime := newRouter(t)
	startLine(t, router)
	runtime.reset()

	// A -> B at switch 1: B is not known yet.
	require.NoError(t, router.Handle(packetIn(t, 1, 1, hostA, hostB)))
	require.Equal(t, FloodPorts(), lastPacket(t, runtime).action)
	require.Empty(t, runtime.installed())

	// B -> A at switch 3 learns B.
	require.NoError(t, router.Handle(packetIn(t, 3, 1, hostB, hostA)))
	require.Equal(t, Output(2), lastPacket(t, runtime).action)

	require.NoError(t, router.Handle(packetIn(t, 1, 1, hostA, hostB)))
	require.Equal(t, Output(2), lastPacket(t, runtime).action)
	require.NoError(t, router.Handle(packetIn(t, 2, 1, hostA, hostB)))
	require.Equal(t, Output(2), lastPacket(t, runtime).action)
	require.NoError(t, router.Handle(packetIn(t, 3, 2, hostA, hostB)))
	require.Equal(t, Output(1), lastPacket(t, runtime).action)

	rules := runtime.installed()
	require.Len(t, rules, 4)
	last := rules[len(rules)-1]
	require.Equal(t, uint64(3), last.dpid)
	require.Equal(t, uint32(2), last.rule.Match.InPort)
	require.Equal(t, hostB, last.rule.Match.DstMAC.String())
	require.Equal(t, Output(1), last.rule.Action)
	require.Equal(t, float64(4), testutil.ToFloat64(router.metrics.PacketIn.WithLabelValues("forward")))
	require.Equal(t, float64(1), testutil.ToFloat64(router.metrics.PacketIn.WithLabelValues("flood")))
}

func TestRouterExplicitAddresses(t *testing.T) {
	router, runtime := newRouter(t)
	startLine(t, router)
	runtime.reset()

	a, b := mustMAC(t, hostA), mustMAC(t, hostB)
	// A payload that is too short to be an Ethernet frame.
	require.NoError(t, router.Handle(NewPacketIn(3, 1, b, a, []byte{0x1})))
	dpid, port, ok := router.Topology().Binding(b)
	require.True(t, ok)
	require.Equal(t, uint64(3), dpid)
	require.Equal(t, uint32(1), port)
}

func TestRouterInactiveSession(t *testing.T) {
	router, runtime := newRouter(t)
	require.NoError(t, router.Handle(NewSwitchJoined(1)))

	require.NoError(t, router.Handle(packetIn(t, 1, 1, hostA, hostB)))
	require.Empty(t, runtime.emitted())
	_, _, ok := router.Topology().Binding(mustMAC(t, hostA))
	require.False(t, ok)

	// Unknown switch.
	require.NoError(t, router.Handle(packetIn(t, 9, 1, hostA, hostB)))
	require.Empty(t, runtime.emitted())
	require.Equal(t, float64(2), testutil.ToFloat64(router.metrics.PacketIn.WithLabelValues("drop")))
}

func TestRouterControlFrames(t *testing.T) {
	router, runtime := newRouter(t)
	startLine(t, router)
	runtime.reset()

	a, b := mustMAC(t, hostA), mustMAC(t, hostB)
	lldp := newFrame(t, a, mustMAC(t, "01:80:c2:00:00:0e"), layers.EthernetTypeLinkLayerDiscovery)
	require.NoError(t, router.Handle(NewPacketIn(1, 1, nil, nil, lldp)))
	stp := newFrame(t, a, mustMAC(t, "01:80:c2:00:00:00"), layers.EthernetTypeLLC)
	require.NoError(t, router.Handle(NewPacketIn(1, 1, nil, nil, stp)))
	lldp = newFrame(t, a, b, layers.EthernetTypeLinkLayerDiscovery)
	require.NoError(t, router.Handle(NewPacketIn(1, 1, nil, nil, lldp)))

	require.Empty(t, runtime.emitted())
	require.Empty(t, runtime.installed())
	_, _, ok := router.Topology().Binding(a)
	require.False(t, ok)
}

func TestRouterMalformedEvents(t *testing.T) {
	router, runtime := newRouter(t)
	startLine(t, router)
	runtime.reset()
	version := router.Topology().Version()

	a, b := mustMAC(t, hostA), mustMAC(t, hostB)
	malformed := []Event{
		NewSwitchJoined(0),
		NewLinkDiscovered(1, 0, 2, 1),
		NewLinkDiscovered(1, 3, 0, 1),
		NewLinkDiscovered(1, 3, 1, 4),
		NewPacketIn(1, 0, a, b, newFrame(t, a, b, layers.EthernetTypeIPv4)),
		NewPacketIn(1, 1, a, b, nil),
		NewPacketIn(1, 1, nil, nil, []byte{0x1}),
		NewPacketIn(1, 1, mustMAC(t, "ff:ff:ff:ff:ff:ff"), b, []byte{0x1}),
	}
	negative := -1.0
	ev := NewLinkDiscovered(1, 3, 3, 3)
	ev.Weight = &negative
	malformed = append(malformed, ev)

	for _, ev := range malformed {
		err := router.Handle(ev)
		require.Error(t, err, "event: %v", ev)
		require.True(t, errors.Is(err, ErrMalformedEvent), "event: %v, err: %v", ev, err)
	}
	require.Equal(t, version, router.Topology().Version())
	require.Empty(t, runtime.emitted())
	require.Empty(t, runtime.installed())

	err := router.Handle(Event{Kind: EventKind(100), DPID: 1})
	require.True(t, errors.Is(err, ErrUnknownEvent))
}

func TestRouterTableMissFailure(t *testing.T) {
	router, runtime := newRouter(t)
	runtime.setInstallError(errors.New("disconnected"))

	require.NoError(t, router.Handle(NewSwitchJoined(1)))
	require.Error(t, router.Handle(NewSwitchReady(1)))
	sessions := router.Sessions()
	require.Len(t, sessions, 1)
	require.Equal(t, Joining, sessions[0].State)

	// Packets are ignored until the table-miss rule is installed.
	require.NoError(t, router.Handle(packetIn(t, 1, 1, hostA, hostB)))
	require.Empty(t, runtime.emitted())

	runtime.setInstallError(nil)
	require.NoError(t, router.Handle(NewSwitchReady(1)))
	require.Equal(t, Active, router.Sessions()[0].State)
}

func TestRouterJoinAfterReady(t *testing.T) {
	router, runtime := newRouter(t)
	startLine(t, router)
	runtime.reset()

	// A late join notification of the switch 2 which is already active.
	require.NoError(t, router.Handle(NewSwitchJoined(2)))
	sessions := router.Sessions()
	require.Len(t, sessions, 3)
	for _, s := range sessions {
		require.Equal(t, Active, s.State)
	}
	require.Empty(t, runtime.installed())

	// First packets from the switch are still processed.
	require.NoError(t, router.Handle(packetIn(t, 2, 3, hostA, hostB)))
	require.Equal(t, FloodPorts(), lastPacket(t, runtime).action)
	dpid, port, ok := router.Topology().Binding(mustMAC(t, hostA))
	require.True(t, ok)
	require.Equal(t, uint64(2), dpid)
	require.Equal(t, uint32(3), port)

	// A failed table-miss install still moves the session back to the joining state.
	runtime.setInstallError(errors.New("disconnected"))
	require.Error(t, router.Handle(NewSwitchReady(2)))
	require.Equal(t, Joining, router.Sessions()[1].State)
	runtime.setInstallError(nil)
}

func TestSessionTableJoin(t *testing.T) {
	sessions := newSessionTable()
	require.True(t, sessions.join(1))
	require.False(t, sessions.isActive(1))
	require.True(t, sessions.join(1))

	sessions.activate(1)
	require.False(t, sessions.join(1))
	require.True(t, sessions.isActive(1))

	sessions.deactivate(1)
	require.False(t, sessions.isActive(1))
	require.True(t, sessions.remove(1))
	require.True(t, sessions.join(1))
}

func TestRouterSwitchLeft(t *testing.T) {
	router, runtime := newRouter(t)
	startLine(t, router)
	require.NoError(t, router.Handle(packetIn(t, 3, 1, hostB, hostA)))
	require.NoError(t, router.Handle(packetIn(t, 1, 1, hostA, hostB)))
	runtime.reset()

	require.NoError(t, router.Handle(NewSwitchLeft(1)))
	require.NoError(t, router.Handle(NewSwitchLeft(1)))
	require.Len(t, router.Sessions(), 2)
	require.NoError(t, router.Handle(packetIn(t, 1, 1, hostA, hostB)))
	require.Empty(t, runtime.emitted())

	// The rules are installed again after the reconnection.
	require.NoError(t, router.Handle(NewSwitchJoined(1)))
	require.NoError(t, router.Handle(NewSwitchReady(1)))
	require.NoError(t, router.Handle(packetIn(t, 1, 1, hostA, hostB)))
	require.Len(t, runtime.installed(), 2)
	require.Equal(t, Output(2), lastPacket(t, runtime).action)
}

func TestRouterRun(t *testing.T) {
	router, runtime := newRouter(t)
	events := make(chan Event)
	done := make(chan error, 1)
	go func() {
		done <- router.Run(context.Background(), events)
	}()

	events <- NewSwitchJoined(1)
	// Malformed events do not stop the loop.
	events <- NewSwitchJoined(0)
	events <- NewSwitchReady(1)
	close(events)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run is not finished after closing the event channel")
	}
	require.Len(t, runtime.installed(), 1)
	require.Equal(t, Active, router.Sessions()[0].State)
}

func TestRouterRunCancel(t *testing.T) {
	router, _ := newRouter(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- router.Run(ctx, make(chan Event))
	}()
	cancel()

	select {
	case err := <-done:
		require.Equal(t, context.Canceled, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run is not finished after canceling the context")
	}
}

func TestRouterConcurrent(t *testing.T) {
	router, runtime := newRouter(t)
	startLine(t, router)
	runtime.reset()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if i%2 == 0 {
					router.Handle(packetIn(t, 1, 1, hostA, hostB))
					router.Handle(packetIn(t, 3, 1, hostB, hostA))
				} else {
					router.Handle(NewLinkDiscovered(2, 2, 3, 2))
					router.Handle(NewLinkDiscovered(1, 2, 2, 1))
				}
			}
		}(i)
	}
	wg.Wait()

	require.NoError(t, router.Handle(packetIn(t, 1, 1, hostA, hostB)))
	require.Equal(t, Output(2), lastPacket(t, runtime).action)
	require.NoError(t, router.Handle(packetIn(t, 3, 1, hostB, hostA)))
	require.Equal(t, Output(2), lastPacket(t, runtime).action)
}

func TestRouterFlush(t *testing.T) {
	router, runtime := newRouter(t)
	startLine(t, router)
	require.NoError(t, router.Handle(packetIn(t, 3, 1, hostB, hostA)))
	require.NoError(t, router.Handle(packetIn(t, 1, 1, hostA, hostB)))
	runtime.reset()

	require.NoError(t, router.Handle(packetIn(t, 1, 1, hostA, hostB)))
	require.Empty(t, runtime.installed())

	misses := testutil.ToFloat64(router.metrics.PathCache.WithLabelValues("miss"))
	router.Flush()
	require.NoError(t, router.Handle(packetIn(t, 1, 1, hostA, hostB)))
	require.Len(t, runtime.installed(), 1)
	require.Equal(t, misses+1, testutil.ToFloat64(router.metrics.PathCache.WithLabelValues("miss")))
}
