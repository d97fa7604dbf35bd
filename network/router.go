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

	"github.com/davecgh/go-spew/spew"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"golang.org/x/net/context"
)

var (
	logger = logging.MustGetLogger("network")
)

var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrUnknownEvent   = errors.New("unknown event kind")
)

type handlerFunc func(Event) error

// Router is the entry point of the events from the switch runtime. It dispatches each
// event to the handler registered for its kind. Router is safe for concurrent use.
type Router struct {
	topo      *Topology
	resolver  *Resolver
	planner   *Planner
	installer *Installer
	sessions  *sessionTable
	metrics   *Metrics
	handlers  map[EventKind]handlerFunc
}

func NewRouter(runtime Runtime, conf Config) (*Router, error) {
	if runtime == nil {
		panic("nil runtime")
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	if conf.Metrics == nil {
		conf.Metrics = NewMetrics(nil)
	}

	topo := NewTopology(conf.DefaultWeight)
	resolver := NewResolver(topo, conf.Weighted, conf.PathCacheSize, conf.Metrics)
	v := &Router{
		topo:      topo,
		resolver:  resolver,
		planner:   NewPlanner(topo, resolver),
		installer: NewInstaller(runtime, conf),
		sessions:  newSessionTable(),
		metrics:   conf.Metrics,
	}
	v.handlers = map[EventKind]handlerFunc{
		SwitchJoined:   v.onSwitchJoined,
		SwitchReady:    v.onSwitchReady,
		SwitchLeft:     v.onSwitchLeft,
		LinkDiscovered: v.onLinkDiscovered,
		PacketIn:       v.onPacketIn,
	}

	return v, nil
}

func (r *Router) Topology() *Topology {
	return r.topo
}

func (r *Router) Resolver() *Resolver {
	return r.resolver
}

// Sessions returns the sessions of all the known switches sorted by DPID.
func (r *Router) Sessions() []Session {
	return r.sessions.all()
}

// Flush drops the memoized paths and the installation history. Subsequent first packets
// resolve their paths again and reinstall their rules.
func (r *Router) Flush() {
	r.resolver.Invalidate()
	r.installer.Purge()
	logger.Info("flushed the path and flow caches")
}

func (r *Router) String() string {
	return fmt.Sprintf("Sessions: %v\nCached paths: %v\n%v", r.sessions.all(), r.resolver.cache.len(), r.topo)
}

// Handle processes ev to completion. The returned error describes why ev is dropped or
// partially processed; it never leaves the router in an inconsistent state.
func (r *Router) Handle(ev Event) error {
	if logger.IsEnabledFor(logging.DEBUG) {
		logger.Debugf("dispatching an event: %v", spew.Sdump(ev))
	}

	handler, ok := r.handlers[ev.Kind]
	if !ok {
		r.metrics.Events.WithLabelValues(ev.Kind.String(), "error").Inc()
		return errors.Wrap(ErrUnknownEvent, ev.Kind.String())
	}
	if ev.DPID == 0 {
		r.metrics.Events.WithLabelValues(ev.Kind.String(), "malformed").Inc()
		return errors.Wrap(ErrMalformedEvent, fmt.Sprintf("%v: zero DPID", ev.Kind))
	}

	err := handler(ev)
	switch {
	case err == nil:
		r.metrics.Events.WithLabelValues(ev.Kind.String(), "ok").Inc()
	case errors.Is(err, ErrMalformedEvent):
		r.metrics.Events.WithLabelValues(ev.Kind.String(), "malformed").Inc()
	default:
		r.metrics.Events.WithLabelValues(ev.Kind.String(), "error").Inc()
	}

	return err
}

// Run is the dispatch loop. It handles the events from the channel one by one until ctx
// is canceled or the channel is closed. A failed event is logged and does not stop the loop.
func (r *Router) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			logger.Info("event router is finished by the shutdown signal")
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				logger.Info("event channel is closed")
				return nil
			}
			if err := r.Handle(ev); err != nil {
				if errors.Is(err, ErrMalformedEvent) {
					logger.Warningf("dropped an event: %v: %v", ev, err)
				} else {
					logger.Errorf("failed to handle an event: %v: %v", ev, err)
				}
			}
		}
	}
}

func (r *Router) onSwitchJoined(ev Event) error {
	logger.Infof("switch joined: DPID=%v", ev.DPID)

	r.topo.AddSwitch(ev.DPID)
	// The switch may have lost its rules if this is a reconnection.
	r.installer.Forget(ev.DPID)
	if !r.sessions.join(ev.DPID) {
		logger.Debugf("ignoring the join of an active switch: DPID=%v", ev.DPID)
	}

	return nil
}

func (r *Router) onSwitchReady(ev Event) error {
	logger.Infof("switch is ready: DPID=%v", ev.DPID)

	r.topo.AddSwitch(ev.DPID)
	if err := r.installer.InstallTableMiss(ev.DPID); err != nil {
		// Stay in the joining state until the runtime notifies us again.
		r.sessions.deactivate(ev.DPID)
		return err
	}
	r.sessions.activate(ev.DPID)

	return nil
}

func (r *Router) onSwitchLeft(ev Event) error {
	logger.Infof("switch left: DPID=%v", ev.DPID)

	if !r.sessions.remove(ev.DPID) {
		logger.Debugf("ignoring the leave of an unknown switch: DPID=%v", ev.DPID)
	}
	r.installer.Forget(ev.DPID)

	return nil
}

func (r *Router) onLinkDiscovered(ev Event) error {
	if ev.PeerDPID == 0 || ev.Port == 0 || ev.PeerPort == 0 {
		return errors.Wrap(ErrMalformedEvent, fmt.Sprintf("invalid link: %v", ev))
	}

	var err error
	if ev.Weight != nil {
		_, err = r.topo.AddWeightedLink(ev.DPID, ev.PeerDPID, ev.Port, ev.PeerPort, *ev.Weight)
	} else {
		_, err = r.topo.AddLink(ev.DPID, ev.PeerDPID, ev.Port, ev.PeerPort)
	}
	if err != nil {
		return errors.Wrap(ErrMalformedEvent, err.Error())
	}

	return nil
}

func (r *Router) onPacketIn(ev Event) error {
	if !r.sessions.isActive(ev.DPID) {
		logger.Debugf("ignoring PACKET_IN from inactive switch: DPID=%v", ev.DPID)
		r.metrics.PacketIn.WithLabelValues("drop").Inc()
		return nil
	}
	if ev.InPort == 0 || len(ev.Payload) == 0 {
		return errors.Wrap(ErrMalformedEvent, fmt.Sprintf("missing ingress port or payload: %v", ev))
	}

	src, dst := ev.SrcMAC, ev.DstMAC
	if f, ok := decodeFrame(ev.Payload); ok {
		if isControlFrame(f) {
			logger.Debugf("ignoring a control frame: DPID=%v, ethertype=%v, dst=%v", ev.DPID, f.ethertype, f.dst)
			r.metrics.PacketIn.WithLabelValues("drop").Inc()
			return nil
		}
		if src == nil {
			src = f.src
		}
		if dst == nil {
			dst = f.dst
		}
	}
	if len(dst) != 6 || !validEndpoint(src) {
		return errors.Wrap(ErrMalformedEvent, fmt.Sprintf("invalid addresses: src=%v, dst=%v", src, dst))
	}
	if isLinkLocal(dst) {
		r.metrics.PacketIn.WithLabelValues("drop").Inc()
		return nil
	}

	decision, err := r.planner.Plan(ev.DPID, src, dst, ev.InPort)
	if err != nil {
		// Still deliver this packet by flooding.
		logger.Errorf("failed to plan a forwarding decision: %v", err)
		decision = Flood()
	}
	logger.Debugf("forwarding decision: DPID=%v, src=%v, dst=%v, inPort=%v, decision=%v", ev.DPID, src, dst, ev.InPort, decision)

	if decision.IsFlood() {
		r.metrics.PacketIn.WithLabelValues("flood").Inc()
	} else {
		r.metrics.PacketIn.WithLabelValues("forward").Inc()
	}

	return r.installer.InstallAndForward(decision, ev.DPID, ev.InPort, dst, ev.Payload)
}
