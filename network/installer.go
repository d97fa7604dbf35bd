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

	"github.com/pkg/errors"
)

// Installer turns forwarding decisions into rule installations and packet emissions
// on the switch runtime.
type Installer struct {
	runtime  Runtime
	priority uint16
	idle     uint16
	hard     uint16
	cache    *flowCache
	metrics  *Metrics
}

func NewInstaller(runtime Runtime, conf Config) *Installer {
	if runtime == nil {
		panic("nil runtime")
	}
	metrics := conf.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &Installer{
		runtime:  runtime,
		priority: conf.FlowPriority,
		idle:     conf.IdleTimeout,
		hard:     conf.HardTimeout,
		cache:    newFlowCache(conf.FlowCacheSize, conf.FlowCacheTimeout),
		metrics:  metrics,
	}
}

// InstallAndForward installs a forwarding rule matching (inPort, dst) on the switch dpid
// and emits the packet on the decided port, or just floods the packet. A rule the
// runtime rejects is logged and the packet is still emitted.
func (r *Installer) InstallAndForward(d Decision, dpid uint64, inPort uint32, dst net.HardwareAddr, payload []byte) error {
	packet := Packet{InPort: inPort, Data: payload}

	if d.IsFlood() {
		logger.Debugf("flooding a packet: DPID=%v, inPort=%v, dst=%v", dpid, inPort, dst)
		return r.emit(dpid, packet, FloodPorts())
	}

	if r.cache.Installed(dpid, inPort, dst, d.Port()) {
		logger.Debugf("skip installing the duplicated flow: DPID=%v, inPort=%v, dst=%v, outPort=%v", dpid, inPort, dst, d.Port())
	} else {
		r.install(dpid, inPort, dst, d.Port())
	}

	return r.emit(dpid, packet, Output(d.Port()))
}

func (r *Installer) install(dpid uint64, inPort uint32, dst net.HardwareAddr, outPort uint32) {
	rule := Rule{
		Priority:    r.priority,
		Match:       Match{InPort: inPort, DstMAC: dst},
		Action:      Output(outPort),
		IdleTimeout: r.idle,
		HardTimeout: r.hard,
	}
	r.cache.Add(dpid, inPort, dst, outPort)
	if err := r.runtime.InstallRule(dpid, rule); err != nil {
		r.cache.Remove(dpid, inPort, dst)
		r.metrics.InstallFailures.Inc()
		logger.Errorf("failed to install a flow rule on DPID %v: %v: %v", dpid, rule, err)
		return
	}
	logger.Debugf("installed a new flow rule on DPID %v: %v", dpid, rule)
}

func (r *Installer) emit(dpid uint64, packet Packet, action Action) error {
	if err := r.runtime.EmitPacket(dpid, packet, action); err != nil {
		r.metrics.EmitFailures.Inc()
		return errors.Wrap(err, fmt.Sprintf("emitting a packet on DPID %v (action=%v)", dpid, action))
	}

	return nil
}

// InstallTableMiss installs the default rule that sends unmatched packets to the controller.
func (r *Installer) InstallTableMiss(dpid uint64) error {
	rule := Rule{
		Priority: TableMissPriority,
		Match:    Match{},
		Action:   SendToController(),
	}
	if err := r.runtime.InstallRule(dpid, rule); err != nil {
		r.metrics.InstallFailures.Inc()
		return errors.Wrap(err, fmt.Sprintf("installing the table-miss rule on DPID %v", dpid))
	}
	logger.Debugf("installed the table-miss rule on DPID %v", dpid)

	return nil
}

// Forget drops the installation history of the switch dpid. The rules on a switch that
// reconnects should be installed again.
func (r *Installer) Forget(dpid uint64) {
	r.cache.RemoveDevice(dpid)
}

// Purge drops the installation history of all the switches.
func (r *Installer) Purge() {
	r.cache.RemoveAll()
}
