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
	"net"
	"sync"
	"testing"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
)

type installedRule struct {
	dpid uint64
	rule Rule
}

type emittedPacket struct {
	dpid   uint64
	packet Packet
	action Action
}

// fakeRuntime records every request from the forwarding core.
type fakeRuntime struct {
	mutex      sync.Mutex
	rules      []installedRule
	packets    []emittedPacket
	installErr error
	emitErr    error
}

func (r *fakeRuntime) InstallRule(dpid uint64, rule Rule) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.installErr != nil {
		return r.installErr
	}
	r.rules = append(r.rules, installedRule{dpid, rule})

	return nil
}

func (r *fakeRuntime) EmitPacket(dpid uint64, packet Packet, action Action) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.emitErr != nil {
		return r.emitErr
	}
	r.packets = append(r.packets, emittedPacket{dpid, packet, action})

	return nil
}

func (r *fakeRuntime) setInstallError(err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.installErr = err
}

func (r *fakeRuntime) installed() []installedRule {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]installedRule(nil), r.rules...)
}

func (r *fakeRuntime) emitted() []emittedPacket {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]emittedPacket(nil), r.packets...)
}

func (r *fakeRuntime) reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.rules = nil
	r.packets = nil
}

func mustMAC(t testing.TB, s string) net.HardwareAddr {
	mac, err := net.ParseMAC(s)
	if err != nil {
		t.Fatal(err)
	}

	return mac
}

// newFrame returns an Ethernet frame from src to dst.
func newFrame(t testing.TB, src, dst net.HardwareAddr, ethertype layers.EthernetType) []byte {
	eth := &layers.Ethernet{
		SrcMAC:       src,
		DstMAC:       dst,
		EthernetType: ethertype,
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, gopacket.Payload([]byte("hello"))); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}
