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
	"time"

	"github.com/superkkt/pathway/network"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/pkg/errors"
)

type Edge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Port   uint32  `json:"port"`
	Weight float64 `json:"weight"`
}

type Topology struct {
	Version uint64   `json:"version"`
	Nodes   []string `json:"nodes"`
	Edges   []Edge   `json:"edges"`
}

func (r *Server) topology(w rest.ResponseWriter, req *rest.Request) {
	topo := r.Controller.Topology()

	result := Topology{
		Version: topo.Version(),
		Nodes:   []string{},
		Edges:   []Edge{},
	}
	for _, v := range topo.Nodes() {
		result.Nodes = append(result.Nodes, v.ID())
	}
	for _, v := range topo.Edges() {
		result.Edges = append(result.Edges, Edge{
			From:   v.From.ID(),
			To:     v.To.ID(),
			Port:   v.Port,
			Weight: v.Weight,
		})
	}

	w.WriteJson(Response{Status: StatusOkay, Data: result})
}

type Path struct {
	Version uint64   `json:"version"`
	Cost    float64  `json:"cost"`
	Nodes   []string `json:"nodes"`
}

func (r *Server) path(w rest.ResponseWriter, req *rest.Request) {
	query := req.URL.Query()
	src, err := network.ParseNode(query.Get("src"))
	if err != nil {
		w.WriteJson(Response{Status: StatusInvalidParameter, Message: "invalid source: " + err.Error()})
		return
	}
	dst, err := network.ParseNode(query.Get("dst"))
	if err != nil {
		w.WriteJson(Response{Status: StatusInvalidParameter, Message: "invalid destination: " + err.Error()})
		return
	}
	logger.Debugf("path request from %v: src=%v, dst=%v", req.RemoteAddr, src, dst)

	p, err := r.Controller.Resolver().Resolve(src, dst)
	if err != nil {
		if errors.Is(err, network.ErrNoPath) {
			w.WriteJson(Response{Status: StatusNotFound, Message: err.Error()})
			return
		}
		logger.Errorf("failed to resolve a path: %v", err)
		w.WriteJson(Response{Status: StatusInternalServerError, Message: err.Error()})
		return
	}

	result := Path{Version: p.Version, Cost: p.Cost, Nodes: []string{}}
	for _, v := range p.Nodes {
		result.Nodes = append(result.Nodes, v.ID())
	}
	w.WriteJson(Response{Status: StatusOkay, Data: result})
}

type Session struct {
	DPID  uint64    `json:"dpid"`
	State string    `json:"state"`
	Since time.Time `json:"since"`
}

func (r *Server) session(w rest.ResponseWriter, req *rest.Request) {
	result := []Session{}
	for _, v := range r.Controller.Sessions() {
		result = append(result, Session{DPID: v.DPID, State: v.State.String(), Since: v.Since})
	}

	w.WriteJson(Response{Status: StatusOkay, Data: result})
}
