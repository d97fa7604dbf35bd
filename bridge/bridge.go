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

package bridge

import (
	"fmt"
	"time"

	"github.com/superkkt/pathway/network"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pull"
	"go.nanomsg.org/mangos/v3/protocol/push"
	"golang.org/x/net/context"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"
)

const (
	recvDeadline       = 1 * time.Second
	defaultSendTimeout = 3 * time.Second
)

var (
	logger = logging.MustGetLogger("bridge")
)

type Config struct {
	// Address to listen on for the events from the runtime.
	EventAddr string
	// Address of the runtime that receives the install and emit commands.
	CommandAddr string
	// Zero means the default timeout.
	SendTimeout time.Duration
}

// Bridge connects the forwarding core to an out-of-process switch runtime. Events are
// received on a PULL socket and commands are sent on a PUSH socket, both in JSON.
type Bridge struct {
	events   mangos.Socket
	commands mangos.Socket
}

func New(conf Config) (*Bridge, error) {
	if conf.EventAddr == "" || conf.CommandAddr == "" {
		return nil, errors.New("empty bridge address")
	}
	timeout := conf.SendTimeout
	if timeout == 0 {
		timeout = defaultSendTimeout
	}

	events, err := pull.NewSocket()
	if err != nil {
		return nil, errors.Wrap(err, "creating the event socket")
	}
	if err := events.SetOption(mangos.OptionRecvDeadline, recvDeadline); err != nil {
		events.Close()
		return nil, errors.Wrap(err, "setting the receive deadline")
	}
	if err := events.Listen(conf.EventAddr); err != nil {
		events.Close()
		return nil, errors.Wrap(err, fmt.Sprintf("listening on %v", conf.EventAddr))
	}

	commands, err := push.NewSocket()
	if err != nil {
		events.Close()
		return nil, errors.Wrap(err, "creating the command socket")
	}
	if err := commands.SetOption(mangos.OptionSendDeadline, timeout); err != nil {
		events.Close()
		commands.Close()
		return nil, errors.Wrap(err, "setting the send deadline")
	}
	// The runtime may start later than us.
	opts := map[string]interface{}{mangos.OptionDialAsynch: true}
	if err := commands.DialOptions(conf.CommandAddr, opts); err != nil {
		events.Close()
		commands.Close()
		return nil, errors.Wrap(err, fmt.Sprintf("dialing to %v", conf.CommandAddr))
	}
	logger.Infof("bridge is ready: events=%v, commands=%v", conf.EventAddr, conf.CommandAddr)

	return &Bridge{
		events:   events,
		commands: commands,
	}, nil
}

// Run receives the events from the runtime and sends them to out until ctx is canceled
// or the bridge is closed. out is closed when Run returns. Invalid messages are dropped.
func (r *Bridge) Run(ctx context.Context, out chan<- network.Event) error {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			logger.Info("bridge is finished by the shutdown signal")
			return nil
		default:
		}

		data, err := r.events.Recv()
		if err != nil {
			if err == mangos.ErrRecvTimeout {
				continue
			}
			if err == mangos.ErrClosed {
				return nil
			}
			return errors.Wrap(err, "receiving an event")
		}

		ev, err := decodeEvent(data)
		if err != nil {
			logger.Warningf("dropped an invalid event message: %v", err)
			continue
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			logger.Info("bridge is finished by the shutdown signal")
			return nil
		}
	}
}

func (r *Bridge) InstallRule(dpid uint64, rule network.Rule) error {
	data, err := encodeRule(dpid, rule)
	if err != nil {
		return err
	}
	if err := r.commands.Send(data); err != nil {
		return errors.Wrap(err, "sending an install command")
	}

	return nil
}

func (r *Bridge) EmitPacket(dpid uint64, packet network.Packet, action network.Action) error {
	data, err := encodePacket(dpid, packet, action)
	if err != nil {
		return err
	}
	if err := r.commands.Send(data); err != nil {
		return errors.Wrap(err, "sending an emit command")
	}

	return nil
}

func (r *Bridge) Close() error {
	err1 := r.events.Close()
	err2 := r.commands.Close()
	if err1 != nil {
		return err1
	}

	return err2
}
