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
	"fmt"
	slog "log/syslog"
	"runtime"
	"strings"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

// syslogBackend is a go-logging backend that writes records to the local syslog daemon
// with the syslog priority matching the record level.
type syslogBackend struct {
	writer *slog.Writer
}

func newSyslog(tag string) (logging.Backend, error) {
	w, err := slog.New(slog.LOG_DAEMON|slog.LOG_INFO, tag)
	if err != nil {
		return nil, err
	}

	return &syslogBackend{writer: w}, nil
}

func (r *syslogBackend) Log(level logging.Level, calldepth int, record *logging.Record) error {
	line := fmt.Sprintf("%v (goroutine=%v)", record.Formatted(calldepth+1), goroutineID())

	var write func(string) error
	switch level {
	case logging.CRITICAL:
		write = r.writer.Crit
	case logging.ERROR:
		write = r.writer.Err
	case logging.WARNING:
		write = r.writer.Warning
	case logging.NOTICE:
		write = r.writer.Notice
	case logging.INFO:
		write = r.writer.Info
	case logging.DEBUG:
		write = r.writer.Debug
	default:
		return errors.New(fmt.Sprintf("unexpected log level: %v", level))
	}

	return write(line)
}

func goroutineID() string {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))[0]
}
