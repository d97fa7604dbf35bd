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
	"strconv"
	"time"

	"github.com/superkkt/pathway/bridge"
	"github.com/superkkt/pathway/network"

	"github.com/dlintw/goconf"
	"github.com/pkg/errors"
)

const (
	defaultRESTPort    = 7070
	defaultEventAddr   = "tcp://0.0.0.0:7171"
	defaultCommandAddr = "tcp://127.0.0.1:7172"
)

type Config struct {
	conf       *goconf.ConfigFile
	LogLevel   string
	Forwarding network.Config
	RESTPort   uint16
	Bridge     bridge.Config
}

func NewConfig() *Config {
	return &Config{
		LogLevel:   defaultLogLevel.String(),
		Forwarding: network.DefaultConfig(),
		RESTPort:   defaultRESTPort,
		Bridge: bridge.Config{
			EventAddr:   defaultEventAddr,
			CommandAddr: defaultCommandAddr,
		},
	}
}

func (c *Config) Read(path string) error {
	conf, err := goconf.ReadConfigFile(path)
	if err != nil {
		return err
	}
	c.conf = conf

	if err := c.readDefaultConfig(conf); err != nil {
		return err
	}
	if err := c.readForwardingConfig(conf); err != nil {
		return err
	}
	if err := c.readRESTConfig(conf); err != nil {
		return err
	}
	if err := c.readBridgeConfig(conf); err != nil {
		return err
	}

	return c.Forwarding.Validate()
}

func (c *Config) RawConfig() *goconf.ConfigFile {
	return c.conf
}

func (c *Config) readDefaultConfig(conf *goconf.ConfigFile) error {
	if !conf.HasOption("default", "log_level") {
		return nil
	}
	level, err := conf.GetString("default", "log_level")
	if err != nil || len(level) == 0 {
		return errors.New("invalid log_level config")
	}
	c.LogLevel = level

	return nil
}

func readInt(conf *goconf.ConfigFile, section, option string, min, max int) (v int, ok bool, err error) {
	if !conf.HasOption(section, option) {
		return 0, false, nil
	}
	v, err = conf.GetInt(section, option)
	if err != nil || v < min || v > max {
		return 0, false, errors.New(fmt.Sprintf("invalid %v config", option))
	}

	return v, true, nil
}

func (c *Config) readForwardingConfig(conf *goconf.ConfigFile) error {
	const section = "forwarding"
	f := &c.Forwarding

	if conf.HasOption(section, "weighted") {
		v, err := conf.GetBool(section, "weighted")
		if err != nil {
			return errors.New("invalid weighted config")
		}
		f.Weighted = v
	}
	if conf.HasOption(section, "default_weight") {
		s, err := conf.GetString(section, "default_weight")
		if err != nil {
			return errors.New("invalid default_weight config")
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			return errors.New("invalid default_weight config")
		}
		f.DefaultWeight = v
	}

	uint16Options := []struct {
		name string
		min  int
		dst  *uint16
	}{
		{"flow_priority", 1, &f.FlowPriority},
		{"idle_timeout", 0, &f.IdleTimeout},
		{"hard_timeout", 0, &f.HardTimeout},
	}
	for _, o := range uint16Options {
		v, ok, err := readInt(conf, section, o.name, o.min, 0xFFFF)
		if err != nil {
			return err
		}
		if ok {
			*o.dst = uint16(v)
		}
	}

	sizeOptions := []struct {
		name string
		dst  *int
	}{
		{"path_cache_size", &f.PathCacheSize},
		{"flow_cache_size", &f.FlowCacheSize},
	}
	for _, o := range sizeOptions {
		v, ok, err := readInt(conf, section, o.name, 1, 1<<24)
		if err != nil {
			return err
		}
		if ok {
			*o.dst = v
		}
	}

	v, ok, err := readInt(conf, section, "flow_cache_timeout", 0, 3600)
	if err != nil {
		return err
	}
	if ok {
		f.FlowCacheTimeout = time.Duration(v) * time.Second
	}

	return nil
}

func (c *Config) readRESTConfig(conf *goconf.ConfigFile) error {
	port, ok, err := readInt(conf, "rest", "port", 1, 0xFFFF)
	if err != nil {
		return err
	}
	if ok {
		c.RESTPort = uint16(port)
	}

	return nil
}

func (c *Config) readBridgeConfig(conf *goconf.ConfigFile) error {
	options := []struct {
		name string
		dst  *string
	}{
		{"event_addr", &c.Bridge.EventAddr},
		{"command_addr", &c.Bridge.CommandAddr},
	}
	for _, o := range options {
		if !conf.HasOption("bridge", o.name) {
			continue
		}
		v, err := conf.GetString("bridge", o.name)
		if err != nil || len(v) == 0 {
			return errors.New(fmt.Sprintf("invalid %v config", o.name))
		}
		*o.dst = v
	}

	return nil
}
