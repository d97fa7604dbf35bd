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
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/superkkt/pathway/api"
	"github.com/superkkt/pathway/bridge"
	"github.com/superkkt/pathway/network"

	"github.com/fsnotify/fsnotify"
	"github.com/op/go-logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"
)

const (
	programName     = "pathway"
	programVersion  = "0.1.0"
	defaultLogLevel = logging.INFO
	logFormat       = `%{level}: %{shortpkg}.%{shortfunc}: %{message}`
	eventQueueSize  = 256
)

var (
	logger            = logging.MustGetLogger("main")
	showVersion       = flag.Bool("version", false, "Show program version and exit")
	logToStderr       = flag.Bool("stderr", false, "Write logs to stderr instead of syslog")
	defaultConfigFile = flag.String("config", fmt.Sprintf("/usr/local/etc/%v.conf", programName), "absolute path of the configuration file")
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())
	flag.Parse()
	if *showVersion {
		fmt.Printf("Version: %v\n", programVersion)
		os.Exit(0)
	}

	conf := NewConfig()
	if err := conf.Read(*defaultConfigFile); err != nil {
		logger.Fatalf("failed to read configurations: %v", err)
	}
	leveled, err := initLog(getLogLevel(conf.LogLevel), *logToStderr)
	if err != nil {
		logger.Fatalf("failed to init log: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	conf.Forwarding.Metrics = network.NewMetrics(reg)

	b, err := bridge.New(conf.Bridge)
	if err != nil {
		logger.Fatalf("failed to create the runtime bridge: %v", err)
	}
	defer b.Close()
	router, err := network.NewRouter(b, conf.Forwarding)
	if err != nil {
		logger.Fatalf("failed to create the event router: %v", err)
	}
	network.RegisterTopology(reg, router.Topology())
	server := &api.Server{
		Port:       conf.RESTPort,
		Controller: router,
		Gatherer:   reg,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignal(cancel, router)

	events := make(chan network.Event, eventQueueSize)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.Run(ctx, events) })
	g.Go(func() error { return ignoreCanceled(router.Run(ctx, events)) })
	g.Go(func() error { return server.Serve(ctx) })
	g.Go(func() error { return watchConfig(ctx, *defaultConfigFile, leveled) })
	if err := g.Wait(); err != nil {
		logger.Fatalf("unexpected termination: %v", err)
	}
	logger.Info("bye")
}

func ignoreCanceled(err error) error {
	if err == context.Canceled {
		return nil
	}

	return err
}

func handleSignal(cancel context.CancelFunc, router *network.Router) {
	c := make(chan os.Signal, 5)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP, syscall.SIGUSR1)

	for s := range c {
		switch s {
		case syscall.SIGTERM, syscall.SIGINT:
			// Graceful shutdown
			logger.Info("Shutting down...")
			cancel()
			return
		case syscall.SIGHUP:
			fmt.Println("* Router status:")
			fmt.Println(router.String())
		case syscall.SIGUSR1:
			router.Flush()
		}
	}
}

func initLog(level logging.Level, stderr bool) (logging.LeveledBackend, error) {
	var backend logging.Backend
	if stderr {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	} else {
		var err error
		backend, err = newSyslog(programName)
		if err != nil {
			return nil, err
		}
	}
	backend = logging.NewBackendFormatter(backend, logging.MustStringFormatter(logFormat))

	leveled := logging.AddModuleLevel(backend)
	// Set log level for all modules
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)

	return leveled, nil
}

// watchConfig re-reads the log level from the config file whenever it is written.
func watchConfig(ctx context.Context, path string, leveled logging.LeveledBackend) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Ignore the other operations to avoid reading an empty config.
			if e.Op&fsnotify.Write == 0 {
				continue
			}
			reloadLogLevel(path, leveled)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Errorf("config watcher error: %v", err)
		}
	}
}

func reloadLogLevel(path string, leveled logging.LeveledBackend) {
	conf := NewConfig()
	if err := conf.Read(path); err != nil {
		logger.Errorf("failed to re-read the config file: %v", err)
		return
	}
	level := getLogLevel(conf.LogLevel)
	// Set log level for all modules
	leveled.SetLevel(level, "")
	logger.Infof("log level is changed to %v", level)
}

func getLogLevel(level string) logging.Level {
	level = strings.ToUpper(level)
	ret, err := logging.LogLevel(level)
	if err != nil {
		logger.Infof("invalid log level=%v, defaulting to %v..", level, defaultLogLevel)
		return defaultLogLevel
	}

	return ret
}
