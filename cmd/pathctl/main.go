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
	"io"
	"os"
	"strconv"
	"time"

	"github.com/superkkt/pathway/api"

	"github.com/olekukonko/tablewriter"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

const (
	programName    = "pathctl"
	programVersion = "0.1.0"
)

var (
	logger = logging.MustGetLogger("main")

	showHelp    = flag.Bool("help", false, "show this help and exit")
	showVersion = flag.Bool("version", false, "show program version and exit")
	debug       = flag.Bool("debug", false, "print the REST requests and responses")
	addr        = flag.String("addr", "http://127.0.0.1:7070", "base URL of the pathway API server")
	timeout     = flag.Duration("timeout", 10*time.Second, "timeout of an API request")
)

func main() {
	args := parseCmdLines()
	initLog()

	client, err := api.NewClient(*addr, *timeout)
	if err != nil {
		logger.Fatalf("invalid API address: %v", err)
	}
	if err := run(client, args, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%v: %v\n", programName, err)
		os.Exit(1)
	}
}

// Handle the command-line arguments.
func parseCmdLines() []string {
	flag.Usage = usage
	flag.Parse()
	if *showHelp {
		usage()
		os.Exit(0)
	}
	if *showVersion {
		fmt.Printf("Version: %v\n", programVersion)
		os.Exit(0)
	}
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	return flag.Args()
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %v [options] <command> [args]\n\n", programName)
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  topology          show the nodes and links\n")
	fmt.Fprintf(os.Stderr, "  path <src> <dst>  show the least-cost path between two nodes (DPID or MAC)\n")
	fmt.Fprintf(os.Stderr, "  session           show the switch sessions\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}

func initLog() {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(`%{level}: %{message}`))
	leveled := logging.AddModuleLevel(formatted)
	if *debug {
		leveled.SetLevel(logging.DEBUG, "")
	} else {
		leveled.SetLevel(logging.WARNING, "")
	}
	logging.SetBackend(leveled)
}

// apiClient is the subset of api.Client used by the commands.
type apiClient interface {
	Topology() (*api.Topology, error)
	Path(src, dst string) (*api.Path, error)
	Sessions() ([]api.Session, error)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)

	return table
}

func run(client apiClient, args []string, out io.Writer) error {
	switch args[0] {
	case "topology":
		topo, err := client.Topology()
		if err != nil {
			return errors.Wrap(err, "querying the topology")
		}
		fmt.Fprintf(out, "Version: %v\n\n", topo.Version)
		table := newTable(out, []string{"FROM", "TO", "PORT", "WEIGHT"})
		for _, e := range topo.Edges {
			table.Append([]string{e.From, e.To, strconv.FormatUint(uint64(e.Port), 10), fmt.Sprintf("%v", e.Weight)})
		}
		table.Render()
	case "path":
		if len(args) != 3 {
			return errors.New("usage: path <src> <dst>")
		}
		path, err := client.Path(args[1], args[2])
		if err != nil {
			var statusErr *api.StatusError
			if errors.As(err, &statusErr) && statusErr.Status == api.StatusNotFound {
				fmt.Fprintf(out, "No path from %v to %v\n", args[1], args[2])
				return nil
			}
			return errors.Wrap(err, "querying the path")
		}
		fmt.Fprintf(out, "Version: %v\nCost: %v\n\n", path.Version, path.Cost)
		table := newTable(out, []string{"HOP", "NODE"})
		for i, n := range path.Nodes {
			table.Append([]string{strconv.Itoa(i), n})
		}
		table.Render()
	case "session":
		sessions, err := client.Sessions()
		if err != nil {
			return errors.Wrap(err, "querying the sessions")
		}
		table := newTable(out, []string{"DPID", "STATE", "SINCE"})
		for _, s := range sessions {
			table.Append([]string{strconv.FormatUint(s.DPID, 10), s.State, s.Since.Format(time.RFC3339)})
		}
		table.Render()
	default:
		return errors.New(fmt.Sprintf("unknown command: %v", args[0]))
	}

	return nil
}
