// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package config

import (
	"flag"
	"strings"
)

const (
	flagInterval       = "interval"
	flagInterface      = "interface"
	flagFormat         = "format"
	flagProcPath       = "proc-path"
	flagDiskPath       = "disk-path"
	flagListen         = "listen"
	flagAllowedOrigins = "allowed-origins"
	flagVerbose        = "verbose"
	flagConfig         = "config"
)

// BindFlags registers every option on fs, using the current field values as defaults.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.DurationVar(&c.Interval, flagInterval, c.Interval,
		"Sampling interval")
	fs.StringVar(&c.Interface, flagInterface, c.Interface,
		"Network interface to report. Empty selects the first interface with an IPv4 address")
	fs.StringVar((*string)(&c.Format), flagFormat, string(c.Format),
		"Output format: 'text' or 'json'")
	fs.StringVar(&c.ProcPath, flagProcPath, c.ProcPath,
		"Path to the proc filesystem (e.g. /host/proc in a container)")
	fs.StringVar(&c.DiskPath, flagDiskPath, c.DiskPath,
		"Mount point whose filesystem capacity is reported")
	fs.StringVar(&c.ListenAddr, flagListen, c.ListenAddr,
		"Address to serve the websocket report stream on. Empty disables it")
	fs.Var((*stringList)(&c.AllowedOrigins), flagAllowedOrigins,
		"Comma-separated Origin values accepted by the websocket stream")
	fs.BoolVar(&c.Verbose, flagVerbose, c.Verbose,
		"Enable verbose logging")
	fs.StringVar(&c.ConfigFile, flagConfig, c.ConfigFile,
		"Path to a YAML configuration file")
}

// applyFlags copies the options explicitly set on the command line from flagged.
func (c *Config) applyFlags(flagged Config, set map[string]bool) {
	if set[flagInterval] {
		c.Interval = flagged.Interval
	}
	if set[flagInterface] {
		c.Interface = flagged.Interface
	}
	if set[flagFormat] {
		c.Format = flagged.Format
	}
	if set[flagProcPath] {
		c.ProcPath = flagged.ProcPath
	}
	if set[flagDiskPath] {
		c.DiskPath = flagged.DiskPath
	}
	if set[flagListen] {
		c.ListenAddr = flagged.ListenAddr
	}
	if set[flagAllowedOrigins] {
		c.AllowedOrigins = flagged.AllowedOrigins
	}
	if set[flagVerbose] {
		c.Verbose = flagged.Verbose
	}
}

type stringList []string

func (l *stringList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = splitList(v)
	return nil
}
