// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package host provides utilities for host identification and network interface discovery
package host

import (
	"context"
	"fmt"
	"time"

	gohost "github.com/shirou/gopsutil/v3/host"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/config/environment"
)

// Hostname returns the hostname reported by the kernel under procPath.
// In particular it returns the hostname of the host machine
// when inside a container. An empty procPath falls back to HOST_PROC.
func Hostname(procPath string) (string, error) {
	if procPath == "" {
		procPath = environment.GetHostPaths().Proc
	}
	return hostname(procPath)
}

// Info describes the machine being sampled.
type Info struct {
	Hostname        string
	Platform        string
	PlatformVersion string
	KernelVersion   string
	KernelArch      string
	Virtualization  string
	Uptime          time.Duration
}

// Describe gathers host identification for the startup banner.
// The hostname is taken from Hostname(procPath) so that it names the host, not the container.
func Describe(ctx context.Context, procPath string) (Info, error) {
	stat, err := gohost.InfoWithContext(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("could not read host info: %w", err)
	}

	info := Info{
		Hostname:        stat.Hostname,
		Platform:        stat.Platform,
		PlatformVersion: stat.PlatformVersion,
		KernelVersion:   stat.KernelVersion,
		KernelArch:      stat.KernelArch,
		Virtualization:  stat.VirtualizationSystem,
		Uptime:          time.Duration(stat.Uptime) * time.Second,
	}
	if name, err := Hostname(procPath); err == nil && name != "" {
		info.Hostname = name
	}
	return info, nil
}
