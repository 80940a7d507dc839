// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package performance

import (
	"errors"
	"fmt"
	"path/filepath"
)

// MetricType names a report section; it prefixes the warnings of that section.
type MetricType string

const (
	MetricTypeCPU     MetricType = "cpu"
	MetricTypeDisk    MetricType = "disk"
	MetricTypeNetwork MetricType = "network"
)

// AggregateCPUIndex is the CPUIndex of the summed "cpu" line in /proc/stat.
const AggregateCPUIndex int32 = -1

var (
	// ErrIncompleteSnapshot is returned when a CPU snapshot could not be fully populated.
	ErrIncompleteSnapshot = errors.New("incomplete CPU snapshot")
	// ErrUnsupportedPlatform is returned by readers whose kernel interface is not available.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// CPUStats represents the cumulative CPU time counters from one /proc/stat line.
// All values are in USER_HZ units (typically 1/100th of a second).
type CPUStats struct {
	// CPU identifier (-1 for the aggregate "cpu" line, 0+ for cpu0, cpu1, ...)
	CPUIndex int32 `json:"cpu_index"`
	User     uint64 `json:"user"`
	Nice     uint64 `json:"nice"`
	System   uint64 `json:"system"`
	Idle     uint64 `json:"idle"`
	IOWait   uint64 `json:"iowait"`
	IRQ      uint64 `json:"irq"`
	SoftIRQ  uint64 `json:"softirq"`
}

// Total returns the sum of all seven counters.
func (s CPUStats) Total() uint64 {
	return s.User + s.Nice + s.System + s.Idle + s.IOWait + s.IRQ + s.SoftIRQ
}

// CPUSnapshot holds one CPUStats per slot: slot 0 is the aggregate line and the remaining
// slots are the per-CPU lines in /proc/stat order. Its length is fixed once the CPU count is known.
type CPUSnapshot []CPUStats

// NewCPUSnapshot allocates a snapshot for cpuCount logical CPUs plus the aggregate slot.
func NewCPUSnapshot(cpuCount int) CPUSnapshot {
	if cpuCount < 0 {
		cpuCount = 0
	}
	snap := make(CPUSnapshot, cpuCount+1)
	snap.Reset()
	return snap
}

// Reset zeroes every counter and restores the default slot indices.
// Readers overwrite CPUIndex with the kernel's CPU number.
func (s CPUSnapshot) Reset() {
	for i := range s {
		s[i] = CPUStats{CPUIndex: int32(i) - 1}
	}
}

// CPUCount returns the number of per-CPU slots.
func (s CPUSnapshot) CPUCount() int {
	if len(s) == 0 {
		return 0
	}
	return len(s) - 1
}

// Aggregate returns the summed "cpu" line.
func (s CPUSnapshot) Aggregate() CPUStats {
	if len(s) == 0 {
		return CPUStats{CPUIndex: AggregateCPUIndex}
	}
	return s[0]
}

// PerCPU returns the per-CPU slots in /proc/stat order.
func (s CPUSnapshot) PerCPU() []CPUStats {
	if len(s) == 0 {
		return nil
	}
	return s[1:]
}

// DiskSpace is the capacity of the filesystem holding Path at the time of reading.
type DiskSpace struct {
	Path       string `json:"path"`
	TotalBytes uint64 `json:"total_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
}

// NetworkCounters are the cumulative byte counters of a single interface from /proc/net/dev.
type NetworkCounters struct {
	Interface string `json:"interface"`
	RxBytes   uint64 `json:"rx_bytes"`
	TxBytes   uint64 `json:"tx_bytes"`
}

// CollectionConfig represents configuration for counter collection
type CollectionConfig struct {
	HostProcPath string // Path to /proc (useful for containers)
	DiskPath     string // Mount point whose filesystem capacity is reported
}

// DefaultCollectionConfig returns a default configuration
func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		HostProcPath: "/proc",
		DiskPath:     "/",
	}
}

// ApplyDefaults fills in zero values with defaults
func (c *CollectionConfig) ApplyDefaults() {
	defaults := DefaultCollectionConfig()

	if c.HostProcPath == "" {
		c.HostProcPath = defaults.HostProcPath
	}
	if c.DiskPath == "" {
		c.DiskPath = defaults.DiskPath
	}
}

// ValidateOptions specifies validation requirements for CollectionConfig
type ValidateOptions struct {
	RequireHostProcPath bool
	RequireDiskPath     bool
}

// Validate ensures that all configured paths are absolute paths and that required paths are non-empty.
func (c *CollectionConfig) Validate(opt ValidateOptions) error {
	if opt.RequireHostProcPath && c.HostProcPath == "" {
		return fmt.Errorf("HostProcPath is required but not provided")
	}
	if opt.RequireDiskPath && c.DiskPath == "" {
		return fmt.Errorf("DiskPath is required but not provided")
	}

	if c.HostProcPath != "" && !filepath.IsAbs(c.HostProcPath) {
		return fmt.Errorf("HostProcPath must be an absolute path, got: %q", c.HostProcPath)
	}
	if c.DiskPath != "" && !filepath.IsAbs(c.DiskPath) {
		return fmt.Errorf("DiskPath must be an absolute path, got: %q", c.DiskPath)
	}
	return nil
}
