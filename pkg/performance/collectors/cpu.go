// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/performance"
	"github.com/go-logr/logr"
)

// cpuStatFieldCount is the minimum number of fields of a /proc/stat cpu line:
// name user nice system idle iowait irq softirq
const cpuStatFieldCount = 8

// ErrNoCPUs is returned when /proc/cpuinfo lists no processors.
var ErrNoCPUs = errors.New("no processors found")

// CPUCollector reads cumulative CPU time counters from /proc/stat
//
// It fills a fixed-size performance.CPUSnapshot: slot 0 holds the aggregate "cpu" line
// and the following slots hold the per-CPU lines in the order /proc/stat lists them.
// CPUIndex keeps the kernel's CPU number, which skips offline CPUs. Lines beyond the
// configured count are ignored.
//
// The CPU times are reported in "jiffies" (clock ticks), which can be converted
// to seconds by dividing by the system's USER_HZ value (typically 100).
//
// Reference: https://www.kernel.org/doc/html/latest/filesystems/proc.html#proc-stat
type CPUCollector struct {
	logger   logr.Logger
	statPath string
	cpuCount int
}

func NewCPUCollector(logger logr.Logger, config performance.CollectionConfig, cpuCount int) (*CPUCollector, error) {
	if err := config.Validate(performance.ValidateOptions{RequireHostProcPath: true}); err != nil {
		return nil, err
	}
	if cpuCount < 1 {
		return nil, fmt.Errorf("cpu count must be at least 1, got %d", cpuCount)
	}

	return &CPUCollector{
		logger:   logger.WithName("cpu"),
		statPath: filepath.Join(config.HostProcPath, "stat"),
		cpuCount: cpuCount,
	}, nil
}

// CPUCount returns the number of per-CPU slots this collector fills.
func (c *CPUCollector) CPUCount() int {
	return c.cpuCount
}

// ReadSnapshot allocates a new snapshot and fills it from /proc/stat.
func (c *CPUCollector) ReadSnapshot(ctx context.Context) (performance.CPUSnapshot, error) {
	snap := performance.NewCPUSnapshot(c.cpuCount)
	if err := c.ReadInto(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// ReadInto overwrites snap with the current /proc/stat counters.
//
// snap must have been created with NewCPUSnapshot for this collector's CPU count.
// Malformed lines are skipped; if any slot is left unfilled ErrIncompleteSnapshot is returned.
//
// CPU lines format: cpu user nice system idle iowait irq softirq [steal guest guest_nice]
func (c *CPUCollector) ReadInto(ctx context.Context, snap performance.CPUSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(snap) != c.cpuCount+1 {
		return fmt.Errorf("snapshot has %d slots, want %d", len(snap), c.cpuCount+1)
	}

	file, err := os.Open(c.statPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", c.statPath, err)
	}
	defer file.Close()

	snap.Reset()
	haveAggregate := false
	next := 1 // next per-CPU slot

	scanner := bufio.NewScanner(file)
	for (!haveAggregate || next < len(snap)) && scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// We only care about CPU lines
		if !strings.HasPrefix(line, "cpu") {
			continue
		}

		fields := strings.Fields(line)
		index, ok := cpuLineIndex(fields[0])
		if !ok {
			continue
		}
		aggregate := index == performance.AggregateCPUIndex
		if aggregate && haveAggregate {
			continue
		}
		if !aggregate && next >= len(snap) {
			c.logger.V(2).Info("Ignoring CPU beyond configured count", "cpu", fields[0], "cpuCount", c.cpuCount)
			continue
		}
		if len(fields) < cpuStatFieldCount {
			c.logger.V(2).Info("Skipping short cpu line", "cpu", fields[0], "fields", len(fields))
			continue
		}

		stats, err := parseCPUFields(fields[1:cpuStatFieldCount])
		if err != nil {
			c.logger.V(2).Info("Skipping malformed cpu line", "cpu", fields[0], "error", err)
			continue
		}
		stats.CPUIndex = index

		// Per-CPU lines fill slots in file order; offline CPUs leave gaps in the numbering.
		if aggregate {
			snap[0] = stats
			haveAggregate = true
		} else {
			snap[next] = stats
			next++
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading %s: %w", c.statPath, err)
	}

	missing := len(snap) - next
	if !haveAggregate {
		missing++
	}
	if missing > 0 {
		return fmt.Errorf("%w: %d of %d entries missing from %s (aggregate present: %t, per-cpu lines: %d)",
			performance.ErrIncompleteSnapshot, missing, len(snap), c.statPath, haveAggregate, next-1)
	}

	c.logger.V(2).Info("Collected CPU statistics", "entries", len(snap))
	return nil
}

// cpuLineIndex returns AggregateCPUIndex for "cpu" and N for "cpu<N>". Names like "cpufreq" are rejected.
func cpuLineIndex(name string) (int32, bool) {
	if name == "cpu" {
		return performance.AggregateCPUIndex, true
	}

	numStr := strings.TrimPrefix(name, "cpu")
	if numStr == "" || numStr[0] < '0' || numStr[0] > '9' {
		return 0, false
	}
	num, err := strconv.ParseUint(numStr, 10, 31)
	if err != nil {
		return 0, false
	}
	return int32(num), true
}

func parseCPUFields(fields []string) (performance.CPUStats, error) {
	var values [cpuStatFieldCount - 1]uint64
	for i, field := range fields {
		val, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return performance.CPUStats{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		values[i] = val
	}

	return performance.CPUStats{
		User:    values[0],
		Nice:    values[1],
		System:  values[2],
		Idle:    values[3],
		IOWait:  values[4],
		IRQ:     values[5],
		SoftIRQ: values[6],
	}, nil
}

// CPUCount counts the logical processors listed in /proc/cpuinfo.
//
// Every logical CPU has a "processor : N" stanza; zero matches is an error
// because a snapshot needs at least one per-CPU slot.
func CPUCount(config performance.CollectionConfig) (int, error) {
	if err := config.Validate(performance.ValidateOptions{RequireHostProcPath: true}); err != nil {
		return 0, err
	}

	cpuinfoPath := filepath.Join(config.HostProcPath, "cpuinfo")
	file, err := os.Open(cpuinfoPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", cpuinfoPath, err)
	}
	defer file.Close()

	count := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "processor") {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("error reading %s: %w", cpuinfoPath, err)
	}

	if count == 0 {
		return 0, fmt.Errorf("%w in %s", ErrNoCPUs, cpuinfoPath)
	}
	return count, nil
}
