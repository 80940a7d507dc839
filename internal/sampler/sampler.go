// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package sampler turns cumulative kernel counters into one report per interval.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/internal/report"
	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/host"
	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/performance"
)

const defaultInterval = time.Second

// ErrNoInterface is returned by New when no interface was given and none has an IPv4 address.
var ErrNoInterface = errors.New("no network interface with an IPv4 address found")

// CPUReader fills CPU snapshots sized for CPUCount logical CPUs.
type CPUReader interface {
	CPUCount() int
	ReadInto(ctx context.Context, snap performance.CPUSnapshot) error
}

// DiskReader reports filesystem capacity.
type DiskReader interface {
	ReadDiskSpace(ctx context.Context) (performance.DiskSpace, error)
}

// NetworkReader reports cumulative interface byte counters.
type NetworkReader interface {
	ReadCounters(ctx context.Context, iface string) (performance.NetworkCounters, bool, error)
}

// Config contains the dependencies and settings of a Sampler.
type Config struct {
	// Interval between samples, defaults to one second
	Interval time.Duration
	// Interface to report; discovered with Interfaces when empty
	Interface string
	// Interfaces lists candidate interfaces, defaults to host.SystemInterfaces
	Interfaces host.InterfaceLister

	CPU       CPUReader
	Disk      DiskReader
	Network   NetworkReader
	Publisher report.Publisher

	// Clock returns the current time, defaults to time.Now
	Clock func() time.Time
}

// Sampler periodically reads counters, computes rates against the previous read and
// publishes a report. It owns its snapshot buffers; Run must not be called concurrently.
type Sampler struct {
	logger    logr.Logger
	interval  time.Duration
	iface     string
	cpu       CPUReader
	disk      DiskReader
	network   NetworkReader
	publisher report.Publisher
	clock     func() time.Time

	state atomic.Int32

	prevCPU performance.CPUSnapshot
	currCPU performance.CPUSnapshot
	haveCPU bool

	prevNet     performance.NetworkCounters
	prevNetTime time.Time
	haveNet     bool

	seq uint64
}

// New validates cfg and resolves the interface to monitor.
func New(logger logr.Logger, cfg Config) (*Sampler, error) {
	if cfg.CPU == nil {
		return nil, fmt.Errorf("cpu reader is required")
	}
	if cfg.Disk == nil {
		return nil, fmt.Errorf("disk reader is required")
	}
	if cfg.Network == nil {
		return nil, fmt.Errorf("network reader is required")
	}
	if cfg.Publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = defaultInterval
	}
	if interval < 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}

	cpuCount := cfg.CPU.CPUCount()
	if cpuCount < 1 {
		return nil, fmt.Errorf("cpu count must be at least 1, got %d", cpuCount)
	}

	logger = logger.WithName("sampler")

	iface := cfg.Interface
	if iface == "" {
		name, ok, err := host.FirstIPv4Interface(cfg.Interfaces)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoInterface, err)
		}
		if !ok {
			return nil, ErrNoInterface
		}
		iface = name
		logger.V(1).Info("Discovered network interface", "interface", iface)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Sampler{
		logger:    logger,
		interval:  interval,
		iface:     iface,
		cpu:       cfg.CPU,
		disk:      cfg.Disk,
		network:   cfg.Network,
		publisher: cfg.Publisher,
		clock:     clock,
		prevCPU:   performance.NewCPUSnapshot(cpuCount),
		currCPU:   performance.NewCPUSnapshot(cpuCount),
	}, nil
}

// Interface returns the name of the monitored network interface.
func (s *Sampler) Interface() string {
	return s.iface
}

// State returns the current lifecycle phase.
func (s *Sampler) State() State {
	return State(s.state.Load())
}

// Run primes the counters, then samples once per interval until ctx is cancelled.
// Read failures are reported and logged without stopping the loop. Cancellation is
// a clean shutdown and returns nil.
func (s *Sampler) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	s.logger.Info("Starting sampler",
		"interval", s.interval,
		"interface", s.iface,
		"cpus", s.prevCPU.CPUCount())

	s.state.Store(int32(StatePriming))
	s.prime(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping sampler", "samples", s.seq)
			return nil
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			s.logger.Info("Stopping sampler", "samples", s.seq)
			return nil
		}

		s.state.Store(int32(StateSampling))
		s.sample(ctx)
	}
}

// prime takes the baseline reads that the first sample is diffed against.
func (s *Sampler) prime(ctx context.Context) {
	now := s.clock()

	if err := s.cpu.ReadInto(ctx, s.prevCPU); err != nil {
		s.logger.Error(err, "Initial CPU read failed")
	} else {
		s.haveCPU = true
	}

	counters, found, err := s.network.ReadCounters(ctx, s.iface)
	switch {
	case err != nil:
		s.logger.Error(err, "Initial network read failed", "interface", s.iface)
	case !found:
		s.logger.Info("Network interface not present", "interface", s.iface)
	default:
		s.prevNet = counters
		s.prevNetTime = now
		s.haveNet = true
	}
}

func (s *Sampler) sample(ctx context.Context) {
	s.seq++
	now := s.clock()

	rep := report.Report{
		Sequence:  s.seq,
		Timestamp: now,
		Interval:  s.interval,
	}
	rep.CPU = s.sampleCPU(ctx, &rep)
	rep.Disk = s.sampleDisk(ctx, &rep)
	rep.Network = s.sampleNetwork(ctx, now, &rep)

	if err := s.publisher.Publish(rep); err != nil {
		if errors.Is(err, report.ErrRouterClosed) {
			s.logger.V(1).Info("Report dropped, router closed", "seq", rep.Sequence)
			return
		}
		s.logger.Error(err, "Failed to publish report", "seq", rep.Sequence)
	}
}

// sampleCPU reads into the spare buffer and swaps it in as the new baseline on success.
// A failed read leaves the previous baseline untouched.
func (s *Sampler) sampleCPU(ctx context.Context, rep *report.Report) *report.CPUReport {
	if err := s.cpu.ReadInto(ctx, s.currCPU); err != nil {
		s.warn(rep, performance.MetricTypeCPU, err)
		return nil
	}

	var result *report.CPUReport
	if s.haveCPU {
		total, perCPU := performance.CPULoadPercents(s.prevCPU, s.currCPU)
		_, reset := performance.CalculateCPUDelta(s.prevCPU.Aggregate(), s.currCPU.Aggregate())
		if reset {
			s.logger.V(1).Info("CPU counter reset detected")
		}
		result = &report.CPUReport{
			TotalPercent:  total,
			PerCPUPercent: perCPU,
			CounterReset:  reset,
		}
	}

	s.prevCPU, s.currCPU = s.currCPU, s.prevCPU
	s.haveCPU = true
	return result
}

func (s *Sampler) sampleDisk(ctx context.Context, rep *report.Report) *report.DiskReport {
	space, err := s.disk.ReadDiskSpace(ctx)
	if err != nil {
		s.warn(rep, performance.MetricTypeDisk, err)
		return nil
	}
	return &report.DiskReport{
		Path:       space.Path,
		TotalBytes: space.TotalBytes,
		FreeBytes:  space.FreeBytes,
	}
}

// sampleNetwork diffs against the last successful read, so a sample after a gap
// reports the average rate across the gap.
func (s *Sampler) sampleNetwork(ctx context.Context, now time.Time, rep *report.Report) *report.NetworkReport {
	counters, found, err := s.network.ReadCounters(ctx, s.iface)
	if err != nil {
		s.warn(rep, performance.MetricTypeNetwork, err)
		return nil
	}
	if !found {
		msg := fmt.Sprintf("%s: interface %q not found", performance.MetricTypeNetwork, s.iface)
		rep.Warnings = append(rep.Warnings, msg)
		s.logger.Info("Network interface not present", "interface", s.iface, "seq", rep.Sequence)
		return nil
	}

	var result *report.NetworkReport
	if s.haveNet {
		elapsed := now.Sub(s.prevNetTime)
		rx, tx := performance.NetworkRate(s.prevNet, counters, elapsed)
		_, reset := performance.CalculateNetworkDelta(s.prevNet, counters)
		if reset {
			s.logger.V(1).Info("Network counter reset detected", "interface", s.iface)
		}
		result = report.NewNetworkReport(s.iface, rx, tx, reset)
	}

	s.prevNet = counters
	s.prevNetTime = now
	s.haveNet = true
	return result
}

// warn records err in the report under its section and logs it.
func (s *Sampler) warn(rep *report.Report, section performance.MetricType, err error) {
	rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: %v", section, err))
	s.logger.Error(err, "Counter read failed", "section", section, "seq", rep.Sequence)
}
