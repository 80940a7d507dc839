// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

import (
	"time"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/performance"
)

// Report is the result of one sampling interval.
//
// A nil section means it could not be produced this interval; the reason is
// recorded in Warnings. The first interval after a failed read has no CPU or
// network section because there is no previous snapshot to diff against.
type Report struct {
	Sequence  uint64         `json:"seq"`
	Timestamp time.Time      `json:"timestamp"`
	Interval  time.Duration  `json:"interval_ns"`
	CPU       *CPUReport     `json:"cpu,omitempty"`
	Disk      *DiskReport    `json:"disk,omitempty"`
	Network   *NetworkReport `json:"network,omitempty"`
	Warnings  []string       `json:"warnings,omitempty"`
}

// CPUReport holds busy percentages over the interval.
type CPUReport struct {
	TotalPercent  float64   `json:"total_percent"`
	PerCPUPercent []float64 `json:"per_cpu_percent"`
	CounterReset  bool      `json:"counter_reset,omitempty"`
}

// DiskReport holds the filesystem capacity at the end of the interval.
type DiskReport struct {
	Path       string `json:"path"`
	TotalBytes uint64 `json:"total_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
}

// TotalGB returns the total capacity in binary gigabytes.
func (d DiskReport) TotalGB() float64 {
	return performance.BytesToGB(d.TotalBytes)
}

// FreeGB returns the free capacity in binary gigabytes.
func (d DiskReport) FreeGB() float64 {
	return performance.BytesToGB(d.FreeBytes)
}

// NetworkReport holds interface throughput over the interval.
type NetworkReport struct {
	Interface     string  `json:"interface"`
	RxBytesPerSec float64 `json:"rx_bytes_per_sec"`
	TxBytesPerSec float64 `json:"tx_bytes_per_sec"`
	RxMbps        float64 `json:"rx_mbps"`
	TxMbps        float64 `json:"tx_mbps"`
	CounterReset  bool    `json:"counter_reset,omitempty"`
}

// NewNetworkReport builds a NetworkReport from byte rates.
func NewNetworkReport(iface string, rxBytesPerSec, txBytesPerSec float64, reset bool) *NetworkReport {
	return &NetworkReport{
		Interface:     iface,
		RxBytesPerSec: rxBytesPerSec,
		TxBytesPerSec: txBytesPerSec,
		RxMbps:        performance.BytesPerSecToMbps(rxBytesPerSec),
		TxMbps:        performance.BytesPerSecToMbps(txBytesPerSec),
		CounterReset:  reset,
	}
}
