// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/performance"
	"github.com/go-logr/logr"
)

const (
	// netDevHeaderLines is the number of header lines at the top of /proc/net/dev
	netDevHeaderLines = 2

	netDevRxBytesField = 0
	netDevTxBytesField = 8
)

// NetworkCollector reads cumulative interface byte counters from /proc/net/dev
//
// /proc/net/dev format (after two header lines):
//
//	eth0: rx_bytes rx_packets rx_errs rx_drop rx_fifo rx_frame rx_compressed rx_multicast
//	      tx_bytes tx_packets tx_errs tx_drop tx_fifo tx_colls tx_carrier tx_compressed
//
// Reference: https://www.kernel.org/doc/html/latest/networking/statistics.html
type NetworkCollector struct {
	logger         logr.Logger
	procNetDevPath string
}

func NewNetworkCollector(logger logr.Logger, config performance.CollectionConfig) (*NetworkCollector, error) {
	if err := config.Validate(performance.ValidateOptions{RequireHostProcPath: true}); err != nil {
		return nil, err
	}

	return &NetworkCollector{
		logger:         logger.WithName("network"),
		procNetDevPath: filepath.Join(config.HostProcPath, "net", "dev"),
	}, nil
}

// ReadCounters returns the RX and TX byte counters of iface.
//
// found is false when no line matches iface exactly; this is not an error so that
// callers can treat a vanished interface as a skipped sample.
// Malformed lines in /proc/net/dev are skipped with logging.
func (c *NetworkCollector) ReadCounters(ctx context.Context, iface string) (counters performance.NetworkCounters, found bool, err error) {
	if err := ctx.Err(); err != nil {
		return performance.NetworkCounters{}, false, err
	}

	file, err := os.Open(c.procNetDevPath)
	if err != nil {
		return performance.NetworkCounters{}, false, fmt.Errorf("failed to open %s: %w", c.procNetDevPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Skip the two header lines
		if lineNum <= netDevHeaderLines {
			continue
		}

		name, rest, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(name) != iface {
			continue
		}

		fields := strings.Fields(rest)
		if len(fields) <= netDevTxBytesField {
			c.logger.V(1).Info("Skipping short interface line", "interface", iface, "fields", len(fields))
			continue
		}

		rx, err := strconv.ParseUint(fields[netDevRxBytesField], 10, 64)
		if err != nil {
			c.logger.V(1).Info("Failed to parse rx_bytes", "interface", iface, "value", fields[netDevRxBytesField], "error", err)
			continue
		}
		tx, err := strconv.ParseUint(fields[netDevTxBytesField], 10, 64)
		if err != nil {
			c.logger.V(1).Info("Failed to parse tx_bytes", "interface", iface, "value", fields[netDevTxBytesField], "error", err)
			continue
		}

		return performance.NetworkCounters{Interface: iface, RxBytes: rx, TxBytes: tx}, true, nil
	}

	if err := scanner.Err(); err != nil {
		return performance.NetworkCounters{}, false, fmt.Errorf("error reading %s: %w", c.procNetDevPath, err)
	}

	c.logger.V(2).Info("Interface not present", "interface", iface)
	return performance.NetworkCounters{}, false, nil
}
