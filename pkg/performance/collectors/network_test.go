// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors_test

import (
	"context"
	"os"
	"testing"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/performance"
	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/performance/collectors"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const typicalNetDev = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo: 2776770   11307    0    0    0     0          0         0  2776770   11307    0    0    0     0       0          0
  eth0: 1215645    2751    0    0    0     0          0         0  1695710    1834    0    0    0     0       0          0
eth0.100: 99    1    0    0    0     0          0         0  77    1    0    0    0     0       0          0
`

func TestNetworkCollector_Constructor(t *testing.T) {
	tests := []struct {
		name        string
		procPath    string
		expectError bool
	}{
		{name: "valid paths", procPath: "/proc"},
		{name: "relative proc path", procPath: "proc", expectError: true},
		{name: "empty proc path", procPath: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := performance.CollectionConfig{HostProcPath: tt.procPath}
			collector, err := collectors.NewNetworkCollector(logr.Discard(), config)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, collector)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, collector)
			}
		})
	}
}

func TestNetworkCollector_ReadCounters(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		iface     string
		wantFound bool
		want      performance.NetworkCounters
	}{
		{
			name:      "indented interface",
			content:   typicalNetDev,
			iface:     "eth0",
			wantFound: true,
			want:      performance.NetworkCounters{Interface: "eth0", RxBytes: 1215645, TxBytes: 1695710},
		},
		{
			name:      "loopback",
			content:   typicalNetDev,
			iface:     "lo",
			wantFound: true,
			want:      performance.NetworkCounters{Interface: "lo", RxBytes: 2776770, TxBytes: 2776770},
		},
		{
			name:      "name without leading spaces",
			content:   typicalNetDev,
			iface:     "eth0.100",
			wantFound: true,
			want:      performance.NetworkCounters{Interface: "eth0.100", RxBytes: 99, TxBytes: 77},
		},
		{
			name:    "prefix does not match",
			content: typicalNetDev,
			iface:   "eth",
		},
		{
			name:    "missing interface",
			content: typicalNetDev,
			iface:   "wlan0",
		},
		{
			name:    "header only",
			content: "Inter-| Receive | Transmit\n face |bytes packets|bytes packets\n",
			iface:   "eth0",
		},
		{
			name: "header lines are never matched",
			content: `eth0: 1 0 0 0 0 0 0 0 2 0 0 0 0 0 0 0
eth0: 3 0 0 0 0 0 0 0 4 0 0 0 0 0 0 0
`,
			iface: "eth0",
		},
		{
			name: "malformed line is skipped",
			content: `Inter-|   Receive |  Transmit
 face |bytes    packets|bytes    packets
  eth0: 1215645 2751 0
  eth1: abc 0 0 0 0 0 0 0 10 0 0 0 0 0 0 0
`,
			iface: "eth0",
		},
		{
			name: "bad counter is skipped",
			content: `Inter-|   Receive |  Transmit
 face |bytes    packets|bytes    packets
  eth1: abc 0 0 0 0 0 0 0 10 0 0 0 0 0 0 0
`,
			iface: "eth1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := setupProcFile(t, "net/dev", tt.content)
			collector, err := collectors.NewNetworkCollector(logr.Discard(), config)
			require.NoError(t, err)

			counters, found, err := collector.ReadCounters(context.Background(), tt.iface)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, counters)
		})
	}
}

func TestNetworkCollector_MissingFile(t *testing.T) {
	config := performance.CollectionConfig{HostProcPath: t.TempDir()}
	collector, err := collectors.NewNetworkCollector(logr.Discard(), config)
	require.NoError(t, err)

	_, found, err := collector.ReadCounters(context.Background(), "eth0")
	require.Error(t, err)
	assert.False(t, found)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
