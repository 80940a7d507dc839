// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package performance_test

import (
	"testing"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/performance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  performance.CollectionConfig
		opts    performance.ValidateOptions
		wantErr bool
		errMsg  string
	}{
		{
			name:   "all valid absolute paths",
			config: performance.CollectionConfig{HostProcPath: "/proc", DiskPath: "/"},
			opts:   performance.ValidateOptions{RequireHostProcPath: true, RequireDiskPath: true},
		},
		{
			name:   "empty paths are valid when not required",
			config: performance.CollectionConfig{},
		},
		{
			name:    "missing required proc path",
			config:  performance.CollectionConfig{DiskPath: "/"},
			opts:    performance.ValidateOptions{RequireHostProcPath: true},
			wantErr: true,
			errMsg:  "HostProcPath is required",
		},
		{
			name:    "missing required disk path",
			config:  performance.CollectionConfig{HostProcPath: "/proc"},
			opts:    performance.ValidateOptions{RequireDiskPath: true},
			wantErr: true,
			errMsg:  "DiskPath is required",
		},
		{
			name:    "relative proc path",
			config:  performance.CollectionConfig{HostProcPath: "proc"},
			wantErr: true,
			errMsg:  "HostProcPath must be an absolute path",
		},
		{
			name:    "relative disk path",
			config:  performance.CollectionConfig{HostProcPath: "/proc", DiskPath: "data"},
			wantErr: true,
			errMsg:  "DiskPath must be an absolute path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCollectionConfig_ApplyDefaults(t *testing.T) {
	config := performance.CollectionConfig{DiskPath: "/data"}
	config.ApplyDefaults()

	assert.Equal(t, "/proc", config.HostProcPath)
	assert.Equal(t, "/data", config.DiskPath)
}

func TestCPUSnapshot(t *testing.T) {
	snap := performance.NewCPUSnapshot(4)
	require.Len(t, snap, 5)
	assert.Equal(t, 4, snap.CPUCount())
	assert.Equal(t, performance.AggregateCPUIndex, snap.Aggregate().CPUIndex)

	perCPU := snap.PerCPU()
	require.Len(t, perCPU, 4)
	for i, stats := range perCPU {
		assert.Equal(t, int32(i), stats.CPUIndex)
	}

	snap[2].User = 99
	snap.Reset()
	assert.Equal(t, uint64(0), snap[2].User)
	assert.Equal(t, int32(1), snap[2].CPUIndex)

	var empty performance.CPUSnapshot
	assert.Equal(t, 0, empty.CPUCount())
	assert.Nil(t, empty.PerCPU())
}

func TestCPUStats_Total(t *testing.T) {
	stats := performance.CPUStats{User: 1, Nice: 2, System: 3, Idle: 4, IOWait: 5, IRQ: 6, SoftIRQ: 7}
	assert.Equal(t, uint64(28), stats.Total())
}
