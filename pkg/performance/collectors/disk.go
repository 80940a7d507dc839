// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

import (
	"context"
	"fmt"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/performance"
	"github.com/go-logr/logr"
)

// FSStats is the subset of statfs(2) needed to compute filesystem capacity.
type FSStats struct {
	// BlockSize is the fragment size (f_frsize), or f_bsize when the kernel reports no fragment size.
	BlockSize  uint64
	Blocks     uint64
	FreeBlocks uint64
}

// StatFSFunc queries filesystem statistics for the mount containing path.
type StatFSFunc func(path string) (FSStats, error)

// DiskOption configures a DiskCollector.
type DiskOption func(*DiskCollector)

// WithStatFS replaces the platform statfs call, mainly for tests.
func WithStatFS(fn StatFSFunc) DiskOption {
	return func(c *DiskCollector) {
		c.statfs = fn
	}
}

// DiskCollector reports the total and free capacity of the filesystem mounted at DiskPath.
//
// Free space is f_bfree, which includes blocks reserved for root.
type DiskCollector struct {
	logger logr.Logger
	path   string
	statfs StatFSFunc
}

func NewDiskCollector(logger logr.Logger, config performance.CollectionConfig, opts ...DiskOption) (*DiskCollector, error) {
	if err := config.Validate(performance.ValidateOptions{RequireDiskPath: true}); err != nil {
		return nil, err
	}

	c := &DiskCollector{
		logger: logger.WithName("disk"),
		path:   config.DiskPath,
		statfs: statFS,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ReadDiskSpace returns the capacity of the configured filesystem at this instant.
func (c *DiskCollector) ReadDiskSpace(ctx context.Context) (performance.DiskSpace, error) {
	if err := ctx.Err(); err != nil {
		return performance.DiskSpace{}, err
	}

	st, err := c.statfs(c.path)
	if err != nil {
		return performance.DiskSpace{}, fmt.Errorf("failed to statfs %s: %w", c.path, err)
	}

	space := performance.DiskSpace{
		Path:       c.path,
		TotalBytes: st.BlockSize * st.Blocks,
		FreeBytes:  st.BlockSize * st.FreeBlocks,
	}
	if space.FreeBytes > space.TotalBytes {
		c.logger.V(1).Info("Free blocks exceed total blocks, clamping", "path", c.path,
			"blocks", st.Blocks, "freeBlocks", st.FreeBlocks)
		space.FreeBytes = space.TotalBytes
	}

	c.logger.V(2).Info("Collected disk space", "path", c.path,
		"totalBytes", space.TotalBytes, "freeBytes", space.FreeBytes)
	return space, nil
}
