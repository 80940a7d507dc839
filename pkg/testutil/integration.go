// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package testutil provides utilities for testing, with a focus on live-host test helpers.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/config/environment"
	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/performance"
)

// RequireLinux skips the test if not running on Linux.
func RequireLinux(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("Test requires Linux")
	}
}

// RequireProcFiles skips the test unless every named file is readable under procPath.
func RequireProcFiles(t *testing.T, procPath string, names ...string) {
	t.Helper()
	RequireLinux(t)

	for _, name := range names {
		f, err := os.Open(filepath.Join(procPath, name))
		if err != nil {
			t.Skipf("Test requires %s: %v", filepath.Join(procPath, name), err)
		}
		_ = f.Close()
	}
}

// HostCollectionConfig returns the collection config for the machine running the test,
// honouring HOST_PROC and HOST_ROOT. The test is skipped when the counter files are missing.
func HostCollectionConfig(t *testing.T) performance.CollectionConfig {
	t.Helper()

	paths := environment.GetHostPaths()
	RequireProcFiles(t, paths.Proc, "stat", "cpuinfo", "net/dev")

	return performance.CollectionConfig{
		HostProcPath: paths.Proc,
		DiskPath:     paths.Root,
	}
}
