// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

package host_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostname_FromHostProc(t *testing.T) {
	procDir := t.TempDir()
	kernelDir := filepath.Join(procDir, "sys", "kernel")
	require.NoError(t, os.MkdirAll(kernelDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(kernelDir, "hostname"), []byte("node-17\n"), 0644))
	t.Setenv("HOST_PROC", procDir)

	name, err := host.Hostname("")
	require.NoError(t, err)
	assert.Equal(t, "node-17", name)
}

func TestHostname_ConfiguredProcPath(t *testing.T) {
	writeHostname := func(name string) string {
		procDir := t.TempDir()
		kernelDir := filepath.Join(procDir, "sys", "kernel")
		require.NoError(t, os.MkdirAll(kernelDir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(kernelDir, "hostname"), []byte(name+"\n"), 0644))
		return procDir
	}
	t.Setenv("HOST_PROC", writeHostname("from-env"))
	configured := writeHostname("from-flag")

	name, err := host.Hostname(configured)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", name)
}

func TestHostname_MissingFile(t *testing.T) {
	t.Setenv("HOST_PROC", t.TempDir())

	_, err := host.Hostname("")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
