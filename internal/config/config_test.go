// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package config_test

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/internal/config"
	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/internal/report/consumers/stdout"
	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/performance"
)

var configEnvVars = []string{
	config.EnvConfigFile,
	config.EnvInterval,
	config.EnvInterface,
	config.EnvFormat,
	config.EnvListen,
	config.EnvAllowedOrigins,
	config.EnvHostProc,
	config.EnvHostRoot,
}

// isolateEnv unsets every variable Load reads and points the .env lookup at a missing file.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv(config.EnvFile, filepath.Join(t.TempDir(), "missing.env"))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := config.Load("hostmon", nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, time.Second, cfg.Interval)
	assert.Equal(t, stdout.FormatText, cfg.Format)
	assert.Empty(t, cfg.Interface)
	assert.Empty(t, cfg.ListenAddr)
}

func TestLoad_Flags(t *testing.T) {
	isolateEnv(t)

	cfg, err := config.Load("hostmon", []string{
		"--interval", "250ms",
		"--interface", "eth1",
		"--format", "json",
		"--proc-path", "/host/proc",
		"--disk-path", "/data",
		"--listen", ":9100",
		"--allowed-origins", "https://a.example.com, https://b.example.com",
		"--verbose",
	})
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Interval)
	assert.Equal(t, "eth1", cfg.Interface)
	assert.Equal(t, stdout.FormatJSON, cfg.Format)
	assert.Equal(t, "/host/proc", cfg.ProcPath)
	assert.Equal(t, "/data", cfg.DiskPath)
	assert.Equal(t, ":9100", cfg.ListenAddr)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Verbose)
}

func TestLoad_Environment(t *testing.T) {
	isolateEnv(t)
	t.Setenv(config.EnvInterval, "2s")
	t.Setenv(config.EnvInterface, "wlan0")
	t.Setenv(config.EnvFormat, "json")
	t.Setenv(config.EnvHostProc, "/host/proc")
	t.Setenv(config.EnvHostRoot, "/host")
	t.Setenv(config.EnvListen, "127.0.0.1:8080")

	cfg, err := config.Load("hostmon", nil)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.Equal(t, "wlan0", cfg.Interface)
	assert.Equal(t, stdout.FormatJSON, cfg.Format)
	assert.Equal(t, "/host/proc", cfg.ProcPath)
	assert.Equal(t, "/host", cfg.DiskPath)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)

	t.Run("flags override environment", func(t *testing.T) {
		cfg, err := config.Load("hostmon", []string{"--interval", "5s", "--format", "text"})
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, cfg.Interval)
		assert.Equal(t, stdout.FormatText, cfg.Format)
		assert.Equal(t, "wlan0", cfg.Interface)
	})
}

func TestLoad_DotEnv(t *testing.T) {
	isolateEnv(t)
	envFile := writeFile(t, "hostmon.env", "HOSTMON_INTERFACE=bond0\nHOSTMON_INTERVAL=3s\n")
	t.Setenv(config.EnvFile, envFile)

	cfg, err := config.Load("hostmon", nil)
	require.NoError(t, err)
	assert.Equal(t, "bond0", cfg.Interface)
	assert.Equal(t, 3*time.Second, cfg.Interval)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	isolateEnv(t)
	envFile := writeFile(t, "hostmon.env", "HOSTMON_INTERFACE=bond0\n")
	t.Setenv(config.EnvFile, envFile)
	t.Setenv(config.EnvInterface, "eth0")

	cfg, err := config.Load("hostmon", nil)
	require.NoError(t, err)
	assert.Equal(t, "eth0", cfg.Interface)
}

func TestLoad_ConfigFile(t *testing.T) {
	isolateEnv(t)
	path := writeFile(t, "hostmon.yaml", `interval: 10s
interface: eth2
format: json
disk_path: /srv
listen: ":9000"
allowed_origins:
  - https://dash.example.com
verbose: true
`)

	cfg, err := config.Load("hostmon", []string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Interval)
	assert.Equal(t, "eth2", cfg.Interface)
	assert.Equal(t, stdout.FormatJSON, cfg.Format)
	assert.Equal(t, "/proc", cfg.ProcPath)
	assert.Equal(t, "/srv", cfg.DiskPath)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, []string{"https://dash.example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, path, cfg.ConfigFile)

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv(config.EnvInterface, "eth3")
		cfg, err := config.Load("hostmon", []string{"--config", path})
		require.NoError(t, err)
		assert.Equal(t, "eth3", cfg.Interface)
	})

	t.Run("flags override file", func(t *testing.T) {
		cfg, err := config.Load("hostmon", []string{"--config", path, "--interval", "1s"})
		require.NoError(t, err)
		assert.Equal(t, time.Second, cfg.Interval)
	})

	t.Run("file from environment", func(t *testing.T) {
		t.Setenv(config.EnvConfigFile, path)
		cfg, err := config.Load("hostmon", nil)
		require.NoError(t, err)
		assert.Equal(t, "eth2", cfg.Interface)
	})

	t.Run("empty file keeps defaults", func(t *testing.T) {
		empty := writeFile(t, "empty.yaml", "")
		cfg, err := config.Load("hostmon", []string{"--config", empty})
		require.NoError(t, err)
		assert.Equal(t, time.Second, cfg.Interval)
	})
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		file    string
		wantErr error
		errMsg  string
	}{
		{name: "zero interval", args: []string{"--interval", "0s"}, wantErr: config.ErrInvalidInterval},
		{name: "negative interval", args: []string{"--interval", "-1s"}, wantErr: config.ErrInvalidInterval},
		{name: "unknown format", args: []string{"--format", "xml"}, wantErr: stdout.ErrInvalidFormat},
		{name: "relative proc path", args: []string{"--proc-path", "proc"}, errMsg: "proc path must be an absolute path"},
		{name: "relative disk path", args: []string{"--disk-path", "data"}, errMsg: "disk path must be an absolute path"},
		{name: "bad interval in environment", env: map[string]string{config.EnvInterval: "often"}, errMsg: config.EnvInterval},
		{name: "unknown flag", args: []string{"--bogus"}, errMsg: "flag provided but not defined"},
		{name: "positional argument", args: []string{"extra"}, errMsg: "unexpected arguments"},
		{name: "missing config file", args: []string{"--config", "/nonexistent/hostmon.yaml"}, wantErr: os.ErrNotExist},
		{name: "unknown key in config file", file: "intervall: 1s\n", errMsg: "failed to parse config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			args := tt.args
			if tt.file != "" {
				args = append(args, "--config", writeFile(t, "bad.yaml", tt.file))
			}

			_, err := config.Load("hostmon", args)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestLoad_Help(t *testing.T) {
	isolateEnv(t)

	_, err := config.Load("hostmon", []string{"-h"})
	assert.True(t, errors.Is(err, flag.ErrHelp))
}

func TestConfig_CollectionConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ProcPath = "/host/proc"
	cfg.DiskPath = "/host"

	collection := cfg.CollectionConfig()
	assert.Equal(t, performance.CollectionConfig{HostProcPath: "/host/proc", DiskPath: "/host"}, collection)
	assert.NoError(t, collection.Validate(performance.ValidateOptions{RequireHostProcPath: true, RequireDiskPath: true}))
}

func TestConfig_CollectionConfigDefaults(t *testing.T) {
	var cfg config.Config

	assert.Equal(t, performance.DefaultCollectionConfig(), cfg.CollectionConfig())
}
