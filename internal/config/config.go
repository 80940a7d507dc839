// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package config assembles the runtime configuration of hostmon.
//
// Sources are layered, later ones winning: built-in defaults, an optional YAML
// file, environment variables (optionally seeded from a .env file) and finally
// command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/internal/report/consumers/stdout"
	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/config/environment"
	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/performance"
)

// Environment variables read by Load.
const (
	EnvFile           = "HOSTMON_ENV_FILE"
	EnvConfigFile     = "HOSTMON_CONFIG"
	EnvInterval       = "HOSTMON_INTERVAL"
	EnvInterface      = "HOSTMON_INTERFACE"
	EnvFormat         = "HOSTMON_FORMAT"
	EnvListen         = "HOSTMON_LISTEN"
	EnvAllowedOrigins = "HOSTMON_ALLOWED_ORIGINS"
	EnvHostProc       = "HOST_PROC"
	EnvHostRoot       = "HOST_ROOT"

	defaultEnvFile = ".env"
)

var ErrInvalidInterval = errors.New("interval must be positive")

// Config is the complete runtime configuration.
type Config struct {
	Interval       time.Duration
	Interface      string // empty means discover the first IPv4 interface
	Format         stdout.Format
	ProcPath       string
	DiskPath       string
	ListenAddr     string // empty disables the stream server
	AllowedOrigins []string
	Verbose        bool
	ConfigFile     string
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Interval: time.Second,
		Format:   stdout.FormatText,
		ProcPath: "/proc",
		DiskPath: "/",
	}
}

// Load builds a Config from defaults, the YAML file, the environment and args.
// It returns flag.ErrHelp when -h or -help is given.
func Load(name string, args []string) (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	flagged := Default()
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flagged.BindFlags(flags)
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}
	if flags.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}
	set := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := Default()

	configFile := environment.GetString(EnvConfigFile, "")
	if set[flagConfig] {
		configFile = flagged.ConfigFile
	}
	if configFile != "" {
		if err := cfg.loadFile(configFile); err != nil {
			return Config{}, err
		}
		cfg.ConfigFile = configFile
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.applyFlags(flagged, set)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadDotEnv() error {
	path := environment.GetString(EnvFile, defaultEnvFile)
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// fileConfig mirrors Config for YAML decoding; nil fields are left at their previous value.
type fileConfig struct {
	Interval       *time.Duration `yaml:"interval"`
	Interface      *string        `yaml:"interface"`
	Format         *string        `yaml:"format"`
	ProcPath       *string        `yaml:"proc_path"`
	DiskPath       *string        `yaml:"disk_path"`
	Listen         *string        `yaml:"listen"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	Verbose        *bool          `yaml:"verbose"`
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var fc fileConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Interval != nil {
		c.Interval = *fc.Interval
	}
	if fc.Interface != nil {
		c.Interface = *fc.Interface
	}
	if fc.Format != nil {
		c.Format = stdout.Format(*fc.Format)
	}
	if fc.ProcPath != nil {
		c.ProcPath = *fc.ProcPath
	}
	if fc.DiskPath != nil {
		c.DiskPath = *fc.DiskPath
	}
	if fc.Listen != nil {
		c.ListenAddr = *fc.Listen
	}
	if fc.AllowedOrigins != nil {
		c.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.Verbose != nil {
		c.Verbose = *fc.Verbose
	}
	return nil
}

func (c *Config) applyEnv() error {
	interval, err := environment.GetDuration(EnvInterval, c.Interval)
	if err != nil {
		return err
	}
	c.Interval = interval

	c.Interface = environment.GetString(EnvInterface, c.Interface)
	c.Format = stdout.Format(environment.GetString(EnvFormat, string(c.Format)))
	c.ProcPath = environment.GetString(EnvHostProc, c.ProcPath)
	c.DiskPath = environment.GetString(EnvHostRoot, c.DiskPath)
	c.ListenAddr = environment.GetString(EnvListen, c.ListenAddr)
	if origins := environment.GetString(EnvAllowedOrigins, ""); origins != "" {
		c.AllowedOrigins = splitList(origins)
	}
	return nil
}

// Validate rejects configurations the sampler cannot run with.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w, got %s", ErrInvalidInterval, c.Interval)
	}
	if !c.Format.IsValid() {
		return fmt.Errorf("%w, got %q", stdout.ErrInvalidFormat, c.Format)
	}
	if !filepath.IsAbs(c.ProcPath) {
		return fmt.Errorf("proc path must be an absolute path, got: %q", c.ProcPath)
	}
	if !filepath.IsAbs(c.DiskPath) {
		return fmt.Errorf("disk path must be an absolute path, got: %q", c.DiskPath)
	}
	return nil
}

// CollectionConfig returns the paths used by the counter collectors.
// Unset paths fall back to the collector defaults.
func (c Config) CollectionConfig() performance.CollectionConfig {
	collection := performance.CollectionConfig{
		HostProcPath: c.ProcPath,
		DiskPath:     c.DiskPath,
	}
	collection.ApplyDefaults()
	return collection
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
