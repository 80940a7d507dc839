// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/internal/config"
	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/internal/report"
	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/internal/report/consumers/stdout"
	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/internal/sampler"
	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/internal/stream"
	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/host"
	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/performance/collectors"
)

var setupLog logr.Logger

func newLogger(verbose bool) (logr.Logger, error) {
	var zc zap.Config
	if verbose {
		zc = zap.NewDevelopmentConfig()
		// logr V(2) maps to zap level -2
		zc.Level = zap.NewAtomicLevelAt(zapcore.Level(-2))
	} else {
		zc = zap.NewProductionConfig()
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.Sampling = nil
	}

	zl, err := zc.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zl), nil
}

func main() {
	cfg, err := config.Load(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to create logger: %v\n", err)
		os.Exit(1)
	}
	setupLog = logger.WithName("setup")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if info, err := host.Describe(ctx, cfg.ProcPath); err != nil {
		setupLog.V(1).Info("unable to describe host", "error", err.Error())
	} else {
		setupLog.Info("host",
			"hostname", info.Hostname,
			"platform", info.Platform,
			"platformVersion", info.PlatformVersion,
			"kernel", info.KernelVersion,
			"arch", info.KernelArch,
			"uptime", info.Uptime)
	}

	// Collectors
	collectionConfig := cfg.CollectionConfig()
	cpuCount, err := collectors.CPUCount(collectionConfig)
	if err != nil {
		setupLog.Error(err, "unable to determine CPU count")
		os.Exit(1)
	}
	cpuCollector, err := collectors.NewCPUCollector(logger, collectionConfig, cpuCount)
	if err != nil {
		setupLog.Error(err, "unable to create CPU collector")
		os.Exit(1)
	}
	diskCollector, err := collectors.NewDiskCollector(logger, collectionConfig)
	if err != nil {
		setupLog.Error(err, "unable to create disk collector")
		os.Exit(1)
	}
	networkCollector, err := collectors.NewNetworkCollector(logger, collectionConfig)
	if err != nil {
		setupLog.Error(err, "unable to create network collector")
		os.Exit(1)
	}

	// Report pipeline
	router := report.NewRouter(logger)

	stdoutConfig := stdout.DefaultConfig()
	stdoutConfig.Format = cfg.Format
	stdoutConsumer, err := stdout.NewConsumer(stdoutConfig, logger)
	if err != nil {
		setupLog.Error(err, "unable to create stdout consumer")
		os.Exit(1)
	}
	if err := router.RegisterConsumer(stdoutConsumer); err != nil {
		setupLog.Error(err, "unable to register stdout consumer")
		os.Exit(1)
	}

	var (
		hub    *stream.Hub
		server *stream.Server
	)
	if cfg.ListenAddr != "" {
		hub = stream.NewHub(logger)
		server, err = stream.NewServer(stream.Config{
			ListenAddr:     cfg.ListenAddr,
			AllowedOrigins: cfg.AllowedOrigins,
			RouterStats:    router.GetStats,
		}, hub, logger)
		if err != nil {
			setupLog.Error(err, "unable to create stream server")
			os.Exit(1)
		}
		if err := router.RegisterConsumer(hub); err != nil {
			setupLog.Error(err, "unable to register stream hub")
			os.Exit(1)
		}
	}

	s, err := sampler.New(logger, sampler.Config{
		Interval:  cfg.Interval,
		Interface: cfg.Interface,
		CPU:       cpuCollector,
		Disk:      diskCollector,
		Network:   networkCollector,
		Publisher: router,
	})
	if err != nil {
		setupLog.Error(err, "unable to create sampler")
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return router.Start(gctx) })
	if server != nil {
		g.Go(func() error {
			err := hub.Run(gctx)
			// Stop publishing to a hub that no longer serves clients
			if uerr := router.UnregisterConsumer(hub.Name()); uerr != nil {
				setupLog.V(1).Info("stream hub already unregistered", "error", uerr.Error())
			}
			return err
		})
		g.Go(func() error { return server.Start(gctx) })
		setupLog.Info("report stream enabled", "address", cfg.ListenAddr)
	}
	g.Go(func() error { return s.Run(gctx) })

	setupLog.Info("starting", "interface", s.Interface(), "interval", cfg.Interval, "cpus", cpuCount)
	if err := g.Wait(); err != nil {
		setupLog.Error(err, "problem running sampler")
		os.Exit(1)
	}
	setupLog.Info("stopped")
}
