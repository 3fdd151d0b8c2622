// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ixfrcreate wires the zone spool codec, the IXFR diff engine,
// and a Store implementation into a runnable tool, and optionally serves
// the resulting zone over DNS. It replaces the teacher's
// cmd/acmednsserver entry point: same flag/config/logger plumbing, a
// different payload.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tsavola/ixfrcreate/dns/dnsserver"
	"github.com/tsavola/ixfrcreate/dns/dnszone"
	"github.com/tsavola/ixfrcreate/ixfrdiff"
	"github.com/tsavola/ixfrcreate/ixfrstore"
)

// diffManager is shared process-wide so concurrent "diff" invocations
// against the same zone file (e.g. a wrapping service driving runDiff
// from several goroutines on a reload storm) coalesce into one spool
// write instead of racing each other's TempPath sequence numbers.
var (
	diffManagerOnce sync.Once
	diffManager     *ixfrdiff.Manager
)

func getDiffManager(log *zap.SugaredLogger) *ixfrdiff.Manager {
	diffManagerOnce.Do(func() {
		diffManager = ixfrdiff.NewManager(log)
	})
	return diffManager
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := new(Config)

	// The config file is read before any flag is registered, so its
	// values become the flags' defaults: an explicit flag on the command
	// line still overrides it, but nothing here has to re-merge the two
	// after pflag has already parsed argv into cfg.
	if path := scanConfigFlag(os.Args[1:]); path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			fmt.Fprintln(os.Stderr, "ixfrcreate:", err)
			os.Exit(1)
		}
	}

	root := &cobra.Command{
		Use:           "ixfrcreate",
		Short:         "Generate and serve RFC 1995 incremental zone transfers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	var configPath string
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (flags below override it)")
	root.PersistentFlags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")

	root.AddCommand(newDiffCmd(cfg))
	root.AddCommand(newServeCmd(cfg))
	return root
}

// scanConfigFlag pulls --config's value out of argv without involving
// cobra/pflag, since the config file must be loaded before flags are
// registered (see newRootCmd).
func scanConfigFlag(args []string) string {
	for i, a := range args {
		switch {
		case a == "--config" && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(a, "--config="):
			return strings.TrimPrefix(a, "--config=")
		}
	}
	return ""
}

func newLogger(debug bool) *zap.SugaredLogger {
	var zc zap.Config
	if debug {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	log, err := zc.Build()
	if err != nil {
		// zap's own default configs never fail to build.
		panic(err)
	}
	return log.Sugar().Named("ixfrcreate")
}

// newDiffCmd implements ixfr_create_start / ixfr_create_perform
// (spec.md sections 4.3 and 5) as a single one-shot CLI invocation: spool
// the old zone file, diff it against the new one, and write the result
// through a Store.
func newDiffCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compute the IXFR difference between two zone file snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cfg)
		},
	}
	addDiffFlags(cmd.Flags(), cfg)
	return cmd
}

func addDiffFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ZoneFile, "old-zone-file", cfg.ZoneFile, "zone file at the old serial")
	fs.StringVar(&cfg.NewZoneFile, "new-zone-file", cfg.NewZoneFile, "zone file at the new serial")
	fs.StringVar(&cfg.SpoolDir, "spool-dir", cfg.SpoolDir, "directory for the temporary spool file (defaults beside --old-zone-file)")
}

func runDiff(cfg *Config) error {
	log := newLogger(cfg.Debug)
	defer log.Sync()

	if cfg.ZoneFile == "" {
		return fmt.Errorf("--old-zone-file is required")
	}
	newZoneFile := cfg.NewZoneFile
	if newZoneFile == "" {
		return fmt.Errorf("--new-zone-file is required")
	}

	oldZone, err := loadZoneFile(cfg.ZoneFile)
	if err != nil {
		return fmt.Errorf("load old zone: %w", err)
	}
	newZone, err := loadZoneFile(newZoneFile)
	if err != nil {
		return fmt.Errorf("load new zone: %w", err)
	}

	spoolAnchor := cfg.ZoneFile
	if cfg.SpoolDir != "" {
		spoolAnchor = filepath.Join(cfg.SpoolDir, filepath.Base(cfg.ZoneFile))
	}

	ctx, err := getDiffManager(log).Start(oldZone, spoolAnchor)
	if err != nil {
		return fmt.Errorf("spool old zone: %w", err)
	}
	defer ctx.Cleanup()

	outPath := deriveDiffOutputPath(cfg)
	store := ixfrstore.NewFile(outPath, log)

	if err := ctx.Perform(newZone, store, log); err != nil {
		return fmt.Errorf("compute difference: %w", err)
	}

	log.Infow("wrote ixfr difference",
		"apex", newZone.Apex().String(),
		"old_serial", oldZone.CurrentSerial(),
		"new_serial", newZone.CurrentSerial(),
		"out", outPath)
	return nil
}

func deriveDiffOutputPath(cfg *Config) string {
	if cfg.SpoolDir != "" {
		return filepath.Join(cfg.SpoolDir, filepath.Base(cfg.ZoneFile)+".ixfr")
	}
	return cfg.ZoneFile + ".ixfr"
}

// newServeCmd answers ordinary queries and AXFR transfers for a loaded
// zone, matching spec.md's explicit scope boundary: this CLI produces
// IXFR differences, it does not transport them (section 1, Non-goals).
func newServeCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a zone file over DNS (AXFR and ordinary queries only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg)
		},
	}
	addServeFlags(cmd.Flags(), cfg)
	return cmd
}

func addServeFlags(fs *pflag.FlagSet, cfg *Config) {
	addr := cfg.Addr
	if addr == "" {
		addr = ":53"
	}
	fs.StringVar(&cfg.ZoneFile, "zone-file", cfg.ZoneFile, "zone file to serve")
	fs.StringVar(&cfg.Addr, "addr", addr, "listen address")
	fs.BoolVar(&cfg.NoTCP, "no-tcp", cfg.NoTCP, "disable the TCP listener")
	fs.BoolVar(&cfg.NoUDP, "no-udp", cfg.NoUDP, "disable the UDP listener")
	fs.StringVar(&cfg.SOANS, "soa-ns", cfg.SOANS, "authoritative NS owner (enables SOA/NS answers if set)")
	fs.StringVar(&cfg.SOAMbox, "soa-mbox", cfg.SOAMbox, "SOA responsible-party mailbox, as an email address (admin@example.org)")
	fs.Uint32Var(&cfg.SOARefresh, "soa-refresh", cfg.SOARefresh, "SOA refresh (defaults per dnsserver)")
	fs.Uint32Var(&cfg.SOARetry, "soa-retry", cfg.SOARetry, "SOA retry (defaults per dnsserver)")
	fs.Uint32Var(&cfg.SOAExpire, "soa-expire", cfg.SOAExpire, "SOA expire (defaults per dnsserver)")
	fs.Uint32Var(&cfg.SOATTL, "soa-ttl", cfg.SOATTL, "SOA/NS TTL (defaults per dnsserver)")
}

func runServe(cfg *Config) error {
	log := newLogger(cfg.Debug)
	defer log.Sync()

	if cfg.ZoneFile == "" {
		return fmt.Errorf("--zone-file is required")
	}

	zone, err := loadZoneFile(cfg.ZoneFile)
	if err != nil {
		return fmt.Errorf("load zone: %w", err)
	}
	resolver := dnszone.Contain(zone)

	mbox, err := dnsserver.EmailMbox(cfg.SOAMbox)
	if err != nil {
		return fmt.Errorf("--soa-mbox: %w", err)
	}

	config := &dnsserver.Config{
		Addr:     cfg.Addr,
		NoTCP:    cfg.NoTCP,
		NoUDP:    cfg.NoUDP,
		ErrorLog: log,
		Ready:    make(chan struct{}),
		SOA: dnsserver.SOA{
			NS:      dnsserver.DotSuffix(cfg.SOANS),
			Mbox:    mbox,
			Refresh: cfg.SOARefresh,
			Retry:   cfg.SOARetry,
			Expire:  cfg.SOAExpire,
			TTL:     cfg.SOATTL,
		},
	}
	if cfg.Debug {
		config.DebugLog = log
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	go func() {
		<-config.Ready
		log.Infow("serving zone", "apex", zone.Apex().String(), "addr", cfg.Addr)
	}()

	return dnsserver.Serve(ctx, resolver, config)
}
