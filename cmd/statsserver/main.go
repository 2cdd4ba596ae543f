// Package main is the entry point for the statsserver backend.
//
// statsserver polls the acquisition logging system for interface counters
// and serves interface, ethernet and capture statistics as data tables.
//
// Usage:
//
//	statsserver                         # poll the logger on localhost:6050
//	statsserver --fake --interfaces 8   # serve synthetic counters
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jpalmerr/statsboard/internal/acquisition"
	"github.com/jpalmerr/statsboard/internal/statsapi"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version = "dev"

// bindEnv overrides the default --bind address when the flag is not given.
const bindEnv = "STATS_BIND"

// newRootCmd builds the statsserver command with its flags.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statsserver",
		Short: "Serve acquisition statistics to the dashboard",
		Long: `statsserver polls the acquisition logging system for interface
counters, derives per-interface rates, and serves them on:

  /stats/interface/   interface counter table
  /stats/ethernet/    per-interface Gbps
  /stats/capture/     total capture Gbps
  /interface/{id}     counters for one interface as JSON

Use --fake to serve synthetic counters without a logging system.
The bind address may also be set with STATS_BIND.`,
		Version:           version,
		PersistentPreRunE: loadEnvFile,
		RunE:              run,
		SilenceUsage:      true,
	}

	f := cmd.Flags()
	f.String("logger-host", "localhost", "logging system host")
	f.Int("logger-port", acquisition.DefaultLoggerPort, "logging system port")
	f.String("bind", ":8000", "address to serve statistics on")
	f.Duration("interval", 5*time.Second, "counter polling interval (minimum 1s)")
	f.Bool("fake", false, "serve synthetic counters instead of polling the logger")
	f.Int("interfaces", acquisition.DefaultInterfaces, "number of interfaces to report")
	f.Uint64("seed", 1, "seed for synthetic counters")
	f.Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("env-file", "", "dotenv file to load before reading the environment")
	return cmd
}

func loadEnvFile(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("env-file")
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// resolveBind returns the --bind flag when set, else STATS_BIND, else the
// flag default.
func resolveBind(flags *pflag.FlagSet) string {
	bind, _ := flags.GetString("bind")
	if flags.Changed("bind") {
		return bind
	}
	if v := os.Getenv(bindEnv); v != "" {
		return v
	}
	return bind
}

// newSource picks the counter source from the flags. The returned func
// releases it.
func newSource(flags *pflag.FlagSet, logger *slog.Logger) (acquisition.Source, func(), error) {
	if fake, _ := flags.GetBool("fake"); fake {
		interfaces, _ := flags.GetInt("interfaces")
		seed, _ := flags.GetUint64("seed")
		logger.Info("using synthetic counters", "interfaces", interfaces)
		return acquisition.NewFakeSource(interfaces, seed), func() {}, nil
	}

	host, _ := flags.GetString("logger-host")
	port, _ := flags.GetInt("logger-port")
	if port < 1 || port > 65535 {
		return nil, nil, fmt.Errorf("logger port must be between 1 and 65535, got %d", port)
	}
	interval, _ := flags.GetDuration("interval")

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ls := acquisition.NewLoggerSource(addr, interval)
	logger.Info("polling logging system", "addr", addr)
	return ls, func() { _ = ls.Close() }, nil
}

func run(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	interval, _ := f.GetDuration("interval")
	interfaces, _ := f.GetInt("interfaces")
	debug, _ := f.GetBool("debug")
	if interfaces < 1 {
		return fmt.Errorf("interfaces must be at least 1, got %d", interfaces)
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	source, release, err := newSource(f, logger)
	if err != nil {
		return err
	}
	defer release()

	collector := acquisition.NewCollector(source, interval, logger)
	srv := statsapi.NewServer(collector, interfaces, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		_ = collector.Run(ctx)
	}()

	bind := resolveBind(f)
	logger.Info("serving statistics",
		"addr", bind,
		"interval", collector.Interval().String(),
	)
	if err := srv.ListenAndServe(ctx, bind); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
