package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/statsboard"
	"github.com/jpalmerr/statsboard/config"
	"github.com/jpalmerr/statsboard/internal/termview"
	"github.com/spf13/cobra"
)

// watchCmd shows the dashboard in the terminal.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the dashboard in the terminal",
	Long: `Poll the stats backend and draw the widgets in the terminal.

Tables, gauges and charts are redrawn as responses arrive. Failed queries
are shown as alerts; press Enter to dismiss one. Press q to quit.

The terminal is owned by the dashboard, so logs are discarded unless
--log-file is given.

Example:
  statsboard watch
  statsboard watch -c config.yaml --log-file statsboard.log`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("config", "c", "", "path to config file (defaults apply when omitted)")
	watchCmd.Flags().String("log-file", "", "write JSON logs to this file")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	if path, _ := cmd.Flags().GetString("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		logger = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("failed to build queries: %w", err)
	}
	sb, err := statsboard.New(append(opts, statsboard.WithLogger(logger))...)
	if err != nil {
		return fmt.Errorf("failed to create statsboard: %w", err)
	}

	title := cfg.Title
	if title == "" {
		title = "Statsboard"
	}
	view := termview.New(title, sb.Queries(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- sb.Run(ctx, view)
	}()

	viewErr := view.Run(ctx)
	cancel()
	return errors.Join(viewErr, <-runErr)
}
