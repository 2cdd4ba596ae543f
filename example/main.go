package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/statsboard"
	"github.com/jpalmerr/statsboard/internal/acquisition"
	"github.com/jpalmerr/statsboard/internal/statsapi"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// stats backend with synthetic counters on a free port
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		slog.Error("failed to bind stats backend", "error", err)
		os.Exit(1)
	}
	collector := acquisition.NewCollector(acquisition.NewFakeSource(acquisition.DefaultInterfaces, uint64(time.Now().UnixNano())), time.Second, logger)
	go func() { _ = collector.Run(ctx) }()
	go func() {
		if err := statsapi.NewServer(collector, acquisition.DefaultInterfaces, logger).Serve(ctx, ln); err != nil {
			slog.Error("stats backend error", "error", err)
		}
	}()
	baseURL := "http://" + ln.Addr().String()

	// the four standard widgets, plus a custom query with alert logging
	queries, err := statsboard.DefaultQueries(baseURL)
	if err != nil {
		slog.Error("failed to build queries", "error", err)
		os.Exit(1)
	}
	wire, err := statsboard.NewQuery("capture-raw", baseURL+statsboard.PathCapture, "capture_raw_div", statsboard.KindTable,
		statsboard.WithTimeout(2*time.Second),
		statsboard.WithDrawOptions(statsboard.DrawOptions{Title: "Capture (raw)"}),
	)
	if err != nil {
		slog.Error("failed to create query", "error", err)
		os.Exit(1)
	}

	sb, err := statsboard.New(
		statsboard.WithQueries(append(queries, wire)...),
		statsboard.WithPollingInterval(2*time.Second),
		statsboard.WithPort(8080),
		statsboard.WithTitle("VDAS Capture (demo)"),
		statsboard.WithLogger(logger),
		statsboard.WithAlertCallback(func(a statsboard.Alert) {
			logger.Warn("query alert", "query", a.Query, "message", a.Text())
		}),
	)
	if err != nil {
		slog.Error("failed to create statsboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  Statsboard demo")
	fmt.Println()
	fmt.Println("  Dashboard:     http://localhost:8080")
	fmt.Printf("  Stats backend: %s (synthetic counters)\n", baseURL)
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	if err := sb.Start(ctx); err != nil {
		slog.Error("statsboard error", "error", err)
		os.Exit(1)
	}
}
