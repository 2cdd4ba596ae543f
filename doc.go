// Package statsboard provides a polling dashboard for a network capture
// appliance's statistics backend.
//
// A [StatsBoard] issues a fixed set of read-only queries immediately and
// then at every polling interval. Each [Query] is bound to one widget (a
// table, gauge or line chart drawn into a named element). A successful
// response replaces the widget's render with the decoded table and the
// query's fixed [DrawOptions]; a failed query raises exactly one [Alert]
// and leaves the widget as it was.
//
// # Quick Start
//
//	queries, _ := statsboard.DefaultQueries(statsboard.DefaultBaseURL)
//	sb, _ := statsboard.New(statsboard.WithQueries(queries...))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	sb.Start(ctx) // blocks until context is cancelled
//
// # Queries
//
// [DefaultQueries] returns the standard four widgets. Custom queries are
// configured with options:
//
//	q, err := statsboard.NewQuery("drops", "http://stats.local/stats/drops.csv",
//	    "drops_div", statsboard.KindLineChart,
//	    statsboard.WithDecoder(statsboard.CSVDecoder),
//	    statsboard.WithTimeout(10 * time.Second),
//	    statsboard.WithDrawOptions(statsboard.DrawOptions{Legend: "bottom"}),
//	)
//
// # Decoders
//
// Decoders turn response bodies into tables:
//
//   - [GVizDecoder]: The data source wire protocol (default)
//   - [JSONRowsDecoder]: An array of objects at a dot-separated path
//   - [CSVDecoder]: Comma-separated values with a header row
//   - [FirstDecoded]: Tries multiple decoders in order
//
// # Overlapping ticks
//
// Ticks never wait for earlier requests. When a slow response from one tick
// completes after a response from the next, the later arrival is drawn last
// and stays visible until the following draw.
//
// # Architecture
//
//   - datatable: Table model and the data source wire protocol
//   - internal/poller: Tick loop and HTTP client
//   - internal/store: Latest render per widget with pub/sub
//   - internal/server: REST API, SVG charts and Server-Sent Events
//   - internal/termview: Terminal renderer for [StatsBoard.Run]
//   - internal/acquisition, internal/statsapi: The stats backend
//   - dashboard: Embedded web UI assets
package statsboard
