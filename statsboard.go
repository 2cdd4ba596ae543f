package statsboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/statsboard/dashboard"
	"github.com/jpalmerr/statsboard/internal/poller"
	"github.com/jpalmerr/statsboard/internal/server"
	"github.com/jpalmerr/statsboard/internal/store"
)

// StatsBoard polls a stats backend and draws every response into the widget
// bound to its query.
//
// StatsBoard is created using [New] with functional options and started with
// [StatsBoard.Start] (web dashboard) or [StatsBoard.Run] (any [Sink]).
//
// The typical lifecycle is:
//
//	queries, err := statsboard.DefaultQueries(statsboard.DefaultBaseURL)
//	if err != nil {
//	    return err
//	}
//	sb, err := statsboard.New(statsboard.WithQueries(queries...))
//	if err != nil {
//	    return err
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	sb.Start(ctx) // blocks until context cancelled
type StatsBoard struct {
	title           string
	queries         []Query
	byName          map[string]Query
	pollingInterval time.Duration
	port            int
	logger          *slog.Logger
	drawCallbacks   []func(Draw)
	alertCallbacks  []func(Alert)
}

// New creates a new [StatsBoard] instance with the given options.
//
// At least one query must be configured via [WithQuery] or [WithQueries].
// Other options have defaults:
//   - Polling interval: 5 seconds
//   - Port: 8080
//
// Returns an error if no queries are configured, two queries share a name,
// or any option is invalid.
func New(opts ...Option) (*StatsBoard, error) {
	cfg := &sbConfig{
		pollingInterval: DefaultPollingInterval,
		port:            DefaultPort,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.queries) == 0 {
		return nil, errors.New("at least one query is required")
	}

	byName := make(map[string]Query, len(cfg.queries))
	for _, q := range cfg.queries {
		if q.name == "" {
			return nil, errors.New("query must be created with NewQuery")
		}
		if _, dup := byName[q.name]; dup {
			return nil, fmt.Errorf("duplicate query name: %q", q.name)
		}
		byName[q.name] = q
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &StatsBoard{
		title:           cfg.title,
		queries:         cfg.queries,
		byName:          byName,
		pollingInterval: cfg.pollingInterval,
		port:            cfg.port,
		logger:          logger,
		drawCallbacks:   cfg.drawCallbacks,
		alertCallbacks:  cfg.alertCallbacks,
	}, nil
}

// Start issues the query set immediately and then every polling interval,
// and serves the web dashboard.
//
// Start blocks until the provided context is cancelled. Each successful
// response replaces its widget's render and is pushed to connected browsers;
// each failed query raises one alert and leaves the widget untouched.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server
// fails to start.
func (sb *StatsBoard) Start(ctx context.Context) error {
	sb.logger.Info("statsboard starting", "query_count", len(sb.queries))
	sb.logger.Info("polling configured", "interval", sb.pollingInterval.String())
	sb.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", sb.port))

	if ctx.Err() != nil {
		return nil
	}

	renders := store.NewMemoryStore()
	stop := sb.poll(ctx, &storeSink{store: renders, logger: sb.logger})

	httpServer := server.NewServer(renders, sb.port, dashboard.Assets, sb.title, sb.logger)
	if err := httpServer.Start(ctx); err != nil {
		stop()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	stop()
	sb.logger.Info("statsboard stopped")
	return nil
}

// Run issues the query set immediately and then every polling interval,
// delivering each outcome to sink, until ctx is cancelled. No HTTP server
// is started.
//
// Outcomes are delivered in completion order, so when requests from
// consecutive ticks overlap, the response that completes last is the last
// one delivered for its widget.
func (sb *StatsBoard) Run(ctx context.Context, sink Sink) error {
	if sink == nil {
		return errors.New("sink cannot be nil")
	}
	if ctx.Err() != nil {
		return nil
	}

	stop := sb.poll(ctx, sink)
	<-ctx.Done()
	stop()
	return nil
}

// poll starts the scheduler and the goroutine consuming its results. The
// returned func stops the scheduler and waits until every result has been
// dispatched.
func (sb *StatsBoard) poll(ctx context.Context, sink Sink) func() {
	scheduler := poller.NewScheduler(sb.toPollerQueries(), sb.pollingInterval, sb.logger)
	scheduler.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range scheduler.Results() {
			sb.dispatch(sink, result)
		}
	}()

	return func() {
		scheduler.Stop()
		wg.Wait()
	}
}

// dispatch turns a poll result into exactly one draw or exactly one alert.
func (sb *StatsBoard) dispatch(sink Sink, result poller.Result) {
	q := sb.byName[result.QueryName]

	logAttrs := []any{
		"query", result.QueryName,
		"widget", result.Widget,
		"tick", result.Tick,
		"req_id", result.ReqID,
		"latency_ms", result.Latency.Milliseconds(),
	}

	if result.Err != nil {
		alert := newAlert(result)
		sb.logger.Warn("query failed", append(logAttrs, "error", result.Err.Error(), "alert_id", alert.ID)...)

		invokeSafe(sb.logger, "sink", result.QueryName, func() { sink.Alert(alert) })
		for _, cb := range sb.alertCallbacks {
			invokeSafe(sb.logger, "alert callback", result.QueryName, func() { cb(alert) })
		}
		return
	}

	draw := Draw{
		Query:   result.QueryName,
		Widget:  result.Widget,
		Kind:    q.kind,
		Table:   result.Table,
		Options: q.Options(),
		Tick:    result.Tick,
		Latency: result.Latency,
		DrawnAt: result.CompletedAt,
	}
	sb.logger.Debug("query drawn", append(logAttrs, "rows", result.Table.NumRows())...)

	invokeSafe(sb.logger, "sink", result.QueryName, func() { sink.Draw(draw) })
	for _, cb := range sb.drawCallbacks {
		// each callback gets its own copy of the table
		cp := draw
		cp.Table = draw.Table.Clone()
		cp.Options = draw.Options.Clone()
		invokeSafe(sb.logger, "draw callback", result.QueryName, func() { cb(cp) })
	}
}

// newAlert builds the public alert for a failed result.
func newAlert(result poller.Result) Alert {
	alert := Alert{
		ID:       uuid.NewString(),
		Query:    result.QueryName,
		Widget:   result.Widget,
		Message:  result.Err.Error(),
		Tick:     result.Tick,
		RaisedAt: result.CompletedAt,
		Err:      result.Err,
	}
	var qe *poller.QueryError
	if errors.As(result.Err, &qe) {
		alert.Message = qe.Message
		alert.Detailed = qe.Detailed
	}
	return alert
}

// toPollerQueries converts the query set to the poller's format.
func (sb *StatsBoard) toPollerQueries() []poller.QueryInfo {
	result := make([]poller.QueryInfo, len(sb.queries))

	for i, q := range sb.queries {
		var decoder poller.TableDecoder
		if q.decoder != nil {
			decoder = poller.TableDecoder(q.decoder)
		}

		result[i] = poller.QueryInfo{
			Name:    q.name,
			URL:     q.url,
			Widget:  q.widget,
			Headers: copyMap(q.headers),
			Timeout: q.timeout,
			Decoder: decoder,
		}
	}

	return result
}

// Queries returns a copy of the configured queries.
func (sb *StatsBoard) Queries() []Query {
	cp := make([]Query, len(sb.queries))
	copy(cp, sb.queries)
	return cp
}

// Port returns the configured HTTP port for the dashboard server.
func (sb *StatsBoard) Port() int {
	return sb.port
}

// PollingInterval returns the configured interval between ticks.
func (sb *StatsBoard) PollingInterval() time.Duration {
	return sb.pollingInterval
}

// storeSink applies draws and alerts to the web dashboard's store.
type storeSink struct {
	store  store.Store
	logger *slog.Logger
}

func (s *storeSink) Draw(d Draw) {
	options, err := json.Marshal(d.Options)
	if err != nil {
		// never draw without the widget's fixed configuration
		s.logger.Error("failed to encode draw options", "widget", d.Widget, "error", err)
		s.store.PublishAlert(store.Alert{
			ID:       uuid.NewString(),
			Query:    d.Query,
			Widget:   d.Widget,
			Message:  "Invalid draw options",
			Detailed: err.Error(),
			Tick:     d.Tick,
			RaisedAt: d.DrawnAt,
		})
		return
	}
	s.store.Draw(store.Render{
		Widget:  d.Widget,
		Query:   d.Query,
		Kind:    d.Kind.String(),
		Table:   d.Table,
		Options: options,
		Tick:    d.Tick,
		DrawnAt: d.DrawnAt,
	})
}

func (s *storeSink) Alert(a Alert) {
	s.store.PublishAlert(store.Alert{
		ID:       a.ID,
		Query:    a.Query,
		Widget:   a.Widget,
		Message:  a.Message,
		Detailed: a.Detailed,
		Tick:     a.Tick,
		RaisedAt: a.RaisedAt,
	})
}

// invokeSafe calls fn with panic recovery. Panics are logged with a
// correlation ID but do not propagate.
func invokeSafe(logger *slog.Logger, what, query string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(what+" panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"query", query,
			)
		}
	}()
	fn()
}
