package statsboard

import (
	"errors"
	"log/slog"
	"time"
)

// sbConfig holds mutable state during StatsBoard construction.
type sbConfig struct {
	title           string
	queries         []Query
	pollingInterval time.Duration
	port            int
	logger          *slog.Logger
	drawCallbacks   []func(Draw)
	alertCallbacks  []func(Alert)
}

// Option is a function that configures a [StatsBoard] instance during
// construction. Options return an error if validation fails.
//
// Built-in options: [WithQuery], [WithQueries], [WithPollingInterval],
// [WithPort], [WithLogger], [WithTitle], [WithDrawCallback],
// [WithAlertCallback].
type Option func(*sbConfig) error

// WithQuery adds a single [Query] to the set issued on every tick.
//
// Can be called multiple times. At least one query must be configured for
// [New] to succeed.
func WithQuery(q Query) Option {
	return func(cfg *sbConfig) error {
		cfg.queries = append(cfg.queries, q)
		return nil
	}
}

// WithQueries adds multiple [Query] values. Equivalent to calling
// [WithQuery] for each.
//
// Example:
//
//	queries, err := statsboard.DefaultQueries(statsboard.DefaultBaseURL)
//	if err != nil {
//	    return err
//	}
//	sb, err := statsboard.New(statsboard.WithQueries(queries...))
func WithQueries(queries ...Query) Option {
	return func(cfg *sbConfig) error {
		cfg.queries = append(cfg.queries, queries...)
		return nil
	}
}

// WithPollingInterval sets how often the full query set is issued.
//
// Ticks fire at this interval regardless of whether earlier requests have
// completed. Defaults to 5 seconds.
//
// Returns an error if the duration is zero or negative.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *sbConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server.
//
// Defaults to 8080. Returns an error if the port is outside 1-65535.
func WithPort(port int) Option {
	return func(cfg *sbConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *sbConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and
// header. Defaults to "Statsboard".
func WithTitle(title string) Option {
	return func(cfg *sbConfig) error {
		cfg.title = title
		return nil
	}
}

// WithDrawCallback registers a function called for every successful query,
// after the widget has been updated.
//
// Callbacks execute in registration order, synchronously from a single
// goroutine; they must not block. Panics are recovered and logged.
// Nil callbacks are silently ignored.
//
// Example:
//
//	sb, err := statsboard.New(
//	    statsboard.WithQueries(queries...),
//	    statsboard.WithDrawCallback(func(d statsboard.Draw) {
//	        metrics.Observe(d.Query, d.Latency)
//	    }),
//	)
func WithDrawCallback(cb func(Draw)) Option {
	return func(cfg *sbConfig) error {
		if cb == nil {
			return nil
		}
		cfg.drawCallbacks = append(cfg.drawCallbacks, cb)
		return nil
	}
}

// WithAlertCallback registers a function called once for every failed query.
//
// The same rules as [WithDrawCallback] apply. Nil callbacks are silently
// ignored.
func WithAlertCallback(cb func(Alert)) Option {
	return func(cfg *sbConfig) error {
		if cb == nil {
			return nil
		}
		cfg.alertCallbacks = append(cfg.alertCallbacks, cb)
		return nil
	}
}
