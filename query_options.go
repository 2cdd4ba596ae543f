package statsboard

import (
	"errors"
	"time"
)

// queryConfig holds mutable state during query construction.
type queryConfig struct {
	options DrawOptions
	headers map[string]string
	timeout time.Duration
	decoder TableDecoder
}

// QueryOption is a function that configures a [Query] during construction.
//
// Built-in options: [WithDrawOptions], [WithHeaders], [WithTimeout],
// [WithDecoder].
type QueryOption func(*queryConfig) error

// WithDrawOptions sets the fixed rendering configuration passed with every
// draw of the query's widget.
//
// Returns an error if the options are inconsistent (see [DrawOptions.Validate]).
func WithDrawOptions(o DrawOptions) QueryOption {
	return func(cfg *queryConfig) error {
		if err := o.Validate(); err != nil {
			return err
		}
		cfg.options = o.Clone()
		return nil
	}
}

// WithHeaders adds custom HTTP headers to every request for this query.
//
// Accepts variadic key-value pairs. Returns an error if an odd number of
// arguments is provided.
//
// Example:
//
//	q, err := statsboard.NewQuery("capture", url, "capture_div", statsboard.KindGauge,
//	    statsboard.WithHeaders("X-Site", "vdas-1"),
//	)
func WithHeaders(keyValues ...string) QueryOption {
	return func(cfg *queryConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithTimeout sets the HTTP request timeout for this query.
//
// The timeout only bounds how long an abandoned request may linger; a
// timed-out request is reported like any other failed query.
// Defaults to 30 seconds. Returns an error if d is zero or negative.
func WithTimeout(d time.Duration) QueryOption {
	return func(cfg *queryConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithDecoder sets the [TableDecoder] used to turn response bodies into
// tables. nil restores the default [GVizDecoder].
func WithDecoder(d TableDecoder) QueryOption {
	return func(cfg *queryConfig) error {
		cfg.decoder = d
		return nil
	}
}
