package statsboard

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const defaultQueryTimeout = 30 * time.Second

// Query is a read-only request to a stats endpoint whose response is drawn
// into a single widget.
//
// Query is immutable after creation via [NewQuery]. Getters return copies of
// mutable data. Queries are configured with [QueryOption] functions such as
// [WithHeaders], [WithTimeout], [WithDecoder] and [WithDrawOptions].
type Query struct {
	name    string
	url     string
	widget  string
	kind    WidgetKind
	options DrawOptions
	headers map[string]string
	timeout time.Duration
	decoder TableDecoder
}

// Name returns the query's identifier.
func (q Query) Name() string {
	return q.name
}

// URL returns the stats endpoint the query requests.
func (q Query) URL() string {
	return q.url
}

// Widget returns the id of the element the response is drawn into.
func (q Query) Widget() string {
	return q.widget
}

// Kind returns the widget's visualization type.
func (q Query) Kind() WidgetKind {
	return q.kind
}

// Options returns a copy of the fixed draw options.
func (q Query) Options() DrawOptions {
	return q.options.Clone()
}

// Headers returns a copy of the custom HTTP headers, or nil.
func (q Query) Headers() map[string]string {
	return copyMap(q.headers)
}

// Timeout returns the per-request timeout.
// Defaults to 30 seconds if not set via [WithTimeout].
func (q Query) Timeout() time.Duration {
	return q.timeout
}

// Decoder returns the query's [TableDecoder], or nil when the data source
// wire protocol decoder ([GVizDecoder]) applies.
func (q Query) Decoder() TableDecoder {
	return q.decoder
}

// NewQuery creates a [Query] named name that requests rawURL and draws the
// response into the widget bound to element widget.
//
// Returns an error if name or widget is empty, kind is unknown or the URL is
// not an absolute http(s) URL.
//
// Example:
//
//	q, err := statsboard.NewQuery("capture", "http://127.0.0.1:8000/stats/capture/",
//	    "capture_div", statsboard.KindGauge,
//	    statsboard.WithDrawOptions(statsboard.DrawOptions{Max: 20}),
//	)
func NewQuery(name, rawURL, widget string, kind WidgetKind, opts ...QueryOption) (Query, error) {
	if name == "" {
		return Query{}, errors.New("query name cannot be empty")
	}
	if widget == "" {
		return Query{}, fmt.Errorf("query %q: widget cannot be empty", name)
	}
	if !kind.Valid() {
		return Query{}, fmt.Errorf("query %q: unknown widget kind %q", name, kind)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Query{}, fmt.Errorf("query %q: invalid URL: %w", name, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return Query{}, fmt.Errorf("query %q: URL must have an http or https scheme", name)
	}

	cfg := &queryConfig{
		headers: make(map[string]string),
		timeout: defaultQueryTimeout,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Query{}, fmt.Errorf("query %q: %w", name, err)
		}
	}

	return Query{
		name:    name,
		url:     rawURL,
		widget:  widget,
		kind:    kind,
		options: cfg.options.Clone(),
		headers: cfg.headers,
		timeout: cfg.timeout,
		decoder: cfg.decoder,
	}, nil
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
