package statsboard

import (
	"time"

	"github.com/jpalmerr/statsboard/datatable"
)

// Draw is a successful query response applied to its widget.
//
// A Draw replaces the widget's previous render entirely. Table is the
// decoded payload as received; Options is the query's fixed configuration.
type Draw struct {
	// Query is the name of the query that produced the response.
	Query string

	// Widget is the element id the table is drawn into.
	Widget string

	// Kind is the widget's visualization type.
	Kind WidgetKind

	// Table is the decoded response payload.
	Table *datatable.DataTable

	// Options is the fixed draw configuration of the query.
	Options DrawOptions

	// Tick is the zero-based polling tick that issued the request.
	Tick uint64

	// Latency is the time taken by the HTTP request.
	Latency time.Duration

	// DrawnAt is when the response was applied.
	DrawnAt time.Time
}

// Alert is a failed query, shown to the user as a single message. A failed
// query never mutates its widget.
type Alert struct {
	// ID uniquely identifies the alert.
	ID string

	Query  string
	Widget string

	// Message is the short description of the failure.
	Message string

	// Detailed carries the underlying cause.
	Detailed string

	Tick     uint64
	RaisedAt time.Time

	// Err is the underlying error.
	Err error
}

// Text returns the user-facing alert text.
func (a Alert) Text() string {
	return "Error in query: " + a.Message + " " + a.Detailed
}

// Sink receives the outcome of every query.
//
// Sink methods are called sequentially from a single goroutine, in the order
// responses complete. Implementations must not block for long.
type Sink interface {
	Draw(d Draw)
	Alert(a Alert)
}

// SinkFuncs adapts a pair of functions to a [Sink]. A nil field ignores the
// corresponding event.
type SinkFuncs struct {
	OnDraw  func(Draw)
	OnAlert func(Alert)
}

func (s SinkFuncs) Draw(d Draw) {
	if s.OnDraw != nil {
		s.OnDraw(d)
	}
}

func (s SinkFuncs) Alert(a Alert) {
	if s.OnAlert != nil {
		s.OnAlert(a)
	}
}
