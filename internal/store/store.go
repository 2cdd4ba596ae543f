package store

import (
	"encoding/json"
	"time"

	"github.com/jpalmerr/statsboard/datatable"
)

// EventType distinguishes the events delivered to subscribers.
type EventType string

const (
	// EventDraw carries a new widget render.
	EventDraw EventType = "draw"

	// EventAlert carries a failed query.
	EventAlert EventType = "alert"
)

// Render is the storage representation of a widget's last successful draw,
// optimized for JSON serialization (used by the REST API and SSE).
type Render struct {
	// Widget is the element id the render is bound to. Renders are keyed by it.
	Widget string `json:"widget"`

	// Query is the name of the query that produced the payload.
	Query string `json:"query"`

	// Kind is the visualization type ("table", "gauge", "linechart").
	Kind string `json:"kind"`

	// Table is the payload drawn into the widget.
	Table *datatable.DataTable `json:"table"`

	// Options is the fixed draw configuration, already in the visualization
	// library's JSON shape.
	Options json.RawMessage `json:"options,omitempty"`

	// Tick is the polling tick whose response this is.
	Tick uint64 `json:"tick"`

	// Seq counts the draws applied to this widget, starting at 1.
	Seq uint64 `json:"seq"`

	// DrawnAt is when the draw was applied.
	DrawnAt time.Time `json:"drawn_at"`
}

// Alert is the storage representation of a failed query.
type Alert struct {
	ID       string    `json:"id"`
	Query    string    `json:"query"`
	Widget   string    `json:"widget"`
	Message  string    `json:"message"`
	Detailed string    `json:"detailed"`
	Tick     uint64    `json:"tick"`
	RaisedAt time.Time `json:"raised_at"`
}

// Event is a single message delivered to subscribers. Exactly one of Render
// and Alert is set, according to Type.
type Event struct {
	Type   EventType `json:"type"`
	Render *Render   `json:"render,omitempty"`
	Alert  *Alert    `json:"alert,omitempty"`
}

// Store defines the interface for storing renders and subscribing to events.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// Draw stores a render, replacing any previous render of the same widget,
	// and notifies all subscribers. It returns the render as stored.
	Draw(render Render) Render

	// PublishAlert notifies all subscribers of a failed query. Alerts leave
	// stored renders untouched.
	PublishAlert(alert Alert)

	// Get returns the current render of a widget.
	Get(widget string) (Render, bool)

	// GetAll returns all current renders ordered by widget id.
	// The returned slice is a snapshot; modifications do not affect the store.
	GetAll() []Render

	// Subscribe returns a channel that receives events.
	// The returned channel has a buffer; slow consumers may miss events.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Event

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Event)
}
