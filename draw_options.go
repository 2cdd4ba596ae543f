package statsboard

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// WidgetKind is the type of visualization a widget renders.
type WidgetKind string

const (
	// KindTable renders the payload as a table.
	KindTable WidgetKind = "table"

	// KindGauge renders one dial per row, using the row's label and value.
	KindGauge WidgetKind = "gauge"

	// KindLineChart renders every numeric column as a series over the first
	// column.
	KindLineChart WidgetKind = "linechart"
)

// String returns the string representation of the kind.
func (k WidgetKind) String() string {
	return string(k)
}

// Valid reports whether k is a known widget kind.
func (k WidgetKind) Valid() bool {
	switch k {
	case KindTable, KindGauge, KindLineChart:
		return true
	}
	return false
}

// Dimension is a widget size. A bare number is a pixel count; any other
// value ("800px", "100%") is passed to the visualization library verbatim.
type Dimension string

// Pixels returns a [Dimension] of n pixels.
func Pixels(n int) Dimension {
	return Dimension(strconv.Itoa(n))
}

// Pixels returns the size in pixels. The second result is false when the
// dimension is empty or not expressed in pixels.
func (d Dimension) Pixels() (int, bool) {
	s := strings.TrimSuffix(strings.TrimSpace(string(d)), "px")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MarshalJSON writes bare numbers as JSON numbers and everything else as a
// string, matching what the visualization library expects.
func (d Dimension) MarshalJSON() ([]byte, error) {
	if n, err := strconv.Atoi(string(d)); err == nil {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(string(d))
}

// UnmarshalJSON accepts either a number or a string.
func (d *Dimension) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*d = Dimension(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("dimension must be a number or string: %w", err)
	}
	*d = Dimension(s)
	return nil
}

// UnmarshalYAML accepts either a number or a string.
func (d *Dimension) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("dimension must be a scalar, got %v", node.Kind)
	}
	*d = Dimension(node.Value)
	return nil
}

// Axis configures a chart axis.
type Axis struct {
	Title string `json:"title,omitempty" yaml:"title"`
}

// DrawOptions is the fixed rendering configuration passed with every draw.
//
// Field names follow the visualization library's option names. Zero values
// are omitted, so the library's defaults apply to anything left unset.
type DrawOptions struct {
	Title  string    `json:"title,omitempty" yaml:"title"`
	Width  Dimension `json:"width,omitempty" yaml:"width"`
	Height Dimension `json:"height,omitempty" yaml:"height"`

	// gauge options
	Min        float64 `json:"min,omitempty" yaml:"min"`
	Max        float64 `json:"max,omitempty" yaml:"max"`
	RedFrom    float64 `json:"redFrom,omitempty" yaml:"red_from"`
	RedTo      float64 `json:"redTo,omitempty" yaml:"red_to"`
	YellowFrom float64 `json:"yellowFrom,omitempty" yaml:"yellow_from"`
	YellowTo   float64 `json:"yellowTo,omitempty" yaml:"yellow_to"`
	GreenFrom  float64 `json:"greenFrom,omitempty" yaml:"green_from"`
	GreenTo    float64 `json:"greenTo,omitempty" yaml:"green_to"`
	MinorTicks int     `json:"minorTicks,omitempty" yaml:"minor_ticks"`

	// chart options
	Legend    string `json:"legend,omitempty" yaml:"legend"`
	PointSize int    `json:"pointSize,omitempty" yaml:"point_size"`
	HAxis     *Axis  `json:"hAxis,omitempty" yaml:"h_axis"`
	VAxis     *Axis  `json:"vAxis,omitempty" yaml:"v_axis"`
}

// Clone returns a copy of o that shares no pointers with it.
func (o DrawOptions) Clone() DrawOptions {
	if o.HAxis != nil {
		ax := *o.HAxis
		o.HAxis = &ax
	}
	if o.VAxis != nil {
		ax := *o.VAxis
		o.VAxis = &ax
	}
	return o
}

// Zone is the gauge band a value falls into.
type Zone string

const (
	ZoneNone   Zone = ""
	ZoneGreen  Zone = "green"
	ZoneYellow Zone = "yellow"
	ZoneRed    Zone = "red"
)

// Zone classifies v against the gauge bands. Red takes precedence over
// yellow, yellow over green. A band with From == To is disabled.
func (o DrawOptions) Zone(v float64) Zone {
	in := func(from, to float64) bool {
		return from != to && v >= from && v <= to
	}
	switch {
	case in(o.RedFrom, o.RedTo):
		return ZoneRed
	case in(o.YellowFrom, o.YellowTo):
		return ZoneYellow
	case in(o.GreenFrom, o.GreenTo):
		return ZoneGreen
	default:
		return ZoneNone
	}
}

// Validate checks the options for internal consistency.
func (o DrawOptions) Validate() error {
	values := []struct {
		name string
		v    float64
	}{
		{"min", o.Min}, {"max", o.Max},
		{"red_from", o.RedFrom}, {"red_to", o.RedTo},
		{"yellow_from", o.YellowFrom}, {"yellow_to", o.YellowTo},
		{"green_from", o.GreenFrom}, {"green_to", o.GreenTo},
	}
	for _, f := range values {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%s must be a finite number, got %g", f.name, f.v)
		}
	}
	if o.Max != 0 && o.Max < o.Min {
		return fmt.Errorf("max (%g) must not be less than min (%g)", o.Max, o.Min)
	}
	bands := []struct {
		name     string
		from, to float64
	}{
		{"red", o.RedFrom, o.RedTo},
		{"yellow", o.YellowFrom, o.YellowTo},
		{"green", o.GreenFrom, o.GreenTo},
	}
	for _, b := range bands {
		if b.to < b.from {
			return fmt.Errorf("%s band: to (%g) must not be less than from (%g)", b.name, b.to, b.from)
		}
	}
	if o.MinorTicks < 0 {
		return fmt.Errorf("minor ticks must not be negative, got %d", o.MinorTicks)
	}
	if o.PointSize < 0 {
		return fmt.Errorf("point size must not be negative, got %d", o.PointSize)
	}
	switch o.Legend {
	case "", "bottom", "top", "left", "right", "in", "none":
	default:
		return fmt.Errorf("unknown legend position %q", o.Legend)
	}
	return nil
}
