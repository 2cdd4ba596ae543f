package statsboard

import (
	"encoding/json"
	"math"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestWidgetKind_Valid(t *testing.T) {
	for _, k := range []WidgetKind{KindTable, KindGauge, KindLineChart} {
		if !k.Valid() {
			t.Errorf("%s.Valid() = false", k)
		}
	}
	for _, k := range []WidgetKind{"", "piechart", "Table"} {
		if k.Valid() {
			t.Errorf("%q.Valid() = true", k)
		}
	}
}

func TestDimension_JSON(t *testing.T) {
	tests := []struct {
		dim  Dimension
		want string
	}{
		{Pixels(600), `600`},
		{"800px", `"800px"`},
		{"100%", `"100%"`},
	}
	for _, tt := range tests {
		got, err := json.Marshal(tt.dim)
		if err != nil {
			t.Fatalf("Marshal(%q) error = %v", tt.dim, err)
		}
		if string(got) != tt.want {
			t.Errorf("Marshal(%q) = %s, want %s", tt.dim, got, tt.want)
		}

		var back Dimension
		if err := json.Unmarshal(got, &back); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", got, err)
		}
		if back != tt.dim {
			t.Errorf("round trip = %q, want %q", back, tt.dim)
		}
	}
}

func TestDimension_Pixels(t *testing.T) {
	tests := []struct {
		dim    Dimension
		want   int
		wantOK bool
	}{
		{"150", 150, true},
		{"800px", 800, true},
		{"100%", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := tt.dim.Pixels()
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("%q.Pixels() = %d, %v; want %d, %v", tt.dim, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDrawOptions_JSONShape(t *testing.T) {
	data, err := json.Marshal(EthernetGaugeOptions())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"width":600,"height":150,"max":10,"redFrom":9,"redTo":10,"yellowFrom":4,"yellowTo":9,"minorTicks":1}`
	if string(data) != want {
		t.Errorf("Marshal() = %s\nwant        %s", data, want)
	}

	data, _ = json.Marshal(InterfaceChartOptions())
	want = `{"width":800,"height":300,"legend":"bottom","pointSize":4,"hAxis":{"title":"Interface"}}`
	if string(data) != want {
		t.Errorf("Marshal() = %s\nwant        %s", data, want)
	}
}

func TestDrawOptions_YAML(t *testing.T) {
	src := `
width: 800px
height: 300
legend: bottom
point_size: 4
h_axis:
  title: Interface
red_from: 9
red_to: 10
`
	var o DrawOptions
	if err := yaml.Unmarshal([]byte(src), &o); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if o.Width != "800px" || o.Height != "300" {
		t.Errorf("size = %q x %q", o.Width, o.Height)
	}
	if o.HAxis == nil || o.HAxis.Title != "Interface" {
		t.Errorf("HAxis = %+v", o.HAxis)
	}
	if o.PointSize != 4 || o.RedFrom != 9 || o.RedTo != 10 {
		t.Errorf("options = %+v", o)
	}
}

func TestDrawOptions_Zone(t *testing.T) {
	o := CaptureGaugeOptions()
	tests := []struct {
		v    float64
		want Zone
	}{
		{0, ZoneNone},
		{15.9, ZoneNone},
		{16, ZoneYellow},
		{18.5, ZoneYellow},
		{19, ZoneRed},
		{20, ZoneRed},
	}
	for _, tt := range tests {
		if got := o.Zone(tt.v); got != tt.want {
			t.Errorf("Zone(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}

	o.GreenFrom, o.GreenTo = 0, 16
	if got := o.Zone(3); got != ZoneGreen {
		t.Errorf("Zone(3) with green band = %q, want green", got)
	}
}

func TestDrawOptions_Validate(t *testing.T) {
	valid := []DrawOptions{
		{},
		InterfaceTableOptions(),
		EthernetGaugeOptions(),
		CaptureGaugeOptions(),
		InterfaceChartOptions(),
	}
	for _, o := range valid {
		if err := o.Validate(); err != nil {
			t.Errorf("Validate(%+v) = %v", o, err)
		}
	}

	invalid := []DrawOptions{
		{Min: 10, Max: 5},
		{YellowFrom: 9, YellowTo: 4},
		{MinorTicks: -1},
		{PointSize: -2},
		{Legend: "middle"},
		{Max: math.Inf(1)},
		{RedTo: math.NaN()},
	}
	for _, o := range invalid {
		if err := o.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", o)
		}
	}
}
