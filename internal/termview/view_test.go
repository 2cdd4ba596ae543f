package termview

import (
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/jpalmerr/statsboard"
	"github.com/jpalmerr/statsboard/datatable"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func labelValue(t *testing.T, pairs ...any) *datatable.DataTable {
	t.Helper()
	table := datatable.New(
		datatable.Column{ID: "label", Label: "Label", Type: datatable.String},
		datatable.Column{ID: "value", Label: "Value", Type: datatable.Number},
	)
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := table.AddRow(pairs[i], pairs[i+1]); err != nil {
			t.Fatalf("AddRow() error = %v", err)
		}
	}
	return table
}

func defaultQueries(t *testing.T) []statsboard.Query {
	t.Helper()
	queries, err := statsboard.DefaultQueries(statsboard.DefaultBaseURL)
	if err != nil {
		t.Fatalf("DefaultQueries() error = %v", err)
	}
	return queries
}

func TestTableRows(t *testing.T) {
	table := datatable.New(
		datatable.Column{ID: "interface", Label: "interface", Type: datatable.String},
		datatable.Column{ID: "byteCount", Type: datatable.Number},
	)
	_ = table.AddRow("0", 1e9)
	_ = table.AddRow("1", 2.5)

	got := tableRows(table)
	want := [][]string{
		{"interface", "byteCount"},
		{"0", "1000000000"},
		{"1", "2.5"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tableRows() = %v, want %v", got, want)
	}
}

func TestTableRows_NoColumns(t *testing.T) {
	got := tableRows(datatable.New())
	if len(got) != 1 || len(got[0]) != 1 {
		t.Errorf("tableRows() = %v, want a single placeholder cell", got)
	}
}

func TestGaugeReadings(t *testing.T) {
	opts := statsboard.DrawOptions{
		Max:        10,
		RedFrom:    9,
		RedTo:      10,
		YellowFrom: 7.5,
		YellowTo:   9,
	}
	table := labelValue(t, "Eth0", 1.5, "Eth1", "n/a", "Eth2", 9.2, "Eth3", 8.0, "Eth4", 12.0)

	got := gaugeReadings(table, opts)
	if len(got) != 4 {
		t.Fatalf("got %d readings, want 4", len(got))
	}

	tests := []struct {
		label   string
		percent int
		zone    statsboard.Zone
	}{
		{"Eth0", 15, statsboard.ZoneNone},
		{"Eth2", 92, statsboard.ZoneRed},
		{"Eth3", 80, statsboard.ZoneYellow},
		{"Eth4", 100, statsboard.ZoneNone},
	}
	for i, tt := range tests {
		if got[i].Label != tt.label || got[i].Percent != tt.percent || got[i].Zone != tt.zone {
			t.Errorf("reading %d = %+v, want %s %d%% %q", i, got[i], tt.label, tt.percent, tt.zone)
		}
	}
}

func TestGaugeReadings_DefaultRange(t *testing.T) {
	got := gaugeReadings(labelValue(t, "Capture", 42.0, "Low", -5.0), statsboard.DrawOptions{})
	if got[0].Percent != 42 {
		t.Errorf("Percent = %d, want 42", got[0].Percent)
	}
	if got[1].Percent != 0 {
		t.Errorf("negative value Percent = %d, want 0", got[1].Percent)
	}
	if got[0].text() != "42 (42%)" {
		t.Errorf("text() = %q", got[0].text())
	}
}

func TestPlotSeries(t *testing.T) {
	table := datatable.New(
		datatable.Column{ID: "interface", Label: "interface", Type: datatable.String},
		datatable.Column{ID: "byteCount", Label: "byteCount", Type: datatable.Number},
		datatable.Column{ID: "note", Label: "note", Type: datatable.String},
		datatable.Column{ID: "errorCount", Label: "errorCount", Type: datatable.Number},
	)
	_ = table.AddRow("0", 10.0, "a", 1.0)
	_ = table.AddRow("1", 20.0, "b", nil)

	data, labels, ok := plotSeries(table)
	if !ok {
		t.Fatal("plotSeries() ok = false")
	}
	if !reflect.DeepEqual(labels, []string{"byteCount", "errorCount"}) {
		t.Errorf("labels = %v", labels)
	}
	if !reflect.DeepEqual(data, [][]float64{{10, 20}, {1, 0}}) {
		t.Errorf("data = %v", data)
	}
}

func TestPlotSeries_NotEnoughData(t *testing.T) {
	single := labelValue(t, "a", 1.0)
	if _, _, ok := plotSeries(single); ok {
		t.Error("one row should not be plottable")
	}

	text := datatable.New(
		datatable.Column{ID: "a", Type: datatable.String},
		datatable.Column{ID: "b", Type: datatable.String},
	)
	_ = text.AddRow("x", "y")
	_ = text.AddRow("z", "w")
	if _, _, ok := plotSeries(text); ok {
		t.Error("table without numeric columns should not be plottable")
	}
}

func TestView_DrawReplacesRender(t *testing.T) {
	v := New("Statsboard", defaultQueries(t), testLogger())

	first := statsboard.Draw{Widget: statsboard.WidgetCapture, Table: labelValue(t, "Capture", 1.0), Tick: 0}
	second := statsboard.Draw{Widget: statsboard.WidgetCapture, Table: labelValue(t, "Capture", 2.0), Tick: 3}
	v.Draw(first)
	v.Draw(second)

	panels, tick := v.snapshot()
	if tick != 3 {
		t.Errorf("lastTick = %d, want 3", tick)
	}
	for _, p := range panels {
		if p.widget != statsboard.WidgetCapture {
			if p.draw != nil {
				t.Errorf("panel %s drawn unexpectedly", p.widget)
			}
			continue
		}
		if p.draw == nil || p.draw.Tick != 3 {
			t.Errorf("capture panel = %+v, want tick 3", p.draw)
		}
	}
}

func TestView_UnknownWidgetIgnored(t *testing.T) {
	v := New("Statsboard", defaultQueries(t), testLogger())
	v.Draw(statsboard.Draw{Widget: "nope_div", Table: labelValue(t, "a", 1.0)})

	panels, _ := v.snapshot()
	for _, p := range panels {
		if p.draw != nil {
			t.Errorf("panel %s drawn by unknown widget", p.widget)
		}
	}
	select {
	case <-v.dirty:
		t.Error("unknown widget should not trigger a redraw")
	default:
	}
}

func TestView_PanelsFollowQueryOrder(t *testing.T) {
	v := New("Statsboard", defaultQueries(t), testLogger())
	panels, _ := v.snapshot()

	var widgets []string
	for _, p := range panels {
		widgets = append(widgets, p.widget)
	}
	want := []string{
		statsboard.WidgetStatsTable,
		statsboard.WidgetEthernet,
		statsboard.WidgetCapture,
		statsboard.WidgetStatsChart,
	}
	if !reflect.DeepEqual(widgets, want) {
		t.Errorf("panels = %v, want %v", widgets, want)
	}
}

func TestView_AlertsQueueUntilDismissed(t *testing.T) {
	v := New("Statsboard", defaultQueries(t), testLogger())
	v.Alert(statsboard.Alert{Message: "HTTP 500", Detailed: "Internal Server Error"})
	v.Alert(statsboard.Alert{Message: "Request failed", Detailed: "connection refused"})

	a, more, ok := v.pending()
	if !ok || more != 1 || a.Message != "HTTP 500" {
		t.Fatalf("pending() = %+v, %d, %v", a, more, ok)
	}

	if !v.dismiss() {
		t.Fatal("dismiss() = false with pending alerts")
	}
	a, more, ok = v.pending()
	if !ok || more != 0 || a.Message != "Request failed" {
		t.Fatalf("pending() after dismiss = %+v, %d, %v", a, more, ok)
	}

	v.dismiss()
	if _, _, ok := v.pending(); ok {
		t.Error("pending() should be empty")
	}
	if v.dismiss() {
		t.Error("dismiss() on empty queue = true")
	}
}

func TestView_AlertDoesNotTouchPanels(t *testing.T) {
	v := New("Statsboard", defaultQueries(t), testLogger())
	v.Draw(statsboard.Draw{Widget: statsboard.WidgetCapture, Table: labelValue(t, "Capture", 1.0), Tick: 1})
	v.Alert(statsboard.Alert{Widget: statsboard.WidgetCapture, Message: "HTTP 500", Tick: 2})

	panels, tick := v.snapshot()
	if tick != 1 {
		t.Errorf("lastTick = %d, want 1", tick)
	}
	for _, p := range panels {
		if p.widget == statsboard.WidgetCapture && (p.draw == nil || p.draw.Tick != 1) {
			t.Errorf("capture panel changed by alert: %+v", p.draw)
		}
	}
}

func TestView_ImplementsSink(t *testing.T) {
	var _ statsboard.Sink = (*View)(nil)
}
