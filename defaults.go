package statsboard

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is where the stats backend listens by default.
	DefaultBaseURL = "http://127.0.0.1:8000"

	// DefaultPollingInterval is the time between ticks.
	DefaultPollingInterval = 5 * time.Second

	// DefaultPort is the dashboard server port.
	DefaultPort = 8080
)

// Element ids of the default widgets.
const (
	WidgetStatsTable = "stats_table_div"
	WidgetEthernet   = "ethernet_div"
	WidgetCapture    = "capture_div"
	WidgetStatsChart = "stats_div"
)

// Stats backend endpoints.
const (
	PathInterface = "/stats/interface/"
	PathEthernet  = "/stats/ethernet/"
	PathCapture   = "/stats/capture/"
)

// InterfaceTableOptions is the draw configuration of the interface table.
func InterfaceTableOptions() DrawOptions {
	return DrawOptions{Width: "800px"}
}

// EthernetGaugeOptions is the draw configuration of the per-interface
// throughput gauges, in Gbps.
func EthernetGaugeOptions() DrawOptions {
	return DrawOptions{
		Width:      Pixels(600),
		Height:     Pixels(150),
		Max:        10,
		RedFrom:    9,
		RedTo:      10,
		YellowFrom: 4,
		YellowTo:   9,
		MinorTicks: 1,
	}
}

// CaptureGaugeOptions is the draw configuration of the aggregate capture
// rate gauge, in Gbps.
func CaptureGaugeOptions() DrawOptions {
	return DrawOptions{
		Width:      Pixels(150),
		Height:     Pixels(150),
		Max:        20,
		RedFrom:    19,
		RedTo:      20,
		YellowFrom: 16,
		YellowTo:   19,
		MinorTicks: 1,
	}
}

// InterfaceChartOptions is the draw configuration of the interface line
// chart.
func InterfaceChartOptions() DrawOptions {
	return DrawOptions{
		Width:     Pixels(800),
		Height:    Pixels(300),
		Legend:    "bottom",
		PointSize: 4,
		HAxis:     &Axis{Title: "Interface"},
	}
}

// DefaultQueries returns the standard dashboard: the interface table, the
// ethernet and capture gauges and the interface line chart, all served by
// the stats backend at baseURL.
//
// opts are applied to every query after its draw options.
func DefaultQueries(baseURL string, opts ...QueryOption) ([]Query, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	specs := []struct {
		name    string
		path    string
		widget  string
		kind    WidgetKind
		options DrawOptions
	}{
		{"interfaces", PathInterface, WidgetStatsTable, KindTable, InterfaceTableOptions()},
		{"ethernet", PathEthernet, WidgetEthernet, KindGauge, EthernetGaugeOptions()},
		{"capture", PathCapture, WidgetCapture, KindGauge, CaptureGaugeOptions()},
		{"stats", PathInterface, WidgetStatsChart, KindLineChart, InterfaceChartOptions()},
	}

	queries := make([]Query, 0, len(specs))
	for _, s := range specs {
		u := *base
		u.Path = base.Path + s.path
		q, err := NewQuery(s.name, u.String(), s.widget, s.kind,
			append([]QueryOption{WithDrawOptions(s.options)}, opts...)...)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, nil
}
