package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/jpalmerr/statsboard"
)

func TestBuildQueries_DefaultsWhenEmpty(t *testing.T) {
	cfg := &Config{BaseURL: "http://stats.local:8000"}

	queries, err := BuildQueries(cfg)
	if err != nil {
		t.Fatalf("BuildQueries() error = %v", err)
	}
	if len(queries) != 4 {
		t.Fatalf("len(queries) = %d, want 4", len(queries))
	}

	want, _ := statsboard.DefaultQueries("http://stats.local:8000")
	for i := range want {
		if queries[i].Name() != want[i].Name() || queries[i].URL() != want[i].URL() {
			t.Errorf("queries[%d] = %s %s, want %s %s",
				i, queries[i].Name(), queries[i].URL(), want[i].Name(), want[i].URL())
		}
	}
}

func TestBuildQueries_AllOptions(t *testing.T) {
	cfg := &Config{
		BaseURL: "http://stats.local:8000",
		Queries: []QueryConfig{
			{
				Name:    "capture",
				URL:     "http://stats.local:8000/stats/capture/",
				Widget:  "capture_div",
				Kind:    "gauge",
				Timeout: Duration(5 * time.Second),
				Headers: map[string]string{
					"X-Site":  "vdas-1",
					"X-Token": "abc",
				},
				Options: statsboard.DrawOptions{Width: statsboard.Pixels(400), Max: 20},
			},
		},
	}

	queries, err := BuildQueries(cfg)
	if err != nil {
		t.Fatalf("BuildQueries() error = %v", err)
	}

	q := queries[0]
	if q.Name() != "capture" || q.Widget() != "capture_div" || q.Kind() != statsboard.KindGauge {
		t.Errorf("query = %s %s %s", q.Name(), q.Widget(), q.Kind())
	}
	if q.Timeout() != 5*time.Second {
		t.Errorf("Timeout() = %v, want 5s", q.Timeout())
	}
	if !reflect.DeepEqual(q.Headers(), map[string]string{"X-Site": "vdas-1", "X-Token": "abc"}) {
		t.Errorf("Headers() = %v", q.Headers())
	}
	if q.Options().Max != 20 || q.Options().Width != "400" {
		t.Errorf("Options() = %+v", q.Options())
	}
	if q.Decoder() != nil {
		t.Error("Decoder() should be nil for the default decoder")
	}
}

func TestBuildQueries_DecoderTypes(t *testing.T) {
	tests := []struct {
		name    string
		decoder DecoderConfig
		wantNil bool // nil means SDK uses GVizDecoder
	}{
		{"empty (default)", DecoderConfig{}, true},
		{"explicit gviz", DecoderConfig{Type: "gviz"}, true},
		{"csv", DecoderConfig{Type: "csv"}, false},
		{"json", DecoderConfig{Type: "json", Path: "data.rows"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Queries: []QueryConfig{{
					Name:    "q",
					URL:     "http://stats.local/x",
					Widget:  "x_div",
					Kind:    "table",
					Decoder: tt.decoder,
				}},
			}
			queries, err := BuildQueries(cfg)
			if err != nil {
				t.Fatalf("BuildQueries() error = %v", err)
			}
			if got := queries[0].Decoder() == nil; got != tt.wantNil {
				t.Errorf("Decoder() nil = %v, want %v", got, tt.wantNil)
			}
		})
	}
}

func TestBuildQueries_JSONDecoderUsesPath(t *testing.T) {
	cfg := &Config{
		Queries: []QueryConfig{{
			Name:    "q",
			URL:     "http://stats.local/x",
			Widget:  "x_div",
			Kind:    "table",
			Decoder: DecoderConfig{Type: "json", Path: "data.rows"},
		}},
	}
	queries, err := BuildQueries(cfg)
	if err != nil {
		t.Fatalf("BuildQueries() error = %v", err)
	}

	table, err := queries[0].Decoder()([]byte(`{"data":{"rows":[{"label":"Eth0","value":1.5}]}}`))
	if err != nil {
		t.Fatalf("decoder error = %v", err)
	}
	if table.NumRows() != 1 {
		t.Errorf("NumRows() = %d, want 1", table.NumRows())
	}
}

func TestBuildQueries_InvalidQuery(t *testing.T) {
	cfg := &Config{
		Queries: []QueryConfig{{Name: "q", URL: "http://stats.local/x", Widget: "x_div", Kind: "pie"}},
	}
	if _, err := BuildQueries(cfg); err == nil {
		t.Error("BuildQueries() expected error for unknown kind")
	}
}

func TestBuildOptions(t *testing.T) {
	cfg, err := Parse([]byte(`
title: VDAS Capture
port: 9090
poll_interval: 2s
base_url: http://stats.local:8000
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	opts, err := BuildOptions(cfg)
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}

	sb, err := statsboard.New(opts...)
	if err != nil {
		t.Fatalf("statsboard.New() error = %v", err)
	}
	if sb.Port() != 9090 {
		t.Errorf("Port() = %d, want 9090", sb.Port())
	}
	if sb.PollingInterval() != 2*time.Second {
		t.Errorf("PollingInterval() = %v, want 2s", sb.PollingInterval())
	}
	if len(sb.Queries()) != 4 {
		t.Errorf("len(Queries()) = %d, want 4", len(sb.Queries()))
	}
}

func TestMapToKeyValuePairs(t *testing.T) {
	got := mapToKeyValuePairs(map[string]string{"b": "2", "a": "1"})
	want := []string{"a", "1", "b", "2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mapToKeyValuePairs() = %v, want %v", got, want)
	}
}
