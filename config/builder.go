package config

import (
	"sort"

	"github.com/jpalmerr/statsboard"
)

// BuildQueries converts parsed configuration into SDK Query objects.
//
// A config without queries yields [statsboard.DefaultQueries] against the
// configured base URL.
func BuildQueries(cfg *Config) ([]statsboard.Query, error) {
	if len(cfg.Queries) == 0 {
		return statsboard.DefaultQueries(cfg.BaseURL)
	}

	queries := make([]statsboard.Query, 0, len(cfg.Queries))
	for _, qc := range cfg.Queries {
		q, err := buildQuery(qc)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, nil
}

// BuildOptions returns the SDK options for cfg, including its queries.
func BuildOptions(cfg *Config) ([]statsboard.Option, error) {
	queries, err := BuildQueries(cfg)
	if err != nil {
		return nil, err
	}

	opts := []statsboard.Option{
		statsboard.WithQueries(queries...),
		statsboard.WithPort(cfg.Port),
		statsboard.WithPollingInterval(cfg.PollInterval.Duration()),
	}
	if cfg.Title != "" {
		opts = append(opts, statsboard.WithTitle(cfg.Title))
	}
	return opts, nil
}

// buildQuery converts a single QueryConfig to an SDK Query.
func buildQuery(qc QueryConfig) (statsboard.Query, error) {
	opts := []statsboard.QueryOption{
		statsboard.WithDrawOptions(qc.Options),
	}

	if qc.Timeout != 0 {
		opts = append(opts, statsboard.WithTimeout(qc.Timeout.Duration()))
	}

	if len(qc.Headers) > 0 {
		opts = append(opts, statsboard.WithHeaders(mapToKeyValuePairs(qc.Headers)...))
	}

	if decoder := buildDecoder(qc.Decoder); decoder != nil {
		opts = append(opts, statsboard.WithDecoder(decoder))
	}

	return statsboard.NewQuery(qc.Name, qc.URL, qc.Widget, statsboard.WidgetKind(qc.Kind), opts...)
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}

// buildDecoder converts DecoderConfig to a TableDecoder.
// Returns nil for the default wire protocol decoder.
func buildDecoder(dc DecoderConfig) statsboard.TableDecoder {
	switch dc.Type {
	case "json":
		return statsboard.JSONRowsDecoder(dc.Path)
	case "csv":
		return statsboard.CSVDecoder
	default:
		// nil signals SDK to use GVizDecoder
		return nil
	}
}
