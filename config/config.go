// Package config provides YAML configuration parsing for statsboard.
//
// This package enables running statsboard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
// A configuration without queries runs the four default widgets against
// base_url.
//
// Example configuration:
//
//	title: VDAS Capture
//	port: 8080
//	poll_interval: 5s
//	base_url: ${STATS_URL:-http://127.0.0.1:8000}
//
//	queries:
//	  - name: capture
//	    url: /stats/capture/
//	    widget: capture_div
//	    kind: gauge
//	    options:
//	      width: 400
//	      max: 20
//	      red_from: 18
//	      red_to: 20
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/statsboard"
)

// minPollInterval is the minimum allowed polling interval for production configs.
// This prevents accidental DoS of the stats backend with overly aggressive polling.
const minPollInterval = 1 * time.Second

// Config is the root configuration structure for statsboard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "Statsboard" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// PollInterval is the time between ticks.
	// Accepts duration strings like "5s", "1m".
	// Defaults to 5s.
	PollInterval Duration `yaml:"poll_interval"`

	// BaseURL is the stats backend. Query URLs starting with "/" are
	// resolved against it. Defaults to http://127.0.0.1:8000.
	BaseURL string `yaml:"base_url"`

	// Queries defines the widgets and the endpoints feeding them.
	// If empty, the default dashboard is used.
	Queries []QueryConfig `yaml:"queries"`
}

// QueryConfig defines a single query and the widget it draws into.
type QueryConfig struct {
	// Name identifies the query in logs and alerts.
	Name string `yaml:"name"`

	// URL is the stats endpoint, absolute or a path under base_url.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Widget is the element id the response is drawn into.
	Widget string `yaml:"widget"`

	// Kind is the widget type: table, gauge or linechart.
	Kind string `yaml:"kind"`

	// Timeout is the request timeout. Defaults to 30s.
	Timeout Duration `yaml:"timeout"`

	// Headers are custom HTTP headers sent with each request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Decoder determines how the response body becomes a table.
	// Can be shorthand ("gviz", "csv", "json:data.rows") or structured.
	Decoder DecoderConfig `yaml:"decoder"`

	// Options is the fixed draw configuration of the widget.
	Options statsboard.DrawOptions `yaml:"options"`
}

// DecoderConfig specifies how to turn a response body into a table.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	decoder: gviz
//	decoder: csv
//	decoder: json:data.interfaces
//
// Structured object:
//
//	decoder:
//	  type: json
//	  path: data.interfaces
type DecoderConfig struct {
	// Type is the decoder type: "gviz", "json" or "csv".
	Type string

	// Path is the dot path to the array of rows (for type: json).
	Path string
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for DecoderConfig.
func (d *DecoderConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return d.parseShorthand(s)
	}

	if node.Kind == yaml.MappingNode {
		// temporary struct to avoid infinite recursion
		var raw struct {
			Type string `yaml:"type"`
			Path string `yaml:"path"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		d.Type = raw.Type
		d.Path = raw.Path
		return nil
	}

	return fmt.Errorf("decoder must be a string or object, got %v", node.Kind)
}

// parseShorthand parses decoder shorthand syntax.
//
// Supported formats:
//   - "gviz" → data source wire protocol (the default)
//   - "csv" → comma-separated values with a header row
//   - "json" or "json:path" → array of objects at path
func (d *DecoderConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if typ, path, ok := strings.Cut(s, ":"); ok {
		if typ != "json" {
			return fmt.Errorf("unknown decoder type %q", typ)
		}
		d.Type = typ
		d.Path = path
		return nil
	}

	switch s {
	case "gviz", "csv", "json":
		d.Type = s
	default:
		return fmt.Errorf("unknown decoder %q (expected 'gviz', 'csv', 'json' or 'json:path')", s)
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in base_url, query URLs and header
// values. Defaults are applied for Port (8080), PollInterval (5s) and
// BaseURL.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = statsboard.DefaultPort
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(statsboard.DefaultPollingInterval)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = statsboard.DefaultBaseURL
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}

	base, err := expandEnvVars(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if err := validateHTTPURL(base); err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	c.BaseURL = strings.TrimRight(base, "/")

	names := make(map[string]struct{}, len(c.Queries))
	for i := range c.Queries {
		q := &c.Queries[i]

		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if _, dup := names[q.Name]; dup {
			return fmt.Errorf("queries[%d]: duplicate name %q", i, q.Name)
		}
		names[q.Name] = struct{}{}

		if q.Widget == "" {
			return fmt.Errorf("queries[%d] (%s): widget is required", i, q.Name)
		}
		if !statsboard.WidgetKind(q.Kind).Valid() {
			return fmt.Errorf("queries[%d] (%s): kind must be table, gauge or linechart, got %q", i, q.Name, q.Kind)
		}

		if q.URL == "" {
			return fmt.Errorf("queries[%d] (%s): url is required", i, q.Name)
		}
		expanded, err := expandEnvVars(q.URL)
		if err != nil {
			return fmt.Errorf("queries[%d] (%s): url: %w", i, q.Name, err)
		}
		if strings.HasPrefix(expanded, "/") {
			expanded = c.BaseURL + expanded
		}
		if err := validateHTTPURL(expanded); err != nil {
			return fmt.Errorf("queries[%d] (%s): %w", i, q.Name, err)
		}
		q.URL = expanded

		for k, v := range q.Headers {
			expanded, err := expandEnvVars(v)
			if err != nil {
				return fmt.Errorf("queries[%d] (%s): headers[%s]: %w", i, q.Name, k, err)
			}
			q.Headers[k] = expanded
		}

		if q.Timeout != 0 {
			if q.Timeout.Duration() < 0 {
				return fmt.Errorf("queries[%d] (%s): timeout cannot be negative, got %s",
					i, q.Name, q.Timeout.Duration())
			}
			if q.Timeout.Duration() < time.Second {
				return fmt.Errorf("queries[%d] (%s): timeout must be at least 1s if specified, got %s",
					i, q.Name, q.Timeout.Duration())
			}
		}

		if err := validateDecoder(q.Decoder, fmt.Sprintf("queries[%d] (%s)", i, q.Name)); err != nil {
			return err
		}

		if err := q.Options.Validate(); err != nil {
			return fmt.Errorf("queries[%d] (%s): options: %w", i, q.Name, err)
		}
	}

	return nil
}

// validateHTTPURL checks that raw is an absolute http(s) URL.
func validateHTTPURL(raw string) error {
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return errors.New("url must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return errors.New("url must have a host")
	}
	return nil
}

// validateDecoder validates a decoder configuration.
func validateDecoder(d DecoderConfig, context string) error {
	switch d.Type {
	case "", "gviz", "csv", "json":
		return nil
	default:
		return fmt.Errorf("%s: unknown decoder type %q", context, d.Type)
	}
}
