package statsboard

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jpalmerr/statsboard/datatable"
)

// TableDecoder turns a successful response body into the table drawn into a
// query's widget.
//
// Decoders only see bodies of 2xx responses; any other status is reported
// as a failed query before decoding. A decoder that returns an error causes
// an alert, and the widget keeps its previous render.
//
// # Panic Safety
//
// Decoders are called within a panic recovery boundary. A panicking decoder
// is reported as a failed query carrying a correlation ID; the stack trace
// is logged server-side.
type TableDecoder func(body []byte) (*datatable.DataTable, error)

// GVizDecoder decodes a data source wire protocol response, either wrapped
// in the response handler call or as bare JSON.
//
// A response with status "error" yields a *[datatable.ResponseError] whose
// message and detailed message become the alert text.
var GVizDecoder TableDecoder = datatable.Decode

// DefaultDecoder is the [TableDecoder] used when a query has none.
var DefaultDecoder = GVizDecoder

// JSONRowsDecoder returns a [TableDecoder] that reads an array of objects at
// a dot-separated path and turns each object into a row.
//
// When cols is empty, the columns are the sorted keys of the first object,
// typed from its values. An empty path selects the document root.
//
// Example:
//
//	// For response: {"data": {"interfaces": [{"id": 0, "bytes": 12}]}}
//	decoder := statsboard.JSONRowsDecoder("data.interfaces")
func JSONRowsDecoder(path string, cols ...datatable.Column) TableDecoder {
	var parts []string
	if path != "" {
		parts = strings.Split(path, ".")
	}

	return func(body []byte) (*datatable.DataTable, error) {
		var data any
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}

		value, ok := extractJSONPath(data, parts)
		if !ok {
			return nil, fmt.Errorf("path %q not found", path)
		}
		items, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("path %q is not an array", path)
		}

		columns := cols
		if len(columns) == 0 {
			if len(items) == 0 {
				return nil, fmt.Errorf("path %q: cannot infer columns from an empty array", path)
			}
			first, ok := items[0].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("path %q: rows must be objects", path)
			}
			columns = inferColumns(first)
		}

		table := datatable.New(columns...)
		for i, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("path %q: row %d is not an object", path, i)
			}
			values := make([]any, len(columns))
			for c, col := range columns {
				values[c] = obj[col.ID]
			}
			if err := table.AddRow(values...); err != nil {
				return nil, err
			}
		}
		return table, nil
	}
}

// extractJSONPath walks a JSON structure using dot notation parts.
func extractJSONPath(data any, parts []string) (any, bool) {
	current := data

	for _, part := range parts {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// inferColumns derives typed columns from a sample row.
func inferColumns(sample map[string]any) []datatable.Column {
	keys := make([]string, 0, len(sample))
	for k := range sample {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cols := make([]datatable.Column, len(keys))
	for i, k := range keys {
		typ := datatable.String
		switch sample[k].(type) {
		case float64:
			typ = datatable.Number
		case bool:
			typ = datatable.Boolean
		}
		cols[i] = datatable.Column{ID: k, Label: k, Type: typ}
	}
	return cols
}

// CSVDecoder is a [TableDecoder] for comma-separated values with a header
// row. A column whose every value parses as a number is typed number; all
// other columns are strings.
var CSVDecoder TableDecoder = func(body []byte) (*datatable.DataTable, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.New("empty CSV body")
	}
	if err != nil {
		return nil, fmt.Errorf("invalid CSV header: %w", err)
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}

	numeric := make([]bool, len(header))
	for c := range header {
		numeric[c] = len(records) > 0
		for _, rec := range records {
			if _, err := strconv.ParseFloat(rec[c], 64); err != nil {
				numeric[c] = false
				break
			}
		}
	}

	cols := make([]datatable.Column, len(header))
	for c, name := range header {
		cols[c] = datatable.Column{ID: name, Label: name, Type: datatable.String}
		if numeric[c] {
			cols[c].Type = datatable.Number
		}
	}

	table := datatable.New(cols...)
	for _, rec := range records {
		values := make([]any, len(rec))
		for c, field := range rec {
			if numeric[c] {
				values[c], _ = strconv.ParseFloat(field, 64)
			} else {
				values[c] = field
			}
		}
		if err := table.AddRow(values...); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// FirstDecoded returns a [TableDecoder] that tries multiple decoders in
// order, returning the first table decoded without error.
//
// If every decoder fails, the errors are joined. A data source error
// reported by [GVizDecoder] stops the chain, since the body was understood.
//
// Example:
//
//	// Accept either the wire protocol or plain CSV
//	decoder := statsboard.FirstDecoded(statsboard.GVizDecoder, statsboard.CSVDecoder)
func FirstDecoded(decoders ...TableDecoder) TableDecoder {
	return func(body []byte) (*datatable.DataTable, error) {
		if len(decoders) == 0 {
			return nil, errors.New("no decoders configured")
		}

		var errs []error
		for _, decode := range decoders {
			table, err := decode(body)
			if err == nil {
				return table, nil
			}
			var re *datatable.ResponseError
			if errors.As(err, &re) {
				return nil, err
			}
			errs = append(errs, err)
		}
		return nil, errors.Join(errs...)
	}
}
