// Package datatable implements the Google Visualization DataTable model and
// the data source wire protocol used between the stats backend and the
// dashboard widgets.
//
// A [DataTable] is the opaque tabular payload handed to a widget's draw
// operation. It is produced by the backend with [Encode] and consumed by the
// dashboard with [Parse] or [Decode].
package datatable

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// ColumnType is the declared type of a DataTable column.
type ColumnType string

const (
	String    ColumnType = "string"
	Number    ColumnType = "number"
	Boolean   ColumnType = "boolean"
	Date      ColumnType = "date"
	DateTime  ColumnType = "datetime"
	TimeOfDay ColumnType = "timeofday"
)

// Valid reports whether t is one of the column types known to the
// visualization library.
func (t ColumnType) Valid() bool {
	switch t {
	case String, Number, Boolean, Date, DateTime, TimeOfDay:
		return true
	}
	return false
}

// Column describes one DataTable column.
type Column struct {
	ID    string     `json:"id"`
	Label string     `json:"label"`
	Type  ColumnType `json:"type"`
}

// Cell holds a single value. F is an optional formatted representation.
type Cell struct {
	V any    `json:"v"`
	F string `json:"f,omitempty"`
}

// Row is an ordered list of cells, one per column.
type Row struct {
	C []Cell `json:"c"`
}

// DataTable is a two-dimensional, typed table.
type DataTable struct {
	Cols []Column `json:"cols"`
	Rows []Row    `json:"rows"`
}

// New returns an empty table with the given columns.
func New(cols ...Column) *DataTable {
	return &DataTable{
		Cols: append([]Column(nil), cols...),
		Rows: []Row{},
	}
}

// AddRow appends a row of raw values. The number of values must match the
// number of columns.
func (t *DataTable) AddRow(values ...any) error {
	if len(values) != len(t.Cols) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.Cols))
	}
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = Cell{V: v}
	}
	t.Rows = append(t.Rows, Row{C: cells})
	return nil
}

// NumRows returns the number of rows.
func (t *DataTable) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// NumCols returns the number of columns.
func (t *DataTable) NumCols() int {
	if t == nil {
		return 0
	}
	return len(t.Cols)
}

// ColumnIndex returns the index of the column with the given id, or -1.
func (t *DataTable) ColumnIndex(id string) int {
	for i, c := range t.Cols {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Value returns the raw value at (row, col), or nil when out of range.
func (t *DataTable) Value(row, col int) any {
	if t == nil || row < 0 || row >= len(t.Rows) {
		return nil
	}
	cells := t.Rows[row].C
	if col < 0 || col >= len(cells) {
		return nil
	}
	return cells[col].V
}

// Float returns the value at (row, col) as a float64. The second result is
// false when the cell is empty or not numeric.
func (t *DataTable) Float(row, col int) (float64, bool) {
	switch v := t.Value(row, col).(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Text returns the display text of the cell at (row, col): its formatted
// value when present, otherwise the raw value rendered as a string.
func (t *DataTable) Text(row, col int) string {
	if t == nil || row < 0 || row >= len(t.Rows) {
		return ""
	}
	cells := t.Rows[row].C
	if col < 0 || col >= len(cells) {
		return ""
	}
	if cells[col].F != "" {
		return cells[col].F
	}
	switch v := cells[col].V.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// SortBy orders rows by the column with the given id. Numeric columns sort
// numerically, everything else by text. The sort is stable.
func (t *DataTable) SortBy(id string) error {
	col := t.ColumnIndex(id)
	if col < 0 {
		return fmt.Errorf("unknown column %q", id)
	}
	numeric := t.Cols[col].Type == Number
	sort.SliceStable(t.Rows, func(i, j int) bool {
		if numeric {
			a, _ := t.Float(i, col)
			b, _ := t.Float(j, col)
			return a < b
		}
		return t.Text(i, col) < t.Text(j, col)
	})
	return nil
}

// Clone returns a deep copy of the table structure. Cell values are copied
// by value; they are expected to be scalars.
func (t *DataTable) Clone() *DataTable {
	if t == nil {
		return nil
	}
	cp := &DataTable{
		Cols: append([]Column(nil), t.Cols...),
		Rows: make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		cp.Rows[i] = Row{C: append([]Cell(nil), r.C...)}
	}
	return cp
}
