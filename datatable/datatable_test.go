package datatable

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interfaceTable(t *testing.T) *DataTable {
	t.Helper()
	dt := New(
		Column{ID: "interface", Label: "Interface", Type: String},
		Column{ID: "byteCount", Label: "byteCount", Type: Number},
	)
	require.NoError(t, dt.AddRow("1", int64(300)))
	require.NoError(t, dt.AddRow("0", int64(100)))
	return dt
}

func TestAddRow_ColumnMismatch(t *testing.T) {
	dt := New(Column{ID: "a", Type: String})
	err := dt.AddRow("x", "y")
	assert.Error(t, err)
	assert.Equal(t, 0, dt.NumRows())
}

func TestValueAccessors(t *testing.T) {
	dt := interfaceTable(t)

	assert.Equal(t, 2, dt.NumRows())
	assert.Equal(t, 2, dt.NumCols())
	assert.Equal(t, 1, dt.ColumnIndex("byteCount"))
	assert.Equal(t, -1, dt.ColumnIndex("missing"))

	v, ok := dt.Float(0, 1)
	assert.True(t, ok)
	assert.Equal(t, 300.0, v)

	_, ok = dt.Float(5, 1)
	assert.False(t, ok)

	assert.Equal(t, "1", dt.Text(0, 0))
	assert.Equal(t, "300", dt.Text(0, 1))
	assert.Equal(t, "", dt.Text(0, 9))
}

func TestText_PrefersFormattedValue(t *testing.T) {
	dt := New(Column{ID: "v", Type: Number})
	dt.Rows = append(dt.Rows, Row{C: []Cell{{V: 1.5, F: "1.5 Gbps"}}})
	assert.Equal(t, "1.5 Gbps", dt.Text(0, 0))
}

func TestNilTableIsEmpty(t *testing.T) {
	var dt *DataTable
	assert.Equal(t, 0, dt.NumRows())
	assert.Equal(t, 0, dt.NumCols())
	assert.Nil(t, dt.Value(0, 0))
	assert.Nil(t, dt.Clone())
}

func TestSortBy(t *testing.T) {
	t.Run("text column", func(t *testing.T) {
		dt := interfaceTable(t)
		require.NoError(t, dt.SortBy("interface"))
		assert.Equal(t, "0", dt.Text(0, 0))
		assert.Equal(t, "1", dt.Text(1, 0))
	})

	t.Run("numeric column", func(t *testing.T) {
		dt := New(Column{ID: "label", Type: String}, Column{ID: "value", Type: Number})
		require.NoError(t, dt.AddRow("b", 10.0))
		require.NoError(t, dt.AddRow("a", 2.0))
		require.NoError(t, dt.SortBy("value"))
		assert.Equal(t, "a", dt.Text(0, 0))
	})

	t.Run("unknown column", func(t *testing.T) {
		dt := interfaceTable(t)
		assert.Error(t, dt.SortBy("nope"))
	})
}

func TestClone_Independent(t *testing.T) {
	dt := interfaceTable(t)
	cp := dt.Clone()
	cp.Rows[0].C[0].V = "changed"
	cp.Cols[0].Label = "changed"

	assert.Equal(t, "1", dt.Text(0, 0))
	assert.Equal(t, "Interface", dt.Cols[0].Label)
}

func TestJSONShape(t *testing.T) {
	dt := interfaceTable(t)
	data, err := json.Marshal(dt)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"cols":[{"id":"interface","label":"Interface","type":"string"},{"id":"byteCount","label":"byteCount","type":"number"}],
		  "rows":[{"c":[{"v":"1"},{"v":300}]},{"c":[{"v":"0"},{"v":100}]}]}`,
		string(data))
}

func TestColumnTypeValid(t *testing.T) {
	assert.True(t, Number.Valid())
	assert.True(t, TimeOfDay.Valid())
	assert.False(t, ColumnType("blob").Valid())
}
