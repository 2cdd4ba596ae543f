package termview

import (
	"fmt"
	"math"
	"strconv"

	ui "github.com/gizak/termui/v3"

	"github.com/jpalmerr/statsboard"
	"github.com/jpalmerr/statsboard/datatable"
)

// gaugeReading is one dial of a gauge widget.
type gaugeReading struct {
	Label   string
	Value   float64
	Percent int
	Zone    statsboard.Zone
}

// tableRows returns the table's header and cells as text, header first.
func tableRows(t *datatable.DataTable) [][]string {
	if t.NumCols() == 0 {
		return [][]string{{"(no columns)"}}
	}

	header := make([]string, t.NumCols())
	for i, c := range t.Cols {
		header[i] = c.Label
		if header[i] == "" {
			header[i] = c.ID
		}
	}

	rows := make([][]string, 0, t.NumRows()+1)
	rows = append(rows, header)
	for r := 0; r < t.NumRows(); r++ {
		row := make([]string, t.NumCols())
		for c := range row {
			row[c] = t.Text(r, c)
		}
		rows = append(rows, row)
	}
	return rows
}

// gaugeReadings maps a label/value table onto gauge dials. Rows whose second
// column is not numeric are skipped.
func gaugeReadings(t *datatable.DataTable, o statsboard.DrawOptions) []gaugeReading {
	lo, hi := o.Min, o.Max
	if hi <= lo {
		hi = lo + 100
	}

	var readings []gaugeReading
	for r := 0; r < t.NumRows(); r++ {
		v, ok := t.Float(r, 1)
		if !ok {
			continue
		}
		pct := int(math.Round((v - lo) / (hi - lo) * 100))
		pct = max(0, min(100, pct))
		readings = append(readings, gaugeReading{
			Label:   t.Text(r, 0),
			Value:   v,
			Percent: pct,
			Zone:    o.Zone(v),
		})
	}
	return readings
}

// plotSeries returns one series per numeric column after the first. ok is
// false when there is nothing a plot can draw.
func plotSeries(t *datatable.DataTable) (data [][]float64, labels []string, ok bool) {
	if t.NumRows() < 2 {
		return nil, nil, false
	}
	for c := 1; c < t.NumCols(); c++ {
		if t.Cols[c].Type != datatable.Number {
			continue
		}
		series := make([]float64, t.NumRows())
		for r := range series {
			series[r], _ = t.Float(r, c)
		}
		data = append(data, series)
		labels = append(labels, t.Cols[c].Label)
	}
	return data, labels, len(data) > 0
}

func zoneColor(z statsboard.Zone) ui.Color {
	switch z {
	case statsboard.ZoneRed:
		return ui.ColorRed
	case statsboard.ZoneYellow:
		return ui.ColorYellow
	case statsboard.ZoneGreen:
		return ui.ColorGreen
	default:
		return ui.ColorBlue
	}
}

func (g gaugeReading) text() string {
	return fmt.Sprintf("%s (%d%%)", strconv.FormatFloat(g.Value, 'f', -1, 64), g.Percent)
}
