package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/jpalmerr/statsboard/datatable"
	"github.com/jpalmerr/statsboard/internal/store"
)

const (
	defaultChartWidth  = 800
	defaultChartHeight = 300
)

// chartOptions is the subset of a render's draw options that applies to the
// SVG chart.
type chartOptions struct {
	Title     string    `json:"title"`
	Width     dimension `json:"width"`
	Height    dimension `json:"height"`
	Legend    string    `json:"legend"`
	PointSize int       `json:"pointSize"`
	HAxis     *struct {
		Title string `json:"title"`
	} `json:"hAxis"`
	VAxis *struct {
		Title string `json:"title"`
	} `json:"vAxis"`
}

// dimension is a width or height given either as a number or as a string
// such as "800px". Values that are not pixel sizes yield zero.
type dimension int

func (d *dimension) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	n, err := strconv.Atoi(strings.TrimSuffix(s, "px"))
	if err != nil {
		*d = 0
		return nil
	}
	*d = dimension(n)
	return nil
}

// buildChart lays out a line chart for a render's table.
//
// The first column supplies the X axis: its values when numeric, otherwise
// the row index with the column's text as tick labels. Every other numeric
// column becomes one series.
func buildChart(render store.Render) (chart.Chart, error) {
	t := render.Table
	if t.NumCols() < 2 {
		return chart.Chart{}, errors.New("chart needs at least two columns")
	}
	if t.NumRows() < 2 {
		return chart.Chart{}, errors.New("chart needs at least two rows")
	}

	var opts chartOptions
	if len(render.Options) > 0 {
		if err := json.Unmarshal(render.Options, &opts); err != nil {
			return chart.Chart{}, fmt.Errorf("invalid draw options: %w", err)
		}
	}

	xs, ticks := xValues(t)

	var series []chart.Series
	lo, hi := math.Inf(1), math.Inf(-1)
	for col := 1; col < t.NumCols(); col++ {
		if t.Cols[col].Type != datatable.Number {
			continue
		}
		ys := make([]float64, t.NumRows())
		for row := range ys {
			v, _ := t.Float(row, col)
			ys[row] = v
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		name := t.Cols[col].Label
		if name == "" {
			name = t.Cols[col].ID
		}
		color := chart.GetDefaultColor(len(series))
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				DotColor:    color,
				DotWidth:    float64(opts.PointSize),
			},
		})
	}
	if len(series) == 0 {
		return chart.Chart{}, errors.New("chart needs at least one numeric column")
	}

	c := chart.Chart{
		Title:  opts.Title,
		Width:  orDefault(int(opts.Width), defaultChartWidth),
		Height: orDefault(int(opts.Height), defaultChartHeight),
		XAxis:  chart.XAxis{Ticks: ticks},
		Series: series,
	}
	if opts.HAxis != nil {
		c.XAxis.Name = opts.HAxis.Title
	}
	if opts.VAxis != nil {
		c.YAxis.Name = opts.VAxis.Title
	}
	// a flat series has a zero data range, which the renderer rejects
	if lo == hi {
		c.YAxis.Range = &chart.ContinuousRange{Min: lo, Max: lo + 1}
	}
	if opts.Legend != "none" {
		c.Elements = []chart.Renderable{chart.Legend(&c)}
	}
	return c, nil
}

// xValues returns the X coordinate of every row, plus tick labels when the
// first column is not numeric.
func xValues(t *datatable.DataTable) ([]float64, []chart.Tick) {
	xs := make([]float64, t.NumRows())
	if t.Cols[0].Type == datatable.Number {
		numeric := true
		for row := range xs {
			v, ok := t.Float(row, 0)
			if !ok {
				numeric = false
				break
			}
			xs[row] = v
		}
		if numeric && xs[0] != xs[len(xs)-1] {
			return xs, nil
		}
	}

	ticks := make([]chart.Tick, len(xs))
	for row := range xs {
		xs[row] = float64(row)
		ticks[row] = chart.Tick{Value: float64(row), Label: t.Text(row, 0)}
	}
	return xs, ticks
}

func renderSVG(c chart.Chart, w io.Writer) error {
	return c.Render(chart.SVG, w)
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
