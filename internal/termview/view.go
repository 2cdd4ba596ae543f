package termview

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/jpalmerr/statsboard"
)

// panel is the render state of one widget.
type panel struct {
	widget string
	kind   statsboard.WidgetKind
	title  string
	draw   *statsboard.Draw
}

// View is a terminal [statsboard.Sink].
//
// Draw and Alert may be called from any goroutine; [View.Run] owns the
// terminal and redraws whenever the state changes.
type View struct {
	title  string
	logger *slog.Logger

	mu       sync.Mutex
	panels   []*panel
	byWidget map[string]*panel
	alerts   []statsboard.Alert
	lastTick uint64

	dirty chan struct{}
}

// New creates a view with one panel per query, laid out in query order.
func New(title string, queries []statsboard.Query, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}
	v := &View{
		title:    title,
		logger:   logger,
		byWidget: make(map[string]*panel, len(queries)),
		dirty:    make(chan struct{}, 1),
	}
	for _, q := range queries {
		if _, ok := v.byWidget[q.Widget()]; ok {
			continue
		}
		p := &panel{widget: q.Widget(), kind: q.Kind(), title: q.Options().Title}
		if p.title == "" {
			p.title = q.Name()
		}
		v.panels = append(v.panels, p)
		v.byWidget[p.widget] = p
	}
	return v
}

// Draw replaces the render of the draw's widget.
func (v *View) Draw(d statsboard.Draw) {
	v.mu.Lock()
	p, ok := v.byWidget[d.Widget]
	if ok {
		p.draw = &d
		v.lastTick = max(v.lastTick, d.Tick)
	}
	v.mu.Unlock()

	if !ok {
		v.logger.Warn("draw for unknown widget", "widget", d.Widget, "query", d.Query)
		return
	}
	v.notify()
}

// Alert queues a failure message. Alerts are shown one at a time, oldest
// first, until dismissed.
func (v *View) Alert(a statsboard.Alert) {
	v.mu.Lock()
	v.alerts = append(v.alerts, a)
	v.mu.Unlock()
	v.notify()
}

// dismiss removes the oldest pending alert.
func (v *View) dismiss() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.alerts) == 0 {
		return false
	}
	v.alerts = v.alerts[1:]
	return true
}

// pending returns the oldest pending alert and the number queued behind it.
func (v *View) pending() (statsboard.Alert, int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.alerts) == 0 {
		return statsboard.Alert{}, 0, false
	}
	return v.alerts[0], len(v.alerts) - 1, true
}

func (v *View) notify() {
	select {
	case v.dirty <- struct{}{}:
	default:
	}
}

// snapshot copies the panel state so widgets can be built without the lock.
func (v *View) snapshot() ([]panel, uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	cp := make([]panel, len(v.panels))
	for i, p := range v.panels {
		cp[i] = *p
	}
	return cp, v.lastTick
}

// Run takes over the terminal and renders until ctx is cancelled or the user
// quits with q or Ctrl-C. Enter, Escape or Space dismisses the current alert.
func (v *View) Run(ctx context.Context) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("failed to initialise terminal: %w", err)
	}
	defer ui.Close()

	width, height := ui.TerminalDimensions()
	v.render(width, height)

	clock := time.NewTicker(time.Second)
	defer clock.Stop()

	events := ui.PollEvents()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			switch e.ID {
			case "q", "<C-c>":
				return nil
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				width, height = payload.Width, payload.Height
				ui.Clear()
				v.render(width, height)
			case "<Enter>", "<Escape>", "<Space>":
				if v.dismiss() {
					ui.Clear()
					v.render(width, height)
				}
			}
		case <-v.dirty:
			v.render(width, height)
		case <-clock.C:
			v.render(width, height)
		}
	}
}

func (v *View) render(width, height int) {
	panels, tick := v.snapshot()

	grid := buildGrid(panels)
	grid.SetRect(0, 0, width, height-1)

	status := widgets.NewParagraph()
	status.Border = false
	status.TextStyle = ui.NewStyle(ui.ColorWhite)
	status.Text = fmt.Sprintf(" [%s](fg:cyan) | %s | tick %d | q to quit",
		time.Now().Format("15:04:05"), v.title, tick)
	status.SetRect(0, height-1, width, height)

	items := []ui.Drawable{grid, status}
	if a, more, ok := v.pending(); ok {
		items = append(items, alertBox(a, more, width, height))
	}
	ui.Render(items...)
}

// buildGrid lays the panels out top to bottom. Consecutive gauge panels
// share a row.
func buildGrid(panels []panel) *ui.Grid {
	var rows [][]panel
	for i, p := range panels {
		if p.kind == statsboard.KindGauge && i > 0 && panels[i-1].kind == statsboard.KindGauge {
			rows[len(rows)-1] = append(rows[len(rows)-1], p)
			continue
		}
		rows = append(rows, []panel{p})
	}

	grid := ui.NewGrid()
	if len(rows) == 0 {
		return grid
	}

	gridRows := make([]interface{}, len(rows))
	for i, row := range rows {
		cols := make([]interface{}, len(row))
		for j, p := range row {
			cols[j] = ui.NewCol(1/float64(len(row)), panelItems(p)...)
		}
		gridRows[i] = ui.NewRow(1/float64(len(rows)), cols...)
	}
	grid.Set(gridRows...)
	return grid
}

// panelItems returns the grid items drawing p.
func panelItems(p panel) []interface{} {
	title := " " + p.title + " "
	if p.draw == nil {
		return []interface{}{placeholder(title, "waiting for data...")}
	}

	switch p.kind {
	case statsboard.KindGauge:
		readings := gaugeReadings(p.draw.Table, p.draw.Options)
		if len(readings) == 0 {
			return []interface{}{placeholder(title, "no readings")}
		}
		items := make([]interface{}, len(readings))
		for i, r := range readings {
			g := widgets.NewGauge()
			g.Title = " " + r.Label + " "
			g.Percent = r.Percent
			g.Label = r.text()
			g.BarColor = zoneColor(r.Zone)
			items[i] = ui.NewRow(1/float64(len(readings)), g)
		}
		return items

	case statsboard.KindLineChart:
		data, labels, ok := plotSeries(p.draw.Table)
		if !ok {
			return []interface{}{placeholder(title, "not enough data to plot")}
		}
		plot := widgets.NewPlot()
		plot.Title = title
		plot.Data = data
		plot.DataLabels = labels
		plot.AxesColor = ui.ColorWhite
		plot.ShowAxes = true
		plot.LineColors = make([]ui.Color, len(data))
		for i := range data {
			plot.LineColors[i] = ui.Color(i%6 + 1)
		}
		return []interface{}{plot}

	default:
		table := widgets.NewTable()
		table.Title = title
		table.Rows = tableRows(p.draw.Table)
		table.TextStyle = ui.NewStyle(ui.ColorWhite)
		table.RowSeparator = false
		table.RowStyles = map[int]ui.Style{
			0: ui.NewStyle(ui.ColorYellow, ui.ColorClear, ui.ModifierBold),
		}
		return []interface{}{table}
	}
}

func placeholder(title, text string) *widgets.Paragraph {
	p := widgets.NewParagraph()
	p.Title = title
	p.Text = text
	return p
}

func alertBox(a statsboard.Alert, more, width, height int) *widgets.Paragraph {
	box := widgets.NewParagraph()
	box.Title = " Alert "
	box.BorderStyle = ui.NewStyle(ui.ColorRed)
	box.Text = a.Text() + "\n\n[Enter to dismiss](fg:yellow)"
	if more > 0 {
		box.Text += fmt.Sprintf(" [(%d more)](fg:yellow)", more)
	}

	w := min(width-4, 70)
	h := 7
	x := (width - w) / 2
	y := (height - h) / 2
	box.SetRect(x, y, x+w, y+h)
	return box
}
