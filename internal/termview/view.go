// Package termview draws the telemetry tables in a terminal with termui.
package termview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/rickgao/netview/internal/model"
	"github.com/rickgao/netview/internal/render"
)

// ErrQuit is returned by Run when the user quits with q or Ctrl+C.
var ErrQuit = errors.New("quit")

// Column counts of the two tables. Every row has exactly this many cells.
const (
	trafficColumns   = 4
	interfaceColumns = 7
)

var (
	trafficHeader   = []string{"Source Router", "Destination Router", "Locator", "Traffic Rate"}
	interfaceHeader = []string{"Interface", "Capacity", "Traffic", "Util", "Worst-Case Traffic", "Worst-Case Util", "Failure Scenario"}
)

// View is a terminal Renderer. Renders before Run only update the widgets;
// they are drawn once the terminal is initialized.
type View struct {
	mu      sync.Mutex
	active  bool
	updated time.Time

	traffic *widgets.Table
	ifaces  *widgets.Table
	status  *widgets.Paragraph
	grid    *ui.Grid

	now    func() time.Time
	logger *slog.Logger
}

// New creates a View.
func New(logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}

	traffic := widgets.NewTable()
	traffic.Title = " Traffic Matrix "
	traffic.Rows = trafficRows(nil)
	traffic.TextStyle = ui.NewStyle(ui.ColorWhite)
	traffic.RowSeparator = false
	traffic.BorderStyle.Fg = ui.ColorGreen
	traffic.RowStyles[0] = ui.NewStyle(ui.ColorWhite, ui.ColorClear, ui.ModifierBold)

	ifaces := widgets.NewTable()
	ifaces.Title = " Interface Utilization "
	ifaces.Rows = interfaceRows(model.InterfaceMap{})
	ifaces.TextStyle = ui.NewStyle(ui.ColorWhite)
	ifaces.RowSeparator = false
	ifaces.BorderStyle.Fg = ui.ColorYellow
	ifaces.RowStyles[0] = ui.NewStyle(ui.ColorWhite, ui.ColorClear, ui.ModifierBold)

	status := widgets.NewParagraph()
	status.Text = "Waiting for telemetry..."
	status.Border = false

	return &View{
		traffic: traffic,
		ifaces:  ifaces,
		status:  status,
		now:     time.Now,
		logger:  logger,
	}
}

// Run takes over the terminal until ctx ends or the user quits.
func (v *View) Run(ctx context.Context) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer ui.Close()

	v.mu.Lock()
	v.grid = ui.NewGrid()
	w, h := ui.TerminalDimensions()
	v.grid.SetRect(0, 0, w, h)
	v.grid.Set(
		ui.NewRow(0.05, ui.NewCol(1.0, v.status)),
		ui.NewRow(0.40, ui.NewCol(1.0, v.traffic)),
		ui.NewRow(0.55, ui.NewCol(1.0, v.ifaces)),
	)
	v.active = true
	ui.Render(v.grid)
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		v.active = false
		v.mu.Unlock()
	}()

	events := ui.PollEvents()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			switch {
			case e.Type == ui.KeyboardEvent && (e.ID == "q" || e.ID == "<C-c>"):
				return ErrQuit
			case e.Type == ui.ResizeEvent:
				payload := e.Payload.(ui.Resize)
				v.mu.Lock()
				v.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				ui.Render(v.grid)
				v.mu.Unlock()
			}
		}
	}
}

// RenderTraffic replaces the traffic table.
func (v *View) RenderTraffic(rows []model.TrafficRow) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.traffic.Rows = trafficRows(rows)
	v.stamp()
	v.draw()
	return nil
}

// RenderInterfaces replaces the interface table.
func (v *View) RenderInterfaces(m model.InterfaceMap) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.ifaces.Rows = interfaceRows(m)
	v.stamp()
	v.draw()
	return nil
}

// LastUpdated returns the time of the last render.
func (v *View) LastUpdated() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.updated
}

func (v *View) stamp() {
	v.updated = v.now()
	v.status.Text = render.UpdatedLabel(v.updated)
}

func (v *View) draw() {
	if v.active {
		ui.Render(v.grid)
	}
}

// trafficRows builds the traffic table, header first, sorted by source router.
func trafficRows(rows []model.TrafficRow) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, trafficHeader)

	for _, r := range model.SortTraffic(rows) {
		out = append(out, []string{
			plain(r.SourceRouter),
			plain(r.DestRouter),
			plain(r.LocatorAddr),
			render.FormatNumber(r.TrafficRate),
		})
	}
	return out
}

// interfaceRows flattens the per-router tables into one: a caption row per
// router, its interfaces by descending worst-case utilization, and a blank
// row between routers.
func interfaceRows(m model.InterfaceMap) [][]string {
	out := [][]string{interfaceHeader}

	for i, router := range m.Routers {
		if i > 0 {
			out = append(out, make([]string, interfaceColumns))
		}

		caption := make([]string, interfaceColumns)
		caption[0] = fmt.Sprintf("[%s](fg:cyan,mod:bold)", plain(router.Router))
		out = append(out, caption)

		for _, e := range model.SortByWorstCase(router.Interfaces) {
			worst := render.FormatPercent(e.WorstCaseUtil)
			if e.NearSaturation() {
				worst = fmt.Sprintf("[%s](fg:red,mod:bold)", worst)
			}
			out = append(out, []string{
				plain(e.Name),
				render.FormatNumber(e.Capacity),
				render.FormatNumber(e.Traffic),
				render.FormatPercent(e.Util),
				render.FormatNumber(e.WorstCaseTraffic),
				worst,
				plain(e.FailureScenario),
			})
		}
	}
	return out
}

// markupBrackets swaps the runes that delimit termui style markup for their
// fullwidth forms. termui has no escape syntax.
var markupBrackets = strings.NewReplacer("[", "\uff3b", "]", "\uff3d")

// plain keeps a wire value from being read as termui style markup.
func plain(s string) string {
	return markupBrackets.Replace(s)
}
