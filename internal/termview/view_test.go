package termview

import (
	"strings"
	"testing"
	"time"

	ui "github.com/gizak/termui/v3"

	"github.com/rickgao/netview/internal/model"
	"github.com/rickgao/netview/internal/render"
)

func TestTrafficRows(t *testing.T) {
	rows := trafficRows([]model.TrafficRow{
		{SourceRouter: "r3", DestRouter: "r1", LocatorAddr: "fc00::3", TrafficRate: 1.25},
		{SourceRouter: "r1", DestRouter: "r2", LocatorAddr: "fc00::1", TrafficRate: 2},
	})

	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "Source Router" {
		t.Errorf("header = %v", rows[0])
	}
	for i, r := range rows {
		if len(r) != trafficColumns {
			t.Errorf("row %d has %d cells, want %d", i, len(r), trafficColumns)
		}
	}
	if got := strings.Join(rows[1], "|"); got != "r1|r2|fc00::1|2" {
		t.Errorf("row 1 = %s", got)
	}
	if got := rows[2][3]; got != "1.25" {
		t.Errorf("rate = %s, want 1.25", got)
	}
}

func TestTrafficRows_Empty(t *testing.T) {
	// termui tables panic without rows; the header is always present
	rows := trafficRows(nil)
	if len(rows) != 1 {
		t.Errorf("rows = %d, want header only", len(rows))
	}
}

func TestInterfaceRows(t *testing.T) {
	m := model.InterfaceMap{Routers: []model.RouterInterfaces{
		{Router: "r1", Interfaces: []model.InterfaceEntry{
			{Name: "A", WorstCaseUtil: 50},
			{Name: "B", WorstCaseUtil: 90},
			{Name: "C", WorstCaseUtil: 70},
		}},
		{Router: "r2", Interfaces: []model.InterfaceEntry{
			{Name: "D", WorstCaseUtil: 71, FailureScenario: "r1-r2"},
		}},
	}}

	rows := interfaceRows(m)

	// header, caption, 3 rows, separator, caption, 1 row
	if len(rows) != 8 {
		t.Fatalf("rows = %d, want 8", len(rows))
	}
	for i, r := range rows {
		if len(r) != interfaceColumns {
			t.Errorf("row %d has %d cells, want %d", i, len(r), interfaceColumns)
		}
	}

	if !strings.Contains(rows[1][0], "r1") {
		t.Errorf("caption = %q, want r1", rows[1][0])
	}

	var names []string
	for _, r := range rows[2:5] {
		names = append(names, r[0])
	}
	if got := strings.Join(names, ","); got != "B,C,A" {
		t.Errorf("order = %s, want B,C,A", got)
	}

	if strings.Join(rows[5], "") != "" {
		t.Errorf("separator = %v, want blank", rows[5])
	}

	tests := []struct {
		row   int
		alert bool
	}{
		{2, true},  // 90
		{3, false}, // 70
		{4, false}, // 50
		{7, true},  // 71
	}
	for _, tt := range tests {
		cell := rows[tt.row][5]
		if got := strings.Contains(cell, "fg:red"); got != tt.alert {
			t.Errorf("row %d cell %q alert = %v, want %v", tt.row, cell, got, tt.alert)
		}
	}
	if rows[7][6] != "r1-r2" {
		t.Errorf("failure scenario = %q", rows[7][6])
	}
}

// styled parses a cell the way the table widget does and reports the text
// and whether any rune left the default style.
func styled(cell string) (string, bool) {
	base := ui.NewStyle(ui.ColorWhite)
	var b strings.Builder
	restyled := false
	for _, c := range ui.ParseStyles(cell, base) {
		b.WriteRune(c.Rune)
		if c.Style != base {
			restyled = true
		}
	}
	return b.String(), restyled
}

func TestRows_WireMarkupIsPlain(t *testing.T) {
	const evil = "[owned](fg:red,mod:bold)"

	traffic := trafficRows([]model.TrafficRow{
		{SourceRouter: evil, DestRouter: "r2", LocatorAddr: "[fc00::1]"},
	})
	for i, cell := range traffic[1][:3] {
		if _, restyled := styled(cell); restyled {
			t.Errorf("traffic column %d restyled: %q", i, cell)
		}
	}

	ifaces := interfaceRows(model.InterfaceMap{Routers: []model.RouterInterfaces{
		{Router: evil, Interfaces: []model.InterfaceEntry{
			{Name: evil, WorstCaseUtil: 10, FailureScenario: evil},
		}},
	}})

	caption := ifaces[1][0]
	text, _ := styled(caption)
	if text != "\uff3bowned\uff3d(fg:red,mod:bold)" {
		t.Errorf("caption text = %q", text)
	}
	for _, c := range ui.ParseStyles(caption, ui.NewStyle(ui.ColorWhite)) {
		if c.Style.Fg != ui.ColorCyan {
			t.Errorf("caption rune %q fg = %v, want cyan", c.Rune, c.Style.Fg)
			break
		}
	}

	for _, col := range []int{0, 6} {
		text, restyled := styled(ifaces[2][col])
		if restyled {
			t.Errorf("interface column %d restyled: %q", col, ifaces[2][col])
		}
		if text != "\uff3bowned\uff3d(fg:red,mod:bold)" {
			t.Errorf("interface column %d text = %q", col, text)
		}
	}
}

func TestView_RenderBeforeRun(t *testing.T) {
	v := New(nil)
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)
	v.now = func() time.Time { return start }

	if err := v.RenderTraffic([]model.TrafficRow{{SourceRouter: "a"}}); err != nil {
		t.Fatalf("RenderTraffic failed: %v", err)
	}
	if len(v.traffic.Rows) != 2 {
		t.Errorf("traffic rows = %d, want 2", len(v.traffic.Rows))
	}

	if err := v.RenderInterfaces(model.InterfaceMap{}); err != nil {
		t.Fatalf("RenderInterfaces failed: %v", err)
	}
	if len(v.ifaces.Rows) != 1 {
		t.Errorf("interface rows = %d, want header only", len(v.ifaces.Rows))
	}

	if !v.LastUpdated().Equal(start) {
		t.Errorf("LastUpdated = %v, want %v", v.LastUpdated(), start)
	}
	if v.status.Text != render.UpdatedLabel(start) {
		t.Errorf("status = %q", v.status.Text)
	}
}
