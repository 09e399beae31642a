package render

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rickgao/netview/internal/model"
)

// fakeClock returns a clock that advances one second per call.
func fakeClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestPage(t *testing.T) *Page {
	t.Helper()
	p, err := DefaultPage(WithClock(fakeClock(time.Date(2024, 3, 5, 13, 4, 5, 0, time.Local))))
	if err != nil {
		t.Fatalf("DefaultPage failed: %v", err)
	}
	return p
}

// parse reads the page back into a queryable document.
func parse(t *testing.T, p *Page) *goquery.Document {
	t.Helper()
	out, err := p.HTML()
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	if err != nil {
		t.Fatalf("parse rendered page: %v", err)
	}
	return doc
}

func cellTexts(row *goquery.Selection) []string {
	var out []string
	row.Find("td").Each(func(_ int, td *goquery.Selection) {
		out = append(out, td.Text())
	})
	return out
}

func TestDefaultPage_Validate(t *testing.T) {
	p := newTestPage(t)
	if err := p.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
	if !p.LastUpdated().IsZero() {
		t.Errorf("LastUpdated = %v, want zero before any render", p.LastUpdated())
	}
}

func TestValidate_MissingAnchor(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		missing string
	}{
		{
			name:    "no traffic tbody",
			page:    `<table id="traffic-table"></table><div id="tables-container"></div><p id="update-time"></p>`,
			missing: TrafficBodySelector,
		},
		{
			name:    "no container",
			page:    `<table id="traffic-table"><tbody></tbody></table><p id="update-time"></p>`,
			missing: ContainerSelector,
		},
		{
			name:    "no timestamp",
			page:    `<table id="traffic-table"><tbody></tbody></table><div id="tables-container"></div>`,
			missing: UpdateTimeSelector,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPage(strings.NewReader(tt.page))
			if err != nil {
				t.Fatalf("NewPage failed: %v", err)
			}
			err = p.Validate()
			if !errors.Is(err, ErrMissingAnchor) {
				t.Fatalf("err = %v, want ErrMissingAnchor", err)
			}
			if !strings.Contains(err.Error(), tt.missing) {
				t.Errorf("err = %v, want mention of %s", err, tt.missing)
			}
		})
	}
}

func TestRenderTraffic_Sorted(t *testing.T) {
	p := newTestPage(t)

	rows := []model.TrafficRow{
		{SourceRouter: "r3", DestRouter: "r1", LocatorAddr: "fc00:0:3::", TrafficRate: 30},
		{SourceRouter: "r1", DestRouter: "r2", LocatorAddr: "fc00:0:1::", TrafficRate: 10.5},
		{SourceRouter: "r2", DestRouter: "r3", LocatorAddr: "fc00:0:2::", TrafficRate: 20},
	}
	if err := p.RenderTraffic(rows); err != nil {
		t.Fatalf("RenderTraffic failed: %v", err)
	}

	doc := parse(t, p)
	trs := doc.Find("#traffic-table tbody tr")
	if trs.Length() != 3 {
		t.Fatalf("rows = %d, want 3", trs.Length())
	}

	want := [][]string{
		{"r1", "r2", "fc00:0:1::", "10.5"},
		{"r2", "r3", "fc00:0:2::", "20"},
		{"r3", "r1", "fc00:0:3::", "30"},
	}
	trs.Each(func(i int, tr *goquery.Selection) {
		got := cellTexts(tr)
		if strings.Join(got, "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d = %v, want %v", i, got, want[i])
		}
	})

	// Caller's slice is not reordered
	if rows[0].SourceRouter != "r3" {
		t.Error("RenderTraffic mutated its input")
	}
}

func TestRenderTraffic_StableForEqualKeys(t *testing.T) {
	p := newTestPage(t)

	rows := []model.TrafficRow{
		{SourceRouter: "r1", DestRouter: "z"},
		{SourceRouter: "r0", DestRouter: "m"},
		{SourceRouter: "r1", DestRouter: "a"},
	}
	if err := p.RenderTraffic(rows); err != nil {
		t.Fatalf("RenderTraffic failed: %v", err)
	}

	var dests []string
	parse(t, p).Find("#traffic-table tbody tr").Each(func(_ int, tr *goquery.Selection) {
		dests = append(dests, cellTexts(tr)[1])
	})
	if got := strings.Join(dests, ","); got != "m,z,a" {
		t.Errorf("dest order = %s, want m,z,a", got)
	}
}

func TestRenderTraffic_ReplacesContent(t *testing.T) {
	p := newTestPage(t)

	first := []model.TrafficRow{{SourceRouter: "a"}, {SourceRouter: "b"}, {SourceRouter: "c"}}
	if err := p.RenderTraffic(first); err != nil {
		t.Fatalf("RenderTraffic failed: %v", err)
	}
	if err := p.RenderTraffic([]model.TrafficRow{{SourceRouter: "x"}}); err != nil {
		t.Fatalf("RenderTraffic failed: %v", err)
	}

	trs := parse(t, p).Find("#traffic-table tbody tr")
	if trs.Length() != 1 {
		t.Fatalf("rows = %d, want 1", trs.Length())
	}

	if err := p.RenderTraffic(nil); err != nil {
		t.Fatalf("RenderTraffic failed: %v", err)
	}
	if n := parse(t, p).Find("#traffic-table tbody tr").Length(); n != 0 {
		t.Errorf("rows = %d, want 0 after empty render", n)
	}
}

func TestRenderTraffic_Escapes(t *testing.T) {
	p := newTestPage(t)

	evil := `<script>alert("x")</script>`
	if err := p.RenderTraffic([]model.TrafficRow{{SourceRouter: evil, DestRouter: "a&b"}}); err != nil {
		t.Fatalf("RenderTraffic failed: %v", err)
	}

	out, _ := p.HTML()
	if strings.Contains(out, evil) {
		t.Error("markup inserted unescaped")
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Error("expected escaped script tag in output")
	}

	doc := parse(t, p)
	if doc.Find("#traffic-table script").Length() != 0 {
		t.Error("script element created from row data")
	}
	if got := cellTexts(doc.Find("#traffic-table tbody tr"))[0]; got != evil {
		t.Errorf("cell text = %q, want %q", got, evil)
	}
}

func TestRenderTraffic_Timestamp(t *testing.T) {
	p := newTestPage(t)

	if err := p.RenderTraffic(nil); err != nil {
		t.Fatalf("RenderTraffic failed: %v", err)
	}
	first := p.LastUpdated()

	label := parse(t, p).Find("#update-time").Text()
	if label != UpdatedLabel(first) {
		t.Errorf("label = %q, want %q", label, UpdatedLabel(first))
	}
	if label != "Last updated: 3/5/2024, 1:04:06 PM" {
		t.Errorf("label = %q", label)
	}

	if err := p.RenderInterfaces(model.InterfaceMap{}); err != nil {
		t.Fatalf("RenderInterfaces failed: %v", err)
	}
	if !p.LastUpdated().After(first) {
		t.Errorf("LastUpdated did not advance: %v -> %v", first, p.LastUpdated())
	}
}

func TestRenderInterfaces_Layout(t *testing.T) {
	p := newTestPage(t)

	m := model.InterfaceMap{Routers: []model.RouterInterfaces{
		{Router: "r2", Interfaces: []model.InterfaceEntry{
			{Name: "A", WorstCaseUtil: 50},
			{Name: "B", WorstCaseUtil: 90},
			{Name: "C", WorstCaseUtil: 90},
		}},
		{Router: "r1", Interfaces: []model.InterfaceEntry{
			{Name: "Gi0", Capacity: 1000, Traffic: 250.5, Util: 25.05, WorstCaseTraffic: 700, WorstCaseUtil: 70, FailureScenario: "r1-r3"},
		}},
		{Router: "r3"},
	}}
	if err := p.RenderInterfaces(m); err != nil {
		t.Fatalf("RenderInterfaces failed: %v", err)
	}

	doc := parse(t, p)
	container := doc.Find("#tables-container")

	tables := container.Find("table.interface-table")
	if tables.Length() != 3 {
		t.Fatalf("tables = %d, want 3", tables.Length())
	}
	var routers []string
	tables.Each(func(_ int, tbl *goquery.Selection) {
		r, _ := tbl.Attr("data-router")
		routers = append(routers, r)
	})
	if got := strings.Join(routers, ","); got != "r2,r1,r3" {
		t.Errorf("router order = %s, want r2,r1,r3", got)
	}
	if got := container.Find("h3").First().Text(); got != "r2" {
		t.Errorf("first caption = %q, want r2", got)
	}

	// Separators only between tables
	if n := container.Find("hr").Length(); n != 2 {
		t.Errorf("separators = %d, want 2", n)
	}
	if container.Children().Last().Is("hr") {
		t.Error("separator after last table")
	}

	var headers []string
	tables.First().Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, th.Text())
	})
	if strings.Join(headers, "|") != strings.Join(interfaceHeaders, "|") {
		t.Errorf("headers = %v, want %v", headers, interfaceHeaders)
	}

	var names []string
	tables.First().Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		names = append(names, cellTexts(tr)[0])
	})
	if got := strings.Join(names, ","); got != "B,C,A" {
		t.Errorf("interface order = %s, want B,C,A", got)
	}

	got := cellTexts(tables.Eq(1).Find("tbody tr"))
	want := []string{"Gi0", "1000", "250.5", "25.05%", "700", "70%", "r1-r3"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("cells = %v, want %v", got, want)
	}
}

func TestRenderInterfaces_Threshold(t *testing.T) {
	p := newTestPage(t)

	m := model.InterfaceMap{Routers: []model.RouterInterfaces{
		{Router: "r1", Interfaces: []model.InterfaceEntry{
			{Name: "hot", WorstCaseUtil: 71},
			{Name: "edge", WorstCaseUtil: 70},
			{Name: "cold", WorstCaseUtil: 10},
		}},
	}}
	if err := p.RenderInterfaces(m); err != nil {
		t.Fatalf("RenderInterfaces failed: %v", err)
	}

	rows := parse(t, p).Find("#tables-container tbody tr")
	tests := []struct {
		row   int
		alert bool
	}{
		{0, true},
		{1, false},
		{2, false},
	}
	for _, tt := range tests {
		worst := rows.Eq(tt.row).Find("td").Eq(5)
		class, _ := worst.Attr("class")
		style, _ := worst.Attr("style")
		if got := class == "alert"; got != tt.alert {
			t.Errorf("row %d alert class = %v, want %v", tt.row, got, tt.alert)
		}
		if tt.alert && style != AlertStyle {
			t.Errorf("row %d style = %q, want %q", tt.row, style, AlertStyle)
		}
		if !tt.alert && style != "" {
			t.Errorf("row %d style = %q, want none", tt.row, style)
		}
	}
}

func TestRender_MissingAnchorLeavesPage(t *testing.T) {
	src := `<html><body><p id="update-time">before</p><div id="tables-container"><p>old</p></div></body></html>`
	p, err := NewPage(strings.NewReader(src))
	if err != nil {
		t.Fatalf("NewPage failed: %v", err)
	}
	before, _ := p.HTML()

	err = p.RenderTraffic([]model.TrafficRow{{SourceRouter: "a"}})
	if !errors.Is(err, ErrMissingAnchor) {
		t.Fatalf("err = %v, want ErrMissingAnchor", err)
	}

	after, _ := p.HTML()
	if before != after {
		t.Error("page changed after failed render")
	}
	if !p.LastUpdated().IsZero() {
		t.Error("LastUpdated set after failed render")
	}

	// Interface anchors are present, so that renderer still works
	if err := p.RenderInterfaces(model.InterfaceMap{}); err != nil {
		t.Errorf("RenderInterfaces failed: %v", err)
	}
}

func TestWriteTo(t *testing.T) {
	p := newTestPage(t)

	var sb strings.Builder
	n, err := p.WriteTo(&sb)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if int(n) != sb.Len() {
		t.Errorf("n = %d, want %d", n, sb.Len())
	}
	if !strings.Contains(sb.String(), `id="tables-container"`) {
		t.Error("output missing tables container")
	}
}

func TestLoadPage(t *testing.T) {
	if _, err := LoadPage("/nonexistent/page.html"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFormat(t *testing.T) {
	// Summed at run time so the result carries binary rounding.
	a, b := 0.1, 0.2

	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{5, "5"},
		{10.5, "10.5"},
		{0.3, "0.3"},
		{a + b, "0.30000000000000004"},
		{-3, "-3"},
		{1e9, "1000000000"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := FormatPercent(71); got != "71%" {
		t.Errorf("FormatPercent(71) = %q, want 71%%", got)
	}
}
