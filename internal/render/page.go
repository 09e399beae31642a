package render

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/rickgao/netview/internal/model"
)

// Anchor selectors of the host document.
const (
	TrafficBodySelector = "#traffic-table tbody"
	ContainerSelector   = "#tables-container"
	UpdateTimeSelector  = "#update-time"
)

// ErrMissingAnchor is returned when the host document lacks an element a
// renderer writes into.
var ErrMissingAnchor = errors.New("missing page anchor")

// AlertStyle is the inline style of a near-saturation cell.
const AlertStyle = "color: red; font-weight: bold;"

var interfaceHeaders = []string{
	"Interface",
	"Capacity",
	"Traffic",
	"Util",
	"Worst-Case Traffic",
	"Worst-Case Util",
	"Failure Scenario",
}

//go:embed templates/index.html
var defaultTemplate []byte

// Option configures a Page.
type Option func(*Page)

// WithClock sets the time source for the timestamp label.
func WithClock(now func() time.Time) Option {
	return func(p *Page) {
		p.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Page) {
		p.logger = logger
	}
}

// Page is a host document plus the renderers that mutate it.
// It is safe for concurrent use: renders hold the write lock for the whole
// frame, so readers never observe a half-drawn table.
type Page struct {
	mu      sync.RWMutex
	doc     *goquery.Document
	updated time.Time

	now    func() time.Time
	logger *slog.Logger
}

// NewPage parses a host document from r.
func NewPage(r io.Reader, opts ...Option) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	p := &Page{
		doc:    doc,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// DefaultPage returns a Page backed by the embedded default document.
func DefaultPage(opts ...Option) (*Page, error) {
	return NewPage(bytes.NewReader(defaultTemplate), opts...)
}

// LoadPage reads a host document from path.
func LoadPage(path string, opts ...Option) (*Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer f.Close()

	return NewPage(f, opts...)
}

// Validate checks that every anchor is present.
func (p *Page) Validate() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, err := p.anchors(TrafficBodySelector, ContainerSelector, UpdateTimeSelector)
	return err
}

// RenderTraffic replaces the traffic table body with rows, sorted by source
// router.
func (p *Page) RenderTraffic(rows []model.TrafficRow) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	sel, err := p.anchors(TrafficBodySelector, UpdateTimeSelector)
	if err != nil {
		return err
	}
	tbody := sel[0].First()

	tbody.Empty()
	for _, row := range model.SortTraffic(rows) {
		tbody.AppendNodes(element(atom.Tr, nil,
			cell(row.SourceRouter),
			cell(row.DestRouter),
			cell(row.LocatorAddr),
			cell(FormatNumber(row.TrafficRate)),
		))
	}

	p.stamp(sel[1])
	p.logger.Debug("traffic table rendered", "rows", len(rows))
	return nil
}

// RenderInterfaces replaces the interface tables, one per router in the
// order received.
func (p *Page) RenderInterfaces(m model.InterfaceMap) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	sel, err := p.anchors(ContainerSelector, UpdateTimeSelector)
	if err != nil {
		return err
	}
	container := sel[0].First()

	container.Empty()
	for i, router := range m.Routers {
		if i > 0 {
			container.AppendNodes(element(atom.Hr, nil))
		}
		container.AppendNodes(
			element(atom.H3, nil, text(router.Router)),
			interfaceTable(router),
		)
	}

	p.stamp(sel[1])
	p.logger.Debug("interface tables rendered", "routers", m.Len())
	return nil
}

// LastUpdated returns the time of the last render, or the zero time.
func (p *Page) LastUpdated() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.updated
}

// HTML serializes the document.
func (p *Page) HTML() (string, error) {
	var buf bytes.Buffer
	if err := p.render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteTo writes the serialized document to w.
func (p *Page) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if err := p.render(&buf); err != nil {
		return 0, err
	}
	return buf.WriteTo(w)
}

func (p *Page) render(w io.Writer) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := html.Render(w, p.doc.Get(0)); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// anchors resolves every selector or fails without touching the document.
func (p *Page) anchors(selectors ...string) ([]*goquery.Selection, error) {
	out := make([]*goquery.Selection, len(selectors))
	for i, s := range selectors {
		sel := p.doc.Find(s)
		if sel.Length() == 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingAnchor, s)
		}
		out[i] = sel
	}
	return out, nil
}

func (p *Page) stamp(label *goquery.Selection) {
	p.updated = p.now()
	label = label.First()
	label.Empty()
	label.AppendNodes(text(UpdatedLabel(p.updated)))
}

// -----------------------------------------------------------------------------
// Node construction
// -----------------------------------------------------------------------------

func interfaceTable(router model.RouterInterfaces) *html.Node {
	headRow := element(atom.Tr, nil)
	for _, h := range interfaceHeaders {
		headRow.AppendChild(element(atom.Th, nil, text(h)))
	}

	tbody := element(atom.Tbody, nil)
	for _, e := range model.SortByWorstCase(router.Interfaces) {
		worst := cell(FormatPercent(e.WorstCaseUtil))
		if e.NearSaturation() {
			worst.Attr = []html.Attribute{
				{Key: "class", Val: "alert"},
				{Key: "style", Val: AlertStyle},
			}
		}
		tbody.AppendChild(element(atom.Tr, nil,
			cell(e.Name),
			cell(FormatNumber(e.Capacity)),
			cell(FormatNumber(e.Traffic)),
			cell(FormatPercent(e.Util)),
			cell(FormatNumber(e.WorstCaseTraffic)),
			worst,
			cell(e.FailureScenario),
		))
	}

	return element(atom.Table, []html.Attribute{
		{Key: "class", Val: "interface-table"},
		{Key: "data-router", Val: router.Router},
	},
		element(atom.Thead, nil, headRow),
		tbody,
	)
}

func element(a atom.Atom, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func cell(s string) *html.Node {
	return element(atom.Td, nil, text(s))
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
