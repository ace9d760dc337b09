package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/labelgen/internal/catalog"
	"github.com/muurk/labelgen/internal/labels"
)

// maxQuantity bounds the per-product label count.
const maxQuantity = 999

// productsKeyMap defines key bindings for the product screen
type productsKeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Toggle     key.Binding
	More       key.Binding
	Less       key.Binding
	SelectAll  key.Binding
	Clear      key.Binding
	Filter     key.Binding
	Merge      key.Binding
	FillPage   key.Binding
	Generate   key.Binding
	Categories key.Binding
	Logs       key.Binding
	Stations   key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k productsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.More, k.Less, k.Filter, k.Generate, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k productsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.More, k.Less},
		{k.SelectAll, k.Clear, k.Filter, k.Merge, k.FillPage},
		{k.Generate, k.Categories, k.Logs, k.Stations},
		{k.Help, k.Quit},
	}
}

func newProductsKeyMap() productsKeyMap {
	return productsKeyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
		Toggle:     key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "select")),
		More:       key.NewBinding(key.WithKeys("+", "=", "right", "l"), key.WithHelp("+", "more")),
		Less:       key.NewBinding(key.WithKeys("-", "left", "h"), key.WithHelp("-", "fewer")),
		SelectAll:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
		Clear:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear")),
		Filter:     key.NewBinding(key.WithKeys("tab", "f"), key.WithHelp("tab", "category")),
		Merge:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "merge")),
		FillPage:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "fill page")),
		Generate:   key.NewBinding(key.WithKeys("g", "enter"), key.WithHelp("g", "generate")),
		Categories: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "categories")),
		Logs:       key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logs")),
		Stations:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stations")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
	}
}

// ProductsModel lists the catalog and collects per-product quantities.
type ProductsModel struct {
	all        []catalog.Product
	categories []catalog.Category
	visible    []catalog.Product

	// Quantities is keyed by barcode number so it survives reloads.
	Quantities map[string]int
	// Filter is the category shown, or -1 for all.
	Filter int

	Merge           bool
	FillPage        bool
	DefaultQuantity int

	Status string

	Width  int
	Height int
	table  table.Model
	Help   help.Model
	Keys   productsKeyMap
}

// NewProductsModel creates the product screen.
func NewProductsModel(products []catalog.Product, categories []catalog.Category, defaultQty int, merge bool) ProductsModel {
	if defaultQty < 1 {
		defaultQty = 1
	}
	t := table.New(
		table.WithFocused(true),
		table.WithKeyMap(tableKeyMap()),
		table.WithStyles(tableStyles()),
	)
	m := ProductsModel{
		Quantities:      make(map[string]int),
		Filter:          -1,
		Merge:           merge,
		DefaultQuantity: defaultQty,
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		table:           t,
		Help:            help.New(),
		Keys:            newProductsKeyMap(),
	}
	m.Reload(products, categories)
	return m
}

// Init implements tea.Model.
func (m ProductsModel) Init() tea.Cmd {
	return nil
}

// Reload replaces the catalog, keeping quantities for products that still
// exist and the cursor position where possible.
func (m *ProductsModel) Reload(products []catalog.Product, categories []catalog.Category) {
	m.all = products
	m.categories = categories

	known := make(map[string]bool, len(products))
	for _, p := range products {
		known[p.Code()] = true
	}
	for code := range m.Quantities {
		if !known[code] {
			delete(m.Quantities, code)
		}
	}

	if m.Filter >= 0 {
		found := false
		for _, c := range categories {
			if c.ID == m.Filter {
				found = true
				break
			}
		}
		if !found {
			m.Filter = -1
		}
	}
	m.refresh()
}

// SetFilter shows only one category; -1 shows all.
func (m *ProductsModel) SetFilter(categoryID int) {
	m.Filter = categoryID
	m.table.SetCursor(0)
	m.refresh()
}

// Visible returns the products currently listed.
func (m ProductsModel) Visible() []catalog.Product {
	return m.visible
}

// Requests returns the selected products with their quantities, in catalog
// order.
func (m ProductsModel) Requests() []labels.Request {
	var reqs []labels.Request
	for _, p := range m.all {
		if q := m.Quantities[p.Code()]; q > 0 {
			reqs = append(reqs, labels.Request{Product: p, Quantity: q})
		}
	}
	return reqs
}

// SelectedLabels is the total number of labels requested.
func (m ProductsModel) SelectedLabels() int {
	n := 0
	for _, q := range m.Quantities {
		n += q
	}
	return n
}

func (m *ProductsModel) refresh() {
	m.visible = nil
	for _, p := range m.all {
		if m.Filter < 0 || p.CategoryID == m.Filter {
			m.visible = append(m.visible, p)
		}
	}
	m.resize()

	rows := make([]table.Row, len(m.visible))
	for i, p := range m.visible {
		qty := ""
		if q := m.Quantities[p.Code()]; q > 0 {
			qty = strconv.Itoa(q)
		}
		mark := " "
		if qty != "" {
			mark = "●"
		}
		rows[i] = table.Row{mark, p.Code(), p.CategoryName, p.Name, p.DisplayPrice(), qty}
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m *ProductsModel) resize() {
	width := max(m.Width-8, MinTerminalWidth-8)
	fixed := 2 + 13 + 10 + 6 + 12
	nameWidth := max(width-fixed-12, 12)
	m.table.SetColumns([]table.Column{
		{Title: "", Width: 2},
		{Title: "Code", Width: 13},
		{Title: "Category", Width: 12},
		{Title: "Name", Width: nameWidth},
		{Title: "Price", Width: 10},
		{Title: "Qty", Width: 6},
	})
	m.table.SetWidth(width)
	m.table.SetHeight(max(contentHeight(m.Height)-6, 3))
}

func (m ProductsModel) current() (catalog.Product, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.visible) {
		return catalog.Product{}, false
	}
	return m.visible[c], true
}

func (m *ProductsModel) adjust(delta int) {
	p, ok := m.current()
	if !ok {
		return
	}
	code := p.Code()
	q := min(max(m.Quantities[code]+delta, 0), maxQuantity)
	if q == 0 {
		delete(m.Quantities, code)
	} else {
		m.Quantities[code] = q
	}
	m.refresh()
}

func (m *ProductsModel) toggle() {
	p, ok := m.current()
	if !ok {
		return
	}
	code := p.Code()
	if m.Quantities[code] > 0 {
		delete(m.Quantities, code)
	} else {
		m.Quantities[code] = m.DefaultQuantity
	}
	m.refresh()
}

func (m *ProductsModel) nextFilter() {
	if len(m.categories) == 0 {
		m.SetFilter(-1)
		return
	}
	if m.Filter < 0 {
		m.SetFilter(m.categories[0].ID)
		return
	}
	for i, c := range m.categories {
		if c.ID == m.Filter {
			if i+1 < len(m.categories) {
				m.SetFilter(m.categories[i+1].ID)
			} else {
				m.SetFilter(-1)
			}
			return
		}
	}
	m.SetFilter(-1)
}

// Update handles messages and updates the model
func (m ProductsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		m.Status = ""
		switch {
		case key.Matches(msg, m.Keys.Toggle):
			m.toggle()
			return m, nil
		case key.Matches(msg, m.Keys.More):
			m.adjust(1)
			return m, nil
		case key.Matches(msg, m.Keys.Less):
			m.adjust(-1)
			return m, nil
		case key.Matches(msg, m.Keys.SelectAll):
			for _, p := range m.visible {
				if m.Quantities[p.Code()] == 0 {
					m.Quantities[p.Code()] = m.DefaultQuantity
				}
			}
			m.refresh()
			return m, nil
		case key.Matches(msg, m.Keys.Clear):
			m.Quantities = make(map[string]int)
			m.refresh()
			return m, nil
		case key.Matches(msg, m.Keys.Filter):
			m.nextFilter()
			return m, nil
		case key.Matches(msg, m.Keys.Merge):
			m.Merge = !m.Merge
			return m, nil
		case key.Matches(msg, m.Keys.FillPage):
			m.FillPage = !m.FillPage
			return m, nil
		case key.Matches(msg, m.Keys.Generate):
			reqs := m.Requests()
			if len(reqs) == 0 {
				m.Status = "Select at least one product (space)"
				return m, nil
			}
			return m, func() tea.Msg {
				return generateRequestMsg{requests: reqs, merge: m.Merge, fillPage: m.FillPage}
			}
		case key.Matches(msg, m.Keys.Categories):
			return m, switchTo(ScreenCategories)
		case key.Matches(msg, m.Keys.Logs):
			return m, switchTo(ScreenLogs)
		case key.Matches(msg, m.Keys.Stations):
			return m, switchTo(ScreenStations)
		case key.Matches(msg, m.Keys.Help):
			m.Help.ShowAll = !m.Help.ShowAll
			return m, nil
		case key.Matches(msg, m.Keys.Quit):
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ProductsModel) filterLabel() string {
	if m.Filter < 0 {
		return "all categories"
	}
	for _, c := range m.categories {
		if c.ID == m.Filter {
			return fmt.Sprintf("%s (%d)", c.Name, c.ID)
		}
	}
	return strconv.Itoa(m.Filter)
}

// View renders the product screen
func (m ProductsModel) View() string {
	return RenderApplicationContainer(m.buildContent(), m.Help.View(m.Keys), m.Width, m.Height)
}

func (m ProductsModel) buildContent() string {
	var b strings.Builder

	b.WriteString(RenderTitle(fmt.Sprintf("Products: %s", m.filterLabel())))
	b.WriteString("\n")

	if len(m.visible) == 0 {
		b.WriteString(MenuItemStyle.Render("No products. Add some with 'labelgen product add'."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s  %s   ", RenderOption("merge", m.Merge), RenderOption("fill page", m.FillPage)))
	b.WriteString(StatusStyle.Render(fmt.Sprintf("%d product(s), %d label(s) selected", len(m.Requests()), m.SelectedLabels())))
	if m.Status != "" {
		b.WriteString("\n")
		b.WriteString(WarningTextStyle.Render(m.Status))
	}
	return b.String()
}
