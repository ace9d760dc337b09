package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/labelgen/internal/catalog"
)

type categoriesKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	All    key.Binding
	Back   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k categoriesKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.All, k.Back}
}

// FullHelp returns keybindings for the expanded help view
func (k categoriesKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// CategoriesModel shows every category with its product count. Choosing
// one filters the product screen.
type CategoriesModel struct {
	categories []catalog.Category
	counts     map[int]int

	Width  int
	Height int
	table  table.Model
	Help   help.Model
	Keys   categoriesKeyMap
}

// NewCategoriesModel creates the category overview.
func NewCategoriesModel(categories []catalog.Category, counts map[int]int) CategoriesModel {
	m := CategoriesModel{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		table: table.New(
			table.WithFocused(true),
			table.WithKeyMap(tableKeyMap()),
			table.WithStyles(tableStyles()),
		),
		Help: help.New(),
		Keys: categoriesKeyMap{
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
			Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "show products")),
			All:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all products")),
			Back:   key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "back")),
		},
	}
	m.Reload(categories, counts)
	return m
}

// Init implements tea.Model.
func (m CategoriesModel) Init() tea.Cmd {
	return nil
}

// Reload replaces the listed categories.
func (m *CategoriesModel) Reload(categories []catalog.Category, counts map[int]int) {
	m.categories = categories
	m.counts = counts

	width := max(m.Width-8, MinTerminalWidth-8)
	m.table.SetColumns([]table.Column{
		{Title: "ID", Width: 6},
		{Title: "Name", Width: max(width-28, 12)},
		{Title: "Products", Width: 10},
	})
	m.table.SetWidth(width)
	m.table.SetHeight(max(contentHeight(m.Height)-4, 3))

	rows := make([]table.Row, len(categories))
	for i, c := range categories {
		rows[i] = table.Row{strconv.Itoa(c.ID), c.Name, strconv.Itoa(counts[c.ID])}
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

// Update handles messages and updates the model
func (m CategoriesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Reload(m.categories, m.counts)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Select):
			c := m.table.Cursor()
			if c < 0 || c >= len(m.categories) {
				return m, nil
			}
			id := m.categories[c].ID
			return m, func() tea.Msg { return filterMsg{categoryID: id} }
		case key.Matches(msg, m.Keys.All):
			return m, func() tea.Msg { return filterMsg{categoryID: -1} }
		case key.Matches(msg, m.Keys.Back):
			return m, goBack
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the category screen
func (m CategoriesModel) View() string {
	var b strings.Builder
	b.WriteString(RenderTitle("Categories"))
	b.WriteString("\n")
	if len(m.categories) == 0 {
		b.WriteString(MenuItemStyle.Render("No categories yet."))
	} else {
		b.WriteString(m.table.View())
	}
	return RenderApplicationContainer(b.String(), m.Help.View(m.Keys), m.Width, m.Height)
}
