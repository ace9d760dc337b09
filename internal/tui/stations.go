package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/labelgen/internal/api"
	"github.com/muurk/labelgen/internal/discovery"
	"github.com/muurk/labelgen/internal/station"
)

// Messages for async operations
type scanCompleteMsg struct {
	stations []*discovery.Station
	err      error
}

type healthMsg struct {
	station *discovery.Station
	health  *api.HealthResponse
	err     error
}

// ScanFunc browses for stations. It is replaceable in tests.
type ScanFunc func(ctx context.Context) ([]*discovery.Station, error)

type stationsKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Rescan key.Binding
	Back   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k stationsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Rescan, k.Back}
}

// FullHelp returns keybindings for the expanded help view
func (k stationsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// StationsModel discovers label stations on the network and checks the
// health of the chosen one.
type StationsModel struct {
	Scanning bool
	Stations []*discovery.Station
	Cursor   int
	Err      error

	Checked  *discovery.Station
	Health   *api.HealthResponse
	Checking bool

	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	Keys    stationsKeyMap

	scan ScanFunc
}

// NewStationsModel creates the station screen. A nil scan uses mDNS with
// the default timeout.
func NewStationsModel(scan ScanFunc) StationsModel {
	if scan == nil {
		scan = func(ctx context.Context) ([]*discovery.Station, error) {
			return discovery.Scan(ctx, discovery.DefaultScanTimeout)
		}
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return StationsModel{
		Scanning: true,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		Spinner:  s,
		Help:     help.New(),
		Keys: stationsKeyMap{
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
			Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "check")),
			Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
			Back:   key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "back")),
		},
		scan: scan,
	}
}

// Init starts a scan.
func (m StationsModel) Init() tea.Cmd {
	return tea.Batch(m.scanCmd(), m.Spinner.Tick)
}

func (m StationsModel) scanCmd() tea.Cmd {
	scan := m.scan
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), discovery.DefaultScanTimeout+2*time.Second)
		defer cancel()
		stations, err := scan(ctx)
		return scanCompleteMsg{stations: stations, err: err}
	}
}

func checkHealth(st *discovery.Station) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c := station.NewClient(st)
		c.SetRetry(0, 0)
		h, err := c.Health(ctx)
		return healthMsg{station: st, health: h, err: err}
	}
}

// Update handles messages and updates the model
func (m StationsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case scanCompleteMsg:
		m.Scanning = false
		m.Stations = msg.stations
		m.Err = msg.err
		m.Cursor = 0
		return m, nil

	case healthMsg:
		m.Checking = false
		m.Checked = msg.station
		m.Health = msg.health
		m.Err = msg.err
		return m, nil

	case spinner.TickMsg:
		if !m.Scanning && !m.Checking {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Back):
			return m, goBack
		case m.Scanning:
			return m, nil
		case key.Matches(msg, m.Keys.Up):
			if m.Cursor > 0 {
				m.Cursor--
			}
		case key.Matches(msg, m.Keys.Down):
			if m.Cursor < len(m.Stations)-1 {
				m.Cursor++
			}
		case key.Matches(msg, m.Keys.Rescan):
			m.Scanning = true
			m.Err = nil
			m.Checked, m.Health = nil, nil
			return m, tea.Batch(m.scanCmd(), m.Spinner.Tick)
		case key.Matches(msg, m.Keys.Select):
			if m.Cursor < len(m.Stations) {
				m.Checking = true
				return m, tea.Batch(checkHealth(m.Stations[m.Cursor]), m.Spinner.Tick)
			}
		}
	}
	return m, nil
}

// View renders the station screen
func (m StationsModel) View() string {
	var b strings.Builder
	b.WriteString(RenderTitle("Label stations"))
	b.WriteString("\n")

	switch {
	case m.Scanning:
		b.WriteString(fmt.Sprintf("%s Scanning for %s services...\n", m.Spinner.View(), discovery.ServiceType))
	case len(m.Stations) == 0:
		b.WriteString(MenuItemStyle.Render("No stations found."))
		b.WriteString("\n\n")
		b.WriteString(StatusStyle.Render("Start one with 'labelgen-server' on this network, then press r."))
		b.WriteString("\n")
	default:
		for i, st := range m.Stations {
			scheme := "http"
			if st.TLS {
				scheme = "https"
			}
			line := fmt.Sprintf("%-20s %s  %s  v%s", st.Instance, st.BaseURL(), scheme, st.Version)
			b.WriteString(RenderMenuItem(line, i == m.Cursor))
			b.WriteString("\n")
		}
	}

	if m.Checking {
		b.WriteString("\n" + m.Spinner.View() + " Checking station...\n")
	}
	if m.Health != nil && m.Checked != nil {
		b.WriteString("\n")
		b.WriteString(OptionOnStyle.Render(fmt.Sprintf("✓ %s is %s", m.Checked.Instance, m.Health.Status)))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  Workbook: %s\n  Products: %d\n  Clients:  %d\n",
			m.Health.Workbook, m.Health.Products, m.Health.Clients))
	}
	if m.Err != nil {
		b.WriteString("\n")
		b.WriteString(ErrorBoxStyle.Render("✗ " + station.GetShortErrorMessage(m.Err)))
		b.WriteString("\n")
	}

	return RenderApplicationContainer(b.String(), m.Help.View(m.Keys), m.Width, m.Height)
}
