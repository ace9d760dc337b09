package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/labelgen/internal/logging"
)

// logLevels is the cycle order of the level filter.
var logLevels = []string{"debug", "info", "warn", "error"}

type logsKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Level   key.Binding
	Refresh key.Binding
	Back    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k logsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Level, k.Refresh, k.Back}
}

// FullHelp returns keybindings for the expanded help view
func (k logsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// LogsModel shows the in-memory log journal.
type LogsModel struct {
	Journal *logging.Journal
	Level   string

	Width    int
	Height   int
	Viewport viewport.Model
	Help     help.Model
	Keys     logsKeyMap
}

// NewLogsModel creates the log screen. journal may be nil when the
// journal is disabled.
func NewLogsModel(journal *logging.Journal) LogsModel {
	m := LogsModel{
		Journal:  journal,
		Level:    "info",
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		Viewport: viewport.New(DefaultWidth-8, contentHeight(DefaultHeight)-3),
		Help:     help.New(),
		Keys: logsKeyMap{
			Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
			Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
			Level:   key.NewBinding(key.WithKeys("l", "tab"), key.WithHelp("l", "level")),
			Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
			Back:    key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "back")),
		},
	}
	m.Refresh()
	return m
}

// Init implements tea.Model.
func (m LogsModel) Init() tea.Cmd {
	return nil
}

// Lines returns the rendered journal lines for the current level, oldest
// first.
func (m LogsModel) Lines() []string {
	if m.Journal == nil {
		return nil
	}
	entries := m.Journal.Entries(logging.Filter{Level: m.Level})
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	return lines
}

// Refresh reloads the journal and scrolls to the newest entry.
func (m *LogsModel) Refresh() {
	if m.Journal == nil {
		m.Viewport.SetContent(StatusStyle.Render("Logging is disabled. Start with --log-level debug to capture logs."))
		return
	}
	entries := m.Journal.Entries(logging.Filter{Level: m.Level})
	if len(entries) == 0 {
		m.Viewport.SetContent(StatusStyle.Render("(no entries at level " + m.Level + " or above)"))
		return
	}
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(levelStyle(e.Level)(e.String()))
		b.WriteString("\n")
	}
	m.Viewport.SetContent(b.String())
	m.Viewport.GotoBottom()
}

func levelStyle(level string) func(...string) string {
	switch strings.ToLower(level) {
	case "debug":
		return LogDebugStyle.Render
	case "warn", "warning":
		return LogWarnStyle.Render
	case "error", "fatal", "panic", "dpanic":
		return LogErrorStyle.Render
	default:
		return LogInfoStyle.Render
	}
}

func (m *LogsModel) nextLevel() {
	for i, l := range logLevels {
		if l == m.Level {
			m.Level = logLevels[(i+1)%len(logLevels)]
			return
		}
	}
	m.Level = logLevels[0]
}

// Update handles messages and updates the model
func (m LogsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Viewport.Width = max(msg.Width-8, MinTerminalWidth-8)
		m.Viewport.Height = max(contentHeight(msg.Height)-3, 3)
		m.Refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Level):
			m.nextLevel()
			m.Refresh()
			return m, nil
		case key.Matches(msg, m.Keys.Refresh):
			m.Refresh()
			return m, nil
		case key.Matches(msg, m.Keys.Back):
			return m, goBack
		}
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

// View renders the log screen
func (m LogsModel) View() string {
	var b strings.Builder
	b.WriteString(RenderTitle("Logs (" + m.Level + " and above)"))
	b.WriteString("\n")
	b.WriteString(m.Viewport.View())
	return RenderApplicationContainer(b.String(), m.Help.View(m.Keys), m.Width, m.Height)
}
