package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/labelgen/internal/version"
)

// AppName is shown in the header of every screen.
const AppName = "LABELGEN"

// Layout constants for responsive terminal width
const (
	MinTerminalWidth  = 72
	MinTerminalHeight = 20
	DefaultWidth      = 100
	DefaultHeight     = 30
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF0000") // Red

	TextColor      = lipgloss.Color("#FFFFFF")
	SubtleColor    = lipgloss.Color("#626262")
	BorderColor    = PrimaryColor
	HighlightColor = SecondaryColor
)

// Common styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	MenuItemStyle = lipgloss.NewStyle().
			PaddingLeft(4).
			Foreground(TextColor)

	SelectedMenuItemStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Foreground(HighlightColor).
				Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	StatusStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// Option toggles on the product screen
	OptionOnStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)
	OptionOffStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	ErrorBoxStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ErrorColor).
			Padding(0, 1)

	WarningTextStyle = lipgloss.NewStyle().
				Foreground(WarningColor)

	// Log levels
	LogDebugStyle = lipgloss.NewStyle().Foreground(SubtleColor)
	LogInfoStyle  = lipgloss.NewStyle().Foreground(TextColor)
	LogWarnStyle  = lipgloss.NewStyle().Foreground(WarningColor)
	LogErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
)

// RenderTitle renders a title with consistent styling
func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

// RenderMenuItem renders a menu item with selection indicator
func RenderMenuItem(text string, selected bool) string {
	if selected {
		return SelectedMenuItemStyle.Render("→ " + text)
	}
	return MenuItemStyle.Render("  " + text)
}

// RenderOption renders an on/off toggle such as "[x] merge".
func RenderOption(label string, on bool) string {
	if on {
		return OptionOnStyle.Render("[x] " + label)
	}
	return OptionOffStyle.Render("[ ] " + label)
}

// tableStyles returns the table styles shared by list screens.
func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(TextColor).
		Background(PrimaryColor).
		Bold(false)
	return s
}

// tableKeyMap keeps the letter keys free for screen actions; the default
// table bindings claim space, f, b, d, u and g.
func tableKeyMap() table.KeyMap {
	km := table.DefaultKeyMap()
	km.LineUp.SetKeys("up", "k")
	km.LineDown.SetKeys("down", "j")
	km.PageUp.SetKeys("pgup")
	km.PageDown.SetKeys("pgdown")
	km.HalfPageUp.SetKeys("ctrl+u")
	km.HalfPageDown.SetKeys("ctrl+d")
	km.GotoTop.SetKeys("home")
	km.GotoBottom.SetKeys("end")
	return km
}

func buildHeaderContent() string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " " + version.Version)
	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render("barcode label generator")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// RenderApplicationContainer wraps a screen's content with the application
// header, a footer carrying the screen's help text and an outer border
// that fills the terminal.
func RenderApplicationContainer(content, footerText string, width, height int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if height < MinTerminalHeight {
		height = MinTerminalHeight
	}

	header := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(width-4).
		Padding(0, 1).
		Render(buildHeaderContent())

	footer := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(width-4).
		Padding(0, 1).
		Render(lipgloss.NewStyle().Foreground(SubtleColor).Render(footerText))

	body := lipgloss.NewStyle().
		Width(width - 4).
		Padding(0, 1).
		Render(content)

	inner := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)

	bordered := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(width - 2).
		Height(height - 2).
		AlignVertical(lipgloss.Top).
		Render(inner)

	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, bordered)
}

// contentHeight is the number of body lines available inside the
// container, leaving room for header, footer and borders.
func contentHeight(height int) int {
	if height < MinTerminalHeight {
		height = MinTerminalHeight
	}
	return height - 8
}
