package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Listing is a titled box of plain lines, used for generated file lists
// and log tails.
type Listing struct {
	Title    string
	Lines    []string
	Width    int
	MaxLines int // Keep only the last MaxLines lines (0 = unlimited)
}

// NewListing creates a listing box
func NewListing(title string, lines []string) *Listing {
	return &Listing{Title: title, Lines: lines, Width: GetTerminalWidth()}
}

// SetWidth sets the terminal width for responsive rendering
func (l *Listing) SetWidth(width int) *Listing {
	l.Width = width
	return l
}

// SetMaxLines limits the number of lines displayed
func (l *Listing) SetMaxLines(n int) *Listing {
	l.MaxLines = n
	return l
}

// FilterLines keeps only lines containing any of patterns.
func (l *Listing) FilterLines(patterns ...string) *Listing {
	var kept []string
	for _, line := range l.Lines {
		for _, p := range patterns {
			if strings.Contains(line, p) {
				kept = append(kept, line)
				break
			}
		}
	}
	l.Lines = kept
	return l
}

// Render returns the styled box
func (l *Listing) Render() string {
	lines := l.Lines
	var hidden int
	if l.MaxLines > 0 && len(lines) > l.MaxLines {
		hidden = len(lines) - l.MaxLines
		lines = lines[hidden:]
	}

	parts := []string{ListingTitleStyle.Render(l.Title)}
	if hidden > 0 {
		parts = append(parts, StepNoteStyle.Render(fmt.Sprintf("… %d earlier line(s) not shown", hidden)))
	}
	if len(lines) == 0 {
		parts = append(parts, StepNoteStyle.Render("(none)"))
	} else {
		parts = append(parts, ListingContentStyle.Render(strings.Join(lines, "\n")))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(max(l.Width, MinTerminalWidth) - 4).
		Padding(0, 1).
		Render(strings.Join(parts, "\n"))
}

// String implements fmt.Stringer
func (l *Listing) String() string {
	return l.Render()
}
