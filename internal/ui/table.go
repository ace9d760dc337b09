package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// RenderTable renders rows under headers with a rounded border. Columns
// are sized to their content; width caps the whole table.
func RenderTable(headers []string, rows [][]string, width int) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(MutedColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		})
	if width > 0 {
		natural := lipgloss.Width(t.String())
		if natural > width {
			t = t.Width(width)
		}
	}
	return t.String()
}
