package main

import (
	"fmt"
	"io"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8B5CF6"))
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22C55E"))
	badStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F43F5E"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

// render writes styled text, dropping colors the writer cannot show.
func render(w io.Writer, v ...any) {
	lipgloss.Fprintln(w, v...)
}

func renderf(w io.Writer, format string, args ...any) {
	lipgloss.Fprintln(w, fmt.Sprintf(format, args...))
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
