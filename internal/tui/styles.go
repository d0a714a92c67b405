package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/cpuwatch/internal/ui"
)

// Dashboard styles, rebuilt from the ui theme by initTUIStyles.
var (
	panelStyle         lipgloss.Style
	panelTitleStyle    lipgloss.Style
	headerStyle        lipgloss.Style
	titleStyle         lipgloss.Style
	dimStyle           lipgloss.Style
	valueStyle         lipgloss.Style
	barEmptyStyle      lipgloss.Style
	chartStyle         lipgloss.Style
	statusRunningStyle lipgloss.Style
	statusPausedStyle  lipgloss.Style
	statusClosedStyle  lipgloss.Style
)

func init() {
	initTUIStyles()
}

// initTUIStyles rebuilds the styles from the current theme. Run calls it
// again after the application has applied --no-color.
func initTUIStyles() {
	t := ui.GetCurrentTUITheme()

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Foreground(t.Text)

	panelTitleStyle = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	headerStyle = lipgloss.NewStyle().
		Foreground(t.Text).
		Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	dimStyle = lipgloss.NewStyle().Foreground(t.Dim)

	valueStyle = lipgloss.NewStyle().
		Foreground(t.Text).
		Bold(true)

	barEmptyStyle = lipgloss.NewStyle().Foreground(t.Dim)

	chartStyle = lipgloss.NewStyle().Foreground(t.Accent)

	statusRunningStyle = lipgloss.NewStyle().
		Foreground(t.Low).
		Bold(true)

	statusPausedStyle = lipgloss.NewStyle().
		Foreground(t.Medium).
		Bold(true)

	statusClosedStyle = lipgloss.NewStyle().
		Foreground(t.Error).
		Bold(true)
}

// loadStyle colours a value by its load level.
func loadStyle(pct float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ui.LoadColor(pct))
}
