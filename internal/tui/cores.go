package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/cpuwatch/internal/format"
)

const (
	// coreCellWidth is the minimum width of one core cell, label included.
	coreCellWidth  = 28
	coreLabelWidth = 8
	corePctWidth   = 8
)

// CoresModel renders one utilization bar per core, laid out in columns.
type CoresModel struct {
	cores  []float64
	width  int
	height int
}

// NewCoresModel creates an empty panel.
func NewCoresModel() CoresModel { return CoresModel{} }

// SetSize updates the panel's outer size.
func (c *CoresModel) SetSize(w, h int) {
	c.width, c.height = w, h
}

// Update replaces the displayed values.
func (c *CoresModel) Update(cores []float64) {
	c.cores = append(c.cores[:0], cores...)
}

// columns returns how many core cells fit side by side.
func (c CoresModel) columns() int {
	inner := c.width - 2
	return max(inner/coreCellWidth, 1)
}

// View renders the panel.
func (c CoresModel) View() string {
	title := panelTitleStyle.Render(fmt.Sprintf("Cores (%d)", len(c.cores)))
	inner := max(c.width-2, coreCellWidth)

	if len(c.cores) == 0 {
		body := dimStyle.Render("waiting for the first sample...")
		return panelStyle.Width(inner).Render(title + "\n" + body)
	}

	cols := c.columns()
	cellWidth := inner / cols
	rows := (len(c.cores) + cols - 1) / cols

	lines := make([]string, 0, rows)
	for r := 0; r < rows; r++ {
		var line strings.Builder
		// Column-major order so CPU numbers read downwards.
		for col := 0; col < cols; col++ {
			i := col*rows + r
			if i >= len(c.cores) {
				break
			}
			line.WriteString(renderCoreCell(i+1, c.cores[i], cellWidth))
		}
		lines = append(lines, line.String())
	}
	return panelStyle.Width(inner).Render(title + "\n" + strings.Join(lines, "\n"))
}

// renderCoreCell renders "CPU n  ███░░░  12.50%" padded to width.
func renderCoreCell(index int, pct float64, width int) string {
	barWidth := max(width-coreLabelWidth-corePctWidth-1, 1)
	filled := int(clampPercent(pct) / 100 * float64(barWidth))

	label := dimStyle.Render(fmt.Sprintf("%-*s", coreLabelWidth, fmt.Sprintf("CPU %d", index)))
	bar := loadStyle(pct).Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
	value := loadStyle(pct).Render(fmt.Sprintf("%*s", corePctWidth, format.FormatPercentFixed(pct)))

	cell := label + bar + value
	return cell + spaces(width-lipgloss.Width(cell))
}
