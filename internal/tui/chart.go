package tui

import (
	"fmt"
	"strings"

	"github.com/agbru/cpuwatch/internal/format"
)

// historySize is the number of averages kept for the chart.
const historySize = 240

// ChartModel plots the history of the average utilization.
type ChartModel struct {
	history *RingBuffer
	width   int
	height  int
}

// NewChartModel creates an empty chart.
func NewChartModel() ChartModel {
	return ChartModel{history: NewRingBuffer(historySize)}
}

// SetSize updates the panel's outer size.
func (c *ChartModel) SetSize(w, h int) {
	c.width, c.height = w, h
}

// AddSample appends one average value.
func (c *ChartModel) AddSample(avg float64) {
	c.history.Push(avg)
}

// View renders the panel: a summary line, a braille chart and a sparkline of
// the most recent values.
func (c ChartModel) View() string {
	inner := max(c.width-2, 10)
	summary := fmt.Sprintf("%s %s  %s %s",
		dimStyle.Render("avg"), loadStyle(c.history.Last()).Render(format.FormatPercentFixed(c.history.Last())),
		dimStyle.Render("peak"), loadStyle(c.history.Peak()).Render(format.FormatPercentFixed(c.history.Peak())))

	lines := []string{panelTitleStyle.Render("Average") + "  " + summary}

	// Title, summary and sparkline rows plus the border.
	chartRows := c.height - 5
	if chartRows > 0 {
		for _, row := range RenderBrailleChart(c.history.Slice(), inner, chartRows) {
			lines = append(lines, chartStyle.Render(row))
		}
	}
	lines = append(lines, chartStyle.Render(RenderSparkline(c.history.Tail(inner))))
	return panelStyle.Width(inner).Render(strings.Join(lines, "\n"))
}
