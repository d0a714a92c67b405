package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/cpuwatch/internal/format"
)

// HeaderModel renders the top line: title, strategy, uptime, host memory and
// the last sample number.
type HeaderModel struct {
	startTime time.Time
	now       time.Time
	version   string
	strategy  string
	memPct    float64
	memKnown  bool
	seq       uint64
	width     int
}

// NewHeaderModel creates a header whose uptime starts now.
func NewHeaderModel(version, strategy string) HeaderModel {
	now := time.Now()
	return HeaderModel{startTime: now, now: now, version: version, strategy: strategy}
}

// SetWidth updates the available width.
func (h *HeaderModel) SetWidth(w int) { h.width = w }

// SetNow advances the clock used for the uptime.
func (h *HeaderModel) SetNow(t time.Time) { h.now = t }

// SetMemory records host memory usage.
func (h *HeaderModel) SetMemory(pct float64) {
	h.memPct, h.memKnown = pct, true
}

// SetSeq records the sequence number of the displayed snapshot.
func (h *HeaderModel) SetSeq(seq uint64) { h.seq = seq }

// View renders the header.
func (h HeaderModel) View() string {
	title := "cpuwatch"
	if h.version != "" && h.version != "dev" {
		title += " " + h.version
	}
	pipe := dimStyle.Render(" | ")

	mem := dimStyle.Render("mem --")
	if h.memKnown {
		mem = dimStyle.Render("mem ") + loadStyle(h.memPct).Render(format.FormatPercentFixed(h.memPct))
	}

	row := titleStyle.Render(title) + pipe +
		dimStyle.Render("strategy ") + valueStyle.Render(h.strategy) + pipe +
		dimStyle.Render("up ") + valueStyle.Render(format.FormatExecutionDuration(h.now.Sub(h.startTime))) + pipe +
		mem + pipe +
		dimStyle.Render(fmt.Sprintf("sample #%d", h.seq))

	gap := max(h.width-2-lipgloss.Width(row), 0)
	return headerStyle.Width(h.width).Render(row + spaces(gap))
}

// spaces returns n spaces.
func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
