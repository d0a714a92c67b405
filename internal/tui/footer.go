package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// FooterModel renders the status and the key help.
type FooterModel struct {
	help   help.Model
	paused bool
	closed bool
	width  int
}

// NewFooterModel creates a footer.
func NewFooterModel() FooterModel {
	return FooterModel{help: help.New()}
}

// SetWidth updates the available width.
func (f *FooterModel) SetWidth(w int) {
	f.width = w
	f.help.Width = w
}

// SetPaused toggles the paused status.
func (f *FooterModel) SetPaused(p bool) { f.paused = p }

// SetClosed marks the stream as ended.
func (f *FooterModel) SetClosed(c bool) { f.closed = c }

// ToggleHelp switches between short and full help.
func (f *FooterModel) ToggleHelp() { f.help.ShowAll = !f.help.ShowAll }

// View renders the footer with the given bindings.
func (f FooterModel) View(keys KeyMap) string {
	var status string
	switch {
	case f.closed:
		status = statusClosedStyle.Render("● STOPPED")
	case f.paused:
		status = statusPausedStyle.Render("● PAUSED")
	default:
		status = statusRunningStyle.Render("● LIVE")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, " ", status, "  ", f.help.View(keys))
}
