package ui

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Load thresholds, in percent, at which a core changes colour.
const (
	MediumLoad = 50.0
	HighLoad   = 80.0
)

// Theme is a set of ANSI escape codes for plain terminal output.
type Theme struct {
	Name string
	// Accent is used for labels and headings.
	Accent string
	Dim    string
	// Low, Medium and High colour a utilization value by load level.
	Low    string
	Medium string
	High   string
	Error  string
	Bold   string
	Reset  string
}

var (
	// DarkTheme suits dark terminal backgrounds.
	DarkTheme = Theme{
		Name:   "dark",
		Accent: "\033[38;5;208m", // Orange
		Dim:    "\033[38;5;245m", // Grey
		Low:    "\033[38;5;82m",  // Green
		Medium: "\033[38;5;220m", // Yellow
		High:   "\033[38;5;196m", // Red
		Error:  "\033[38;5;196m",
		Bold:   "\033[1m",
		Reset:  "\033[0m",
	}

	// LightTheme uses darker tones for light backgrounds.
	LightTheme = Theme{
		Name:   "light",
		Accent: "\033[38;5;130m",
		Dim:    "\033[38;5;240m",
		Low:    "\033[38;5;28m",
		Medium: "\033[38;5;136m",
		High:   "\033[38;5;124m",
		Error:  "\033[38;5;124m",
		Bold:   "\033[1m",
		Reset:  "\033[0m",
	}

	// NoColorTheme disables escape codes entirely.
	NoColorTheme = Theme{Name: "none"}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// TUITheme holds the lipgloss colours of the interactive dashboard.
type TUITheme struct {
	Text   lipgloss.TerminalColor
	Border lipgloss.TerminalColor
	Accent lipgloss.TerminalColor
	Dim    lipgloss.TerminalColor
	Low    lipgloss.TerminalColor
	Medium lipgloss.TerminalColor
	High   lipgloss.TerminalColor
	Error  lipgloss.TerminalColor
}

var (
	// DarkTUITheme is the default dashboard palette.
	DarkTUITheme = TUITheme{
		Text:   lipgloss.Color("#E0E0E0"),
		Border: lipgloss.Color("#FF6600"),
		Accent: lipgloss.Color("#FF8C00"),
		Dim:    lipgloss.Color("#666666"),
		Low:    lipgloss.Color("#9ece6a"),
		Medium: lipgloss.Color("#FFB347"),
		High:   lipgloss.Color("#FF4444"),
		Error:  lipgloss.Color("#FF4444"),
	}

	// NoColorTUITheme renders with the terminal's default colours.
	NoColorTUITheme = TUITheme{
		Text:   lipgloss.NoColor{},
		Border: lipgloss.NoColor{},
		Accent: lipgloss.NoColor{},
		Dim:    lipgloss.NoColor{},
		Low:    lipgloss.NoColor{},
		Medium: lipgloss.NoColor{},
		High:   lipgloss.NoColor{},
		Error:  lipgloss.NoColor{},
	}
)

// GetCurrentTUITheme returns the dashboard palette matching the active theme.
func GetCurrentTUITheme() TUITheme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()

	if currentTheme.Name == NoColorTheme.Name {
		return NoColorTUITheme
	}
	return DarkTUITheme
}

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme replaces the active theme. Tests use it to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme activates a theme by name ("dark", "light" or "none"). Unknown
// names select the dark theme.
func SetTheme(name string) {
	themeMutex.Lock()
	defer themeMutex.Unlock()

	switch name {
	case LightTheme.Name:
		currentTheme = LightTheme
	case NoColorTheme.Name:
		currentTheme = NoColorTheme
	default:
		currentTheme = DarkTheme
	}
}

// InitTheme picks the theme at startup. Colours are disabled by the noColor
// flag or by a NO_COLOR environment variable (https://no-color.org/).
func InitTheme(noColor bool) {
	themeMutex.Lock()
	defer themeMutex.Unlock()

	if noColor {
		currentTheme = NoColorTheme
		return
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		currentTheme = NoColorTheme
		return
	}
	currentTheme = DarkTheme
}
