package ui

import "github.com/charmbracelet/lipgloss"

// ColorAccent returns the accent escape code of the active theme.
func ColorAccent() string { return GetCurrentTheme().Accent }

// ColorDim returns the dim escape code of the active theme.
func ColorDim() string { return GetCurrentTheme().Dim }

// ColorError returns the error escape code of the active theme.
func ColorError() string { return GetCurrentTheme().Error }

// ColorBold returns the bold escape code of the active theme.
func ColorBold() string { return GetCurrentTheme().Bold }

// ColorReset returns the reset escape code of the active theme.
func ColorReset() string { return GetCurrentTheme().Reset }

// LoadLevel classifies a utilization percentage.
type LoadLevel int

const (
	LoadLow LoadLevel = iota
	LoadMedium
	LoadHigh
)

// LevelOf returns the load level of pct.
func LevelOf(pct float64) LoadLevel {
	switch {
	case pct >= HighLoad:
		return LoadHigh
	case pct >= MediumLoad:
		return LoadMedium
	default:
		return LoadLow
	}
}

// ColorLoad returns the escape code used to print pct.
func ColorLoad(pct float64) string {
	t := GetCurrentTheme()
	switch LevelOf(pct) {
	case LoadHigh:
		return t.High
	case LoadMedium:
		return t.Medium
	default:
		return t.Low
	}
}

// LoadColor is ColorLoad for lipgloss styles.
func LoadColor(pct float64) lipgloss.TerminalColor {
	t := GetCurrentTUITheme()
	switch LevelOf(pct) {
	case LoadHigh:
		return t.High
	case LoadMedium:
		return t.Medium
	default:
		return t.Low
	}
}
