package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestLevelOf(t *testing.T) {
	t.Parallel()
	tests := []struct {
		pct  float64
		want LoadLevel
	}{
		{0, LoadLow},
		{49.99, LoadLow},
		{50, LoadMedium},
		{79.9, LoadMedium},
		{80, LoadHigh},
		{100, LoadHigh},
	}
	for _, tt := range tests {
		if got := LevelOf(tt.pct); got != tt.want {
			t.Errorf("LevelOf(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}

// Theme tests mutate package state and therefore do not run in parallel.
func TestInitTheme(t *testing.T) {
	saved := GetCurrentTheme()
	defer SetCurrentTheme(saved)

	InitTheme(true)
	if GetCurrentTheme().Name != "none" {
		t.Errorf("InitTheme(true) = %q, want none", GetCurrentTheme().Name)
	}
	if ColorLoad(95) != "" || ColorReset() != "" {
		t.Error("no-color theme should emit no escape codes")
	}
	if _, ok := LoadColor(95).(lipgloss.NoColor); !ok {
		t.Error("no-color TUI theme should use lipgloss.NoColor")
	}

	t.Setenv("NO_COLOR", "1")
	SetCurrentTheme(DarkTheme)
	InitTheme(false)
	if GetCurrentTheme().Name != "none" {
		t.Error("NO_COLOR should disable colours")
	}
}

func TestSetTheme(t *testing.T) {
	saved := GetCurrentTheme()
	defer SetCurrentTheme(saved)

	for name, want := range map[string]string{"light": "light", "none": "none", "dark": "dark", "bogus": "dark"} {
		SetTheme(name)
		if got := GetCurrentTheme().Name; got != want {
			t.Errorf("SetTheme(%q) -> %q, want %q", name, got, want)
		}
	}

	SetTheme("dark")
	if ColorLoad(10) != DarkTheme.Low || ColorLoad(60) != DarkTheme.Medium || ColorLoad(90) != DarkTheme.High {
		t.Error("ColorLoad does not follow the dark theme")
	}
	if GetCurrentTUITheme() != DarkTUITheme {
		t.Error("dark theme should select the dark TUI palette")
	}
}
