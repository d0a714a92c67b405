package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/cpuwatch/internal/distributor"
	"github.com/agbru/cpuwatch/internal/sysmon"
)

// tickInterval paces the header clock and the memory reading.
const tickInterval = time.Second

// waitForSnapshotCmd blocks on the subscription and turns its next value into
// a message. The model issues it again after each SnapshotMsg so exactly one
// wait is pending at a time.
func waitForSnapshotCmd(ctx context.Context, sub distributor.Subscription) tea.Cmd {
	return func() tea.Msg {
		snap, err := sub.Next(ctx)
		if err != nil {
			return ClosedMsg{Err: err}
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// memoryPercent is replaced in tests.
var memoryPercent = sysmon.MemoryPercent

// sampleSysStatsCmd reads host memory usage off the UI goroutine.
func sampleSysStatsCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		pct, err := memoryPercent(ctx)
		return SysStatsMsg{MemPercent: pct, Err: err}
	}
}
