package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/cpuwatch/internal/distributor"
	"github.com/agbru/cpuwatch/internal/snapshot"
)

var base = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T) (Model, distributor.Distributor) {
	t.Helper()
	d := distributor.NewBroadcast()
	sub, err := d.Subscribe()
	if err != nil {
		t.Fatal(err)
	}
	m := NewModel(context.Background(), sub, "broadcast", "v1.2.3")
	t.Cleanup(m.cancel)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model), d
}

func snapMsg(seq uint64, cores ...float64) SnapshotMsg {
	s := snapshot.New(base, cores)
	s.Seq = seq
	return SnapshotMsg{Snapshot: s}
}

func TestModel_ViewBeforeResize(t *testing.T) {
	t.Parallel()
	d := distributor.NewShared()
	sub, _ := d.Subscribe()
	m := NewModel(context.Background(), sub, "shared", "dev")
	defer m.cancel()
	if m.View() != "Initializing..." {
		t.Errorf("View() before resize = %q", m.View())
	}
}

func TestModel_SnapshotUpdatesPanels(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel(t)

	updated, cmd := m.Update(snapMsg(4, 10, 90))
	m = updated.(Model)
	if cmd == nil {
		t.Error("a new snapshot wait should be scheduled")
	}
	if len(m.cores.cores) != 2 || m.chart.history.Last() != 50 || m.header.seq != 4 {
		t.Errorf("panels not updated: cores=%v avg=%v seq=%d", m.cores.cores, m.chart.history.Last(), m.header.seq)
	}

	view := m.View()
	for _, want := range []string{"cpuwatch v1.2.3", "Cores (2)", "CPU 1", "CPU 2", "90.00%", "sample #4", "LIVE"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_PauseFreezesView(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel(t)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	m = updated.(Model)
	if !m.paused || !strings.Contains(m.View(), "PAUSED") {
		t.Fatal("p should pause the dashboard")
	}

	updated, cmd := m.Update(snapMsg(1, 77))
	m = updated.(Model)
	if cmd == nil {
		t.Error("snapshots must still be consumed while paused")
	}
	if len(m.cores.cores) != 0 {
		t.Error("paused dashboard should not apply snapshots")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	if updated.(Model).paused {
		t.Error("p should resume the dashboard")
	}
}

func TestModel_Quit(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
	if m.ctx.Err() == nil {
		t.Error("quitting should cancel the model context")
	}
}

func TestModel_ClosedDistributor(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel(t)

	updated, cmd := m.Update(ClosedMsg{Err: distributor.ErrClosed})
	m = updated.(Model)
	if cmd != nil {
		t.Error("a stopped sampler should keep the last frame on screen")
	}
	if !strings.Contains(m.View(), "STOPPED") {
		t.Error("footer should show the stopped status")
	}

	_, cmd = m.Update(ClosedMsg{Err: context.Canceled})
	if cmd == nil {
		t.Fatal("a cancelled subscription should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.Quit")
	}
}

func TestModel_SysStats(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel(t)

	updated, _ := m.Update(SysStatsMsg{Err: errors.New("unavailable")})
	m = updated.(Model)
	if !strings.Contains(m.View(), "mem --") {
		t.Error("memory should be unknown after a failed read")
	}

	updated, _ = m.Update(SysStatsMsg{MemPercent: 42.5})
	if !strings.Contains(updated.(Model).View(), "42.50%") {
		t.Error("memory percentage not shown")
	}
}

func TestWaitForSnapshotCmd(t *testing.T) {
	t.Parallel()
	d := distributor.NewShared()
	sub, _ := d.Subscribe()

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = d.Publish(snapshot.New(base, []float64{5}))
	}()
	msg := waitForSnapshotCmd(context.Background(), sub)()
	got, ok := msg.(SnapshotMsg)
	if !ok || got.Snapshot.Seq != 1 {
		t.Fatalf("msg = %#v, want SnapshotMsg seq 1", msg)
	}

	d.Close()
	closed, ok := waitForSnapshotCmd(context.Background(), sub)().(ClosedMsg)
	if !ok || !errors.Is(closed.Err, distributor.ErrClosed) {
		t.Errorf("after Close: %#v, want ClosedMsg(ErrClosed)", closed)
	}
}

func TestCoresModel_Columns(t *testing.T) {
	t.Parallel()
	c := NewCoresModel()
	c.SetSize(2+3*coreCellWidth, 10)
	if c.columns() != 3 {
		t.Errorf("columns() = %d, want 3", c.columns())
	}
	c.SetSize(10, 10)
	if c.columns() != 1 {
		t.Errorf("narrow panel: columns() = %d, want 1", c.columns())
	}

	c.SetSize(2+2*coreCellWidth, 10)
	c.Update([]float64{1, 2, 3})
	lines := strings.Split(c.View(), "\n")
	// Border, title, two rows of cells, border.
	if len(lines) != 5 {
		t.Errorf("got %d lines, want 5:\n%s", len(lines), c.View())
	}
}
