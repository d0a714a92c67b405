package tui

import (
	"time"

	"github.com/agbru/cpuwatch/internal/snapshot"
)

// SnapshotMsg carries a snapshot received from the distributor.
type SnapshotMsg struct {
	Snapshot snapshot.Snapshot
}

// ClosedMsg reports that the subscription ended. Err is distributor.ErrClosed
// when the sampler stopped.
type ClosedMsg struct {
	Err error
}

// TickMsg refreshes time-dependent parts of the view.
type TickMsg time.Time

// SysStatsMsg carries host memory usage. Err is set when it could not be read.
type SysStatsMsg struct {
	MemPercent float64
	Err        error
}
