// Package sysmon reads per-core CPU counters and host memory usage from the
// operating system through gopsutil.
package sysmon

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// ErrNotPrimed is returned by CoreSampler.Percent when no previous counter set
// exists to diff against: on the first call, and after the number of logical
// cores changed.
var ErrNotPrimed = errors.New("sysmon: cpu counters not primed")

type timesFunc func(ctx context.Context, perCPU bool) ([]cpu.TimesStat, error)

// CoreSampler computes per-core utilization from successive counter reads.
// It owns the previous counter set and is meant to be created once and reused
// for the lifetime of the sampling loop.
type CoreSampler struct {
	mu    sync.Mutex
	times timesFunc
	prev  []cpu.TimesStat
}

// NewCoreSampler returns a sampler reading the host's per-core counters.
func NewCoreSampler() *CoreSampler {
	return &CoreSampler{times: cpu.TimesWithContext}
}

// Prime reads the counters once so that the next Percent call has a baseline.
func (s *CoreSampler) Prime(ctx context.Context) error {
	_, err := s.Percent(ctx)
	if errors.Is(err, ErrNotPrimed) {
		return nil
	}
	return err
}

// Percent returns the utilization of every logical core, 0..100, since the
// previous call.
func (s *CoreSampler) Percent(ctx context.Context) ([]float64, error) {
	cur, err := s.times(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("read per-core cpu times: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.prev
	s.prev = cur
	if prev == nil || len(prev) != len(cur) {
		return nil, ErrNotPrimed
	}

	out := make([]float64, len(cur))
	for i := range cur {
		out[i] = utilization(prev[i], cur[i])
	}
	return out, nil
}

func busyAndTotal(t cpu.TimesStat) (busy, total float64) {
	total = t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq + t.Softirq + t.Steal
	busy = total - t.Idle - t.Iowait
	return busy, total
}

// utilization returns Δbusy/Δtotal as a percentage clamped to [0, 100].
// Counter resets and idle periods yield 0.
func utilization(prev, cur cpu.TimesStat) float64 {
	prevBusy, prevTotal := busyAndTotal(prev)
	curBusy, curTotal := busyAndTotal(cur)

	dTotal := curTotal - prevTotal
	if dTotal <= 0 {
		return 0
	}
	dBusy := curBusy - prevBusy
	if dBusy <= 0 {
		return 0
	}
	pct := dBusy / dTotal * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// LogicalCores returns the number of logical cores reported by the OS.
func LogicalCores(ctx context.Context) (int, error) {
	return cpu.CountsWithContext(ctx, true)
}

// MemoryPercent returns host memory usage in percent, 0..100.
func MemoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("read virtual memory: %w", err)
	}
	if vm == nil {
		return 0, nil
	}
	return vm.UsedPercent, nil
}
