// Package snapshot defines the per-core CPU utilization vector that flows from
// the sampler to every consumer, together with its text rendering.
package snapshot

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/agbru/cpuwatch/internal/format"
)

// MinRefreshInterval is the shortest spacing between two meaningful per-core
// readings. Counters refreshed faster than this yield zero or noisy deltas.
const MinRefreshInterval = 200 * time.Millisecond

// Snapshot holds the utilization of every logical core captured at one
// sampling tick. Index i always refers to the same core.
type Snapshot struct {
	// Seq is assigned by the distributor on publish. Zero means "not published".
	Seq uint64 `json:"seq"`
	// Taken is the instant the counters were read.
	Taken time.Time `json:"taken"`
	// Cores holds one percentage (0..100) per logical core.
	Cores []float64 `json:"cores"`
}

// New builds an unpublished Snapshot from a utilization vector. The vector is
// copied so the caller may reuse its buffer.
func New(taken time.Time, cores []float64) Snapshot {
	return Snapshot{Taken: taken, Cores: cloneCores(cores)}
}

// IsZero reports whether the snapshot carries no data.
func (s Snapshot) IsZero() bool {
	return s.Seq == 0 && len(s.Cores) == 0
}

// Clone returns a deep copy so that readers never share the backing array.
func (s Snapshot) Clone() Snapshot {
	s.Cores = cloneCores(s.Cores)
	return s
}

// Average returns the mean utilization across all cores, or 0 when empty.
func (s Snapshot) Average() float64 {
	if len(s.Cores) == 0 {
		return 0
	}
	var sum float64
	for _, c := range s.Cores {
		sum += c
	}
	return sum / float64(len(s.Cores))
}

// Percentages returns a copy of the per-core values, never nil.
func (s Snapshot) Percentages() []float64 {
	if s.Cores == nil {
		return []float64{}
	}
	return cloneCores(s.Cores)
}

// Text renders one line per core, 1-based: "CPU 1 12.5%".
func (s Snapshot) Text() string {
	var b strings.Builder
	_ = s.WriteText(&b)
	return b.String()
}

// WriteText writes the text rendering of the snapshot to w.
func (s Snapshot) WriteText(w io.Writer) error {
	var line []byte
	for i, c := range s.Cores {
		line = line[:0]
		line = append(line, "CPU "...)
		line = strconv.AppendInt(line, int64(i+1), 10)
		line = append(line, ' ')
		line = append(line, format.FormatPercent(c)...)
		line = append(line, "%\n"...)
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return nil
}

func cloneCores(cores []float64) []float64 {
	if cores == nil {
		return nil
	}
	out := make([]float64, len(cores))
	copy(out, cores)
	return out
}
