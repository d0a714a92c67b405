package cli

import (
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
)

const (
	// SpinnerRefreshRate is the frame rate of the waiting spinner.
	SpinnerRefreshRate = 100 * time.Millisecond
	// BarWidth is the width in characters of a utilization bar.
	BarWidth = 30
)

// Spinner abstracts the terminal spinner shown while waiting for the first
// sample, so tests can substitute a fake.
type Spinner interface {
	// Start begins the animation.
	Start()
	// Stop halts the animation and clears the line.
	Stop()
	// UpdateSuffix sets the text displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to Spinner.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

// newSpinner builds the spinner writing to w. It is a variable so tests can
// replace it.
var newSpinner = func(w io.Writer) Spinner {
	s := spinner.New(spinner.CharSets[11], SpinnerRefreshRate, spinner.WithWriter(w))
	return &realSpinner{s}
}

// usageBar renders pct (0..100) as a bar of the given width.
func usageBar(pct float64, width int) string {
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	filled := int(pct / 100 * float64(width))
	var b strings.Builder
	b.Grow(width * 3)
	for i := 0; i < width; i++ {
		if i < filled {
			b.WriteRune('█')
		} else {
			b.WriteRune('░')
		}
	}
	return b.String()
}
