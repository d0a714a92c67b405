package format

import (
	"fmt"
	"strconv"
	"time"
)

// FormatExecutionDuration formats a time.Duration for display.
// It shows microseconds for durations less than a millisecond, milliseconds for
// durations less than a second, and the default string representation otherwise.
//
// Parameters:
//   - d: The duration to format.
//
// Returns:
//   - string: A formatted string representing the duration.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Second).String()
}

// FormatPercent renders a utilization value with the shortest decimal
// representation that round-trips, so 48.0 prints as "48" and 12.5 as "12.5".
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatPercentFixed renders a utilization value with two decimals, as used by
// the dashboards.
func FormatPercentFixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}
