// # Naming Conventions
//
//   - Display* functions write formatted output to an [io.Writer] and apply
//     the active colour theme. Examples: [DisplaySnapshot].
//
//   - Format* functions return a string without performing I/O.
//     Examples: [FormatCoreLine].
//
//   - Write* functions write to files or encoders.
//     Examples: [WriteSnapshotToFile], [WriteSnapshotJSON].

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/agbru/cpuwatch/internal/format"
	"github.com/agbru/cpuwatch/internal/snapshot"
	"github.com/agbru/cpuwatch/internal/ui"
)

// OutputConfig holds the once-mode output settings.
type OutputConfig struct {
	// JSON prints the per-core percentages as a JSON array.
	JSON bool
	// OutputFile also saves the snapshot to this path (empty for none).
	OutputFile string
}

// FormatCoreLine renders one core as a labelled, uncoloured bar line.
// Core indices are 1-based as in the text endpoint.
func FormatCoreLine(index int, pct float64) string {
	return fmt.Sprintf("CPU %-3d %s %7s", index, usageBar(pct, BarWidth), format.FormatPercentFixed(pct))
}

// DisplaySnapshot prints one coloured bar per core followed by the average.
func DisplaySnapshot(out io.Writer, snap snapshot.Snapshot) {
	for i, pct := range snap.Cores {
		fmt.Fprintf(out, "%s%s%s\n", ui.ColorLoad(pct), FormatCoreLine(i+1, pct), ui.ColorReset())
	}
	avg := snap.Average()
	fmt.Fprintf(out, "%s%savg%s     %s%s %7s%s  %s(%d cores, sample #%d)%s\n",
		ui.ColorBold(), ui.ColorAccent(), ui.ColorReset(),
		ui.ColorLoad(avg), usageBar(avg, BarWidth), format.FormatPercentFixed(avg), ui.ColorReset(),
		ui.ColorDim(), len(snap.Cores), snap.Seq, ui.ColorReset())
}

// WriteSnapshotJSON writes the per-core percentages as a JSON array.
func WriteSnapshotJSON(out io.Writer, snap snapshot.Snapshot) error {
	return json.NewEncoder(out).Encode(snap.Percentages())
}

// DisplaySnapshotWithConfig prints snap in the configured form and saves it
// to the output file when one is set.
func DisplaySnapshotWithConfig(out io.Writer, snap snapshot.Snapshot, config OutputConfig) error {
	if config.JSON {
		if err := WriteSnapshotJSON(out, snap); err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
	} else {
		DisplaySnapshot(out, snap)
	}

	if config.OutputFile != "" {
		if err := WriteSnapshotToFile(snap, config.OutputFile); err != nil {
			return err
		}
		if !config.JSON {
			fmt.Fprintf(out, "\n%s✓ Snapshot saved to: %s%s\n", ui.ColorAccent(), config.OutputFile, ui.ColorReset())
		}
	}
	return nil
}

// WriteSnapshotToFile saves snap in the text endpoint format, preceded by a
// commented header.
func WriteSnapshotToFile(snap snapshot.Snapshot, path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "# cpuwatch snapshot\n")
	fmt.Fprintf(file, "# Taken: %s\n", snap.Taken.Format(time.RFC3339Nano))
	fmt.Fprintf(file, "# Sequence: %d\n", snap.Seq)
	fmt.Fprintf(file, "# Cores: %d\n", len(snap.Cores))
	fmt.Fprintf(file, "\n")
	if err := snap.WriteText(file); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return file.Close()
}
