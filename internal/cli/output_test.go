package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agbru/cpuwatch/internal/snapshot"
	"github.com/agbru/cpuwatch/internal/ui"
)

func testSnapshot() snapshot.Snapshot {
	s := snapshot.New(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC), []float64{12.5, 48, 91.25})
	s.Seq = 7
	return s
}

func TestFormatCoreLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		index int
		pct   float64
		want  string
	}{
		{1, 0, "CPU 1   " + strings.Repeat("░", BarWidth) + "   0.00%"},
		{2, 100, "CPU 2   " + strings.Repeat("█", BarWidth) + " 100.00%"},
		{12, 50, "CPU 12  " + strings.Repeat("█", BarWidth/2) + strings.Repeat("░", BarWidth/2) + "  50.00%"},
	}
	for _, tt := range tests {
		if got := FormatCoreLine(tt.index, tt.pct); got != tt.want {
			t.Errorf("FormatCoreLine(%d, %v) =\n%q\nwant\n%q", tt.index, tt.pct, got, tt.want)
		}
	}
}

func TestDisplaySnapshot(t *testing.T) {
	saved := ui.GetCurrentTheme()
	defer ui.SetCurrentTheme(saved)
	ui.SetCurrentTheme(ui.NoColorTheme)

	var buf bytes.Buffer
	DisplaySnapshot(&buf, testSnapshot())
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 3 cores + average:\n%s", len(lines), buf.String())
	}
	for i, want := range []string{"12.50%", "48.00%", "91.25%"} {
		if !strings.HasSuffix(lines[i], want) {
			t.Errorf("line %d = %q, want suffix %q", i, lines[i], want)
		}
	}
	if !strings.Contains(lines[3], "50.58%") || !strings.Contains(lines[3], "3 cores, sample #7") {
		t.Errorf("average line = %q", lines[3])
	}
	if strings.Contains(buf.String(), "\033[") {
		t.Error("no-color theme should not emit escape codes")
	}
}

func TestWriteSnapshotJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := WriteSnapshotJSON(&buf, testSnapshot()); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "[12.5,48,91.25]\n" {
		t.Errorf("json = %q", got)
	}

	buf.Reset()
	if err := WriteSnapshotJSON(&buf, snapshot.Snapshot{}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "[]\n" {
		t.Errorf("empty json = %q, want []", got)
	}
}

func TestWriteSnapshotToFile(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	testCases := []struct {
		name       string
		outputFile string
	}{
		{"file in existing directory", filepath.Join(tmpDir, "snap.txt")},
		{"nested directory is created", filepath.Join(tmpDir, "nested", "dir", "snap.txt")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := WriteSnapshotToFile(testSnapshot(), tc.outputFile); err != nil {
				t.Fatalf("WriteSnapshotToFile: %v", err)
			}
			content, err := os.ReadFile(tc.outputFile)
			if err != nil {
				t.Fatalf("read output file: %v", err)
			}
			s := string(content)
			for _, want := range []string{"# Sequence: 7", "# Cores: 3", "CPU 1 12.5%\nCPU 2 48%\nCPU 3 91.25%\n"} {
				if !strings.Contains(s, want) {
					t.Errorf("file does not contain %q:\n%s", want, s)
				}
			}
		})
	}
}

func TestDisplaySnapshotWithConfig(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	t.Run("JSON mode", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := DisplaySnapshotWithConfig(&buf, testSnapshot(), OutputConfig{JSON: true}); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "[12.5,48,91.25]\n" {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("bars with file output", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		path := filepath.Join(tmpDir, "bars.txt")
		if err := DisplaySnapshotWithConfig(&buf, testSnapshot(), OutputConfig{OutputFile: path}); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("output file should exist: %v", err)
		}
		if !strings.Contains(buf.String(), "Snapshot saved to") {
			t.Errorf("missing save message:\n%s", buf.String())
		}
	})

	t.Run("JSON with file output stays machine readable", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		path := filepath.Join(tmpDir, "json.txt")
		if err := DisplaySnapshotWithConfig(&buf, testSnapshot(), OutputConfig{JSON: true, OutputFile: path}); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(buf.String(), "saved") {
			t.Error("JSON mode should not print the save message")
		}
	})

	t.Run("unwritable path", func(t *testing.T) {
		t.Parallel()
		blocker := filepath.Join(tmpDir, "blocker")
		if err := os.WriteFile(blocker, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		err := DisplaySnapshotWithConfig(&bytes.Buffer{}, testSnapshot(), OutputConfig{OutputFile: filepath.Join(blocker, "x.txt")})
		if err == nil {
			t.Error("expected an error when the parent is a file")
		}
	})
}
