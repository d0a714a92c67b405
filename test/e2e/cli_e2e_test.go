package e2e

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// buildBinary compiles cmd/cpuwatch into a temporary directory. go test runs
// with the package directory as its working directory, so the build runs
// from the module root two levels up.
func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "cpuwatch"
	if runtime.GOOS == "windows" {
		binName = "cpuwatch.exe"
	}
	binPath := filepath.Join(t.TempDir(), binName)

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/cpuwatch")
	cmd.Dir = "../.."
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Failed to build cpuwatch: %v", err)
	}
	return binPath
}

func run(binPath string, args ...string) (string, int, error) {
	cmd := exec.Command(binPath, args...)
	cmd.Env = append(os.Environ(), "NO_COLOR=1")
	output, err := cmd.CombinedOutput()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(output), exitErr.ExitCode(), nil
	}
	return string(output), 0, err
}

// TestCLI_E2E verifies the built binary functions correctly
func TestCLI_E2E(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}
	binPath := buildBinary(t)

	tests := []struct {
		name     string
		args     []string
		wantOut  string // substring match (case-insensitive)
		wantCode int
	}{
		{
			name:     "Help",
			args:     []string{"--help"},
			wantOut:  "usage",
			wantCode: 0,
		},
		{
			name:     "Version Flag",
			args:     []string{"--version"},
			wantOut:  "cpuwatch",
			wantCode: 0,
		},
		{
			name:     "Once Bars",
			args:     []string{"--once", "-interval", "200ms"},
			wantOut:  "CPU 1",
			wantCode: 0,
		},
		{
			name:     "Bash Completion",
			args:     []string{"--completion", "bash"},
			wantOut:  "complete -F _cpuwatch_completions cpuwatch",
			wantCode: 0,
		},
		{
			name:     "Interval Too Short",
			args:     []string{"-interval", "1ms"},
			wantOut:  "interval",
			wantCode: 4,
		},
		{
			name:     "Unknown Strategy",
			args:     []string{"-strategy", "roundrobin"},
			wantOut:  "strategy",
			wantCode: 4,
		},
		{
			name:     "JSON Without Once",
			args:     []string{"--json"},
			wantOut:  "--once",
			wantCode: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outStr, code, err := run(binPath, tt.args...)
			if err != nil {
				t.Fatalf("Failed to run binary: %v", err)
			}
			if code != tt.wantCode {
				t.Errorf("Exit code = %d, want %d\nOutput: %s", code, tt.wantCode, outStr)
			}
			if tt.wantOut != "" && !strings.Contains(strings.ToLower(outStr), strings.ToLower(tt.wantOut)) {
				t.Errorf("Output missing %q\nGot: %s", tt.wantOut, outStr)
			}
		})
	}
}

func TestCLI_E2E_OnceJSON(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}
	binPath := buildBinary(t)

	cmd := exec.Command(binPath, "--once", "--json", "-interval", "200ms")
	cmd.Env = append(os.Environ(), "NO_COLOR=1")
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("cpuwatch --once --json: %v", err)
	}

	var cores []float64
	if err := json.Unmarshal(out, &cores); err != nil {
		t.Fatalf("stdout is not a JSON array: %v\n%s", err, out)
	}
	if len(cores) == 0 {
		t.Fatal("no cores reported")
	}
	for i, c := range cores {
		if c < 0 || c > 100 {
			t.Errorf("core %d = %v, outside [0, 100]", i+1, c)
		}
	}
}
