// Package config parses and validates the cpuwatch configuration.
//
// Values are resolved with the priority:
// CLI flags > CPUWATCH_* environment variables > YAML config file > defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/agbru/cpuwatch/internal/distributor"
	apperrors "github.com/agbru/cpuwatch/internal/errors"
	"github.com/agbru/cpuwatch/internal/logging"
	"github.com/agbru/cpuwatch/internal/snapshot"
)

// EnvPrefix prefixes every environment variable read by cpuwatch.
const EnvPrefix = "CPUWATCH_"

const (
	// DefaultAddr is the listen address of the HTTP server.
	DefaultAddr = "0.0.0.0:8082"
	// DefaultInterval is the sampling cadence.
	DefaultInterval = time.Second
	// DefaultShutdownTimeout bounds the graceful HTTP shutdown.
	DefaultShutdownTimeout = 5 * time.Second
)

// AppConfig holds the resolved configuration of one cpuwatch process.
type AppConfig struct {
	// Addr is the HTTP listen address (host:port).
	Addr string
	// Interval is the sampling cadence, never below snapshot.MinRefreshInterval.
	Interval time.Duration
	// Strategy selects the distributor implementation.
	Strategy string
	// StaticDir serves dashboard assets from disk instead of the embedded copy.
	StaticDir string
	// LogLevel is one of logging.Levels.
	LogLevel string
	// LogFormat is one of logging.Formats.
	LogFormat string
	// AllowedOrigins lists CORS and WebSocket origins; "*" allows any.
	AllowedOrigins []string
	// ShutdownTimeout bounds the graceful HTTP shutdown.
	ShutdownTimeout time.Duration
	// Once prints a single snapshot and exits instead of serving.
	Once bool
	// JSON switches the once output to a JSON array.
	JSON bool
	// TUI runs the terminal dashboard instead of serving.
	TUI bool
	// NoColor disables ANSI colors.
	NoColor bool
	// ConfigFile is the optional YAML file that was loaded.
	ConfigFile string
	// Output also writes the once snapshot to this file.
	Output string
	// Completion prints a shell completion script for this shell and exits.
	Completion string
}

// Default returns the configuration used when nothing is overridden.
func Default() AppConfig {
	return AppConfig{
		Addr:            DefaultAddr,
		Interval:        DefaultInterval,
		Strategy:        string(distributor.StrategyBroadcast),
		LogLevel:        "info",
		LogFormat:       "console",
		AllowedOrigins:  []string{"*"},
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// ParseConfig parses command-line arguments, then fills every value not set
// on the command line from the environment and the config file.
//
// Parameters:
//   - programName: The name used in usage output.
//   - args: The command-line arguments, without the program name.
//   - errWriter: Destination of usage and parse errors.
//
// Returns:
//   - AppConfig: The validated configuration.
//   - error: flag.ErrHelp when -h was given, a ConfigError otherwise.
func ParseConfig(programName string, args []string, errWriter io.Writer) (AppConfig, error) {
	cfg := Default()
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errWriter)

	origins := strings.Join(cfg.AllowedOrigins, ",")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address.")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, fmt.Sprintf("Sampling interval (minimum %s).", snapshot.MinRefreshInterval))
	fs.StringVar(&cfg.Strategy, "strategy", cfg.Strategy, fmt.Sprintf("Distribution strategy (%s).", strategyNames()))
	fs.StringVar(&cfg.StaticDir, "static-dir", "", "Serve dashboard assets from this directory.")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error).")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (json, console).")
	fs.StringVar(&origins, "allowed-origins", origins, "Comma-separated CORS/WebSocket origins.")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Graceful shutdown timeout.")
	fs.BoolVar(&cfg.Once, "once", false, "Print one snapshot and exit.")
	fs.BoolVar(&cfg.JSON, "json", false, "With --once, print a JSON array.")
	fs.BoolVar(&cfg.TUI, "tui", false, "Run the terminal dashboard.")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output.")
	fs.StringVar(&cfg.ConfigFile, "config", "", "YAML configuration file.")
	fs.StringVar(&cfg.Output, "output", "", "With --once, also write the snapshot to this file.")
	fs.StringVar(&cfg.Output, "o", "", "Shorthand for --output.")
	fs.StringVar(&cfg.Completion, "completion", "", "Print a completion script (bash, zsh, fish).")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return cfg, err
		}
		return cfg, apperrors.NewConfigError("%v", err)
	}
	if fs.NArg() > 0 {
		return cfg, apperrors.NewConfigError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	cfg.AllowedOrigins = splitList(origins)

	if cfg.ConfigFile == "" && !isFlagSet(fs, "config") {
		cfg.ConfigFile = os.Getenv(EnvPrefix + "CONFIG")
	}

	if err := applyEnvOverrides(&cfg, fs); err != nil {
		return cfg, err
	}
	if cfg.ConfigFile != "" {
		if err := applyConfigFile(&cfg, fs, cfg.ConfigFile); err != nil {
			return cfg, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c AppConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return apperrors.NewConfigError("invalid address %q: %v", c.Addr, err)
	}
	if c.Interval < snapshot.MinRefreshInterval {
		return apperrors.NewConfigError("interval %s is below the minimum refresh interval %s", c.Interval, snapshot.MinRefreshInterval)
	}
	if !slices.Contains(distributor.Strategies(), distributor.Strategy(c.Strategy)) {
		return apperrors.NewConfigError("unknown strategy %q (expected %s)", c.Strategy, strategyNames())
	}
	if !slices.Contains(logging.Levels, strings.ToLower(c.LogLevel)) {
		return apperrors.NewConfigError("unknown log level %q", c.LogLevel)
	}
	if !slices.Contains(logging.Formats, c.LogFormat) {
		return apperrors.NewConfigError("unknown log format %q", c.LogFormat)
	}
	if c.ShutdownTimeout < 0 {
		return apperrors.NewConfigError("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	if c.Once && c.TUI {
		return apperrors.NewConfigError("--once and --tui are mutually exclusive")
	}
	if c.JSON && !c.Once {
		return apperrors.NewConfigError("--json requires --once")
	}
	if c.Output != "" && !c.Once {
		return apperrors.NewConfigError("--output requires --once")
	}
	if c.StaticDir != "" {
		info, err := os.Stat(c.StaticDir)
		if err != nil {
			return apperrors.NewConfigError("static directory: %v", err)
		}
		if !info.IsDir() {
			return apperrors.NewConfigError("static directory %q is not a directory", c.StaticDir)
		}
	}
	return nil
}

// AllowsAnyOrigin reports whether the origin list contains the wildcard.
func (c AppConfig) AllowsAnyOrigin() bool {
	return slices.Contains(c.AllowedOrigins, "*")
}

func strategyNames() string {
	names := make([]string, 0, len(distributor.Strategies()))
	for _, s := range distributor.Strategies() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
