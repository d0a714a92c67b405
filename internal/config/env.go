// This file contains environment variable and config file overrides.

package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/cpuwatch/internal/errors"
)

// isFlagSet checks if a flag was explicitly set on the command line.
// This is used to determine whether to apply environment variable overrides.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isFlagSetAny checks if any of the specified flags were explicitly set.
func isFlagSetAny(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

// override declares a single environment variable / config file override.
// envKey is the variable name without the CPUWATCH_ prefix; its lower-case
// form is the key in the YAML config file.
type override struct {
	envKey string
	flags  []string
	apply  func(*AppConfig, string) error
}

func (o override) fileKey() string { return strings.ToLower(o.envKey) }

func durationSetter(dst func(*AppConfig) *time.Duration) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}
}

func boolSetter(dst func(*AppConfig) *bool) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		b, ok := parseBool(v)
		if !ok {
			return fmt.Errorf("not a boolean: %q", v)
		}
		*dst(c) = b
		return nil
	}
}

// overrides is the declarative table of every override.
var overrides = []override{
	// String overrides
	{"ADDR", []string{"addr"}, func(c *AppConfig, v string) error { c.Addr = v; return nil }},
	{"STRATEGY", []string{"strategy"}, func(c *AppConfig, v string) error { c.Strategy = v; return nil }},
	{"STATIC_DIR", []string{"static-dir"}, func(c *AppConfig, v string) error { c.StaticDir = v; return nil }},
	{"LOG_LEVEL", []string{"log-level"}, func(c *AppConfig, v string) error { c.LogLevel = v; return nil }},
	{"LOG_FORMAT", []string{"log-format"}, func(c *AppConfig, v string) error { c.LogFormat = v; return nil }},
	{"ALLOWED_ORIGINS", []string{"allowed-origins"}, func(c *AppConfig, v string) error {
		c.AllowedOrigins = splitList(v)
		return nil
	}},

	// Duration overrides
	{"INTERVAL", []string{"interval"}, durationSetter(func(c *AppConfig) *time.Duration { return &c.Interval })},
	{"SHUTDOWN_TIMEOUT", []string{"shutdown-timeout"}, durationSetter(func(c *AppConfig) *time.Duration { return &c.ShutdownTimeout })},

	// Boolean overrides
	{"ONCE", []string{"once"}, boolSetter(func(c *AppConfig) *bool { return &c.Once })},
	{"JSON", []string{"json"}, boolSetter(func(c *AppConfig) *bool { return &c.JSON })},
	{"TUI", []string{"tui"}, boolSetter(func(c *AppConfig) *bool { return &c.TUI })},
	{"NO_COLOR", []string{"no-color"}, boolSetter(func(c *AppConfig) *bool { return &c.NoColor })},
}

// parseBool accepts "true", "1", "yes" as true and "false", "0", "no" as
// false (case-insensitive).
func parseBool(val string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	}
	return false, false
}

// applyEnvOverrides applies environment variable values for any flag that was
// not explicitly set on the command line.
//
// Supported environment variables (all prefixed with CPUWATCH_):
//   - ADDR, INTERVAL, STRATEGY, STATIC_DIR, LOG_LEVEL, LOG_FORMAT,
//     ALLOWED_ORIGINS, SHUTDOWN_TIMEOUT, ONCE, JSON, TUI, NO_COLOR, CONFIG
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) error {
	for _, o := range overrides {
		if isFlagSetAny(fs, o.flags...) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			if err := o.apply(config, val); err != nil {
				return apperrors.NewConfigError("invalid %s%s: %v", EnvPrefix, o.envKey, err)
			}
		}
	}
	return nil
}

// applyConfigFile applies values from a YAML file for every key that was set
// neither on the command line nor in the environment. Keys are the lower-case
// environment names, e.g. "interval: 500ms" or "allowed_origins: [a, b]".
func applyConfigFile(config *AppConfig, fs *flag.FlagSet, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewConfigError("read config file: %v", err)
	}
	values, err := parseConfigFile(data)
	if err != nil {
		return apperrors.NewConfigError("parse config file %s: %v", path, err)
	}

	known := make(map[string]bool, len(overrides))
	for _, o := range overrides {
		key := o.fileKey()
		known[key] = true
		val, ok := values[key]
		if !ok || isFlagSetAny(fs, o.flags...) || os.Getenv(EnvPrefix+o.envKey) != "" {
			continue
		}
		if err := o.apply(config, val); err != nil {
			return apperrors.NewConfigError("config file %s: invalid %s: %v", path, key, err)
		}
	}
	for key := range values {
		if !known[key] {
			return apperrors.NewConfigError("config file %s: unknown key %q", path, key)
		}
	}
	return nil
}

// parseConfigFile flattens a YAML mapping into string values. Sequences are
// joined with commas.
func parseConfigFile(data []byte) (map[string]string, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for key, node := range raw {
		switch node.Kind {
		case yaml.ScalarNode:
			out[key] = node.Value
		case yaml.SequenceNode:
			items := make([]string, 0, len(node.Content))
			for _, item := range node.Content {
				if item.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf("key %q: nested values are not supported", key)
				}
				items = append(items, item.Value)
			}
			out[key] = strings.Join(items, ",")
		default:
			return nil, fmt.Errorf("key %q: expected a scalar or a list", key)
		}
	}
	return out, nil
}

// envBool reads a boolean environment variable, returning def when unset or
// unrecognized.
func envBool(key string, def bool) bool {
	if v, ok := parseBool(os.Getenv(EnvPrefix + key)); ok {
		return v
	}
	return def
}

// NoColorRequested reports whether colors are disabled by CPUWATCH_NO_COLOR or
// the conventional NO_COLOR variable.
func NoColorRequested() bool {
	if os.Getenv("NO_COLOR") != "" {
		return true
	}
	return envBool("NO_COLOR", false)
}
