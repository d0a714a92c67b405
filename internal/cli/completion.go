package cli

import (
	"fmt"
	"io"
	"strings"
)

// Shells lists the shells GenerateCompletion supports.
var Shells = []string{"bash", "zsh", "fish"}

// FlagCompletion describes one command-line flag for completion scripts.
type FlagCompletion struct {
	Long      string   // name without "--"
	Short     string   // name without "-"
	Help      string   // description
	Values    []string // suggested values; nil for booleans
	ValueName string   // value label used by zsh
	IsFile    bool     // value is a path
	IsDir     bool     // value is a directory
	Dynamic   bool     // values are the strategies passed to GenerateCompletion
}

// flagRegistry lists every flag offered for completion.
var flagRegistry = []FlagCompletion{
	{Long: "help", Short: "h", Help: "Show help message"},
	{Long: "version", Short: "V", Help: "Show version information"},
	{Long: "addr", Help: "HTTP listen address", ValueName: "host:port"},
	{Long: "interval", Help: "Sampling interval", Values: []string{"200ms", "500ms", "1s", "2s", "5s"}, ValueName: "duration"},
	{Long: "strategy", Help: "Distribution strategy", Dynamic: true, ValueName: "strategy"},
	{Long: "static-dir", Help: "Dashboard assets directory", IsDir: true, ValueName: "dir"},
	{Long: "log-level", Help: "Log level", Values: []string{"debug", "info", "warn", "error"}, ValueName: "level"},
	{Long: "log-format", Help: "Log format", Values: []string{"console", "json"}, ValueName: "format"},
	{Long: "allowed-origins", Help: "Comma-separated allowed origins", ValueName: "origins"},
	{Long: "shutdown-timeout", Help: "Graceful shutdown timeout", Values: []string{"1s", "5s", "10s", "30s"}, ValueName: "duration"},
	{Long: "once", Help: "Print one snapshot and exit"},
	{Long: "json", Help: "Print the once snapshot as JSON"},
	{Long: "output", Short: "o", Help: "Also save the once snapshot to a file", IsFile: true, ValueName: "file"},
	{Long: "tui", Help: "Run the terminal dashboard"},
	{Long: "no-color", Help: "Disable colored output"},
	{Long: "config", Help: "YAML configuration file", IsFile: true, ValueName: "file"},
	{Long: "completion", Help: "Generate completion script", Values: Shells, ValueName: "shell"},
}

// GenerateCompletion writes the completion script for shell to out.
// strategies are offered as values of --strategy.
func GenerateCompletion(out io.Writer, shell string, strategies []string) error {
	var script string
	switch shell {
	case "bash":
		script = bashCompletion(strategies)
	case "zsh":
		script = zshCompletion(strategies)
	case "fish":
		script = fishCompletion(strategies)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: %s)", shell, strings.Join(Shells, ", "))
	}
	if _, err := io.WriteString(out, script); err != nil {
		return fmt.Errorf("completion %s generation failed: %w", shell, err)
	}
	return nil
}

func (f FlagCompletion) values(strategies []string) []string {
	if f.Dynamic {
		return strategies
	}
	return f.Values
}

func (f FlagCompletion) patterns() []string {
	var p []string
	if f.Long != "" {
		p = append(p, "--"+f.Long)
	}
	if f.Short != "" {
		p = append(p, "-"+f.Short)
	}
	return p
}

func bashCompletion(strategies []string) string {
	var opts []string
	var cases strings.Builder
	for _, f := range flagRegistry {
		opts = append(opts, f.patterns()...)

		var body string
		switch {
		case f.IsDir:
			body = `COMPREPLY=( $(compgen -d -- "${cur}") )`
		case f.IsFile:
			body = `COMPREPLY=( $(compgen -f -- "${cur}") )`
		case len(f.values(strategies)) > 0:
			body = fmt.Sprintf(`COMPREPLY=( $(compgen -W "%s" -- "${cur}") )`, strings.Join(f.values(strategies), " "))
		default:
			continue
		}
		fmt.Fprintf(&cases, "        %s)\n            %s\n            return 0\n            ;;\n", strings.Join(f.patterns(), "|"), body)
	}

	return fmt.Sprintf(`# Bash completion script for cpuwatch
# Add this to your ~/.bashrc or ~/.bash_completion

_cpuwatch_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    opts="%s"

    case "${prev}" in
%s    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _cpuwatch_completions cpuwatch
`, strings.Join(opts, " "), cases.String())
}

func zshCompletion(strategies []string) string {
	args := make([]string, 0, len(flagRegistry))
	for _, f := range flagRegistry {
		args = append(args, zshArgEntry(f, strategies))
	}
	return fmt.Sprintf(`#compdef cpuwatch

# Zsh completion script for cpuwatch
# Place this file in your $fpath as _cpuwatch

_cpuwatch() {
    _arguments -s \
%s
}

_cpuwatch "$@"
`, strings.Join(args, " \\\n"))
}

func zshArgEntry(f FlagCompletion, strategies []string) string {
	suffix := ""
	switch {
	case f.IsDir:
		suffix = fmt.Sprintf(":%s:_files -/", f.ValueName)
	case f.IsFile:
		suffix = fmt.Sprintf(":%s:_files", f.ValueName)
	case len(f.values(strategies)) > 0:
		suffix = fmt.Sprintf(":%s:(%s)", f.ValueName, strings.Join(f.values(strategies), " "))
	case f.ValueName != "":
		suffix = fmt.Sprintf(":%s:", f.ValueName)
	}

	if f.Short != "" {
		return fmt.Sprintf("        '(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, f.Help, suffix)
	}
	return fmt.Sprintf("        '--%s[%s]%s'", f.Long, f.Help, suffix)
}

func fishCompletion(strategies []string) string {
	lines := []string{
		"# Fish completion script for cpuwatch",
		"# Add this to ~/.config/fish/completions/cpuwatch.fish",
		"",
		"complete -c cpuwatch -f",
	}
	for _, f := range flagRegistry {
		parts := []string{"complete -c cpuwatch"}
		if f.Short != "" {
			parts = append(parts, "-s "+f.Short)
		}
		parts = append(parts, "-l "+f.Long, fmt.Sprintf("-d '%s'", f.Help))
		switch {
		case f.IsDir:
			parts = append(parts, "-xa '(__fish_complete_directories)'")
		case f.IsFile:
			parts = append(parts, "-rF")
		case len(f.values(strategies)) > 0:
			parts = append(parts, fmt.Sprintf("-xa '%s'", strings.Join(f.values(strategies), " ")))
		case f.ValueName != "":
			parts = append(parts, "-x")
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n") + "\n"
}
