// Package app wires configuration, the sampler, the distributor and the
// selected front end (HTTP server, once printer or terminal dashboard) into
// one process.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/agbru/cpuwatch/internal/cli"
	"github.com/agbru/cpuwatch/internal/config"
	"github.com/agbru/cpuwatch/internal/distributor"
	apperrors "github.com/agbru/cpuwatch/internal/errors"
	"github.com/agbru/cpuwatch/internal/logging"
	"github.com/agbru/cpuwatch/internal/metrics"
	"github.com/agbru/cpuwatch/internal/sampler"
	"github.com/agbru/cpuwatch/internal/sysmon"
	"github.com/agbru/cpuwatch/internal/ui"
)

// Application is one configured cpuwatch process.
type Application struct {
	Config    config.AppConfig
	ErrWriter io.Writer

	source sampler.Source
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithSource replaces the host CPU reader.
func WithSource(s sampler.Source) AppOption {
	return func(a *Application) { a.source = s }
}

// New parses args (program name first) into an Application.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter}
	for _, opt := range opts {
		opt(app)
	}

	programName := "cpuwatch"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	if app.source == nil {
		app.source = sysmon.NewCoreSampler()
	}
	return app, nil
}

// pipeline is the sampler and distributor shared by every mode.
type pipeline struct {
	dist    distributor.Distributor
	sampler *sampler.Sampler
	metrics *metrics.Metrics
}

// Run executes the configured mode and returns the process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	ui.InitTheme(a.Config.NoColor || config.NoColorRequested())

	logger, err := a.newLogger()
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorConfig
	}

	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	p, err := a.newPipeline(ctx, logger)
	if err != nil {
		logger.Error("startup failed", err)
		return apperrors.ExitCode(err)
	}

	switch {
	case a.Config.Once:
		err = a.runOnce(ctx, p, out)
	case a.Config.TUI:
		return a.runTUI(ctx, p)
	default:
		err = a.runServer(ctx, p, logger)
	}

	if err != nil {
		if ctx.Err() != nil && apperrors.IsContextError(err) {
			return apperrors.ExitErrorCanceled
		}
		logger.Error("cpuwatch stopped", err)
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitCode(err)
	}
	return apperrors.ExitSuccess
}

// runCompletion writes a shell completion script.
func (a *Application) runCompletion(out io.Writer) int {
	strategies := make([]string, 0, len(distributor.Strategies()))
	for _, s := range distributor.Strategies() {
		strategies = append(strategies, string(s))
	}
	if err := cli.GenerateCompletion(out, a.Config.Completion, strategies); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// newLogger builds the process logger. The dashboard owns the terminal, so
// its logs are discarded; once mode only reports problems.
func (a *Application) newLogger() (logging.Logger, error) {
	opts := logging.Options{
		Writer:    a.ErrWriter,
		Level:     a.Config.LogLevel,
		Format:    a.Config.LogFormat,
		Component: "cpuwatch",
		NoColor:   ui.GetCurrentTheme().Name == ui.NoColorTheme.Name,
	}
	switch {
	case a.Config.TUI:
		opts.Writer = io.Discard
	case a.Config.Once && opts.Level == "info":
		opts.Level = "warn"
	}
	return logging.New(opts)
}

func (a *Application) newPipeline(ctx context.Context, logger logging.Logger) (*pipeline, error) {
	m := metrics.New()
	dist, err := distributor.New(distributor.Strategy(a.Config.Strategy), distributor.WithObserver(m))
	if err != nil {
		return nil, apperrors.NewConfigError("%v", err)
	}

	smp := sampler.New(a.source, dist, a.Config.Interval,
		sampler.WithLogger(logger),
		sampler.WithRecorder(m),
	)
	fields := []logging.Field{
		logging.String("strategy", a.Config.Strategy),
		logging.Duration("interval", smp.Interval()),
	}
	if n, err := sysmon.LogicalCores(ctx); err == nil {
		fields = append(fields, logging.Int("host_cores", n))
	}
	logger.Debug("pipeline ready", fields...)
	return &pipeline{dist: dist, sampler: smp, metrics: m}, nil
}

// IsHelpError reports whether err comes from -h or --help.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
