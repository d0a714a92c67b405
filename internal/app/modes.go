package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/cpuwatch/internal/cli"
	apperrors "github.com/agbru/cpuwatch/internal/errors"
	"github.com/agbru/cpuwatch/internal/logging"
	"github.com/agbru/cpuwatch/internal/server"
	"github.com/agbru/cpuwatch/internal/tui"
)

// minOnceTimeout bounds how long once mode waits for its first sample.
const minOnceTimeout = 5 * time.Second

// runServer samples and serves HTTP until ctx is cancelled or either side
// fails. The sampler closes the distributor on exit, which ends every
// stream before the server drains.
func (a *Application) runServer(ctx context.Context, p *pipeline, logger logging.Logger) error {
	srv, err := server.New(server.Config{
		Addr:            a.Config.Addr,
		StaticDir:       a.Config.StaticDir,
		AllowedOrigins:  a.Config.AllowedOrigins,
		ShutdownTimeout: a.Config.ShutdownTimeout,
	}, p.dist, p.metrics, logger)
	if err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	if a.Config.AllowsAnyOrigin() && !isLoopback(a.Config.Addr) {
		logger.Warn("dashboard and streams accept any origin; set --allowed-origins to restrict them",
			logging.String("addr", a.Config.Addr))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.sampler.Run(gctx)
	})
	g.Go(func() error {
		return srv.Start(gctx)
	})
	return g.Wait()
}

// isLoopback reports whether addr only listens on the local host.
func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// runOnce prints the first published snapshot and stops the sampler.
func (a *Application) runOnce(ctx context.Context, p *pipeline, out io.Writer) error {
	limit := max(4*p.sampler.Interval(), minOnceTimeout)
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.sampler.Run(gctx)
	})

	err := cli.RunOnce(gctx, p.dist, cli.OutputConfig{
		JSON:       a.Config.JSON,
		OutputFile: a.Config.Output,
	}, out, a.ErrWriter)

	// The sampler closes the distributor when ctx ends, so a failed wait
	// may report ErrClosed; the context holds the real cause.
	ctxErr := ctx.Err()
	cancel()
	if werr := g.Wait(); werr != nil && err == nil {
		err = werr
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return apperrors.TimeoutError{Operation: "first cpu sample", Limit: limit}
	case ctxErr != nil:
		return ctxErr
	}
	return err
}

// runTUI runs the dashboard with the sampler in the background. Quitting the
// dashboard stops the sampler.
func (a *Application) runTUI(ctx context.Context, p *pipeline) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.sampler.Run(gctx)
	})

	code := tui.Run(gctx, p.dist, a.Config.Strategy, Version)
	cancel()
	if err := g.Wait(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitCode(err)
	}
	return code
}
