//go:generate mockgen -source=sampler.go -destination=mocks/mock_sampler.go -package=mocks

// Package sampler runs the single background loop that reads per-core CPU
// utilization at a fixed cadence and publishes it to the distributor.
package sampler

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/cpuwatch/internal/distributor"
	apperrors "github.com/agbru/cpuwatch/internal/errors"
	"github.com/agbru/cpuwatch/internal/logging"
	"github.com/agbru/cpuwatch/internal/snapshot"
	"github.com/agbru/cpuwatch/internal/sysmon"
)

const tracerName = "github.com/agbru/cpuwatch/internal/sampler"

// Source yields the utilization of every logical core since its previous
// call. sysmon.CoreSampler is the production implementation.
type Source interface {
	Percent(ctx context.Context) ([]float64, error)
}

// Publisher receives snapshots. It is closed when the sampler stops.
type Publisher interface {
	Publish(s snapshot.Snapshot) error
	Close()
}

// Recorder receives the outcome of every tick.
type Recorder interface {
	SampleTaken(s snapshot.Snapshot, elapsed time.Duration)
	SampleFailed(err error)
}

type nopRecorder struct{}

func (nopRecorder) SampleTaken(snapshot.Snapshot, time.Duration) {}
func (nopRecorder) SampleFailed(error)                           {}

type nopLogger struct{}

func (nopLogger) Info(string, ...logging.Field)         {}
func (nopLogger) Warn(string, ...logging.Field)         {}
func (nopLogger) Error(string, error, ...logging.Field) {}
func (nopLogger) Debug(string, ...logging.Field)        {}
func (nopLogger) Printf(string, ...any)                 {}
func (nopLogger) Println(...any)                        {}

// Sampler owns the sampling loop. It is the only writer of its Publisher.
type Sampler struct {
	source   Source
	pub      Publisher
	interval time.Duration

	logger   logging.Logger
	recorder Recorder
	tracer   trace.Tracer
	now      func() time.Time

	failStreak  int
	emptyStreak int
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Sampler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the tick recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Sampler) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithTracer sets the tracer used for per-tick spans. The global otel tracer
// provider is used otherwise.
func WithTracer(t trace.Tracer) Option {
	return func(s *Sampler) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock overrides time.Now for capture timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Sampler. The interval is raised to snapshot.MinRefreshInterval
// when shorter.
func New(source Source, pub Publisher, interval time.Duration, opts ...Option) *Sampler {
	if interval < snapshot.MinRefreshInterval {
		interval = snapshot.MinRefreshInterval
	}
	s := &Sampler{
		source:   source,
		pub:      pub,
		interval: interval,
		logger:   nopLogger{},
		recorder: nopRecorder{},
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the effective tick interval.
func (s *Sampler) Interval() time.Duration { return s.interval }

// Run samples until ctx is cancelled, then closes the Publisher so that every
// blocked consumer is released. It never returns because of a failed read.
func (s *Sampler) Run(ctx context.Context) error {
	defer s.pub.Close()

	s.logger.Info("sampler started", logging.Duration("interval", s.interval))
	defer s.logger.Info("sampler stopped")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs one sampling iteration. It is exported for tests and for
// callers driving the loop themselves.
func (s *Sampler) Tick(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "sampler.tick")
	defer span.End()

	start := s.now()
	cores, err := s.source.Percent(ctx)
	switch {
	case errors.Is(err, sysmon.ErrNotPrimed):
		span.SetAttributes(attribute.Bool("cpuwatch.primed", false))
		s.logger.Debug("cpu counters primed")
		return
	case err != nil:
		if ctx.Err() != nil {
			return
		}
		s.failStreak++
		serr := apperrors.SamplingError{Streak: s.failStreak, Cause: err}
		s.recorder.SampleFailed(serr)
		span.RecordError(serr)
		span.SetStatus(codes.Error, "read failed")
		if shouldLog(s.failStreak) {
			s.logger.Error("cpu sample skipped", serr, logging.Int("streak", s.failStreak))
		}
		return
	}

	if s.failStreak > 0 {
		s.logger.Info("sampling recovered", logging.Int("failed_ticks", s.failStreak))
		s.failStreak = 0
	}

	if len(cores) == 0 {
		s.emptyStreak++
		span.SetAttributes(attribute.Int("cpuwatch.cores", 0))
		if shouldLog(s.emptyStreak) {
			s.logger.Warn("os reported zero cpus", logging.Int("streak", s.emptyStreak))
		}
		return
	}
	s.emptyStreak = 0

	snap := snapshot.New(start, cores)
	if err := s.pub.Publish(snap); err != nil {
		span.RecordError(err)
		if errors.Is(err, distributor.ErrClosed) {
			s.logger.Debug("publish after close", logging.Err(err))
		} else {
			s.logger.Warn("snapshot rejected", logging.Err(err))
		}
		return
	}

	s.recorder.SampleTaken(snap, s.now().Sub(start))
	span.SetAttributes(
		attribute.Int("cpuwatch.cores", len(cores)),
		attribute.Float64("cpuwatch.average", snap.Average()),
	)
}

// shouldLog rate-limits repeated failures: the 1st, 2nd, 4th, 8th... are logged.
func shouldLog(streak int) bool {
	return streak > 0 && streak&(streak-1) == 0
}
