// Package distributor holds the most recent CPU snapshot and fans it out to
// any number of concurrent readers.
//
// A Distributor has exactly one writer (the sampler) and serves three read
// patterns: an immediate copy of the latest snapshot, a blocking wait for the
// first snapshot newer than a marker, and long-lived subscriptions for push
// streams. Delivery is latest-value-wins: a reader that falls behind skips
// intermediate snapshots instead of queueing them, so memory stays bounded at
// one pending snapshot per subscriber.
package distributor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agbru/cpuwatch/internal/snapshot"
)

var (
	// ErrClosed is returned to readers once the distributor has been closed
	// and no newer snapshot remains to be delivered.
	ErrClosed = errors.New("distributor closed")
	// ErrUnsubscribed is returned by Subscription.Next after Unsubscribe.
	ErrUnsubscribed = errors.New("subscription released")
	// ErrTooSoon rejects a snapshot taken less than the minimum interval after
	// the previously published one, including out-of-order timestamps.
	ErrTooSoon = errors.New("snapshot published before the minimum refresh interval elapsed")
	// ErrEmptySnapshot rejects a snapshot without any core.
	ErrEmptySnapshot = errors.New("snapshot has no cores")
)

// Strategy selects how subscriptions are fed.
type Strategy string

const (
	// StrategyBroadcast pushes every snapshot into a one-slot channel per
	// subscriber, overwriting an unconsumed value.
	StrategyBroadcast Strategy = "broadcast"
	// StrategyShared keeps a single guarded slot; subscribers wake on publish
	// and copy the slot out.
	StrategyShared Strategy = "shared"
)

// Strategies lists the accepted strategy names.
func Strategies() []Strategy {
	return []Strategy{StrategyBroadcast, StrategyShared}
}

// Distributor is the single source of truth for the latest snapshot.
type Distributor interface {
	// Publish replaces the current snapshot and wakes every reader. It never
	// blocks on readers. Only the sampler calls it.
	Publish(s snapshot.Snapshot) error
	// Latest returns a copy of the most recent snapshot, or false if nothing
	// has been published yet.
	Latest() (snapshot.Snapshot, bool)
	// NextAfter blocks until a snapshot with Seq > after exists and returns a
	// copy of it. It returns ErrClosed when the distributor is closed and
	// ctx.Err() when ctx ends first.
	NextAfter(ctx context.Context, after uint64) (snapshot.Snapshot, error)
	// Subscribe registers a streaming consumer. The subscription only sees
	// snapshots published after this call.
	Subscribe() (Subscription, error)
	// Unsubscribe releases a subscription. It is idempotent.
	Unsubscribe(sub Subscription)
	// Subscribers returns the number of live subscriptions.
	Subscribers() int
	// Close stops the distributor and releases every blocked reader.
	Close()
}

// Subscription is a consumer-held handle tracking the last snapshot it
// observed. A subscription belongs to one consumer goroutine.
type Subscription interface {
	// ID identifies the subscription for logging.
	ID() uint64
	// Marker returns the Seq of the last snapshot returned by Next.
	Marker() uint64
	// Next blocks until a snapshot newer than Marker is available.
	Next(ctx context.Context) (snapshot.Snapshot, error)
}

// Observer receives distributor events for instrumentation.
type Observer interface {
	PublishRejected(err error)
	SubscribersChanged(n int)
}

type nopObserver struct{}

func (nopObserver) PublishRejected(error)  {}
func (nopObserver) SubscribersChanged(int) {}

type options struct {
	minInterval time.Duration
	observer    Observer
}

// Option configures a Distributor.
type Option func(*options)

// DefaultMinInterval is the spacing enforced between two published snapshots
// unless overridden. It sits slightly under snapshot.MinRefreshInterval to
// absorb ticker jitter.
const DefaultMinInterval = snapshot.MinRefreshInterval * 9 / 10

// WithMinInterval sets the minimum spacing enforced between two published
// snapshots.
func WithMinInterval(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.minInterval = d
		}
	}
}

// WithObserver attaches an instrumentation observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		minInterval: DefaultMinInterval,
		observer:    nopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates a Distributor using the given strategy.
func New(strategy Strategy, opts ...Option) (Distributor, error) {
	switch strategy {
	case StrategyBroadcast:
		return NewBroadcast(opts...), nil
	case StrategyShared:
		return NewShared(opts...), nil
	default:
		return nil, fmt.Errorf("unknown distribution strategy %q", strategy)
	}
}
