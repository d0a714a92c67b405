package distributor

import (
	"context"
	"sync"

	"github.com/agbru/cpuwatch/internal/snapshot"
)

// cell is the latest-snapshot slot shared by both strategies. The wake
// channel is closed and replaced on every publish and on close, which
// releases every waiter at once without tracking them individually.
type cell struct {
	mu      sync.RWMutex
	current snapshot.Snapshot
	seq     uint64
	wake    chan struct{}
	closed  bool
	done    chan struct{}

	opts options
}

func newCell(opts options) cell {
	return cell{
		wake: make(chan struct{}),
		done: make(chan struct{}),
		opts: opts,
	}
}

// storeLocked validates s, stamps it with the next sequence number and makes
// it current. The caller holds c.mu for writing.
func (c *cell) storeLocked(s snapshot.Snapshot) (snapshot.Snapshot, error) {
	if c.closed {
		return snapshot.Snapshot{}, ErrClosed
	}
	if len(s.Cores) == 0 {
		return snapshot.Snapshot{}, ErrEmptySnapshot
	}
	// A negative delta (clock stepped back) is rejected even with a zero interval.
	if c.seq > 0 && s.Taken.Sub(c.current.Taken) < c.opts.minInterval {
		return snapshot.Snapshot{}, ErrTooSoon
	}

	s = s.Clone()
	c.seq++
	s.Seq = c.seq
	c.current = s

	close(c.wake)
	c.wake = make(chan struct{})
	return s, nil
}

// Latest returns a copy of the current snapshot.
func (c *cell) Latest() (snapshot.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.seq == 0 {
		return snapshot.Snapshot{}, false
	}
	return c.current.Clone(), true
}

// NextAfter waits for a snapshot newer than after.
func (c *cell) NextAfter(ctx context.Context, after uint64) (snapshot.Snapshot, error) {
	return c.waitAfter(ctx, after, nil)
}

// waitAfter is NextAfter with an extra release channel; a nil channel never
// fires.
func (c *cell) waitAfter(ctx context.Context, after uint64, released <-chan struct{}) (snapshot.Snapshot, error) {
	for {
		c.mu.RLock()
		if c.seq > after {
			s := c.current.Clone()
			c.mu.RUnlock()
			return s, nil
		}
		if c.closed {
			c.mu.RUnlock()
			return snapshot.Snapshot{}, ErrClosed
		}
		wake := c.wake
		c.mu.RUnlock()

		select {
		case <-wake:
		case <-released:
			return snapshot.Snapshot{}, ErrUnsubscribed
		case <-ctx.Done():
			return snapshot.Snapshot{}, ctx.Err()
		}
	}
}

// Close marks the cell closed and wakes every waiter. It is idempotent.
func (c *cell) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	close(c.wake)
	c.wake = make(chan struct{})
}

// currentSeq returns the sequence number of the current snapshot.
func (c *cell) currentSeq() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seq
}
