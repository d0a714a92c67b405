package distributor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/agbru/cpuwatch/internal/snapshot"
)

// Shared keeps one guarded slot. Subscribers hold only a marker and copy the
// slot out when the wake-up channel fires, so per-subscriber memory does not
// depend on the number of cores.
type Shared struct {
	cell
	subs   map[uint64]*sharedSub
	nextID uint64
}

// NewShared creates a Shared distributor.
func NewShared(opts ...Option) *Shared {
	return &Shared{
		cell: newCell(buildOptions(opts)),
		subs: make(map[uint64]*sharedSub),
	}
}

// Publish stores s and wakes all waiters.
func (d *Shared) Publish(s snapshot.Snapshot) error {
	d.mu.Lock()
	_, err := d.storeLocked(s)
	d.mu.Unlock()

	if err != nil {
		d.opts.observer.PublishRejected(err)
	}
	return err
}

// Subscribe registers a subscriber starting at the current sequence number.
func (d *Shared) Subscribe() (Subscription, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrClosed
	}
	d.nextID++
	sub := &sharedSub{
		id:       d.nextID,
		owner:    d,
		released: make(chan struct{}),
	}
	sub.marker.Store(d.seq)
	d.subs[sub.id] = sub
	n := len(d.subs)
	d.mu.Unlock()

	d.opts.observer.SubscribersChanged(n)
	return sub, nil
}

// Unsubscribe removes sub and wakes it if it is blocked in Next.
func (d *Shared) Unsubscribe(sub Subscription) {
	ss, ok := sub.(*sharedSub)
	if !ok || ss == nil || ss.owner != d {
		return
	}

	d.mu.Lock()
	_, present := d.subs[ss.id]
	delete(d.subs, ss.id)
	n := len(d.subs)
	d.mu.Unlock()

	ss.once.Do(func() { close(ss.released) })
	if present {
		d.opts.observer.SubscribersChanged(n)
	}
}

// Subscribers returns the number of registered subscriptions.
func (d *Shared) Subscribers() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}

type sharedSub struct {
	id       uint64
	owner    *Shared
	marker   atomic.Uint64
	released chan struct{}
	once     sync.Once
}

func (s *sharedSub) ID() uint64     { return s.id }
func (s *sharedSub) Marker() uint64 { return s.marker.Load() }

func (s *sharedSub) Next(ctx context.Context) (snapshot.Snapshot, error) {
	select {
	case <-s.released:
		return snapshot.Snapshot{}, ErrUnsubscribed
	default:
	}

	snap, err := s.owner.waitAfter(ctx, s.marker.Load(), s.released)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	s.marker.Store(snap.Seq)
	return snap, nil
}
