package distributor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/agbru/cpuwatch/internal/snapshot"
)

// Broadcast pushes each published snapshot into a one-slot channel owned by
// every subscriber. An unconsumed value is dropped in favour of the newer one.
type Broadcast struct {
	cell
	subs   map[uint64]*broadcastSub
	nextID uint64
}

// NewBroadcast creates a Broadcast distributor.
func NewBroadcast(opts ...Option) *Broadcast {
	return &Broadcast{
		cell: newCell(buildOptions(opts)),
		subs: make(map[uint64]*broadcastSub),
	}
}

// Publish stores s and overwrites the pending slot of every subscriber.
func (b *Broadcast) Publish(s snapshot.Snapshot) error {
	b.mu.Lock()
	stored, err := b.storeLocked(s)
	if err == nil {
		for _, sub := range b.subs {
			sub.offer(stored)
		}
	}
	b.mu.Unlock()

	if err != nil {
		b.opts.observer.PublishRejected(err)
	}
	return err
}

// Subscribe registers a subscriber starting at the current sequence number.
func (b *Broadcast) Subscribe() (Subscription, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.nextID++
	sub := &broadcastSub{
		id:       b.nextID,
		owner:    b,
		ch:       make(chan snapshot.Snapshot, 1),
		released: make(chan struct{}),
	}
	sub.marker.Store(b.seq)
	b.subs[sub.id] = sub
	n := len(b.subs)
	b.mu.Unlock()

	b.opts.observer.SubscribersChanged(n)
	return sub, nil
}

// Unsubscribe removes sub. Subscriptions created by another distributor are
// ignored.
func (b *Broadcast) Unsubscribe(sub Subscription) {
	bs, ok := sub.(*broadcastSub)
	if !ok || bs == nil || bs.owner != b {
		return
	}

	b.mu.Lock()
	_, present := b.subs[bs.id]
	delete(b.subs, bs.id)
	n := len(b.subs)
	b.mu.Unlock()

	bs.release()
	if present {
		b.opts.observer.SubscribersChanged(n)
	}
}

// Subscribers returns the number of registered subscriptions.
func (b *Broadcast) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

type broadcastSub struct {
	id       uint64
	owner    *Broadcast
	ch       chan snapshot.Snapshot
	marker   atomic.Uint64
	released chan struct{}
	once     sync.Once
}

// offer replaces the pending value. Called with the owner's lock held, which
// makes the drain-then-send pair atomic with respect to other publishers.
func (s *broadcastSub) offer(snap snapshot.Snapshot) {
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snap:
	default:
	}
}

func (s *broadcastSub) release() {
	s.once.Do(func() { close(s.released) })
}

func (s *broadcastSub) ID() uint64     { return s.id }
func (s *broadcastSub) Marker() uint64 { return s.marker.Load() }

// Next returns the pending snapshot if one is waiting, otherwise blocks. A
// pending value is always delivered before ErrClosed.
func (s *broadcastSub) Next(ctx context.Context) (snapshot.Snapshot, error) {
	for {
		select {
		case <-s.released:
			return snapshot.Snapshot{}, ErrUnsubscribed
		default:
		}

		select {
		case snap := <-s.ch:
			if out, ok := s.accept(snap); ok {
				return out, nil
			}
			continue
		default:
		}

		select {
		case snap := <-s.ch:
			if out, ok := s.accept(snap); ok {
				return out, nil
			}
		case <-s.released:
			return snapshot.Snapshot{}, ErrUnsubscribed
		case <-s.owner.done:
			select {
			case snap := <-s.ch:
				if out, ok := s.accept(snap); ok {
					return out, nil
				}
			default:
			}
			return snapshot.Snapshot{}, ErrClosed
		case <-ctx.Done():
			return snapshot.Snapshot{}, ctx.Err()
		}
	}
}

func (s *broadcastSub) accept(snap snapshot.Snapshot) (snapshot.Snapshot, bool) {
	if snap.Seq <= s.marker.Load() {
		return snapshot.Snapshot{}, false
	}
	s.marker.Store(snap.Seq)
	return snap.Clone(), true
}
