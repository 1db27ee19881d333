// Package feed pushes the full order list to admin panels whenever an order
// is added or changes.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

var (
	ErrClosed   = errors.New("feed closed")
	ErrReplaced = errors.New("subscription replaced")
)

// Snapshot is the full order list, newest first, plus the completed-sales total.
type Snapshot struct {
	Orders     []domain.Order  `json:"orders"`
	SalesTotal decimal.Decimal `json:"sales_total"`
}

// Source loads the current snapshot.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

type SourceFunc func(ctx context.Context) (Snapshot, error)

func (f SourceFunc) Snapshot(ctx context.Context) (Snapshot, error) { return f(ctx) }

// Listener receives snapshots on the subscription's own goroutine, one at a time.
type Listener func(Snapshot)

type Feed struct {
	source Source

	mu     sync.Mutex
	subs   map[string]*Subscription
	closed bool
}

func New(source Source) *Feed {
	return &Feed{source: source, subs: make(map[string]*Subscription)}
}

// Subscription is one listener registration. Done is closed once it stops
// receiving snapshots; Err then tells why.
type Subscription struct {
	feed     *Feed
	owner    string
	listener Listener
	updates  chan Snapshot
	done     chan struct{}
	stopped  chan struct{}
	once     sync.Once
	err      error
}

func (s *Subscription) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.done:
			return
		case snap := <-s.updates:
			select {
			case <-s.done:
				return
			default:
			}
			s.listener(snap)
		}
	}
}

// deliver keeps only the latest pending snapshot so a slow listener never blocks Notify.
func (s *Subscription) deliver(snap Snapshot) {
	select {
	case s.updates <- snap:
		return
	default:
	}
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- snap:
	default:
	}
}

func (s *Subscription) end(reason error) {
	s.once.Do(func() {
		s.err = reason
		close(s.done)
	})
	<-s.stopped
}

// Done is closed once the subscription no longer receives snapshots.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err is ErrReplaced or ErrClosed after Done, nil otherwise or after Stop.
func (s *Subscription) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Stop unregisters the subscription. It must not be called from inside the listener.
// Stopping a replaced subscription leaves its replacement in place.
func (s *Subscription) Stop() {
	f := s.feed
	f.mu.Lock()
	if f.subs[s.owner] == s {
		delete(f.subs, s.owner)
	}
	f.mu.Unlock()
	s.end(nil)
}

// Subscribe registers listener for owner, replacing any earlier subscription of the
// same owner, and delivers the current snapshot right away. The replaced
// subscription ends with ErrReplaced.
func (f *Feed) Subscribe(ctx context.Context, owner string, listener Listener) (*Subscription, error) {
	snap, err := f.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load order snapshot: %w", err)
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrClosed
	}
	sub := &Subscription{
		feed:     f,
		owner:    owner,
		listener: listener,
		updates:  make(chan Snapshot, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	prev := f.subs[owner]
	f.subs[owner] = sub
	sub.deliver(snap)
	f.mu.Unlock()

	go sub.run()
	if prev != nil {
		slog.Debug("order feed subscription replaced", "owner", owner)
		prev.end(ErrReplaced)
	}
	return sub, nil
}

// Notify loads a fresh snapshot and fans it out to every listener.
func (f *Feed) Notify(ctx context.Context) error {
	if f.Len() == 0 {
		return nil
	}
	snap, err := f.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load order snapshot: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		sub.deliver(snap)
	}
	return nil
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close stops every subscription; later Subscribe calls fail with ErrClosed.
func (f *Feed) Close() {
	f.mu.Lock()
	f.closed = true
	subs := f.subs
	f.subs = make(map[string]*Subscription)
	f.mu.Unlock()

	for _, sub := range subs {
		sub.end(ErrClosed)
	}
}
