// Package notify implements the per-game change notification mechanism: a
// logical clock that increments on every observable mutation, plus a fan-out
// signal that lets any number of long-poll waiters block until the next
// change or a timeout, without busy-polling and without lost wakeups.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/gameroom-go/internal/model"
)

// DefaultWaitTimeout bounds how long a Wait call blocks before returning a
// "nothing changed yet" result.
const DefaultWaitTimeout = 5 * time.Second

// Notifier carries one game's logical clock and its subscribers.
//
// The clock increment in Send and the snapshot in Subscribe happen under the
// same mutex, so a Send racing a Subscribe is either reflected in the
// subscription's snapshot or delivered on its channel - never dropped.
type Notifier struct {
	mu      sync.Mutex
	clock   uint64
	subs    map[*Subscription]struct{}
	closed  bool
	timeout time.Duration
}

// Subscription is one waiter's handle on a notifier. It is not safe for
// concurrent use; each long-poll request takes its own subscription.
type Subscription struct {
	notifier *Notifier
	ch       chan uint64
	// last is the highest clock value this subscription has observed,
	// starting from the snapshot taken at subscribe time
	last uint64
}

// New creates a notifier with the default wait timeout. The clock starts at 1
// so that a zero "since" value always reads as already-behind.
func New() *Notifier {
	return NewWithTimeout(DefaultWaitTimeout)
}

// NewWithTimeout creates a notifier whose Wait calls time out after d.
func NewWithTimeout(d time.Duration) *Notifier {
	return &Notifier{
		clock:   1,
		subs:    make(map[*Subscription]struct{}),
		timeout: d,
	}
}

// Send increments the clock and fans the new value out to all current
// subscribers. Delivery coalesces: a subscriber that has not drained its
// channel keeps only the latest value, which is all a poller needs.
func (n *Notifier) Send() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.clock++
	for s := range n.subs {
		s.push(n.clock)
	}
}

// Clock returns the current logical clock value.
func (n *Notifier) Clock() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.clock
}

// Subscribe registers a new waiter, snapshotting the current clock.
func (n *Notifier) Subscribe() *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	s := &Subscription{
		notifier: n,
		ch:       make(chan uint64, 1),
		last:     n.clock,
	}
	if n.closed {
		close(s.ch)
		return s
	}
	n.subs[s] = struct{}{}
	return s
}

// Close shuts the notifier down, waking all waiters with a notification
// failure. Called when the owning game is evicted.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for s := range n.subs {
		close(s.ch)
		delete(n.subs, s)
	}
}

// push runs under the notifier mutex, so there is at most one concurrent
// pusher and the drain-then-send below cannot race another push.
func (s *Subscription) push(clk uint64) {
	select {
	case s.ch <- clk:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- clk:
	default:
	}
}

// Wait blocks until the clock advances past since, then returns the new
// value. If since is already behind the last observed value (including a
// zero since from a first-time poller), the last value is returned
// immediately. A timeout is not an error: the last known value is returned
// and the caller is expected to re-poll. A closed notifier surfaces as
// model.ErrNotificationFailed.
func (s *Subscription) Wait(ctx context.Context, since uint64) (uint64, error) {
	if since < s.last {
		return s.last, nil
	}

	timer := time.NewTimer(s.notifier.timeout)
	defer timer.Stop()

	for {
		select {
		case clk, ok := <-s.ch:
			if !ok {
				return 0, model.ErrNotificationFailed
			}
			if clk > s.last {
				s.last = clk
			}
			if clk > since {
				return clk, nil
			}
		case <-timer.C:
			return s.last, nil
		case <-ctx.Done():
			return s.last, ctx.Err()
		}
	}
}

// Close unregisters the subscription. Safe to call after the notifier itself
// has closed.
func (s *Subscription) Close() {
	n := s.notifier
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.subs[s]; ok {
		delete(n.subs, s)
		close(s.ch)
	}
}
