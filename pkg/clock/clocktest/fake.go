// Package clocktest provides a manually driven clock for tests
package clocktest

import (
	"sync"
	"time"
)

// Fake is a clock whose time only moves when Advance is called.
// Channels returned by After fire once the fake time reaches their deadline.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waiters []waiter
	armed   chan struct{}
}

type waiter struct {
	deadline time.Time
	ch       chan time.Time
}

// New creates a Fake clock set to now
func New(now time.Time) *Fake {
	return &Fake{now: now, armed: make(chan struct{}, 64)}
}

// Now returns the fake current time
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After returns a channel that fires when the fake time passes now+d
func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan time.Time, 1)
	f.waiters = append(f.waiters, waiter{deadline: f.now.Add(d), ch: ch})
	select {
	case f.armed <- struct{}{}:
	default:
	}
	return ch
}

// Armed signals every time a timer is registered with After
func (f *Fake) Armed() <-chan struct{} {
	return f.armed
}

// Advance moves the fake time forward and fires due timers
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = f.now.Add(d)
	pending := f.waiters[:0]
	for _, w := range f.waiters {
		if !w.deadline.After(f.now) {
			w.ch <- f.now
			continue
		}
		pending = append(pending, w)
	}
	f.waiters = pending
}
