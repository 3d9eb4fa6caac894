package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock. Callbacks run synchronously on the
// goroutine calling Advance, in due-time order.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
	waiters []*fakeWaiter
}

type fakeTicker struct {
	clock    *Fake
	interval time.Duration
	next     time.Time
	fn       func()
	stopped  bool
}

type fakeWaiter struct {
	at time.Time
	ch chan time.Time
}

// NewFake creates a Fake clock positioned at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Every(interval time.Duration, fn func()) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{
		clock:    f,
		interval: interval,
		next:     f.now.Add(interval),
		fn:       fn,
	}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- f.now
		return ch
	}
	f.waiters = append(f.waiters, &fakeWaiter{at: f.now.Add(d), ch: ch})
	return ch
}

// Advance moves the clock forward by d, firing every ticker and waiter that
// falls due on the way.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		fire, ok := f.popDueLocked(target)
		if !ok {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.mu.Unlock()
		fire()
	}
}

// ActiveTickers reports how many tickers have not been stopped.
func (f *Fake) ActiveTickers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

// popDueLocked finds the earliest event at or before target, moves the clock
// to it and returns the action to run outside the lock.
func (f *Fake) popDueLocked(target time.Time) (func(), bool) {
	var (
		due     time.Time
		ticker  *fakeTicker
		waiterI = -1
	)
	for _, t := range f.tickers {
		if t.next.After(target) {
			continue
		}
		if ticker == nil || t.next.Before(due) {
			ticker, due = t, t.next
		}
	}
	for i, w := range f.waiters {
		if w.at.After(target) {
			continue
		}
		if (ticker == nil && waiterI < 0) || w.at.Before(due) {
			ticker, waiterI, due = nil, i, w.at
		}
	}

	switch {
	case waiterI >= 0:
		w := f.waiters[waiterI]
		f.waiters = append(f.waiters[:waiterI], f.waiters[waiterI+1:]...)
		f.now = due
		return func() { w.ch <- due }, true
	case ticker != nil:
		f.now = due
		ticker.next = due.Add(ticker.interval)
		return ticker.fn, true
	default:
		return nil, false
	}
}

func (t *fakeTicker) Stop() {
	f := t.clock
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	for i, other := range f.tickers {
		if other == t {
			f.tickers = append(f.tickers[:i], f.tickers[i+1:]...)
			break
		}
	}
}
