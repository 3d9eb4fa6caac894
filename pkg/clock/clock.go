// Package clock provides the wall-clock and repeating-timer capability used by
// the widget. Production code uses Real; tests drive a Fake forward in virtual
// time instead of waiting real minutes.
package clock

import (
	"sync"
	"time"
)

// Ticker is a cancellable repeating timer.
type Ticker interface {
	Stop()
}

// Clock is the time source injected into the session, booking and
// conversation services.
type Clock interface {
	Now() time.Time
	// Every calls fn once per interval until the returned Ticker is stopped.
	Every(interval time.Duration, fn func()) Ticker
	// After delivers the current time on the returned channel once d elapsed.
	After(d time.Duration) <-chan time.Time
}

// Real is a Clock backed by the time package.
type Real struct{}

// NewReal creates a wall-clock Clock.
func NewReal() Real {
	return Real{}
}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (Real) Every(interval time.Duration, fn func()) Ticker {
	t := &realTicker{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go t.loop(fn)
	return t
}

type realTicker struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *realTicker) loop(fn func()) {
	for {
		select {
		case <-t.ticker.C:
			fn()
		case <-t.done:
			return
		}
	}
}

// Stop is safe to call more than once and from inside fn.
func (t *realTicker) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}
