package testhelpers

import (
	"sync"
	"time"
)

// InstantTimer is a backoff.Timer that fires immediately and records every
// wait it was asked for
type InstantTimer struct {
	mu    sync.Mutex
	waits []time.Duration
	c     chan time.Time
}

func (t *InstantTimer) Start(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.waits = append(t.waits, d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *InstantTimer) Stop() {}

func (t *InstantTimer) C() <-chan time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.c
}

// Waits returns the delays requested so far
func (t *InstantTimer) Waits() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.waits...)
}
