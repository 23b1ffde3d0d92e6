package service

import (
	"context"
	"sync"
	"time"

	"controlling_window/internal/models"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []clockWaiter
}

type clockWaiter struct {
	at time.Time
	ch chan time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, clockWaiter{at: c.now.Add(d), ch: ch})
	return ch
}

// Advance moves the clock forward and releases every waiter that became due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	kept := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.at.After(c.now) {
			w.ch <- c.now
			continue
		}
		kept = append(kept, w)
	}
	c.waiters = kept
}

// waiting reports how many After channels are still pending.
func (c *fakeClock) waiting() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// memStateRepo keeps the last saved state in memory.
type memStateRepo struct {
	mu    sync.Mutex
	saved models.WindowState
	saves int
	load  models.WindowState
	err   error
}

func (r *memStateRepo) Save(ctx context.Context, s models.WindowState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = s
	r.saves++
	return nil
}

func (r *memStateRepo) Load(ctx context.Context) (models.WindowState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load, r.err
}

func (r *memStateRepo) last() models.WindowState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved
}
