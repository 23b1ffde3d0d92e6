package service

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"controlling_window/internal/hardware"
)

// Action is what a scheduled command does when it fires.
type Action int

const (
	ActionOpen       Action = iota // power on, direction open
	ActionClose                    // power on, direction close
	ActionStop                     // power off
	ActionCheckAuto                // re-evaluate an indefinite auto-open
)

func (a Action) String() string {
	switch a {
	case ActionOpen:
		return "open"
	case ActionClose:
		return "close"
	case ActionStop:
		return "stop"
	case ActionCheckAuto:
		return "check_auto"
	}
	return "unknown"
}

// PowersOn reports whether the action switches the motor on.
func (a Action) PowersOn() bool { return a == ActionOpen || a == ActionClose }

// Direction maps a power-on action to the relay direction.
func (a Action) Direction() hardware.Direction {
	if a == ActionClose {
		return hardware.DirectionClose
	}
	return hardware.DirectionOpen
}

// Step is a command relative to the moment it is entered.
type Step struct {
	Delay  time.Duration
	Action Action
}

// Entry is a pending command with its absolute fire time.
type Entry struct {
	FireAt time.Time
	Action Action
}

// FireFunc executes a due command. generation identifies the queue the
// command was entered into; it is stale once the queue has been replaced.
type FireFunc func(generation uint64, action Action)

type queued struct {
	Entry
	seq        uint64
	generation uint64
}

type entryHeap []*queued

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].FireAt.Equal(h[j].FireAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].FireAt.Before(h[j].FireAt)
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)   { *h = append(*h, x.(*queued)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// Scheduler is a time-ordered, cancelable queue of actuator commands executed
// by a single worker. Commands sharing a fire time run in insertion order.
type Scheduler struct {
	clock Clock
	fire  FireFunc

	mu         sync.Mutex
	queue      entryHeap
	seq        uint64
	generation uint64
	wake       chan struct{}

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	halted bool
}

// NewScheduler returns an empty scheduler. fire must be set with SetFire
// before the worker starts if it was not given here.
func NewScheduler(clock Clock, fire FireFunc) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	return &Scheduler{
		clock: clock,
		fire:  fire,
		wake:  make(chan struct{}, 1),
	}
}

// SetFire installs the executor for due commands.
func (s *Scheduler) SetFire(fire FireFunc) {
	s.mu.Lock()
	s.fire = fire
	s.mu.Unlock()
}

// Enter adds a command to fire no earlier than now+delay in the current generation.
func (s *Scheduler) Enter(delay time.Duration, action Action) {
	s.mu.Lock()
	s.pushLocked(s.clock.Now().Add(delay), action)
	s.mu.Unlock()
	s.notify()
}

// CancelAll drops every pending command and starts a new generation.
// A command already handed to the executor is not retracted.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
	s.notify()
}

// Replace atomically cancels every pending command and enters steps, all
// relative to the same instant. It returns the new generation.
func (s *Scheduler) Replace(steps ...Step) uint64 {
	s.mu.Lock()
	s.clearLocked()
	now := s.clock.Now()
	for _, st := range steps {
		s.pushLocked(now.Add(st.Delay), st.Action)
	}
	gen := s.generation
	s.mu.Unlock()
	s.notify()
	return gen
}

// Current reports whether generation is still the live queue generation.
func (s *Scheduler) Current(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == generation
}

// Empty reports whether nothing is pending.
func (s *Scheduler) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) == 0
}

// Pending returns the queued commands in firing order.
func (s *Scheduler) Pending() []Entry {
	s.mu.Lock()
	cp := make(entryHeap, len(s.queue))
	copy(cp, s.queue)
	s.mu.Unlock()

	out := make([]Entry, 0, len(cp))
	for cp.Len() > 0 {
		out = append(out, heap.Pop(&cp).(*queued).Entry)
	}
	return out
}

// RunDue fires every command that is due now, in order, and returns how many fired.
func (s *Scheduler) RunDue() int {
	n := 0
	for {
		it, fire := s.popDue()
		if it == nil {
			return n
		}
		if fire != nil {
			fire(it.generation, it.Action)
		}
		n++
	}
}

// Run is the scheduler worker. It blocks until ctx is canceled or Halt is
// called, sleeping until the earliest pending command and re-evaluating
// whenever the queue changes.
func (s *Scheduler) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.runMu.Lock()
	if s.halted {
		s.runMu.Unlock()
		cancel()
		return
	}
	s.cancel, s.done = cancel, done
	s.runMu.Unlock()
	defer close(done)
	defer cancel()

	for {
		s.RunDue()
		if err := s.waitNext(ctx, true); err != nil {
			return
		}
	}
}

// Halt stops the worker and waits for it to return. A worker started after
// Halt exits immediately.
func (s *Scheduler) Halt() {
	s.runMu.Lock()
	s.halted = true
	cancel, done := s.cancel, s.done
	s.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Drain runs the queue to completion on the calling goroutine. It returns
// once nothing is pending, or with ctx's error.
func (s *Scheduler) Drain(ctx context.Context) error {
	for {
		s.RunDue()
		if s.Empty() {
			return nil
		}
		if err := s.waitNext(ctx, false); err != nil {
			return err
		}
	}
}

// waitNext sleeps until the head of the queue is due, the queue changes, or
// ctx is done. With an empty queue it waits for a change only if idle is true.
func (s *Scheduler) waitNext(ctx context.Context, idle bool) error {
	s.mu.Lock()
	var timer <-chan time.Time
	if len(s.queue) > 0 {
		if d := s.queue[0].FireAt.Sub(s.clock.Now()); d > 0 {
			timer = s.clock.After(d)
		} else {
			s.mu.Unlock()
			return nil
		}
	} else if !idle {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.wake:
	case <-timer:
	}
	return nil
}

func (s *Scheduler) popDue() (*queued, FireFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 || s.queue[0].FireAt.After(s.clock.Now()) {
		return nil, nil
	}
	return heap.Pop(&s.queue).(*queued), s.fire
}

func (s *Scheduler) pushLocked(at time.Time, action Action) {
	s.seq++
	heap.Push(&s.queue, &queued{
		Entry:      Entry{FireAt: at, Action: action},
		seq:        s.seq,
		generation: s.generation,
	})
}

func (s *Scheduler) clearLocked() {
	s.queue = nil
	s.generation++
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
