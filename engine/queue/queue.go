// Package queue serializes narrated output. Text entries print at once
// unless a pause is pending, in which case they wait their turn. While a
// pause is pending the input surface is hidden.
package queue

import (
	"context"
	"sync"
	"time"
)

// Sink receives output. Its methods are called with the queue locked and
// must not call back into the queue.
type Sink interface {
	Write(text, class string)
	Clear()
	ShowInput()
	HideInput()
}

type entry struct {
	text  string
	class string
	pause time.Duration
}

// Queue is a FIFO of text and pause entries.
type Queue struct {
	mu      sync.Mutex
	sink    Sink
	clock   Clock
	scale   float64
	active  func() bool
	entries []entry
	timer   Timer
	waiting bool
	hidden  bool
	epoch   int
	idle    chan struct{}
}

// Option configures a Queue.
type Option func(*Queue)

// WithClock replaces the real clock.
func WithClock(c Clock) Option {
	return func(q *Queue) { q.clock = c }
}

// WithScale multiplies every pause. Zero disables pauses.
func WithScale(scale float64) Option {
	return func(q *Queue) { q.scale = scale }
}

// WithActive tells the queue whether the game still accepts input, so it
// never re-shows the input surface after the game ended.
func WithActive(fn func() bool) Option {
	return func(q *Queue) { q.active = fn }
}

// New creates an idle queue writing to sink.
func New(sink Sink, opts ...Option) *Queue {
	q := &Queue{
		sink:   sink,
		clock:  RealClock{},
		scale:  1,
		active: func() bool { return true },
		idle:   closedChan(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Add enqueues a line of text.
func (q *Queue) Add(text, class string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.waiting {
		q.entries = append(q.entries, entry{text: text, class: class})
		return
	}
	q.sink.Write(text, class)
}

// Pause delays every later entry by d, scaled.
func (q *Queue) Pause(d time.Duration) {
	d = time.Duration(float64(d) * q.scale)
	if d <= 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.waiting {
		q.entries = append(q.entries, entry{pause: d})
		return
	}
	q.startPause(d)
}

// Busy reports whether a pause is pending.
func (q *Queue) Busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.waiting
}

// Idle returns a channel closed once every queued entry has been written.
func (q *Queue) Idle() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.idle
}

// Wait blocks until the queue drains or ctx is done.
func (q *Queue) Wait(ctx context.Context) error {
	select {
	case <-q.Idle():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clear drops pending entries, cancels the pending pause and clears the sink.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancel()
	q.sink.Clear()
	q.drained()
}

// Cancel drops pending entries and the pending pause without clearing
// what has already been written.
func (q *Queue) Cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancel()
	q.drained()
}

// HideInput hides the input surface. Used when the game ends.
func (q *Queue) HideInput() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.hidden {
		q.hidden = true
		q.sink.HideInput()
	}
}

func (q *Queue) cancel() {
	q.epoch++
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.entries = nil
	q.waiting = false
}

func (q *Queue) startPause(d time.Duration) {
	q.waiting = true
	if !q.hidden {
		q.hidden = true
		q.sink.HideInput()
	}
	select {
	case <-q.idle:
		q.idle = make(chan struct{})
	default:
	}
	epoch := q.epoch
	q.timer = q.clock.AfterFunc(d, func() { q.resume(epoch) })
}

func (q *Queue) resume(epoch int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if epoch != q.epoch {
		return
	}
	q.waiting = false
	q.timer = nil

	for len(q.entries) > 0 {
		e := q.entries[0]
		q.entries = q.entries[1:]
		if e.pause > 0 {
			q.startPause(e.pause)
			return
		}
		q.sink.Write(e.text, e.class)
	}
	q.drained()
}

func (q *Queue) drained() {
	if q.hidden && q.active() {
		q.hidden = false
		q.sink.ShowInput()
	}
	select {
	case <-q.idle:
	default:
		close(q.idle)
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
