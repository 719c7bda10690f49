package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

type eventKind int

const (
	evWrite eventKind = iota
	evClear
	evShowInput
	evHideInput
)

type event struct {
	kind  eventKind
	text  string
	class string
}

// eventsMsg carries queued engine output into the Update loop.
type eventsMsg []event

// Bridge is the engine's output sink for the TUI. The engine writes to it
// from Update and from pause timers, so it never blocks: events are buffered
// and picked up by the command returned from wait.
type Bridge struct {
	mu      sync.Mutex
	pending []event
	notify  chan struct{}
}

// NewBridge creates an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{notify: make(chan struct{}, 1)}
}

func (b *Bridge) push(ev event) {
	b.mu.Lock()
	b.pending = append(b.pending, ev)
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Write queues a line of output.
func (b *Bridge) Write(text, class string) { b.push(event{kind: evWrite, text: text, class: class}) }

// Clear queues a transcript reset.
func (b *Bridge) Clear() { b.push(event{kind: evClear}) }

// ShowInput queues the input becoming available.
func (b *Bridge) ShowInput() { b.push(event{kind: evShowInput}) }

// HideInput queues the input being hidden.
func (b *Bridge) HideInput() { b.push(event{kind: evHideInput}) }

// drain takes everything buffered so far.
func (b *Bridge) drain() []event {
	b.mu.Lock()
	defer b.mu.Unlock()
	evs := b.pending
	b.pending = nil
	return evs
}

// wait blocks until output is buffered, then delivers it as one message.
func (b *Bridge) wait() tea.Cmd {
	return func() tea.Msg {
		<-b.notify
		return eventsMsg(b.drain())
	}
}
