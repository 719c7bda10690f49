// Package tui provides a Bubble Tea terminal UI for playing a game.
package tui

// History is a fixed-size ring of submitted commands. Walking back through
// it remembers the line being typed, which Next restores at the end.
type History struct {
	ring  []string
	start int // index of the oldest entry
	n     int
	pos   int // steps back from the newest entry; 0 = not navigating
	draft string
}

// NewHistory creates a history holding at most size commands.
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{ring: make([]string, size)}
}

// Len reports the number of stored commands.
func (h *History) Len() int { return h.n }

// Navigating reports whether Prev has stepped into the history.
func (h *History) Navigating() bool { return h.pos > 0 }

// at returns the i-th newest entry, 1-based.
func (h *History) at(i int) string {
	return h.ring[(h.start+h.n-i)%len(h.ring)]
}

// Push records a command. Repeating the newest entry is a no-op.
func (h *History) Push(cmd string) {
	h.pos = 0
	h.draft = ""
	if cmd == "" || (h.n > 0 && h.at(1) == cmd) {
		return
	}
	if h.n < len(h.ring) {
		h.ring[(h.start+h.n)%len(h.ring)] = cmd
		h.n++
		return
	}
	h.ring[h.start] = cmd
	h.start = (h.start + 1) % len(h.ring)
}

// Prev steps to the next older entry. current is the line being typed; it is
// kept as the draft when navigation starts. Returns false when empty.
func (h *History) Prev(current string) (string, bool) {
	if h.n == 0 {
		return "", false
	}
	if h.pos == 0 {
		h.draft = current
	}
	if h.pos < h.n {
		h.pos++
	}
	return h.at(h.pos), true
}

// Next steps to the next newer entry. Past the newest entry it returns the
// saved draft and false.
func (h *History) Next() (string, bool) {
	if h.pos == 0 {
		return "", false
	}
	h.pos--
	if h.pos == 0 {
		return h.draft, false
	}
	return h.at(h.pos), true
}

// ResetCursor stops navigating and forgets the draft.
func (h *History) ResetCursor() {
	h.pos = 0
	h.draft = ""
}
