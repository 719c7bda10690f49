// Package idset provides an insertion-ordered set of string ids.
package idset

// Set keeps ids in the order they were first added.
type Set struct {
	order []string
	index map[string]struct{}
}

// New creates a set holding ids, duplicates collapsed.
func New(ids ...string) *Set {
	s := &Set{index: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id. Returns false if it was already present.
func (s *Set) Add(id string) bool {
	if s.index == nil {
		s.index = map[string]struct{}{}
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Delete removes id. Returns false if it was not present.
func (s *Set) Delete(id string) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	delete(s.index, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Has reports membership.
func (s *Set) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[id]
	return ok
}

// Len returns the number of ids.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Items returns a copy of the ids in insertion order.
func (s *Set) Items() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Clear removes every id.
func (s *Set) Clear() {
	s.order = nil
	s.index = map[string]struct{}{}
}
