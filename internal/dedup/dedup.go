// Package dedup tracks identifiers that were already published.
package dedup

// Store is an insertion-ordered set of published identifiers.
// It is owned by a single run and is not safe for concurrent use.
type Store struct {
	order []string
	index map[string]struct{}
}

// New seeds a store from previously persisted identifiers, oldest first.
// Empty and repeated seeds are dropped.
func New(ids ...string) *Store {
	s := &Store{
		order: make([]string, 0, len(ids)),
		index: make(map[string]struct{}, len(ids)),
	}
	for _, id := range ids {
		s.RecordPublished(id)
	}
	return s
}

// Contains reports whether id was already published.
func (s *Store) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// RecordPublished adds id. It returns false when id was already present
// (or empty) and the store is left unchanged.
func (s *Store) RecordPublished(id string) bool {
	if id == "" || s.Contains(id) {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// EvictIfOverCapacity drops the oldest identifiers until Len() == max and
// returns them. max <= 0 disables eviction.
func (s *Store) EvictIfOverCapacity(max int) []string {
	if max <= 0 || len(s.order) <= max {
		return nil
	}
	n := len(s.order) - max
	evicted := make([]string, n)
	copy(evicted, s.order[:n])
	for _, id := range evicted {
		delete(s.index, id)
	}
	// copy into a fresh slice so the evicted prefix can be collected
	s.order = append([]string(nil), s.order[n:]...)
	return evicted
}

// Identifiers returns a copy of the identifiers in insertion order.
func (s *Store) Identifiers() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of tracked identifiers.
func (s *Store) Len() int {
	return len(s.order)
}
