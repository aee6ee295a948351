package services

import (
	"sort"
	"sync"
)

type record interface {
	RecordID() string
}

// snapshot is the locally held copy of one owner's collection.
// Remote calls never run with mu held; gen changes whenever the owner does,
// so results that belong to a previous owner can be dropped.
type snapshot[R record] struct {
	mu    sync.RWMutex
	owner string
	state State
	err   error
	gen   uint64
	items []R
	// less keeps items in store order; nil means insertion order.
	less func(a, b R) bool
}

func (s *snapshot[R]) current() (owner string, gen uint64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner, s.gen, s.owner != ""
}

func (s *snapshot[R]) status() (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == "" {
		return StateUninitialized, nil
	}
	return s.state, s.err
}

// beginLoad moves to loading. A new owner discards the old records.
func (s *snapshot[R]) beginLoad(owner string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner != s.owner {
		s.owner = owner
		s.items = nil
		s.gen++
	}
	s.state = StateLoading
	s.err = nil
	return s.gen
}

// finishLoad replaces the records wholesale unless the owner changed meanwhile.
func (s *snapshot[R]) finishLoad(gen uint64, items []R) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.items = items
	s.state = StateReady
	s.err = nil
	return true
}

// failLoad keeps the previous records and remembers the error.
func (s *snapshot[R]) failLoad(gen uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.state = StateError
	s.err = err
	return true
}

func (s *snapshot[R]) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = ""
	s.items = nil
	s.err = nil
	s.state = StateUninitialized
	s.gen++
}

func (s *snapshot[R]) list() []R {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]R, len(s.items))
	copy(out, s.items)
	return out
}

func (s *snapshot[R]) filter(keep func(R) bool) []R {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []R{}
	for _, item := range s.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func (s *snapshot[R]) find(id string) (R, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.RecordID() == id {
			return item, true
		}
	}
	var zero R
	return zero, false
}

func (s *snapshot[R]) add(gen uint64, item R) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	if s.less == nil {
		s.items = append(s.items, item)
		return true
	}
	i := sort.Search(len(s.items), func(i int) bool { return s.less(item, s.items[i]) })
	s.items = append(s.items, item)
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = item
	return true
}

// patch applies fn to the record with id and returns the patched copy.
func (s *snapshot[R]) patch(gen uint64, id string, fn func(*R)) (R, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero R
	if gen != s.gen {
		return zero, false
	}
	for i := range s.items {
		if s.items[i].RecordID() == id {
			fn(&s.items[i])
			patched := s.items[i]
			if s.less != nil {
				sort.SliceStable(s.items, func(a, b int) bool { return s.less(s.items[a], s.items[b]) })
			}
			return patched, true
		}
	}
	return zero, false
}

func (s *snapshot[R]) remove(gen uint64, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	for i := range s.items {
		if s.items[i].RecordID() == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}
