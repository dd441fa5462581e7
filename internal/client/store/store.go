// Package store provides the observable state container behind the session
// and talent stores. State is replaced wholesale through Update; listeners
// receive committed snapshots in commit order.
package store

import "sync"

type Store[S any] struct {
	mu        sync.RWMutex
	state     S
	seq       uint64
	nextID    int
	listeners map[int]func(S)

	// notifyMu serialises fan-out; delivered is the seq of the last
	// snapshot handed to listeners.
	notifyMu  sync.Mutex
	delivered uint64
}

func New[S any](initial S) *Store[S] {
	return &Store[S]{state: initial, listeners: make(map[int]func(S))}
}

// Get returns the current snapshot.
func (s *Store[S]) Get() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Update applies fn to the current state under the write lock and notifies
// listeners if fn reports a change. A snapshot overtaken by a newer commit
// before its fan-out started is not delivered. Listeners may call Get but
// must not call Update or Set.
func (s *Store[S]) Update(fn func(S) (S, bool)) S {
	s.mu.Lock()
	next, changed := fn(s.state)
	if !changed {
		current := s.state
		s.mu.Unlock()
		return current
	}
	s.state = next
	s.seq++
	seq := s.seq
	ls := make([]func(S), 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if seq <= s.delivered {
		return next
	}
	s.delivered = seq
	for _, l := range ls {
		l(next)
	}
	return next
}

// Set replaces the state unconditionally.
func (s *Store[S]) Set(v S) {
	s.Update(func(S) (S, bool) { return v, true })
}

// Subscribe registers fn for future commits. The returned func removes it.
func (s *Store[S]) Subscribe(fn func(S)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}
