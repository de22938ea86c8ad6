package queue

import "sync"

// PendingSet tracks the keys of requests that are currently in flight.
// At most one holder exists per key between TryAcquire and its release.
type PendingSet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewPendingSet creates an empty PendingSet.
func NewPendingSet() *PendingSet {
	return &PendingSet{keys: make(map[string]struct{})}
}

// TryAcquire marks key in flight. It returns ok=false if key is already held.
// On success the returned release func unmarks the key; calling it more than
// once is a no-op, so it is safe to both defer it and call it early.
func (s *PendingSet) TryAcquire(key string) (release func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, held := s.keys[key]; held {
		return nil, false
	}
	s.keys[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() { s.Release(key) })
	}, true
}

// Release unconditionally unmarks key. Releasing an unmarked key is a no-op.
func (s *PendingSet) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
}

// Held reports whether key is currently in flight.
func (s *PendingSet) Held(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, held := s.keys[key]
	return held
}

// Len returns the number of keys in flight.
func (s *PendingSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}
