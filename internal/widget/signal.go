// Package widget models the floating chat panel and the signal other parts of
// the site use to open it.
package widget

import "sync"

// Signal is a broadcast with no payload. The zero value is ready to use.
type Signal struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

// Subscribe registers fn and returns a func that removes it. Calling the
// returned func more than once is harmless.
func (s *Signal) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]func())
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
		})
	}
}

// Publish calls every current subscriber. Subscribers run outside the lock,
// so they may subscribe or unsubscribe.
func (s *Signal) Publish() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
