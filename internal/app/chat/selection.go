package chat

import (
	"sync"

	"whatsgram/internal/app/user"
)

// Selection holds the conversation counterpart the user is viewing. It is not persisted and
// is independent of the session.
type Selection struct {
	mu      sync.RWMutex
	current *user.User
}

// Get returns a copy of the selected counterpart, or nil.
func (s *Selection) Get() *user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Set replaces the selection; nil clears it.
func (s *Selection) Set(u *user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u == nil {
		s.current = nil
		return
	}
	cp := *u
	s.current = &cp
}
