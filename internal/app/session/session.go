/*
Package session holds the authenticated identity of the terminal client.

The Store hydrates from durable local storage at construction, exposes the current session
through a side-effect-free accessor, and has a single mutation path (Set) used by the login
and logout flows. Subscribers are notified of every change; the presence channel hangs off
these notifications.
*/
package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"whatsgram/internal/app/storage"
	"whatsgram/internal/app/user"
	"whatsgram/internal/configs"
	"whatsgram/internal/pkg/logx"
)

// Session is the signed-in user's identity and profile as returned by the login endpoint.
type Session struct {
	ID         string `json:"_id"`
	Username   string `json:"username"`
	Fullname   string `json:"fullname"`
	Email      string `json:"email"`
	ProfilePic string `json:"profilepic"`
	Gender     string `json:"gender,omitempty"`
	Token      string `json:"token,omitempty"`
}

// Valid reports whether s identifies a user.
func (s *Session) Valid() bool {
	return s != nil && s.ID != ""
}

// Profile returns the user view of s.
func (s *Session) Profile() user.User {
	return user.User{
		ID:         s.ID,
		Username:   s.Username,
		Fullname:   s.Fullname,
		Email:      s.Email,
		ProfilePic: s.ProfilePic,
		Gender:     s.Gender,
	}
}

// Store holds the current session.
type Store struct {
	mu      sync.RWMutex
	current *Session
	local   storage.Local

	subsMu sync.Mutex
	subs   map[int]func(*Session)
	nextID int

	logger zerolog.Logger
}

// NewStore returns a Store hydrated from local.
// A missing or unreadable session starts the store empty; a malformed one is also removed
// from storage so the next start does not trip over it again.
func NewStore(local storage.Local) *Store {
	s := &Store{
		local:  local,
		subs:   make(map[int]func(*Session)),
		logger: logx.Component("session"),
	}

	s.current = s.hydrate()

	return s
}

func (s *Store) hydrate() *Session {
	data, ok, err := s.local.Get(configs.SessionStorageKey)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read persisted session, starting signed out")
		return nil
	}
	if !ok {
		return nil
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil || !sess.Valid() {
		s.logger.Warn().Err(err).Int("bytes", len(data)).Msg("Discarding malformed persisted session")
		if delErr := s.local.Delete(configs.SessionStorageKey); delErr != nil {
			s.logger.Error().Err(delErr).Msg("Failed to remove malformed session")
		}
		return nil
	}

	s.logger.Info().Str("user_id", sess.ID).Msg("Session restored from local storage")
	return &sess
}

// Current returns a copy of the current session, or nil when signed out.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Token returns the bearer token of the current session, if any.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Set replaces the current session and notifies subscribers.
// A non-nil session is persisted first; nil clears the local storage wholesale.
func (s *Store) Set(sess *Session) error {
	var next *Session

	if sess != nil {
		if !sess.Valid() {
			return fmt.Errorf("session has no user id")
		}

		data, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("failed to encode session: %w", err)
		}
		if err := s.local.Set(configs.SessionStorageKey, data); err != nil {
			return err
		}

		cp := *sess
		next = &cp
	} else if err := s.local.Clear(); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	if next != nil {
		s.logger.Info().Str("user_id", next.ID).Msg("Session set")
	} else {
		s.logger.Info().Msg("Session cleared")
	}

	s.publish(next)
	return nil
}

// Subscribe registers fn to be called with every new session value (nil on sign-out).
// fn runs synchronously on the goroutine calling Set.
func (s *Store) Subscribe(fn func(*Session)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) publish(sess *Session) {
	s.subsMu.Lock()
	fns := make([]func(*Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		if sess == nil {
			fn(nil)
			continue
		}
		cp := *sess
		fn(&cp)
	}
}
