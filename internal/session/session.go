// Package session holds the signed-in user's token and role for the
// lifetime of one login.
package session

import (
	"sync"

	"github.com/sadopc/staffdesk/internal/api"
)

// Session is created at login and handed to every screen. Once invalidated
// (logout or the first 401) it stays invalid; a new login makes a new Session.
type Session struct {
	mu           sync.RWMutex
	token        string
	user         api.User
	valid        bool
	onInvalidate func()
}

func newSession(token string, user api.User, onInvalidate func()) *Session {
	return &Session{token: token, user: user, valid: true, onInvalidate: onInvalidate}
}

// Token returns the bearer token, or "" once the session is invalid.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid {
		return ""
	}
	return s.token
}

func (s *Session) User() api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Role() api.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Role
}

func (s *Session) IsAdmin() bool { return s.Role() == api.RoleAdmin }

// Valid reports whether the session can still be used. A nil Session is invalid.
func (s *Session) Valid() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.valid
}

// Invalidate ends the session. It reports whether this call was the one
// that ended it; later calls are no-ops.
func (s *Session) Invalidate() bool {
	s.mu.Lock()
	if !s.valid {
		s.mu.Unlock()
		return false
	}
	s.valid = false
	hook := s.onInvalidate
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return true
}

// Observe invalidates the session when err says the server no longer
// accepts the token. It reports whether err was such an error.
func (s *Session) Observe(err error) bool {
	if err == nil || !api.IsUnauthorized(err) {
		return false
	}
	s.Invalidate()
	return true
}
