package auth

import (
	"sync"

	"github.com/desertthunder/mergemix/internal/models"
)

// Session holds the access token and profile for the lifetime of the process.
//
// There is no refresh or expiry handling. Session satisfies services.TokenSource.
type Session struct {
	mu    sync.RWMutex
	token string
	user  *models.User
}

// NewSession creates an empty, unauthenticated session.
func NewSession() *Session {
	return &Session{}
}

// AccessToken returns the bearer token. ok is false until a token exchange succeeds.
func (s *Session) AccessToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// User returns a copy of the profile, or nil when it was never fetched.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) SetUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	_, ok := s.AccessToken()
	return ok
}

// Clear drops the token and profile.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
}
