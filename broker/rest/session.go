package rest

import "sync"

// TokenSession holds the bearer token for a venue. Once invalidated it stays
// invalid until Renew installs a new token.
type TokenSession struct {
	mu          sync.RWMutex
	token       string
	invalidated bool
}

func NewTokenSession(token string) *TokenSession {
	return &TokenSession{token: token}
}

func (s *TokenSession) SessionValid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && !s.invalidated
}

func (s *TokenSession) InvalidateSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = true
	s.token = ""
}

func (s *TokenSession) Renew(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.invalidated = false
}

func (s *TokenSession) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}
