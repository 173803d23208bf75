package client

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/fieldsales/internal/client/models"
)

// TokenChangeFunc is called after a refresh replaced the token bundle so the
// caller can persist it.
type TokenChangeFunc func(ctx context.Context, updated models.Tokens) error

// Session holds the current token bundle of one client. It is safe for
// concurrent use.
type Session struct {
	mu       sync.RWMutex
	tokens   *models.Tokens
	onChange TokenChangeFunc
}

func NewSession() *Session {
	return &Session{}
}

// Set replaces the token state. A nil onChange keeps the registered callback
// unless tokens is nil too, in which case the callback is dropped.
func (s *Session) Set(tokens *models.Tokens, onChange TokenChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tokens != nil {
		t := *tokens
		s.tokens = &t
	} else {
		s.tokens = nil
	}

	switch {
	case onChange != nil:
		s.onChange = onChange
	case tokens == nil:
		s.onChange = nil
	}
}

// Clear drops tokens and callback.
func (s *Session) Clear() {
	s.Set(nil, nil)
}

// Tokens returns a copy of the current bundle.
func (s *Session) Tokens() (models.Tokens, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tokens == nil {
		return models.Tokens{}, false
	}
	return *s.tokens, true
}

// swap installs updated only while the session still holds the refresh token
// the refresh was made with. It returns the callback to notify.
func (s *Session) swap(prevRefresh string, updated models.Tokens) (TokenChangeFunc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens == nil || s.tokens.RefreshToken != prevRefresh {
		return nil, false
	}
	s.tokens = &updated
	return s.onChange, true
}
