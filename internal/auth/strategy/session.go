// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package strategy

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/oops"

	"github.com/holomush/authgate/internal/auth"
)

// Session authenticates requests by an opaque token cookie looked up in an
// injected SessionTable. Sessions never expire.
type Session struct {
	table      *SessionTable
	principals auth.PrincipalRepository
	cookieName string
	clock      Clock
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithCookieName sets the session cookie name.
func WithCookieName(name string) SessionOption {
	return func(s *Session) {
		if name != "" {
			s.cookieName = name
		}
	}
}

// WithClock sets the time source used to stamp new entries.
func WithClock(c Clock) SessionOption {
	return func(s *Session) { s.clock = c }
}

// NewSession creates a Session strategy.
func NewSession(table *SessionTable, principals auth.PrincipalRepository, opts ...SessionOption) (*Session, error) {
	if table == nil {
		return nil, oops.Errorf("session table is required")
	}
	if principals == nil {
		return nil, oops.Errorf("principal repository is required")
	}
	s := &Session{table: table, principals: principals, cookieName: DefaultCookieName}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name implements Strategy.
func (s *Session) Name() string { return TypeSession }

// CookieName implements SessionStrategy.
func (s *Session) CookieName() string { return s.cookieName }

// RequiresAuth implements Strategy.
func (s *Session) RequiresAuth(path string, exemptions []string) bool {
	return auth.RequiresAuth(path, exemptions)
}

// RequiresAuthMatch implements Strategy.
func (s *Session) RequiresAuthMatch(path string, exemptions *auth.PathMatcher) bool {
	return exemptions.RequiresAuth(path)
}

// Credential returns the session cookie value.
func (s *Session) Credential(r *http.Request) (string, bool) {
	return sessionCookie(r, s.cookieName)
}

// CreateSession implements SessionStrategy.
func (s *Session) CreateSession(_ context.Context, principalID string) (string, error) {
	if principalID == "" {
		return "", nil
	}
	entry := SessionEntry{PrincipalID: principalID, CreatedAt: s.clock.now()}
	for {
		token, err := auth.GenerateToken()
		if err != nil {
			return "", oops.Code("SESSION_CREATE_FAILED").With("strategy", TypeSession).Wrap(err)
		}
		if s.table.PutIfAbsent(token, entry) {
			return token, nil
		}
	}
}

// PrincipalID implements SessionStrategy.
func (s *Session) PrincipalID(_ context.Context, token string) (string, error) {
	entry, ok := s.Entry(token)
	if !ok {
		return "", nil
	}
	return entry.PrincipalID, nil
}

// Entry returns the raw table entry for token.
func (s *Session) Entry(token string) (SessionEntry, bool) {
	if token == "" {
		return SessionEntry{}, false
	}
	return s.table.Get(token)
}

// restore puts back an entry recovered from durable storage.
func (s *Session) restore(token string, entry SessionEntry) {
	s.table.PutIfAbsent(token, entry)
}

// DestroySession implements SessionStrategy.
func (s *Session) DestroySession(_ context.Context, r *http.Request) (bool, error) {
	token, ok := s.Credential(r)
	if !ok {
		return false, nil
	}
	return s.table.Delete(token), nil
}

// CurrentPrincipal implements Strategy.
func (s *Session) CurrentPrincipal(ctx context.Context, r *http.Request) (*auth.Principal, error) {
	return currentPrincipal(ctx, r, s, s.principals)
}

// currentPrincipal resolves the cookie through ss and loads the principal.
func currentPrincipal(ctx context.Context, r *http.Request, ss SessionStrategy, principals auth.PrincipalRepository) (*auth.Principal, error) {
	token, ok := ss.Credential(r)
	if !ok {
		return nil, nil
	}
	principalID, err := ss.PrincipalID(ctx, token)
	if err != nil || principalID == "" {
		return nil, err
	}
	principal, err := principals.FindBy(ctx, auth.PrincipalFilter{ID: principalID})
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, nil
		}
		return nil, oops.Code("STRATEGY_LOOKUP_FAILED").
			With("strategy", ss.Name()).
			With("operation", "find principal by id").
			Wrap(err)
	}
	return principal, nil
}

func sessionCookie(r *http.Request, name string) (string, bool) {
	if r == nil {
		return "", false
	}
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

var _ SessionStrategy = (*Session)(nil)
