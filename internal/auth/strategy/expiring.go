// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package strategy

import (
	"context"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/authgate/internal/auth"
)

// ExpiringSession wraps Session with a fixed time-to-live measured from
// creation. A TTL of zero or less disables expiry. Expired entries read as
// absent and stay in the table until destroyed.
type ExpiringSession struct {
	inner      *Session
	principals auth.PrincipalRepository
	ttl        time.Duration
	clock      Clock
}

// NewExpiringSession creates an ExpiringSession around inner.
func NewExpiringSession(inner *Session, ttl time.Duration, clock Clock) (*ExpiringSession, error) {
	if inner == nil {
		return nil, oops.Errorf("inner session strategy is required")
	}
	return &ExpiringSession{inner: inner, principals: inner.principals, ttl: ttl, clock: clock}, nil
}

// Name implements Strategy.
func (e *ExpiringSession) Name() string { return TypeExpiringSession }

// CookieName implements SessionStrategy.
func (e *ExpiringSession) CookieName() string { return e.inner.CookieName() }

// TTL returns the configured time-to-live.
func (e *ExpiringSession) TTL() time.Duration { return e.ttl }

// RequiresAuth implements Strategy.
func (e *ExpiringSession) RequiresAuth(path string, exemptions []string) bool {
	return e.inner.RequiresAuth(path, exemptions)
}

// RequiresAuthMatch implements Strategy.
func (e *ExpiringSession) RequiresAuthMatch(path string, exemptions *auth.PathMatcher) bool {
	return e.inner.RequiresAuthMatch(path, exemptions)
}

// Credential implements Strategy.
func (e *ExpiringSession) Credential(r *http.Request) (string, bool) {
	return e.inner.Credential(r)
}

// CreateSession implements SessionStrategy.
func (e *ExpiringSession) CreateSession(ctx context.Context, principalID string) (string, error) {
	return e.inner.CreateSession(ctx, principalID)
}

// PrincipalID implements SessionStrategy.
func (e *ExpiringSession) PrincipalID(_ context.Context, token string) (string, error) {
	entry, ok := e.inner.Entry(token)
	if !ok || e.expired(entry) {
		return "", nil
	}
	return entry.PrincipalID, nil
}

func (e *ExpiringSession) expired(entry SessionEntry) bool {
	if e.ttl <= 0 {
		return false
	}
	if entry.CreatedAt.IsZero() {
		return true
	}
	return e.clock.now().After(entry.CreatedAt.Add(e.ttl))
}

// DestroySession implements SessionStrategy.
func (e *ExpiringSession) DestroySession(ctx context.Context, r *http.Request) (bool, error) {
	return e.inner.DestroySession(ctx, r)
}

// CurrentPrincipal implements Strategy.
func (e *ExpiringSession) CurrentPrincipal(ctx context.Context, r *http.Request) (*auth.Principal, error) {
	return currentPrincipal(ctx, r, e, e.principals)
}

var _ SessionStrategy = (*ExpiringSession)(nil)
