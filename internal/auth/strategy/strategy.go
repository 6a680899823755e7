// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package strategy implements the interchangeable request authentication
// strategies: none, HTTP Basic, in-memory sessions, expiring sessions and
// persisted sessions.
//
// Variants are flat types. Wrappers hold their inner strategy in a named
// field and call it explicitly; nothing relies on embedding to override
// behavior.
//
// Every strategy reports auth-negative outcomes (missing header, bad
// encoding, unknown user, wrong password, unknown or expired session) as
// an absent result with a nil error. Only storage failures produce errors.
package strategy

import (
	"context"
	"net/http"
	"time"

	"github.com/holomush/authgate/internal/auth"
)

// Strategy names accepted by New.
const (
	TypeNone              = "none"
	TypeBasic             = "basic"
	TypeSession           = "session"
	TypeExpiringSession   = "session_exp"
	TypePersistentSession = "session_db"
)

// DefaultCookieName is the session cookie used when none is configured.
const DefaultCookieName = "_my_session_id"

// Strategy authenticates requests.
type Strategy interface {
	// Name returns the strategy type.
	Name() string

	// RequiresAuth reports whether path needs authentication.
	RequiresAuth(path string, exemptions []string) bool

	// RequiresAuthMatch is RequiresAuth against a precompiled exemption
	// list. The HTTP middleware calls it on every request.
	RequiresAuthMatch(path string, exemptions *auth.PathMatcher) bool

	// Credential returns the raw credential carried by the request.
	Credential(r *http.Request) (string, bool)

	// CurrentPrincipal resolves the request to a principal. It returns
	// (nil, nil) when the request is not authenticated.
	CurrentPrincipal(ctx context.Context, r *http.Request) (*auth.Principal, error)
}

// SessionStrategy is a Strategy that issues opaque session tokens.
type SessionStrategy interface {
	Strategy

	// CreateSession binds a new token to principalID. It returns "" when
	// principalID is empty.
	CreateSession(ctx context.Context, principalID string) (string, error)

	// PrincipalID returns the principal bound to a live token, or "".
	PrincipalID(ctx context.Context, token string) (string, error)

	// DestroySession ends the session named by the request cookie and
	// reports whether anything was removed.
	DestroySession(ctx context.Context, r *http.Request) (bool, error)

	// CookieName returns the name of the session cookie.
	CookieName() string
}

// Clock returns the current time.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
