// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package strategy

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/holomush/authgate/internal/auth"
)

// PersistentSession wraps ExpiringSession and mirrors every session into a
// SessionRepository. A token is live only while a row exists for it; the
// expiry check still comes from the wrapped strategy.
type PersistentSession struct {
	inner    *ExpiringSession
	sessions auth.SessionRepository
	logger   *slog.Logger
}

// NewPersistentSession creates a PersistentSession around inner.
func NewPersistentSession(inner *ExpiringSession, sessions auth.SessionRepository, logger *slog.Logger) (*PersistentSession, error) {
	if inner == nil {
		return nil, oops.Errorf("inner session strategy is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session repository is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PersistentSession{inner: inner, sessions: sessions, logger: logger}, nil
}

// Name implements Strategy.
func (p *PersistentSession) Name() string { return TypePersistentSession }

// CookieName implements SessionStrategy.
func (p *PersistentSession) CookieName() string { return p.inner.CookieName() }

// RequiresAuth implements Strategy.
func (p *PersistentSession) RequiresAuth(path string, exemptions []string) bool {
	return p.inner.RequiresAuth(path, exemptions)
}

// RequiresAuthMatch implements Strategy.
func (p *PersistentSession) RequiresAuthMatch(path string, exemptions *auth.PathMatcher) bool {
	return p.inner.RequiresAuthMatch(path, exemptions)
}

// Credential implements Strategy.
func (p *PersistentSession) Credential(r *http.Request) (string, bool) {
	return p.inner.Credential(r)
}

// CreateSession creates the in-memory session and then stores its row. If
// the write fails the in-memory entry is kept and the error is returned.
func (p *PersistentSession) CreateSession(ctx context.Context, principalID string) (string, error) {
	token, err := p.inner.CreateSession(ctx, principalID)
	if err != nil || token == "" {
		return "", err
	}

	entry, _ := p.inner.inner.Entry(token)
	row, err := auth.NewSessionRow(principalID, auth.HashToken(token), entry.CreatedAt)
	if err != nil {
		return "", err
	}
	if err := p.sessions.Create(ctx, row); err != nil {
		return "", oops.Code("SESSION_PERSIST_FAILED").
			With("strategy", TypePersistentSession).
			With("operation", "create session row").
			With("principal_id", principalID).
			Wrap(err)
	}
	return token, nil
}

// PrincipalID requires a stored row for token. When the in-memory entry is
// missing, as after a restart, it is restored from the oldest row before
// the expiry check runs.
func (p *PersistentSession) PrincipalID(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}
	rows, err := p.sessions.FindByTokenHash(ctx, auth.HashToken(token))
	if err != nil {
		return "", oops.Code("SESSION_LOOKUP_FAILED").
			With("strategy", TypePersistentSession).
			With("operation", "find session rows").
			Wrap(err)
	}
	if len(rows) == 0 {
		return "", nil
	}

	if _, ok := p.inner.inner.Entry(token); !ok {
		row := rows[0]
		p.inner.inner.restore(token, SessionEntry{PrincipalID: row.PrincipalID, CreatedAt: row.CreatedAt})
		p.logger.DebugContext(ctx, "session restored from storage", "principal_id", row.PrincipalID)
	}
	return p.inner.PrincipalID(ctx, token)
}

// DestroySession deletes every row for the cookie token and the in-memory
// entry. It reports whether anything was removed.
func (p *PersistentSession) DestroySession(ctx context.Context, r *http.Request) (bool, error) {
	token, ok := p.Credential(r)
	if !ok {
		return false, nil
	}
	n, err := p.sessions.DeleteByTokenHash(ctx, auth.HashToken(token))
	if err != nil {
		return false, oops.Code("SESSION_DESTROY_FAILED").
			With("strategy", TypePersistentSession).
			With("operation", "delete session rows").
			Wrap(err)
	}
	removed, err := p.inner.DestroySession(ctx, r)
	if err != nil {
		return false, err
	}
	return n > 0 || removed, nil
}

// CurrentPrincipal implements Strategy.
func (p *PersistentSession) CurrentPrincipal(ctx context.Context, r *http.Request) (*auth.Principal, error) {
	return currentPrincipal(ctx, r, p, p.inner.principals)
}

var _ SessionStrategy = (*PersistentSession)(nil)
