// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package strategy

import (
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/samber/oops"

	"github.com/holomush/authgate/internal/auth"
)

// Types lists every strategy New accepts.
var Types = []string{TypeNone, TypeBasic, TypeSession, TypeExpiringSession, TypePersistentSession}

// Config selects and tunes a strategy.
type Config struct {
	Type       string
	CookieName string
	// SessionTTL applies to session_exp and session_db. Zero or less
	// disables expiry.
	SessionTTL time.Duration
}

// Deps holds the collaborators a strategy may need. Which fields are
// required depends on the type.
type Deps struct {
	Principals auth.PrincipalRepository
	Sessions   auth.SessionRepository
	Hasher     auth.PasswordHasher
	// Table defaults to a fresh table.
	Table  *SessionTable
	Clock  Clock
	Logger *slog.Logger
}

// New builds the strategy named by cfg.Type.
func New(cfg Config, deps Deps) (Strategy, error) {
	if !lo.Contains(Types, cfg.Type) {
		return nil, oops.Code("STRATEGY_UNKNOWN").
			With("type", cfg.Type).
			Errorf("unknown auth strategy %q", cfg.Type)
	}

	switch cfg.Type {
	case TypeNone:
		return None{}, nil
	case TypeBasic:
		basic, err := NewBasic(deps.Principals, deps.Hasher)
		if err != nil {
			return nil, err
		}
		return basic, nil
	}

	table := deps.Table
	if table == nil {
		table = NewSessionTable()
	}
	session, err := NewSession(table, deps.Principals, WithCookieName(cfg.CookieName), WithClock(deps.Clock))
	if err != nil {
		return nil, err
	}
	if cfg.Type == TypeSession {
		return session, nil
	}

	expiring, err := NewExpiringSession(session, cfg.SessionTTL, deps.Clock)
	if err != nil {
		return nil, err
	}
	if cfg.Type == TypeExpiringSession {
		return expiring, nil
	}

	persistent, err := NewPersistentSession(expiring, deps.Sessions, deps.Logger)
	if err != nil {
		return nil, err
	}
	return persistent, nil
}
