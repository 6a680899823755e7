// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// SessionRow is the durable record of a strategy session. It survives
// process restarts; the in-memory entry does not.
type SessionRow struct {
	ID          ulid.ULID
	PrincipalID string
	TokenHash   string
	CreatedAt   time.Time
}

// NewSessionRow creates a validated SessionRow.
func NewSessionRow(principalID, tokenHash string, createdAt time.Time) (*SessionRow, error) {
	if principalID == "" {
		return nil, oops.Code("SESSION_INVALID_PRINCIPAL").Errorf("principal ID cannot be empty")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &SessionRow{
		ID:          ulid.Make(),
		PrincipalID: principalID,
		TokenHash:   tokenHash,
		CreatedAt:   createdAt.UTC(),
	}, nil
}

// SessionRepository manages session row persistence. Several rows may share
// a token hash; lookups and deletes act on all of them.
type SessionRepository interface {
	// Create stores a new session row.
	Create(ctx context.Context, row *SessionRow) error

	// FindByTokenHash returns all rows with the given token hash, oldest first.
	// An empty result is not an error.
	FindByTokenHash(ctx context.Context, tokenHash string) ([]*SessionRow, error)

	// DeleteByTokenHash removes all rows with the given token hash and
	// returns how many were removed. Zero is not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) (int64, error)
}
