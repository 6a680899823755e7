// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package memory

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/holomush/authgate/internal/auth"
)

// SessionStore is an in-memory auth.SessionRepository.
type SessionStore struct {
	mu   sync.RWMutex
	rows []*auth.SessionRow
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Create appends a copy of row.
func (s *SessionStore) Create(_ context.Context, row *auth.SessionRow) error {
	c := *row
	s.mu.Lock()
	s.rows = append(s.rows, &c)
	s.mu.Unlock()
	return nil
}

// FindByTokenHash returns copies of all rows with the token hash in
// insertion order.
func (s *SessionStore) FindByTokenHash(_ context.Context, tokenHash string) ([]*auth.SessionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.FilterMap(s.rows, func(r *auth.SessionRow, _ int) (*auth.SessionRow, bool) {
		if r.TokenHash != tokenHash {
			return nil, false
		}
		c := *r
		return &c, true
	}), nil
}

// DeleteByTokenHash removes all rows with the token hash.
func (s *SessionStore) DeleteByTokenHash(_ context.Context, tokenHash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := lo.Reject(s.rows, func(r *auth.SessionRow, _ int) bool {
		return r.TokenHash == tokenHash
	})
	removed := int64(len(s.rows) - len(kept))
	s.rows = kept
	return removed, nil
}

var _ auth.SessionRepository = (*SessionStore)(nil)
