// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package memory

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authgate/internal/auth"
)

// PrincipalStore is an in-memory auth.PrincipalRepository.
type PrincipalStore struct {
	mu         sync.RWMutex
	principals map[ulid.ULID]*auth.Principal
}

// NewPrincipalStore creates an empty store.
func NewPrincipalStore() *PrincipalStore {
	return &PrincipalStore{principals: make(map[ulid.ULID]*auth.Principal)}
}

// Create stores a copy of p.
func (s *PrincipalStore) Create(_ context.Context, p *auth.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.principals {
		if existing.Email == p.Email {
			return oops.Code("PRINCIPAL_CREATE_FAILED").
				With("operation", "create principal").
				With("email", p.Email).
				Wrap(auth.ErrAlreadyExists)
		}
	}
	if _, ok := s.principals[p.ID]; ok {
		return oops.Code("PRINCIPAL_CREATE_FAILED").
			With("operation", "create principal").
			With("principal_id", p.ID.String()).
			Wrap(auth.ErrAlreadyExists)
	}
	s.principals[p.ID] = clonePrincipal(p)
	return nil
}

// FindBy returns a copy of the principal matching filter.
func (s *PrincipalStore) FindBy(_ context.Context, filter auth.PrincipalFilter) (*auth.Principal, error) {
	if filter.IsEmpty() {
		return nil, oops.Code("PRINCIPAL_INVALID_FILTER").Errorf("filter has no fields set")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.principals {
		if filter.Matches(p) {
			return clonePrincipal(p), nil
		}
	}
	return nil, oops.Code("PRINCIPAL_NOT_FOUND").With("operation", "find principal").Wrap(auth.ErrNotFound)
}

// Update applies changes to the stored principal.
func (s *PrincipalStore) Update(_ context.Context, id ulid.ULID, changes ...auth.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.principals[id]
	if !ok {
		return oops.Code("PRINCIPAL_NOT_FOUND").
			With("operation", "update principal").
			With("principal_id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	updated := clonePrincipal(p)
	if err := auth.Apply(updated, changes...); err != nil {
		return err
	}
	s.principals[id] = updated
	return nil
}

// Len returns the number of stored principals.
func (s *PrincipalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.principals)
}

func clonePrincipal(p *auth.Principal) *auth.Principal {
	c := *p
	if p.SessionTokenHash != nil {
		v := *p.SessionTokenHash
		c.SessionTokenHash = &v
	}
	if p.ResetTokenHash != nil {
		v := *p.ResetTokenHash
		c.ResetTokenHash = &v
	}
	return &c
}

var _ auth.PrincipalRepository = (*PrincipalStore)(nil)
