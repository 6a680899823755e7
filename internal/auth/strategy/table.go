// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package strategy

import (
	"sync"
	"time"
)

// SessionEntry binds a session token to a principal.
type SessionEntry struct {
	PrincipalID string
	CreatedAt   time.Time
}

// SessionTable maps plaintext session tokens to entries. It is safe for
// concurrent use. Entries are never mutated in place.
type SessionTable struct {
	mu      sync.RWMutex
	entries map[string]SessionEntry
}

// NewSessionTable creates an empty table.
func NewSessionTable() *SessionTable {
	return &SessionTable{entries: make(map[string]SessionEntry)}
}

// Get returns the entry for token.
func (t *SessionTable) Get(token string) (SessionEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[token]
	return e, ok
}

// Put stores an entry, replacing any previous one for the token.
func (t *SessionTable) Put(token string, entry SessionEntry) {
	t.mu.Lock()
	t.entries[token] = entry
	t.mu.Unlock()
}

// PutIfAbsent stores an entry unless the token is already present.
func (t *SessionTable) PutIfAbsent(token string, entry SessionEntry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[token]; ok {
		return false
	}
	t.entries[token] = entry
	return true
}

// Delete removes the entry for token and reports whether one existed.
func (t *SessionTable) Delete(token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[token]; !ok {
		return false
	}
	delete(t.entries, token)
	return true
}

// Len returns the number of entries, expired ones included.
func (t *SessionTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
