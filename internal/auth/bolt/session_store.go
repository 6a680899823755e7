// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package bolt stores session rows in an embedded bbolt file, for single
// node deployments that want sessions to survive restarts without
// PostgreSQL.
package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.etcd.io/bbolt"

	"github.com/holomush/authgate/internal/auth"
)

var sessionsBucket = []byte("user_sessions")

// record is the stored form of a session row.
type record struct {
	ID          string    `json:"id"`
	PrincipalID string    `json:"principal_id"`
	TokenHash   string    `json:"token_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionStore implements auth.SessionRepository on bbolt. Keys are
// "<token hash>:<row id>" so all rows for a token share a prefix and sort
// by creation.
type SessionStore struct {
	db *bbolt.DB
}

// NewSessionStore wraps an open database and ensures the bucket exists.
func NewSessionStore(db *bbolt.DB) (*SessionStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		return nil, oops.Code("BOLT_INIT_FAILED").With("operation", "create bucket").Wrap(err)
	}
	return &SessionStore{db: db}, nil
}

// Open opens or creates the database file at path.
func Open(path string) (*SessionStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, oops.Code("BOLT_OPEN_FAILED").With("path", path).Wrap(err)
	}
	s, err := NewSessionStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *SessionStore) Close() error {
	if err := s.db.Close(); err != nil {
		return oops.Code("BOLT_CLOSE_FAILED").Wrap(err)
	}
	return nil
}

func rowKey(tokenHash string, id ulid.ULID) []byte {
	return []byte(tokenHash + ":" + id.String())
}

func tokenPrefix(tokenHash string) []byte {
	return []byte(tokenHash + ":")
}

// Create stores a new session row.
func (s *SessionStore) Create(_ context.Context, row *auth.SessionRow) error {
	data, err := json.Marshal(record{
		ID:          row.ID.String(),
		PrincipalID: row.PrincipalID,
		TokenHash:   row.TokenHash,
		CreatedAt:   row.CreatedAt,
	})
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").With("operation", "encode session row").Wrap(err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put(rowKey(row.TokenHash, row.ID), data)
	})
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "put session row").
			With("principal_id", row.PrincipalID).
			Wrap(err)
	}
	return nil
}

// FindByTokenHash returns every row for the token hash, oldest first.
func (s *SessionStore) FindByTokenHash(_ context.Context, tokenHash string) ([]*auth.SessionRow, error) {
	var rows []*auth.SessionRow
	prefix := tokenPrefix(tokenHash)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(sessionsBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			row, err := decode(v)
			if err != nil {
				return oops.With("key", string(k)).Wrap(err)
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, oops.Code("SESSION_FIND_FAILED").With("operation", "scan session rows").Wrap(err)
	}
	return rows, nil
}

// DeleteByTokenHash removes every row for the token hash.
func (s *SessionStore) DeleteByTokenHash(_ context.Context, tokenHash string) (int64, error) {
	var removed int64
	prefix := tokenPrefix(tokenHash)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, bytes.Clone(k))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_FAILED").With("operation", "delete session rows").Wrap(err)
	}
	return removed, nil
}

func decode(data []byte) (*auth.SessionRow, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	id, err := ulid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	return &auth.SessionRow{ID: id, PrincipalID: r.PrincipalID, TokenHash: r.TokenHash, CreatedAt: r.CreatedAt}, nil
}

var _ auth.SessionRepository = (*SessionStore)(nil)
