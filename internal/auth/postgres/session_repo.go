// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authgate/internal/auth"
)

// SessionRepository implements auth.SessionRepository using PostgreSQL.
type SessionRepository struct {
	pool Querier
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool Querier) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create stores a new session row.
func (r *SessionRepository) Create(ctx context.Context, row *auth.SessionRow) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_sessions (id, principal_id, token_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, row.ID.String(), row.PrincipalID, row.TokenHash, row.CreatedAt)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert user_session").
			With("principal_id", row.PrincipalID).
			Wrap(err)
	}
	return nil
}

// FindByTokenHash returns every row for the token hash, oldest first.
func (r *SessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) ([]*auth.SessionRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, principal_id, token_hash, created_at
		FROM user_sessions
		WHERE token_hash = $1
		ORDER BY created_at, id
	`, tokenHash)
	if err != nil {
		return nil, oops.Code("SESSION_FIND_FAILED").
			With("operation", "find user_sessions by token hash").
			Wrap(err)
	}
	defer rows.Close()

	var result []*auth.SessionRow
	for rows.Next() {
		var (
			s     auth.SessionRow
			idStr string
		)
		if err := rows.Scan(&idStr, &s.PrincipalID, &s.TokenHash, &s.CreatedAt); err != nil {
			return nil, oops.Code("SESSION_SCAN_FAILED").
				With("operation", "scan user_session").
				Wrap(err)
		}
		if s.ID, err = ulid.Parse(idStr); err != nil {
			return nil, oops.Code("SESSION_SCAN_FAILED").
				With("operation", "parse session id").
				With("id", idStr).
				Wrap(err)
		}
		result = append(result, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("SESSION_ROWS_ERROR").
			With("operation", "iterate user_sessions").
			Wrap(err)
	}
	return result, nil
}

// DeleteByTokenHash removes every row for the token hash. Zero rows is not
// an error.
func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM user_sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete user_sessions by token hash").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

var _ auth.SessionRepository = (*SessionRepository)(nil)
