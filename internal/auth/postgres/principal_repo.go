// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authgate/internal/auth"
)

const principalColumns = `id, email, password_hash, session_token_hash, reset_token_hash, created_at, updated_at`

// PrincipalRepository implements auth.PrincipalRepository using PostgreSQL.
type PrincipalRepository struct {
	pool Querier
}

// NewPrincipalRepository creates a new PrincipalRepository.
func NewPrincipalRepository(pool Querier) *PrincipalRepository {
	return &PrincipalRepository{pool: pool}
}

// Create stores a new principal. A duplicate email yields ErrAlreadyExists.
func (r *PrincipalRepository) Create(ctx context.Context, p *auth.Principal) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO principals (`+principalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		p.ID.String(),
		p.Email,
		p.PasswordHash,
		p.SessionTokenHash,
		p.ResetTokenHash,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("PRINCIPAL_EXISTS").
				With("principal_id", p.ID.String()).
				Wrap(auth.ErrAlreadyExists)
		}
		return oops.Code("PRINCIPAL_CREATE_FAILED").
			With("operation", "insert principal").
			With("principal_id", p.ID.String()).
			Wrap(err)
	}
	return nil
}

// FindBy returns the oldest principal matching every set field of filter.
func (r *PrincipalRepository) FindBy(ctx context.Context, filter auth.PrincipalFilter) (*auth.Principal, error) {
	where, args := filterClause(filter)
	if len(args) == 0 {
		return nil, oops.Code("PRINCIPAL_INVALID_FILTER").Errorf("filter has no fields set")
	}

	row := r.pool.QueryRow(ctx, `
		SELECT `+principalColumns+`
		FROM principals
		WHERE `+where+`
		ORDER BY created_at
		LIMIT 1
	`, args...)

	p, err := scanPrincipal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PRINCIPAL_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PRINCIPAL_FIND_FAILED").
			With("operation", "find principal").
			Wrap(err)
	}
	return p, nil
}

// Update applies changes to the principal and bumps updated_at.
func (r *PrincipalRepository) Update(ctx context.Context, id ulid.ULID, changes ...auth.Change) error {
	if err := auth.Apply(&auth.Principal{}, changes...); err != nil {
		return err
	}

	set, args := setClause(changes)
	args = append(args, time.Now().UTC(), id.String())
	query := fmt.Sprintf(`UPDATE principals SET %supdated_at = $%d WHERE id = $%d`, set, len(args)-1, len(args))

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return oops.Code("PRINCIPAL_UPDATE_FAILED").
			With("operation", "update principal").
			With("principal_id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PRINCIPAL_NOT_FOUND").
			With("principal_id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// filterClause builds a WHERE expression in fixed column order.
func filterClause(f auth.PrincipalFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("id", f.ID)
	add("email", f.Email)
	add("session_token_hash", f.SessionTokenHash)
	add("reset_token_hash", f.ResetTokenHash)
	return strings.Join(conds, " AND "), args
}

// setClause builds "col = $n, " fragments. A later change to the same field
// replaces an earlier one.
func setClause(changes []auth.Change) (string, []any) {
	var (
		fields []auth.Field
		values = make(map[auth.Field]*string)
	)
	for _, c := range changes {
		if _, seen := values[c.Field]; !seen {
			fields = append(fields, c.Field)
		}
		values[c.Field] = c.Value
	}

	var (
		b    strings.Builder
		args []any
	)
	for _, f := range fields {
		args = append(args, values[f])
		fmt.Fprintf(&b, "%s = $%d, ", f, len(args))
	}
	return b.String(), args
}

func scanPrincipal(row pgx.Row) (*auth.Principal, error) {
	var (
		p     auth.Principal
		idStr string
	)
	err := row.Scan(&idStr, &p.Email, &p.PasswordHash, &p.SessionTokenHash, &p.ResetTokenHash, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.Code("PRINCIPAL_SCAN_FAILED").With("operation", "scan principal").Wrap(err)
	}
	p.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("PRINCIPAL_SCAN_FAILED").
			With("operation", "parse principal id").
			With("id", idStr).
			Wrap(err)
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

var _ auth.PrincipalRepository = (*PrincipalRepository)(nil)
