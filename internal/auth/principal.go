// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Principal is an account that can authenticate.
type Principal struct {
	ID               ulid.ULID
	Email            string
	PasswordHash     string
	SessionTokenHash *string // nil when logged out
	ResetTokenHash   *string // nil when no reset is pending
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewPrincipal creates a principal with a fresh identifier.
func NewPrincipal(email, passwordHash string) (*Principal, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("PRINCIPAL_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now().UTC()
	return &Principal{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateEmail rejects empty or syntactically invalid addresses.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return oops.Code("PRINCIPAL_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return oops.Code("PRINCIPAL_INVALID_EMAIL").With("email", email).Wrap(err)
	}
	return nil
}

// PrincipalFilter selects a principal. Empty fields are ignored; at least one
// field must be set. Token fields hold hashes, never plaintext tokens.
type PrincipalFilter struct {
	ID               string
	Email            string
	SessionTokenHash string
	ResetTokenHash   string
}

// IsEmpty reports whether no field is set.
func (f PrincipalFilter) IsEmpty() bool {
	return f.ID == "" && f.Email == "" && f.SessionTokenHash == "" && f.ResetTokenHash == ""
}

// Matches reports whether p satisfies every set field of the filter.
func (f PrincipalFilter) Matches(p *Principal) bool {
	if f.IsEmpty() || p == nil {
		return false
	}
	if f.ID != "" && p.ID.String() != f.ID {
		return false
	}
	if f.Email != "" && p.Email != f.Email {
		return false
	}
	if f.SessionTokenHash != "" && (p.SessionTokenHash == nil || *p.SessionTokenHash != f.SessionTokenHash) {
		return false
	}
	if f.ResetTokenHash != "" && (p.ResetTokenHash == nil || *p.ResetTokenHash != f.ResetTokenHash) {
		return false
	}
	return true
}

// Field names a mutable principal column.
type Field string

// Mutable principal fields.
const (
	FieldPasswordHash     Field = "password_hash"
	FieldSessionTokenHash Field = "session_token_hash"
	FieldResetTokenHash   Field = "reset_token_hash"
)

// Change sets one field. A nil Value clears a nullable field.
type Change struct {
	Field Field
	Value *string
}

// SetPasswordHash replaces the stored password hash.
func SetPasswordHash(hash string) Change {
	return Change{Field: FieldPasswordHash, Value: &hash}
}

// SetSessionToken stores the hash of a session token.
func SetSessionToken(tokenHash string) Change {
	return Change{Field: FieldSessionTokenHash, Value: &tokenHash}
}

// ClearSessionToken removes the stored session token.
func ClearSessionToken() Change {
	return Change{Field: FieldSessionTokenHash}
}

// SetResetToken stores the hash of a reset token.
func SetResetToken(tokenHash string) Change {
	return Change{Field: FieldResetTokenHash, Value: &tokenHash}
}

// ClearResetToken removes the stored reset token.
func ClearResetToken() Change {
	return Change{Field: FieldResetTokenHash}
}

// Apply mutates p in place. Unknown fields and a nil password hash are
// rejected before any field is touched.
func Apply(p *Principal, changes ...Change) error {
	for _, c := range changes {
		switch c.Field {
		case FieldPasswordHash:
			if c.Value == nil || *c.Value == "" {
				return oops.Code("PRINCIPAL_INVALID_CHANGE").Errorf("password hash cannot be cleared")
			}
		case FieldSessionTokenHash, FieldResetTokenHash:
		default:
			return oops.Code("PRINCIPAL_INVALID_CHANGE").With("field", string(c.Field)).Errorf("unknown field")
		}
	}

	for _, c := range changes {
		switch c.Field {
		case FieldPasswordHash:
			p.PasswordHash = *c.Value
		case FieldSessionTokenHash:
			p.SessionTokenHash = cloneString(c.Value)
		case FieldResetTokenHash:
			p.ResetTokenHash = cloneString(c.Value)
		}
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// PrincipalRepository manages principal persistence.
type PrincipalRepository interface {
	// Create stores a new principal.
	// Returns ErrAlreadyExists if the email is taken.
	Create(ctx context.Context, p *Principal) error

	// FindBy returns the single principal matching the filter.
	// Returns ErrNotFound if nothing matches.
	FindBy(ctx context.Context, filter PrincipalFilter) (*Principal, error)

	// Update applies changes to the principal with the given ID.
	// Returns ErrNotFound if the principal does not exist.
	Update(ctx context.Context, id ulid.ULID, changes ...Change) error
}
