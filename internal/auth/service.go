// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// Service manages the account lifecycle: registration, login, a single
// stored session token per principal, and password resets.
type Service struct {
	principals PrincipalRepository
	hasher     PasswordHasher
	logger     *slog.Logger
}

// NewAuthService creates a new Service with a no-op logger.
// Returns an error if any required dependency is nil.
func NewAuthService(principals PrincipalRepository, hasher PasswordHasher) (*Service, error) {
	return NewAuthServiceWithLogger(principals, hasher, slog.New(slog.DiscardHandler))
}

// NewAuthServiceWithLogger creates a new Service with the provided logger.
// Returns an error if any required dependency is nil.
func NewAuthServiceWithLogger(principals PrincipalRepository, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if principals == nil {
		return nil, oops.Errorf("principal repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Service{principals: principals, hasher: hasher, logger: logger}, nil
}

// dummyPasswordHash is verified against when the email is unknown so that
// both failure paths cost the same. It never matches any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// DummyVerify runs a verification that always fails. Callers use it on the
// unknown-user path to keep timing uniform.
func DummyVerify(hasher PasswordHasher, password string) {
	_ = hasher.Verify(password, dummyPasswordHash)
}

// FindByEmail looks up a principal by email. An empty email matches nobody
// and yields ErrNotFound without reaching the store.
func FindByEmail(ctx context.Context, principals PrincipalRepository, email string) (*Principal, error) {
	if email == "" {
		return nil, oops.Code("PRINCIPAL_NOT_FOUND").Wrap(ErrNotFound)
	}
	return principals.FindBy(ctx, PrincipalFilter{Email: email})
}

// Register creates a principal. Returns ErrAlreadyExists if the email is taken.
func (s *Service) Register(ctx context.Context, email, password string) (*Principal, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	_, err := s.principals.FindBy(ctx, PrincipalFilter{Email: email})
	switch {
	case err == nil:
		return nil, oops.Code("AUTH_ALREADY_EXISTS").With("email", email).Wrap(ErrAlreadyExists)
	case !errors.Is(err, ErrNotFound):
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "find principal by email").Wrap(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	principal, err := NewPrincipal(email, hash)
	if err != nil {
		return nil, err
	}

	if err := s.principals.Create(ctx, principal); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, oops.Code("AUTH_ALREADY_EXISTS").With("email", email).Wrap(ErrAlreadyExists)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "create principal").Wrap(err)
	}

	s.logger.InfoContext(ctx, "principal registered", "principal_id", principal.ID.String())
	return principal, nil
}

// ValidateLogin reports whether the email exists and the password matches.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) ValidateLogin(ctx context.Context, email, password string) (bool, error) {
	principal, err := FindByEmail(ctx, s.principals, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			DummyVerify(s.hasher, password)
			return false, nil
		}
		return false, oops.Code("AUTH_LOGIN_FAILED").With("operation", "find principal by email").Wrap(err)
	}

	if !s.hasher.Verify(password, principal.PasswordHash) {
		return false, nil
	}

	if s.hasher.NeedsUpgrade(principal.PasswordHash) {
		s.upgradeHash(ctx, principal, password)
	}
	return true, nil
}

// upgradeHash re-hashes a legacy password. Login succeeds regardless.
func (s *Service) upgradeHash(ctx context.Context, principal *Principal, password string) {
	newHash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.principals.Update(ctx, principal.ID, SetPasswordHash(newHash))
	}
	if err != nil {
		s.logger.WarnContext(ctx, "password hash upgrade failed",
			"principal_id", principal.ID.String(), "error", err)
	}
}

// CreateSession mints a session token for the principal with the given email
// and stores its hash, replacing any previous session. Returns "" with no
// error when the email is unknown.
func (s *Service) CreateSession(ctx context.Context, email string) (string, error) {
	principal, err := FindByEmail(ctx, s.principals, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", oops.Code("AUTH_SESSION_CREATE_FAILED").With("operation", "find principal by email").Wrap(err)
	}

	token, err := GenerateToken()
	if err != nil {
		return "", oops.Code("AUTH_SESSION_CREATE_FAILED").With("operation", "generate token").Wrap(err)
	}

	if err := s.principals.Update(ctx, principal.ID, SetSessionToken(HashToken(token))); err != nil {
		return "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "store session token").
			With("principal_id", principal.ID.String()).
			Wrap(err)
	}
	return token, nil
}

// PrincipalFromSession returns the principal holding the session token, or
// nil when no principal holds it.
func (s *Service) PrincipalFromSession(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, nil
	}
	principal, err := s.principals.FindBy(ctx, PrincipalFilter{SessionTokenHash: HashToken(token)})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").With("operation", "find principal by session").Wrap(err)
	}
	return principal, nil
}

// DestroySession clears the stored session token. Unknown principals are a
// no-op.
func (s *Service) DestroySession(ctx context.Context, principalID string) error {
	if principalID == "" {
		return nil
	}
	principal, err := s.principals.FindBy(ctx, PrincipalFilter{ID: principalID})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("AUTH_LOGOUT_FAILED").With("operation", "find principal by id").Wrap(err)
	}
	if err := s.principals.Update(ctx, principal.ID, ClearSessionToken()); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "clear session token").
			With("principal_id", principalID).
			Wrap(err)
	}
	return nil
}

// IssueResetToken mints a password reset token for the email, overwriting
// any pending one. Returns ErrNotFound if the email is unknown.
func (s *Service) IssueResetToken(ctx context.Context, email string) (string, error) {
	principal, err := FindByEmail(ctx, s.principals, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", oops.Code("AUTH_NOT_FOUND").With("email", email).Wrap(ErrNotFound)
		}
		return "", oops.Code("AUTH_RESET_FAILED").With("operation", "find principal by email").Wrap(err)
	}

	token, err := GenerateToken()
	if err != nil {
		return "", oops.Code("AUTH_RESET_FAILED").With("operation", "generate token").Wrap(err)
	}

	if err := s.principals.Update(ctx, principal.ID, SetResetToken(HashToken(token))); err != nil {
		return "", oops.Code("AUTH_RESET_FAILED").
			With("operation", "store reset token").
			With("principal_id", principal.ID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "reset token issued", "principal_id", principal.ID.String())
	return token, nil
}

// ConsumeResetToken sets a new password for the holder of the reset token
// and clears the token. It returns the principal as stored after the
// update, or ErrNotFound if no principal holds the token.
func (s *Service) ConsumeResetToken(ctx context.Context, token, newPassword string) (*Principal, error) {
	if token == "" {
		return nil, oops.Code("AUTH_NOT_FOUND").Wrap(ErrNotFound)
	}

	principal, err := s.principals.FindBy(ctx, PrincipalFilter{ResetTokenHash: HashToken(token)})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("AUTH_NOT_FOUND").Wrap(ErrNotFound)
		}
		return nil, oops.Code("AUTH_RESET_FAILED").With("operation", "find principal by reset token").Wrap(err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, oops.Code("AUTH_RESET_FAILED").With("operation", "hash password").Wrap(err)
	}

	if err := s.principals.Update(ctx, principal.ID, SetPasswordHash(hash), ClearResetToken()); err != nil {
		return nil, oops.Code("AUTH_RESET_FAILED").
			With("operation", "update password").
			With("principal_id", principal.ID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "password reset", "principal_id", principal.ID.String())

	updated, err := s.principals.FindBy(ctx, PrincipalFilter{ID: principal.ID.String()})
	if err != nil {
		return nil, oops.Code("AUTH_RESET_FAILED").
			With("operation", "reload principal").
			With("principal_id", principal.ID.String()).
			Wrap(err)
	}
	return updated, nil
}
