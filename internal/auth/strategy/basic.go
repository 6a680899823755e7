// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package strategy

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/samber/oops"

	"github.com/holomush/authgate/internal/auth"
)

const basicPrefix = "Basic "

// Basic authenticates requests carrying an HTTP Basic Authorization header.
type Basic struct {
	principals auth.PrincipalRepository
	hasher     auth.PasswordHasher
}

// NewBasic creates a Basic strategy.
func NewBasic(principals auth.PrincipalRepository, hasher auth.PasswordHasher) (*Basic, error) {
	if principals == nil {
		return nil, oops.Errorf("principal repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	return &Basic{principals: principals, hasher: hasher}, nil
}

// Name implements Strategy.
func (b *Basic) Name() string { return TypeBasic }

// RequiresAuth implements Strategy.
func (b *Basic) RequiresAuth(path string, exemptions []string) bool {
	return auth.RequiresAuth(path, exemptions)
}

// RequiresAuthMatch implements Strategy.
func (b *Basic) RequiresAuthMatch(path string, exemptions *auth.PathMatcher) bool {
	return exemptions.RequiresAuth(path)
}

// Credential returns the Authorization header.
func (b *Basic) Credential(r *http.Request) (string, bool) {
	return authorizationHeader(r)
}

// CurrentPrincipal decodes the Basic header and verifies the password.
func (b *Basic) CurrentPrincipal(ctx context.Context, r *http.Request) (*auth.Principal, error) {
	header, ok := b.Credential(r)
	if !ok {
		return nil, nil
	}
	email, password, ok := DecodeBasic(header)
	if !ok {
		return nil, nil
	}
	return b.PrincipalFromCredentials(ctx, email, password)
}

// PrincipalFromCredentials returns the principal whose email and password
// match, or nil.
func (b *Basic) PrincipalFromCredentials(ctx context.Context, email, password string) (*auth.Principal, error) {
	principal, err := auth.FindByEmail(ctx, b.principals, email)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			auth.DummyVerify(b.hasher, password)
			return nil, nil
		}
		return nil, oops.Code("STRATEGY_LOOKUP_FAILED").
			With("strategy", TypeBasic).
			With("operation", "find principal by email").
			Wrap(err)
	}
	if !b.hasher.Verify(password, principal.PasswordHash) {
		return nil, nil
	}
	return principal, nil
}

// DecodeBasic extracts email and password from an Authorization header
// value. The scheme must be exactly "Basic " and the decoded payload is
// split at its first colon, so the password may contain colons and the
// email may not.
func DecodeBasic(header string) (email, password string, ok bool) {
	encoded, found := strings.CutPrefix(header, basicPrefix)
	if !found {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", false
	}
	email, password, found = strings.Cut(string(decoded), ":")
	if !found {
		return "", "", false
	}
	return email, password, true
}

var _ Strategy = (*Basic)(nil)
