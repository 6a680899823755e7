// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package strategy

import (
	"context"
	"net/http"

	"github.com/holomush/authgate/internal/auth"
)

// None requires authentication everywhere and authenticates nobody.
type None struct{}

// Name implements Strategy.
func (None) Name() string { return TypeNone }

// RequiresAuth always returns true, ignoring exemptions.
func (None) RequiresAuth(string, []string) bool { return true }

// RequiresAuthMatch always returns true, ignoring exemptions.
func (None) RequiresAuthMatch(string, *auth.PathMatcher) bool { return true }

// Credential returns the Authorization header.
func (None) Credential(r *http.Request) (string, bool) {
	return authorizationHeader(r)
}

// CurrentPrincipal always returns nil.
func (None) CurrentPrincipal(context.Context, *http.Request) (*auth.Principal, error) {
	return nil, nil
}

func authorizationHeader(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	v := r.Header.Get("Authorization")
	return v, v != ""
}

var _ Strategy = None{}
