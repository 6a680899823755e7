// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package strategy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authgate/internal/auth"
	"github.com/holomush/authgate/internal/auth/strategy"
)

func TestNone(t *testing.T) {
	s := strategy.None{}
	assert.Equal(t, "none", s.Name())
	assert.True(t, s.RequiresAuth("/status", []string{"/status/"}))
	assert.True(t, s.RequiresAuth("", nil))
	assert.True(t, s.RequiresAuthMatch("/status", auth.MustPathMatcher([]string{"/status/"})))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := s.Credential(r)
	assert.False(t, ok)
	_, ok = s.Credential(nil)
	assert.False(t, ok)

	r.Header.Set("Authorization", "Basic abc")
	v, ok := s.Credential(r)
	assert.True(t, ok)
	assert.Equal(t, "Basic abc", v)

	p, err := s.CurrentPrincipal(context.Background(), r)
	require.NoError(t, err)
	assert.Nil(t, p)
}
