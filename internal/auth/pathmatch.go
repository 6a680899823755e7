// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// RequiresAuth reports whether path needs authentication given a list of
// exemption patterns. A pattern ending in '*' matches by prefix; any other
// pattern must equal the path after it is normalized to a single trailing
// slash. An empty path or empty list always requires auth.
func RequiresAuth(path string, exemptions []string) bool {
	if path == "" || len(exemptions) == 0 {
		return true
	}
	normalized := normalizePath(path)
	for _, pattern := range exemptions {
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(normalized, prefix) {
				return false
			}
			continue
		}
		if normalized == pattern {
			return false
		}
	}
	return true
}

func normalizePath(path string) string {
	return strings.TrimRight(path, "/") + "/"
}

// PathMatcher is a precompiled exemption list with the same semantics as
// RequiresAuth. It is immutable and safe for concurrent use.
type PathMatcher struct {
	patterns []string
	globs    []glob.Glob
}

// NewPathMatcher compiles the exemption patterns. Characters other than a
// trailing '*' are matched literally. An empty pattern can never match a
// normalized path and is rejected.
func NewPathMatcher(exemptions []string) (*PathMatcher, error) {
	m := &PathMatcher{
		patterns: append([]string(nil), exemptions...),
		globs:    make([]glob.Glob, 0, len(exemptions)),
	}
	for i, pattern := range exemptions {
		if pattern == "" {
			return nil, oops.Code("PATH_PATTERN_INVALID").With("index", i).Errorf("exemption pattern is empty")
		}
		expr := glob.QuoteMeta(pattern)
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			expr = glob.QuoteMeta(prefix) + "*"
		}
		g, err := glob.Compile(expr)
		if err != nil {
			return nil, oops.Code("PATH_PATTERN_INVALID").With("pattern", pattern).Wrap(err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// MustPathMatcher is like NewPathMatcher but panics on error.
func MustPathMatcher(exemptions []string) *PathMatcher {
	m, err := NewPathMatcher(exemptions)
	if err != nil {
		panic(err)
	}
	return m
}

// Patterns returns a copy of the exemption list.
func (m *PathMatcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

// RequiresAuth reports whether path needs authentication.
func (m *PathMatcher) RequiresAuth(path string) bool {
	if m == nil || path == "" || len(m.globs) == 0 {
		return true
	}
	normalized := normalizePath(path)
	return !lo.SomeBy(m.globs, func(g glob.Glob) bool {
		return g.Match(normalized)
	})
}
