// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package logging

import (
	"log/slog"
	"strings"

	"github.com/samber/lo"
)

// Redacted replaces the value of every redacted attribute.
const Redacted = "***"

// DefaultRedactKeys are attribute names treated as personal data or secrets.
var DefaultRedactKeys = []string{
	"name", "email", "phone", "ssn", "password",
	"token", "session_id", "reset_token",
}

// Redactor returns a slog ReplaceAttr func that masks attributes whose key
// matches one of keys, ignoring case. Values that are map[string]any, such as
// the oops context logged by errutil, are masked one level deep.
func Redactor(keys []string) func(groups []string, a slog.Attr) slog.Attr {
	set := lo.SliceToMap(keys, func(k string) (string, struct{}) {
		return strings.ToLower(k), struct{}{}
	})
	redacted := func(key string) bool {
		_, ok := set[strings.ToLower(key)]
		return ok
	}

	return func(_ []string, a slog.Attr) slog.Attr {
		if redacted(a.Key) {
			return slog.String(a.Key, Redacted)
		}
		if a.Value.Kind() != slog.KindAny {
			return a
		}
		m, ok := a.Value.Any().(map[string]any)
		if !ok {
			return a
		}
		if !lo.SomeBy(lo.Keys(m), redacted) {
			return a
		}
		masked := lo.MapEntries(m, func(k string, v any) (string, any) {
			if redacted(k) {
				return k, Redacted
			}
			return k, v
		})
		return slog.Any(a.Key, masked)
	}
}
