// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"github.com/samber/lo"
	"github.com/samber/oops"

	"github.com/holomush/authgate/internal/auth"
	"github.com/holomush/authgate/internal/auth/strategy"
	"github.com/holomush/authgate/internal/logging"
)

var (
	logFormats      = []string{"json", "text"}
	storeDrivers    = []string{DriverMemory, DriverPostgres}
	sessionBackends = []string{DriverMemory, DriverPostgres, BackendBolt}
)

func invalid(key string, value any, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).With("value", value).Errorf(format, args...)
}

// Validate rejects unknown enum values and missing dependent settings.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return invalid("http.addr", c.HTTP.Addr, "http.addr is required")
	}
	if !lo.Contains(logFormats, c.Log.Format) {
		return invalid("log.format", c.Log.Format, "log.format must be one of %v", logFormats)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", c.Log.Level, "log.level must be debug, info, warn or error")
	}
	if !lo.Contains(strategy.Types, c.Auth.Type) {
		return invalid("auth.type", c.Auth.Type, "auth.type must be one of %v", strategy.Types)
	}
	if _, err := auth.NewPathMatcher(c.Auth.ExemptPaths); err != nil {
		return invalid("auth.exempt_paths", c.Auth.ExemptPaths, "auth.exempt_paths: %v", err)
	}
	if c.Account.CookieName == "" {
		return invalid("account.cookie_name", c.Account.CookieName, "account.cookie_name is required")
	}
	if !lo.Contains(storeDrivers, c.Store.Driver) {
		return invalid("store.driver", c.Store.Driver, "store.driver must be one of %v", storeDrivers)
	}
	if !lo.Contains(sessionBackends, c.Store.SessionBackend) {
		return invalid("store.session_backend", c.Store.SessionBackend, "store.session_backend must be one of %v", sessionBackends)
	}
	if c.NeedsDatabase() && c.Store.DatabaseURL == "" {
		return invalid("store.database_url", "", "store.database_url or DATABASE_URL is required for the postgres store")
	}
	if c.Store.SessionBackend == BackendBolt && c.Store.BoltPath == "" {
		return invalid("store.bolt_path", "", "store.bolt_path is required for the bolt session backend")
	}
	return nil
}

// NeedsDatabase reports whether any configured store uses PostgreSQL.
func (c *Config) NeedsDatabase() bool {
	return c.Store.Driver == DriverPostgres || c.Store.SessionBackend == DriverPostgres
}
