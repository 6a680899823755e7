// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authgate/internal/config"
	"github.com/holomush/authgate/internal/xdg"
	"github.com/holomush/authgate/pkg/errutil"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "authgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.HTTP.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "session", cfg.Auth.Type)
	assert.Equal(t, []string{"/api/v1/status/", "/api/v1/auth_session/login/"}, cfg.Auth.ExemptPaths)
	assert.Equal(t, "_my_session_id", cfg.Session.CookieName)
	assert.Zero(t, cfg.Session.TTL())
	assert.Equal(t, "session_id", cfg.Account.CookieName)
	assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, xdg.DefaultBoltPath(), cfg.Store.BoltPath)
	assert.False(t, cfg.NeedsDatabase())
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, `
http:
  addr: ":7000"
auth:
  type: basic
session:
  cookie_name: from_file
  duration: 60
log:
  format: text
`)

	t.Run("file overrides defaults", func(t *testing.T) {
		cfg, err := config.Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, ":7000", cfg.HTTP.Addr)
		assert.Equal(t, "basic", cfg.Auth.Type)
		assert.Equal(t, time.Minute, cfg.Session.TTL())
		assert.Equal(t, "text", cfg.Log.Format)
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("AUTHGATE_SESSION__COOKIE_NAME", "from_env")
		t.Setenv("AUTHGATE_AUTH__EXEMPT_PATHS", "/api/v1/status/, /api/v1/docs*")

		cfg, err := config.Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "from_env", cfg.Session.CookieName)
		assert.Equal(t, []string{"/api/v1/status/", "/api/v1/docs*"}, cfg.Auth.ExemptPaths)
		assert.Equal(t, ":7000", cfg.HTTP.Addr)
	})

	t.Run("flags override env", func(t *testing.T) {
		t.Setenv("AUTHGATE_SESSION__COOKIE_NAME", "from_env")

		cfg, err := config.Load(path, flags(t, "--session-cookie", "from_flag", "--session-ttl", "5"))
		require.NoError(t, err)
		assert.Equal(t, "from_flag", cfg.Session.CookieName)
		assert.Equal(t, 5*time.Second, cfg.Session.TTL())
	})

	t.Run("unset flags keep lower layers", func(t *testing.T) {
		cfg, err := config.Load(path, flags(t))
		require.NoError(t, err)
		assert.Equal(t, ":7000", cfg.HTTP.Addr)
		assert.Equal(t, "basic", cfg.Auth.Type)
	})
}

func TestLoad_DatabaseURLFallback(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/authgate")
	t.Setenv("AUTHGATE_STORE__DRIVER", "postgres")

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/authgate", cfg.Store.DatabaseURL)
	assert.True(t, cfg.NeedsDatabase())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_FILE_FAILED")
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			HTTP:    config.HTTPConfig{Addr: ":5000"},
			Log:     config.LogConfig{Format: "json", Level: "info"},
			Auth:    config.AuthConfig{Type: "session_db", ExemptPaths: []string{"/api/v1/status/"}},
			Account: config.AccountConfig{CookieName: "session_id"},
			Store:   config.StoreConfig{Driver: "memory", SessionBackend: "memory"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		key    string
	}{
		{"empty http addr", func(c *config.Config) { c.HTTP.Addr = "" }, "http.addr"},
		{"unknown log format", func(c *config.Config) { c.Log.Format = "xml" }, "log.format"},
		{"unknown log level", func(c *config.Config) { c.Log.Level = "loud" }, "log.level"},
		{"unknown auth type", func(c *config.Config) { c.Auth.Type = "oauth" }, "auth.type"},
		{"empty exempt path", func(c *config.Config) { c.Auth.ExemptPaths = []string{""} }, "auth.exempt_paths"},
		{"empty account cookie", func(c *config.Config) { c.Account.CookieName = "" }, "account.cookie_name"},
		{"unknown driver", func(c *config.Config) { c.Store.Driver = "mysql" }, "store.driver"},
		{"unknown session backend", func(c *config.Config) { c.Store.SessionBackend = "redis" }, "store.session_backend"},
		{"postgres without url", func(c *config.Config) { c.Store.Driver = "postgres" }, "store.database_url"},
		{"bolt without path", func(c *config.Config) { c.Store.SessionBackend = "bolt" }, "store.bolt_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			errutil.AssertErrorContext(t, err, "key", tt.key)
		})
	}

	t.Run("valid", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
	})
}
