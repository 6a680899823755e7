// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads authgate settings from defaults, an optional YAML
// file, AUTHGATE_* environment variables and command-line flags, in that
// order of precedence.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/authgate/internal/xdg"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: AUTHGATE_SESSION__COOKIE_NAME sets
// session.cookie_name.
const EnvPrefix = "AUTHGATE_"

// Store drivers and session backends.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	BackendBolt    = "bolt"
)

// Config is the full process configuration.
type Config struct {
	HTTP    HTTPConfig    `koanf:"http"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
	Auth    AuthConfig    `koanf:"auth"`
	Session SessionConfig `koanf:"session"`
	Account AccountConfig `koanf:"account"`
	Store   StoreConfig   `koanf:"store"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// MetricsConfig configures the observability listener. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// AuthConfig selects the strategy guarding /api/v1.
type AuthConfig struct {
	Type        string   `koanf:"type"`
	ExemptPaths []string `koanf:"exempt_paths"`
}

// SessionConfig configures the session strategies.
type SessionConfig struct {
	CookieName string `koanf:"cookie_name"`
	// Duration is the session lifetime in seconds. Zero or less never expires.
	Duration int `koanf:"duration"`
}

// TTL returns Duration as a time.Duration.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.Duration) * time.Second
}

// AccountConfig configures the account service routes.
type AccountConfig struct {
	CookieName string `koanf:"cookie_name"`
}

// StoreConfig selects storage backends.
type StoreConfig struct {
	Driver         string `koanf:"driver"`
	DatabaseURL    string `koanf:"database_url"`
	SessionBackend string `koanf:"session_backend"`
	BoltPath       string `koanf:"bolt_path"`
	// AutoMigrate applies pending schema migrations before serving.
	AutoMigrate    bool   `koanf:"auto_migrate"`
}

var defaults = map[string]any{
	"http.addr":             ":5000",
	"metrics.addr":          "127.0.0.1:9100",
	"log.format":            "json",
	"log.level":             "info",
	"auth.type":             "session",
	"auth.exempt_paths":     []string{"/api/v1/status/", "/api/v1/auth_session/login/"},
	"session.cookie_name":   "_my_session_id",
	"session.duration":      0,
	"account.cookie_name":   "session_id",
	"store.driver":          DriverMemory,
	"store.session_backend": DriverMemory,
	"store.bolt_path":       xdg.DefaultBoltPath(),
	"store.auto_migrate":    false,
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"http-addr":       "http.addr",
	"metrics-addr":    "metrics.addr",
	"log-format":      "log.format",
	"log-level":       "log.level",
	"auth-type":       "auth.type",
	"exempt-path":     "auth.exempt_paths",
	"session-cookie":  "session.cookie_name",
	"session-ttl":     "session.duration",
	"account-cookie":  "account.cookie_name",
	"store-driver":    "store.driver",
	"database-url":    "store.database_url",
	"session-backend": "store.session_backend",
	"bolt-path":       "store.bolt_path",
	"auto-migrate":    "store.auto_migrate",
}

// RegisterFlags adds the config override flags to fs. Flags left unset do not
// override file or environment values.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", defaults["http.addr"].(string), "API listen address")
	fs.String("metrics-addr", defaults["metrics.addr"].(string), "metrics/health listen address (empty disables)")
	fs.String("log-format", defaults["log.format"].(string), "log format (json or text)")
	fs.String("log-level", defaults["log.level"].(string), "log level (debug, info, warn, error)")
	fs.String("auth-type", defaults["auth.type"].(string), "auth strategy (none, basic, session, session_exp, session_db)")
	fs.StringSlice("exempt-path", defaults["auth.exempt_paths"].([]string), "path exempt from auth; a trailing * matches a prefix")
	fs.String("session-cookie", defaults["session.cookie_name"].(string), "strategy session cookie name")
	fs.Int("session-ttl", defaults["session.duration"].(int), "session lifetime in seconds (0 disables expiry)")
	fs.String("account-cookie", defaults["account.cookie_name"].(string), "account service session cookie name")
	fs.String("store-driver", defaults["store.driver"].(string), "principal store (memory or postgres)")
	fs.String("database-url", "", "PostgreSQL URL (defaults to $DATABASE_URL)")
	fs.String("session-backend", defaults["store.session_backend"].(string), "session row store (memory, postgres or bolt)")
	fs.String("bolt-path", defaults["store.bolt_path"].(string), "bbolt file for the bolt session backend")
	fs.Bool("auto-migrate", false, "apply pending migrations before serving")
}

// Load builds a Config. path may be empty to skip the file; fs may be nil to
// skip flags. The result is validated.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_DEFAULTS_FAILED").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			return flagKeys[f.Name], posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}

	if cfg.Store.DatabaseURL == "" {
		cfg.Store.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envValue maps AUTHGATE_SESSION__COOKIE_NAME to session.cookie_name and
// splits the exempt path list on commas.
func envValue(name, value string) (string, any) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "__", ".")
	if key == "auth.exempt_paths" {
		return key, splitList(value)
	}
	return key, value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
