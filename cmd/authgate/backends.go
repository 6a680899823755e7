// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/holomush/authgate/internal/auth"
	"github.com/holomush/authgate/internal/auth/bolt"
	"github.com/holomush/authgate/internal/auth/memory"
	"github.com/holomush/authgate/internal/auth/postgres"
	"github.com/holomush/authgate/internal/config"
	"github.com/holomush/authgate/internal/observability"
	"github.com/holomush/authgate/internal/store"
	"github.com/holomush/authgate/internal/xdg"
)

// backends are the stores selected by configuration.
type backends struct {
	principals auth.PrincipalRepository
	sessions   auth.SessionRepository
	pool       *pgxpool.Pool
	closers    []func() error
}

// openBackends connects whatever cfg.Store selects. Close releases them.
func openBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{}

	if cfg.NeedsDatabase() {
		pool, err := store.Connect(ctx, cfg.Store.DatabaseURL, store.ConnectOptions{Logger: logger})
		if err != nil {
			return nil, err
		}
		b.pool = pool
		b.closers = append(b.closers, func() error { pool.Close(); return nil })
	}

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		b.principals = postgres.NewPrincipalRepository(b.pool)
	default:
		b.principals = memory.NewPrincipalStore()
	}

	switch cfg.Store.SessionBackend {
	case config.DriverPostgres:
		b.sessions = postgres.NewSessionRepository(b.pool)
	case config.BackendBolt:
		if err := xdg.EnsureDir(filepath.Dir(cfg.Store.BoltPath)); err != nil {
			_ = b.Close() //nolint:errcheck // mkdir error takes precedence
			return nil, err
		}
		sessions, err := bolt.Open(cfg.Store.BoltPath)
		if err != nil {
			_ = b.Close() //nolint:errcheck // open error takes precedence
			return nil, err
		}
		b.sessions = sessions
		b.closers = append(b.closers, sessions.Close)
	default:
		b.sessions = memory.NewSessionStore()
	}

	logger.Info("storage ready",
		"principal_store", cfg.Store.Driver,
		"session_backend", cfg.Store.SessionBackend,
	)
	return b, nil
}

// ready pings the database when one is in use.
func (b *backends) ready() observability.ReadinessChecker {
	if b.pool == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return b.pool.Ping(ctx)
	}
}

// Close releases every backend in reverse open order.
func (b *backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	if err := errors.Join(errs...); err != nil {
		return oops.Code("BACKEND_CLOSE_FAILED").Wrap(err)
	}
	return nil
}
