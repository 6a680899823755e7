// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/authgate/internal/auth"
	"github.com/holomush/authgate/internal/auth/strategy"
	"github.com/holomush/authgate/internal/config"
	"github.com/holomush/authgate/internal/httpapi"
	"github.com/holomush/authgate/internal/logging"
	"github.com/holomush/authgate/internal/observability"
	"github.com/holomush/authgate/internal/store"
	"github.com/holomush/authgate/pkg/errutil"
)

const shutdownTimeout = 5 * time.Second

// ServeDeps holds injectable hooks for the serve command. Nil fields use
// their defaults.
type ServeDeps struct {
	// Listen defaults to net.Listen.
	Listen func(network, address string) (net.Listener, error)
	// OnReady is called with the bound API address once serving starts.
	OnReady func(addr string)
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd(load configLoader, deps *ServeDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the authentication API",
		Long: `Serve the /api/v1 strategy routes and the account routes, plus
metrics and health probes when metrics.addr is set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cmd, cfg, deps)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.Listen == nil {
		deps.Listen = net.Listen
	}
	if ctx == nil {
		ctx = context.Background()
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.SetDefault(logging.Options{
		Service: "authgate",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   level,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := b.Close(); closeErr != nil {
			errutil.LogError(logger, "close backends", closeErr)
		}
	}()

	if cfg.Store.AutoMigrate && cfg.NeedsDatabase() {
		if err := applyMigrations(cfg.Store.DatabaseURL, logger); err != nil {
			return err
		}
	}

	var (
		obs     *observability.Server
		metrics *observability.Metrics
	)
	if cfg.Metrics.Addr != "" {
		obs = observability.NewServer(cfg.Metrics.Addr, b.ready(), observability.WithLogger(logger))
		metrics = obs.Metrics()
	}

	api, err := buildAPI(cfg, b, logger, metrics)
	if err != nil {
		return err
	}

	listener, err := deps.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}
	srv := &http.Server{
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		defer close(serveErr)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if obs != nil {
		obsErr, err := obs.Start()
		if err != nil {
			shutdown(srv, nil, logger)
			return err
		}
		go monitorServerErrors(ctx, cancel, obsErr, "observability")
	}

	addr := listener.Addr().String()
	logger.Info("authgate ready", "addr", addr, "strategy", cfg.Auth.Type)
	cmd.Printf("authgate listening on %s\n", addr)
	if deps.OnReady != nil {
		deps.OnReady(addr)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err, ok := <-serveErr:
		if ok && err != nil {
			runErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
	}

	shutdown(srv, obs, logger)
	return runErr
}

// buildAPI wires the account service, the configured strategy and the
// routes over the opened backends.
func buildAPI(cfg *config.Config, b *backends, logger *slog.Logger, metrics *observability.Metrics) (*httpapi.API, error) {
	hasher := auth.NewArgon2idHasher()

	accounts, err := auth.NewAuthServiceWithLogger(b.principals, hasher, logger)
	if err != nil {
		return nil, err
	}

	strat, err := strategy.New(
		strategy.Config{
			Type:       cfg.Auth.Type,
			CookieName: cfg.Session.CookieName,
			SessionTTL: cfg.Session.TTL(),
		},
		strategy.Deps{
			Principals: b.principals,
			Sessions:   b.sessions,
			Hasher:     hasher,
			Logger:     logger,
		},
	)
	if err != nil {
		return nil, err
	}

	return httpapi.New(httpapi.Deps{
		Strategy:      strat,
		Accounts:      accounts,
		Principals:    b.principals,
		Hasher:        hasher,
		ExemptPaths:   cfg.Auth.ExemptPaths,
		AccountCookie: cfg.Account.CookieName,
	}, httpapi.WithLogger(logger), httpapi.WithMetrics(metrics))
}

func applyMigrations(databaseURL string, logger *slog.Logger) error {
	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			errutil.LogError(logger, "close migrator", closeErr)
		}
	}()
	if err := m.Up(); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func shutdown(srv *http.Server, obs *observability.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("error stopping API server", "error", err)
	}
	if obs != nil {
		if err := obs.Stop(ctx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}
	logger.Info("shutdown complete")
}

// monitorServerErrors cancels ctx when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			slog.Error("server error, triggering shutdown", "server", serverName, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
