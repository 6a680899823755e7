// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package httpapi exposes the authentication strategy engine under /api/v1
// and the account service at the root, on a chi router.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"

	"github.com/holomush/authgate/internal/auth"
	"github.com/holomush/authgate/internal/auth/strategy"
	"github.com/holomush/authgate/internal/observability"
)

// DefaultAccountCookie names the account service session cookie.
const DefaultAccountCookie = "session_id"

// Deps holds the collaborators the routes need.
type Deps struct {
	Strategy   strategy.Strategy
	Accounts   *auth.Service
	Principals auth.PrincipalRepository
	Hasher     auth.PasswordHasher
	// ExemptPaths are matched against the full request path.
	ExemptPaths []string
	// AccountCookie defaults to DefaultAccountCookie.
	AccountCookie string
}

// API serves both route groups.
type API struct {
	strategy      strategy.Strategy
	accounts      *auth.Service
	principals    auth.PrincipalRepository
	hasher        auth.PasswordHasher
	exemptions    *auth.PathMatcher
	accountCookie string
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the request logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics records auth and HTTP metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *API) {
		a.metrics = m
	}
}

// New validates deps and returns an API.
func New(deps Deps, opts ...Option) (*API, error) {
	switch {
	case deps.Strategy == nil:
		return nil, oops.Code("HTTPAPI_INVALID_DEPS").Errorf("strategy is required")
	case deps.Accounts == nil:
		return nil, oops.Code("HTTPAPI_INVALID_DEPS").Errorf("account service is required")
	case deps.Principals == nil:
		return nil, oops.Code("HTTPAPI_INVALID_DEPS").Errorf("principal repository is required")
	case deps.Hasher == nil:
		return nil, oops.Code("HTTPAPI_INVALID_DEPS").Errorf("password hasher is required")
	}

	exemptions, err := auth.NewPathMatcher(deps.ExemptPaths)
	if err != nil {
		return nil, oops.Code("HTTPAPI_INVALID_DEPS").With("exempt_paths", deps.ExemptPaths).Wrap(err)
	}

	a := &API{
		strategy:      deps.Strategy,
		accounts:      deps.Accounts,
		principals:    deps.Principals,
		hasher:        deps.Hasher,
		exemptions:    exemptions,
		accountCookie: deps.AccountCookie,
		logger:        slog.Default(),
	}
	if a.accountCookie == "" {
		a.accountCookie = DefaultAccountCookie
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Router returns the complete route tree.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.instrument)

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Mount("/api/v1", a.strategyRoutes())

	r.Get("/", a.Welcome)
	r.Post("/users", a.RegisterUser)
	r.Post("/sessions", a.Login)
	r.Delete("/sessions", a.Logout)
	r.Get("/profile", a.Profile)
	r.Post("/reset_password", a.IssueResetToken)
	r.Put("/reset_password", a.UpdatePassword)

	return r
}

// strategyRoutes is the /api/v1 group guarded by the configured strategy.
// The session endpoints are mounted only for session strategies.
func (a *API) strategyRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(a.requireAuth)

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/status", a.Status)
	r.Get("/users/me", a.Me)

	if ss, ok := a.strategy.(strategy.SessionStrategy); ok {
		r.Post("/auth_session/login", a.sessionLogin(ss))
		r.Delete("/auth_session/logout", a.sessionLogout(ss))
	}
	return r
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}
