// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/authgate/internal/auth"
	"github.com/holomush/authgate/internal/observability"
	"github.com/holomush/authgate/pkg/errutil"
)

var tracer = otel.Tracer("authgate/httpapi")

type contextKey int

const principalKey contextKey = iota

// PrincipalFromContext returns the principal resolved by the auth
// middleware, or nil on exempt paths.
func PrincipalFromContext(ctx context.Context) *auth.Principal {
	p, _ := ctx.Value(principalKey).(*auth.Principal)
	return p
}

// requireAuth resolves the current principal through the strategy. A
// request with no credential gets 401, a credential that resolves to no
// principal gets 403.
func (a *API) requireAuth(next http.Handler) http.Handler {
	name := a.strategy.Name()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.strategy.RequiresAuthMatch(r.URL.Path, a.exemptions) {
			a.metrics.RecordAuth(name, observability.OutcomeExempt)
			next.ServeHTTP(w, r)
			return
		}

		if _, ok := a.strategy.Credential(r); !ok {
			a.metrics.RecordAuth(name, observability.OutcomeNoCredential)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		principal, err := a.strategy.CurrentPrincipal(r.Context(), r)
		if err != nil {
			a.metrics.RecordAuth(name, observability.OutcomeError)
			trace.SpanFromContext(r.Context()).RecordError(err)
			errutil.LogErrorContext(r.Context(), a.logger, "resolve current principal", err,
				"strategy", name, "path", r.URL.Path)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if principal == nil {
			a.metrics.RecordAuth(name, observability.OutcomeForbidden)
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}

		a.metrics.RecordAuth(name, observability.OutcomeAuthenticated)
		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// instrument wraps each request in a server span, records status and
// latency per route pattern and logs the request at debug level.
func (a *API) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := tracer.Start(r.Context(), "http.request",
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("http.method", r.Method)),
		)
		defer span.End()
		r = r.WithContext(ctx)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		a.metrics.ObserveRequest(route, r.Method, status, elapsed)
		a.logger.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
