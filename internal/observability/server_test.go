// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestServer_MetricsExposeAuthCollectors(t *testing.T) {
	s := NewServer("127.0.0.1:0", nil)
	m := s.Metrics()
	m.RecordAuth("basic", OutcomeAuthenticated)
	m.RecordSessionCreated("session")
	m.RecordSessionDestroyed("account")
	m.ObserveRequest("/api/v1/users/me", http.MethodGet, http.StatusOK, 15*time.Millisecond)

	code, body := get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `authgate_auth_attempts_total{outcome="authenticated",strategy="basic"} 1`)
	assert.Contains(t, body, `authgate_sessions_created_total{source="session"} 1`)
	assert.Contains(t, body, `authgate_sessions_destroyed_total{source="account"} 1`)
	assert.Contains(t, body, `authgate_http_requests_total{method="GET",route="/api/v1/users/me",status="200"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordAuth("none", OutcomeExempt)
		m.RecordSessionCreated("session")
		m.RecordSessionDestroyed("session")
		m.ObserveRequest("/", http.MethodGet, http.StatusOK, time.Millisecond)
	})
}

func TestServer_Probes(t *testing.T) {
	tests := []struct {
		name       string
		checker    ReadinessChecker
		wantStatus int
		wantBody   string
	}{
		{"no checker", nil, http.StatusOK, `{"status":"ok"}` + "\n"},
		{"ready", func(context.Context) error { return nil }, http.StatusOK, `{"status":"ok"}` + "\n"},
		{"not ready", func(context.Context) error { return errors.New("db down") }, http.StatusServiceUnavailable, `{"status":"unavailable"}` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewServer("127.0.0.1:0", tt.checker).Handler()

			code, body := get(t, h, "/healthz/readiness")
			assert.Equal(t, tt.wantStatus, code)
			assert.Equal(t, tt.wantBody, body)

			code, _ = get(t, h, "/healthz/liveness")
			assert.Equal(t, http.StatusOK, code)
		})
	}
}

func TestServer_ReadinessFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := NewServer("127.0.0.1:0", func(context.Context) error { return errors.New("db down") }, WithLogger(logger))

	code, _ := get(t, s.Handler(), "/healthz/readiness")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, buf.String(), "not ready")
	assert.Contains(t, buf.String(), "db down")
}

func TestServer_UnknownRoute(t *testing.T) {
	code, _ := get(t, NewServer("127.0.0.1:0", nil).Handler(), "/nope")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_StartStop(t *testing.T) {
	s := NewServer("127.0.0.1:0", nil)
	assert.Empty(t, s.Addr())

	errCh, err := s.Start()
	require.NoError(t, err)
	require.NotEmpty(t, s.Addr())

	_, err = s.Start()
	require.Error(t, err)

	resp, err := http.Get("http://" + s.Addr() + "/healthz/liveness")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))

	_, open := <-errCh
	assert.False(t, open)
	http.DefaultClient.CloseIdleConnections()
}

func TestServer_StartListenFailure(t *testing.T) {
	s := NewServer("256.0.0.1:bad", nil)
	_, err := s.Start()
	require.Error(t, err)

	// A failed start leaves the server restartable.
	s.addr = "127.0.0.1:0"
	_, err = s.Start()
	require.NoError(t, err)
	require.NoError(t, s.Stop(context.Background()))
}
