// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"errors"
	"net/http"

	"github.com/holomush/authgate/internal/auth"
	"github.com/holomush/authgate/internal/auth/strategy"
	"github.com/holomush/authgate/pkg/errutil"
)

// Status reports liveness of the API.
func (a *API) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// Me returns the authenticated principal.
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if p == nil {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, newPrincipalResponse(p))
}

// sessionLogin checks form credentials and issues a strategy session cookie.
func (a *API) sessionLogin(ss strategy.SessionStrategy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, ok := formValue(r, "email")
		if !ok {
			writeError(w, http.StatusBadRequest, "email missing")
			return
		}
		password := r.PostFormValue("password")
		if password == "" {
			writeError(w, http.StatusBadRequest, "password missing")
			return
		}

		principal, err := a.principals.FindBy(r.Context(), auth.PrincipalFilter{Email: email})
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				writeError(w, http.StatusNotFound, "no user found for this email")
				return
			}
			a.internalError(w, r, "find principal for login", err)
			return
		}

		if !a.hasher.Verify(password, principal.PasswordHash) {
			writeError(w, http.StatusUnauthorized, "wrong password")
			return
		}

		token, err := ss.CreateSession(r.Context(), principal.ID.String())
		if err != nil {
			a.internalError(w, r, "create strategy session", err)
			return
		}
		a.metrics.RecordSessionCreated(ss.Name())

		writeSessionCookie(w, r, ss.CookieName(), token)
		writeJSON(w, http.StatusOK, newPrincipalResponse(principal))
	}
}

// sessionLogout destroys the session named by the request cookie.
func (a *API) sessionLogout(ss strategy.SessionStrategy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		destroyed, err := ss.DestroySession(r.Context(), r)
		if err != nil {
			a.internalError(w, r, "destroy strategy session", err)
			return
		}
		if !destroyed {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		a.metrics.RecordSessionDestroyed(ss.Name())

		clearSessionCookie(w, r, ss.CookieName())
		writeJSON(w, http.StatusOK, struct{}{})
	}
}

func (a *API) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	errutil.LogErrorContext(r.Context(), a.logger, msg, err, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
