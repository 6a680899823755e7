// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"errors"
	"net/http"

	"github.com/holomush/authgate/internal/auth"
	"github.com/holomush/authgate/pkg/errutil"
)

const accountSource = "account"

// Welcome greets the caller.
func (a *API) Welcome(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "", "Bienvenue")
}

// RegisterUser creates a principal from the email and password form fields.
func (a *API) RegisterUser(w http.ResponseWriter, r *http.Request) {
	email, ok := formValue(r, "email")
	if !ok || !r.PostForm.Has("password") {
		writeMessage(w, http.StatusBadRequest, "", "email and password are required")
		return
	}

	_, err := a.accounts.Register(r.Context(), email, r.PostFormValue("password"))
	switch {
	case err == nil:
		writeMessage(w, http.StatusOK, email, "user created")
	case errors.Is(err, auth.ErrAlreadyExists):
		writeMessage(w, http.StatusBadRequest, "", "email already registered")
	case errutil.Code(err) == "PRINCIPAL_INVALID_EMAIL":
		writeMessage(w, http.StatusBadRequest, "", "invalid email")
	default:
		a.internalError(w, r, "register principal", err)
	}
}

// Login validates credentials and sets the account session cookie.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	email, _ := formValue(r, "email")
	password := r.PostFormValue("password")

	valid, err := a.accounts.ValidateLogin(r.Context(), email, password)
	if err != nil {
		a.internalError(w, r, "validate login", err)
		return
	}
	if !valid {
		writeMessage(w, http.StatusUnauthorized, "", "invalid credentials")
		return
	}

	token, err := a.accounts.CreateSession(r.Context(), email)
	if err != nil {
		a.internalError(w, r, "create account session", err)
		return
	}
	if token == "" {
		writeMessage(w, http.StatusUnauthorized, "", "invalid credentials")
		return
	}
	a.metrics.RecordSessionCreated(accountSource)

	writeSessionCookie(w, r, a.accountCookie, token)
	writeMessage(w, http.StatusOK, email, "logged in")
}

// Logout destroys the account session and redirects home.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.sessionPrincipal(w, r)
	if !ok {
		return
	}
	if err := a.accounts.DestroySession(r.Context(), principal.ID.String()); err != nil {
		a.internalError(w, r, "destroy account session", err)
		return
	}
	a.metrics.RecordSessionDestroyed(accountSource)

	clearSessionCookie(w, r, a.accountCookie)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Profile returns the email of the session holder.
func (a *API) Profile(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.sessionPrincipal(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": principal.Email})
}

// IssueResetToken returns a password reset token for the email.
func (a *API) IssueResetToken(w http.ResponseWriter, r *http.Request) {
	email, _ := formValue(r, "email")

	token, err := a.accounts.IssueResetToken(r.Context(), email)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeMessage(w, http.StatusForbidden, "", "forbidden")
			return
		}
		a.internalError(w, r, "issue reset token", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": email, "reset_token": token})
}

// UpdatePassword consumes a reset token and sets the new password.
func (a *API) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	token, _ := formValue(r, "reset_token")
	newPassword := r.PostFormValue("new_password")

	principal, err := a.accounts.ConsumeResetToken(r.Context(), token, newPassword)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeMessage(w, http.StatusForbidden, "", "forbidden")
			return
		}
		a.internalError(w, r, "consume reset token", err)
		return
	}
	writeMessage(w, http.StatusOK, principal.Email, "Password updated")
}

// sessionPrincipal resolves the account cookie, writing 403 when it names no
// live session.
func (a *API) sessionPrincipal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	principal, err := a.accounts.PrincipalFromSession(r.Context(), cookieValue(r, a.accountCookie))
	if err != nil {
		a.internalError(w, r, "resolve account session", err)
		return nil, false
	}
	if principal == nil {
		writeMessage(w, http.StatusForbidden, "", "forbidden")
		return nil, false
	}
	return principal, true
}
