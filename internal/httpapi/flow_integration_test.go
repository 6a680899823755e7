// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/authgate/internal/auth"
	"github.com/holomush/authgate/internal/auth/bolt"
	"github.com/holomush/authgate/internal/auth/memory"
	"github.com/holomush/authgate/internal/auth/strategy"
	"github.com/holomush/authgate/internal/httpapi"
)

const (
	flowEmail       = "guillaume@holberton.io"
	flowPassword    = "b4l0u"
	flowNewPassword = "t4rt1fl3tt3"
)

type flowClient struct {
	base   string
	client *http.Client
}

func (c *flowClient) send(method, path string, form url.Values, cookie *http.Cookie) *http.Response {
	GinkgoHelper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req, err := http.NewRequest(method, c.base+path, body)
	Expect(err).NotTo(HaveOccurred())
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := c.client.Do(req)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(resp.Body.Close)
	return resp
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return &http.Cookie{Name: c.Name, Value: c.Value}
		}
	}
	return nil
}

func newFlowServer(strat strategy.Strategy, principals auth.PrincipalRepository) *flowClient {
	GinkgoHelper()
	hasher := auth.NewArgon2idHasher()
	accounts, err := auth.NewAuthService(principals, hasher)
	Expect(err).NotTo(HaveOccurred())

	api, err := httpapi.New(httpapi.Deps{
		Strategy:    strat,
		Accounts:    accounts,
		Principals:  principals,
		Hasher:      hasher,
		ExemptPaths: []string{"/api/v1/status/", "/api/v1/auth_session/login/"},
	})
	Expect(err).NotTo(HaveOccurred())

	srv := httptest.NewServer(api.Router())
	DeferCleanup(srv.Close)
	return &flowClient{base: srv.URL, client: srv.Client()}
}

var _ = Describe("Account service flow", Ordered, func() {
	var (
		c         *flowClient
		sessionID *http.Cookie
		resetTok  string
	)

	BeforeAll(func() {
		principals := memory.NewPrincipalStore()
		strat, err := strategy.New(strategy.Config{Type: strategy.TypeSession}, strategy.Deps{Principals: principals})
		Expect(err).NotTo(HaveOccurred())
		c = newFlowServer(strat, principals)
	})

	It("registers a user", func() {
		resp := c.send(http.MethodPost, "/users", url.Values{"email": {flowEmail}, "password": {flowPassword}}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("rejects a wrong password", func() {
		resp := c.send(http.MethodPost, "/sessions", url.Values{"email": {flowEmail}, "password": {flowNewPassword}}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
	})

	It("refuses the profile without a session", func() {
		resp := c.send(http.MethodGet, "/profile", nil, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
	})

	It("logs in", func() {
		resp := c.send(http.MethodPost, "/sessions", url.Values{"email": {flowEmail}, "password": {flowPassword}}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		sessionID = cookieNamed(resp, httpapi.DefaultAccountCookie)
		Expect(sessionID).NotTo(BeNil())
	})

	It("shows the profile", func() {
		resp := c.send(http.MethodGet, "/profile", nil, sessionID)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		var body map[string]string
		Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("email", flowEmail))
	})

	It("logs out and lands on the welcome page", func() {
		resp := c.send(http.MethodDelete, "/sessions", nil, sessionID)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Request.URL.Path).To(Equal("/"))
	})

	It("issues a reset token", func() {
		resp := c.send(http.MethodPost, "/reset_password", url.Values{"email": {flowEmail}}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		var body map[string]string
		Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
		resetTok = body["reset_token"]
		Expect(resetTok).NotTo(BeEmpty())
	})

	It("updates the password", func() {
		resp := c.send(http.MethodPut, "/reset_password", url.Values{
			"email":        {flowEmail},
			"reset_token":  {resetTok},
			"new_password": {flowNewPassword},
		}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("logs in with the new password", func() {
		resp := c.send(http.MethodPost, "/sessions", url.Values{"email": {flowEmail}, "password": {flowNewPassword}}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})
})

var _ = Describe("Persistent session strategy", Ordered, func() {
	var (
		principals *memory.PrincipalStore
		store      *bolt.SessionStore
		cookie     *http.Cookie
	)

	newStrategy := func() strategy.Strategy {
		GinkgoHelper()
		strat, err := strategy.New(
			strategy.Config{Type: strategy.TypePersistentSession},
			strategy.Deps{Principals: principals, Sessions: store},
		)
		Expect(err).NotTo(HaveOccurred())
		return strat
	}

	BeforeAll(func() {
		principals = memory.NewPrincipalStore()
		var err error
		store, err = bolt.Open(filepath.Join(GinkgoT().TempDir(), "sessions.db"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)

		accounts, err := auth.NewAuthService(principals, auth.NewArgon2idHasher())
		Expect(err).NotTo(HaveOccurred())
		_, err = accounts.Register(context.Background(), flowEmail, flowPassword)
		Expect(err).NotTo(HaveOccurred())
	})

	It("logs in through the strategy route", func() {
		c := newFlowServer(newStrategy(), principals)
		resp := c.send(http.MethodPost, "/api/v1/auth_session/login",
			url.Values{"email": {flowEmail}, "password": {flowPassword}}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		cookie = cookieNamed(resp, strategy.DefaultCookieName)
		Expect(cookie).NotTo(BeNil())
	})

	It("keeps the session across a restart", func() {
		c := newFlowServer(newStrategy(), principals)
		resp := c.send(http.MethodGet, "/api/v1/users/me", nil, cookie)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("logs out once", func() {
		c := newFlowServer(newStrategy(), principals)
		Expect(c.send(http.MethodDelete, "/api/v1/auth_session/logout", nil, cookie).StatusCode).
			To(Equal(http.StatusOK))
		Expect(c.send(http.MethodGet, "/api/v1/users/me", nil, cookie).StatusCode).
			To(Equal(http.StatusForbidden))
	})
})
