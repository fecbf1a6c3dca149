// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hashicorp/carrierauth/flow"
	"github.com/hashicorp/carrierauth/oidc"
	"github.com/hashicorp/carrierauth/session"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/publicsuffix"
)

const (
	testCallbackPath = "/auth/callback"
	testReAuthPath   = "/auth/reauth"
	testLogoutPath   = "/auth/logout"
	testHomeBody     = "home"
)

// testRP is a relying party wired to an oidc.TestProvider, plus a browser
// with a cookie jar.
type testRP struct {
	tp      *oidc.TestProvider
	server  *httptest.Server
	store   session.Store
	jar     http.CookieJar
	browser *http.Client

	// codeURL is the last callback URL the browser was sent to with a code
	codeURL string
}

func startTestRP(t *testing.T, store session.Store, opt ...Option) *testRP {
	t.Helper()
	require := require.New(t)

	tp := oidc.StartTestProvider(t)
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg, err := oidc.NewConfig(
		oidc.TestClientID,
		oidc.TestClientSecret,
		srv.URL+testCallbackPath,
		tp.CarrierDiscoveryURL(),
		tp.ProviderConfigURL(),
		[]oidc.Alg{oidc.ES256},
		oidc.WithProviderCA(tp.CACert()),
	)
	require.NoError(err)
	client, err := oidc.NewClient(cfg)
	require.NoError(err)
	t.Cleanup(client.Done)

	c, err := flow.NewController(client)
	require.NoError(err)
	if store == nil {
		store = session.NewMemoryStore()
	}

	opt = append([]Option{WithInsecureCookies()}, opt...)
	cb, err := Callback(c, store, opt...)
	require.NoError(err)
	login, err := Login(c, store, opt...)
	require.NoError(err)
	reauth, err := ReAuth(c, store, opt...)
	require.NoError(err)
	logout, err := Logout(c, store, opt...)
	require.NoError(err)
	mux.Handle(testCallbackPath, cb)
	mux.Handle(DefaultLoginPath, login)
	mux.Handle(testReAuthPath, reauth)
	mux.Handle(testLogoutPath, logout)
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testHomeBody))
	})

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	require.NoError(err)
	rp := &testRP{tp: tp, server: srv, store: store, jar: jar}
	rp.browser = &http.Client{
		Transport: tp.HTTPClient().Transport,
		Jar:       jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if req.URL.Query().Get("code") != "" {
				rp.codeURL = req.URL.String()
			}
			return nil
		},
	}
	return rp
}

// noFollow is the same browser, but it stops at the first redirect.
func (rp *testRP) noFollow() *http.Client {
	return &http.Client{
		Transport: rp.browser.Transport,
		Jar:       rp.jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (rp *testRP) url(path string) string { return rp.server.URL + path }

// sessionID returns the browser's session id cookie, or "".
func (rp *testRP) sessionID(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(rp.server.URL)
	require.NoError(t, err)
	for _, c := range rp.jar.Cookies(u) {
		if c.Name == DefaultCookieName {
			return c.Value
		}
	}
	return ""
}

// session returns the browser's stored session; empty without a cookie.
func (rp *testRP) session(t *testing.T) *session.Session {
	t.Helper()
	sid := rp.sessionID(t)
	if sid == "" {
		return &session.Session{}
	}
	s, err := rp.store.Get(context.Background(), sid)
	require.NoError(t, err)
	return s
}

// login runs a complete login and requires it to land on the home page.
func (rp *testRP) login(t *testing.T) {
	t.Helper()
	require := require.New(t)
	resp, err := rp.browser.Get(rp.url(DefaultLoginPath))
	require.NoError(err)
	body := readBody(t, resp)
	require.Equal(http.StatusOK, resp.StatusCode, body)
	require.Equal(testHomeBody, body)
	require.True(rp.session(t).IsAuthenticated())
}

func (rp *testRP) reauth(t *testing.T, contextToken string) *http.Response {
	t.Helper()
	resp, err := rp.browser.PostForm(rp.url(testReAuthPath), url.Values{"context": {contextToken}})
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
