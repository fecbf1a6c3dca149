// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/subtle"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/carrierauth/sdk/id"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

// Test provider defaults
const (
	TestClientID      = "test-client-id"
	TestClientSecret  = "test-client-secret"
	TestCarrierID     = "310260"
	TestSubject       = "alice-sub-0001"
	TestLoginHint     = "test-login-hint-token"
	defaultReplyACR   = "a1"
	testTokenLifetime = 5 * time.Minute
)

// TestAuthRequest is a record of an authorization request received by the
// TestProvider
type TestAuthRequest struct {
	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod string
	ACRValues           string
	Context             string
	LoginHintToken      string
}

// TestProvider is a local server that plays every carrier facing role a
// relying party talks to: the carrier discovery UI, the provider config
// service and the carrier's OpenID provider.  Authorization codes are random
// and single use.
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string

	jwks       *jose.JSONWebKeySet
	signingKey *ecdsa.PrivateKey

	mu                sync.Mutex
	clientID          string
	clientSecret      string
	carriers          map[string]bool
	discoveredCarrier string
	loginHintToken    string
	replySubject      string
	replyUserinfoSub  string
	replyUserinfo     map[string]interface{}
	replyACR          string
	omitIDToken       bool
	omitContext       bool
	disableToken      bool
	authError         string
	authErrorDesc     string
	codes             map[string]TestAuthRequest
	accessTokens      map[string]bool
	lastAuthRequest   *TestAuthRequest

	providerConfigHold     <-chan struct{}
	providerConfigRequests int
}

// StartTestProvider creates a disposable TestProvider which is stopped by
// the test's cleanup.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	require := require.New(t)

	p := &TestProvider{
		clientID:          TestClientID,
		clientSecret:      TestClientSecret,
		carriers:          map[string]bool{TestCarrierID: true},
		discoveredCarrier: TestCarrierID,
		loginHintToken:    TestLoginHint,
		replySubject:      TestSubject,
		replyUserinfo: map[string]interface{}{
			"name":         "Alice Doe",
			"email":        "alice@example.com",
			"phone_number": "+15555550100",
			"postal_code":  "94105",
		},
		codes:        map[string]TestAuthRequest{},
		accessTokens: map[string]bool{},
	}
	pub, priv := TestGenerateKeys(t)
	key, err := parseECPrivateKey(priv)
	require.NoError(err)
	p.signingKey = key
	p.jwks = testJWKS(t, pub)

	p.httpServer = httptest.NewUnstartedServer(p)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)

	var buf bytes.Buffer
	err = pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: p.httpServer.Certificate().Raw})
	require.NoError(err)
	p.caCert = buf.String()
	return p
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// Addr returns the current base URL for the test provider's running webserver.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// CACert returns the pem-encoded CA certificate used by the test provider's
// HTTPS server.
func (p *TestProvider) CACert() string { return p.caCert }

// HTTPClient returns a client which trusts the test provider's certificate.
func (p *TestProvider) HTTPClient() *http.Client { return p.httpServer.Client() }

// CarrierDiscoveryURL is the discovery UI endpoint
func (p *TestProvider) CarrierDiscoveryURL() string { return p.Addr() + "/discover-ui" }

// ProviderConfigURL is the provider config endpoint
func (p *TestProvider) ProviderConfigURL() string { return p.Addr() + "/provider-config" }

// SetClientCreds configures the client credentials the provider accepts.
func (p *TestProvider) SetClientCreds(clientID, clientSecret string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientID = clientID
	p.clientSecret = clientSecret
}

// SetCarriers replaces the set of carriers (mccmnc) the provider config
// service knows about.
func (p *TestProvider) SetCarriers(carrierIDs ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.carriers = map[string]bool{}
	for _, c := range carrierIDs {
		p.carriers[c] = true
	}
}

// SetDiscoveredCarrier sets the mccmnc the discovery UI redirects back with.
func (p *TestProvider) SetDiscoveredCarrier(carrierID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discoveredCarrier = carrierID
}

// SetSubject sets the "sub" of issued id_tokens and of the user info.
func (p *TestProvider) SetSubject(sub string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replySubject = sub
}

// SetUserInfoSubject overrides the user info "sub" so it no longer matches
// the id_token.
func (p *TestProvider) SetUserInfoSubject(sub string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyUserinfoSub = sub
}

// SetUserInfo sets the claims returned by the user info endpoint.
func (p *TestProvider) SetUserInfo(claims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyUserinfo = claims
}

// SetReplyACR forces the "acr" claim of issued id_tokens.  By default the
// first requested acr value is returned.
func (p *TestProvider) SetReplyACR(acr string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyACR = acr
}

// SetAuthError makes the authorization endpoint redirect back with an error
// instead of a code.  An empty code disables it.
func (p *TestProvider) SetAuthError(code, description string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authError = code
	p.authErrorDesc = description
}

// SetDisableToken makes the token endpoint reject every request.
func (p *TestProvider) SetDisableToken(disable bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disableToken = disable
}

// OmitIDTokens forces an error state where the /token endpoint does not return
// id_token.
func (p *TestProvider) OmitIDTokens() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitIDToken = true
}

// OmitContext stops the "context" claim being echoed in id_tokens.
func (p *TestProvider) OmitContext() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitContext = true
}

// SetProviderConfigHold makes provider config requests wait until hold is
// closed.  A nil hold answers them right away.
func (p *TestProvider) SetProviderConfigHold(hold <-chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.providerConfigHold = hold
}

// ProviderConfigRequests returns the number of provider config requests
// received so far.
func (p *TestProvider) ProviderConfigRequests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.providerConfigRequests
}

// LastAuthRequest returns the most recent authorization request, or nil.
func (p *TestProvider) LastAuthRequest() *TestAuthRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastAuthRequest == nil {
		return nil
	}
	r := *p.lastAuthRequest
	return &r
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path == "/provider-config" {
		p.mu.Lock()
		hold := p.providerConfigHold
		p.providerConfigRequests++
		p.mu.Unlock()
		if hold != nil {
			<-hold
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch req.URL.Path {
	case "/.well-known/openid-configuration", "/provider-config":
		p.handleProviderConfig(w, req)
	case "/discover-ui":
		p.handleDiscoverUI(w, req)
	case "/auth":
		p.handleAuth(w, req)
	case "/token":
		p.handleToken(w, req)
	case "/certs":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		p.writeJSON(w, http.StatusOK, p.jwks)
	case "/userinfo":
		p.handleUserInfo(w, req)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (p *TestProvider) handleProviderConfig(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if req.URL.Path == "/provider-config" {
		qv := req.URL.Query()
		if qv.Get("client_id") != p.clientID {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !p.carriers[qv.Get("mccmnc")] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	}
	p.writeJSON(w, http.StatusOK, &discoveryDocument{
		Issuer:      p.Addr(),
		AuthURL:     p.Addr() + "/auth",
		TokenURL:    p.Addr() + "/token",
		UserInfoURL: p.Addr() + "/userinfo",
		JWKSURL:     p.Addr() + "/certs",
		Algorithms:  []string{string(ES256)},
	})
}

func (p *TestProvider) handleDiscoverUI(w http.ResponseWriter, req *http.Request) {
	qv := req.URL.Query()
	redirectURI := qv.Get("redirect_uri")
	if qv.Get("client_id") != p.clientID || redirectURI == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	reply := url.Values{}
	reply.Set("mccmnc", p.discoveredCarrier)
	if s := qv.Get("state"); s != "" {
		reply.Set("state", s)
	}
	if p.loginHintToken != "" {
		reply.Set("login_hint_token", p.loginHintToken)
	}
	http.Redirect(w, req, appendQuery(redirectURI, reply), http.StatusFound)
}

func (p *TestProvider) handleAuth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	qv := req.URL.Query()
	ar := TestAuthRequest{
		ClientID:            qv.Get("client_id"),
		RedirectURI:         qv.Get("redirect_uri"),
		Scope:               qv.Get("scope"),
		State:               qv.Get("state"),
		Nonce:               qv.Get("nonce"),
		CodeChallenge:       qv.Get("code_challenge"),
		CodeChallengeMethod: qv.Get("code_challenge_method"),
		ACRValues:           qv.Get("acr_values"),
		Context:             qv.Get("context"),
		LoginHintToken:      qv.Get("login_hint_token"),
	}
	p.lastAuthRequest = &ar
	if ar.RedirectURI == "" || ar.ClientID != p.clientID {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	reply := url.Values{}
	if ar.State != "" {
		reply.Set("state", ar.State)
	}
	switch {
	case p.authError != "":
		reply.Set("error", p.authError)
		if p.authErrorDesc != "" {
			reply.Set("error_description", p.authErrorDesc)
		}
	case qv.Get("response_type") != "code":
		reply.Set("error", "unsupported_response_type")
	case !containsField(ar.Scope, ScopeOpenID):
		reply.Set("error", "invalid_scope")
	case ar.State == "" || ar.Nonce == "":
		reply.Set("error", "invalid_request")
	case ar.CodeChallengeMethod != string(S256) || ar.CodeChallenge == "":
		reply.Set("error", "invalid_request")
		reply.Set("error_description", "PKCE S256 is required")
	default:
		code, err := id.New("code")
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		p.codes[code] = ar
		reply.Set("code", code)
	}
	http.Redirect(w, req, appendQuery(ar.RedirectURI, reply), http.StatusFound)
}

func (p *TestProvider) handleToken(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := req.ParseForm(); err != nil {
		p.writeTokenError(w, http.StatusBadRequest, "invalid_request", "unable to parse form")
		return
	}
	clientID, clientSecret, ok := req.BasicAuth()
	if !ok {
		clientID, clientSecret = req.PostForm.Get("client_id"), req.PostForm.Get("client_secret")
	} else {
		clientID, _ = url.QueryUnescape(clientID)
		clientSecret, _ = url.QueryUnescape(clientSecret)
	}
	code := req.PostForm.Get("code")
	ar, found := p.codes[code]
	// codes are single use, even when the exchange fails
	delete(p.codes, code)

	switch {
	case p.disableToken:
		p.writeTokenError(w, http.StatusServiceUnavailable, "temporarily_unavailable", "")
		return
	case clientID != p.clientID || subtle.ConstantTimeCompare([]byte(clientSecret), []byte(p.clientSecret)) != 1:
		p.writeTokenError(w, http.StatusUnauthorized, "invalid_client", "")
		return
	case req.PostForm.Get("grant_type") != "authorization_code":
		p.writeTokenError(w, http.StatusBadRequest, "unsupported_grant_type", "")
		return
	case !found:
		p.writeTokenError(w, http.StatusBadRequest, "invalid_grant", "unknown or used code")
		return
	case req.PostForm.Get("redirect_uri") != ar.RedirectURI:
		p.writeTokenError(w, http.StatusBadRequest, "invalid_grant", "redirect_uri mismatch")
		return
	}
	challenge, err := CreateCodeChallenge(S256, req.PostForm.Get("code_verifier"))
	if err != nil || challenge != ar.CodeChallenge {
		p.writeTokenError(w, http.StatusBadRequest, "invalid_grant", "code_verifier mismatch")
		return
	}

	now := time.Now()
	stdClaims := jwt.Claims{
		Subject:   p.replySubject,
		Issuer:    p.Addr(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
		Expiry:    jwt.NewNumericDate(now.Add(testTokenLifetime)),
		Audience:  jwt.Audience{p.clientID},
	}
	privateClaims := map[string]interface{}{
		"nonce": ar.Nonce,
		"acr":   p.acrFor(ar),
	}
	if ar.Context != "" && !p.omitContext {
		privateClaims["context"] = ar.Context
	}
	idToken, err := signJWT(p.signingKey, stdClaims, privateClaims)
	if err != nil {
		p.writeTokenError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	accessToken, err := id.New("at")
	if err != nil {
		p.writeTokenError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	p.accessTokens[accessToken] = true

	reply := struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
		IDToken     string `json:"id_token,omitempty"`
	}{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(testTokenLifetime.Seconds()),
		IDToken:     idToken,
	}
	if p.omitIDToken {
		reply.IDToken = ""
	}
	p.writeJSON(w, http.StatusOK, &reply)
}

func (p *TestProvider) acrFor(ar TestAuthRequest) string {
	if p.replyACR != "" {
		return p.replyACR
	}
	if f := strings.Fields(ar.ACRValues); len(f) > 0 {
		return f[0]
	}
	return defaultReplyACR
}

func (p *TestProvider) handleUserInfo(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	token := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
	if !p.accessTokens[token] {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	reply := map[string]interface{}{}
	for k, v := range p.replyUserinfo {
		reply[k] = v
	}
	reply["sub"] = p.replySubject
	if p.replyUserinfoSub != "" {
		reply["sub"] = p.replyUserinfoSub
	}
	p.writeJSON(w, http.StatusOK, reply)
}

func (p *TestProvider) writeJSON(w http.ResponseWriter, status int, out interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(out)
}

func (p *TestProvider) writeTokenError(w http.ResponseWriter, status int, errorCode, errorMessage string) {
	body := struct {
		Code string `json:"error"`
		Desc string `json:"error_description,omitempty"`
	}{
		Code: errorCode,
		Desc: errorMessage,
	}
	p.writeJSON(w, status, &body)
}

func appendQuery(base string, v url.Values) string {
	if strings.Contains(base, "?") {
		return base + "&" + v.Encode()
	}
	return base + "?" + v.Encode()
}

func containsField(s, want string) bool {
	for _, f := range strings.Fields(s) {
		if f == want {
			return true
		}
	}
	return false
}

// testJWKS converts a pem-encoded public key into JWKS data suitable for a
// verification endpoint response
func testJWKS(t *testing.T, pubKey string) *jose.JSONWebKeySet {
	t.Helper()
	require := require.New(t)

	block, _ := pem.Decode([]byte(pubKey))
	require.NotNil(block)

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(err)

	return &jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{
			{
				Key:       pub,
				KeyID:     "test-key",
				Algorithm: string(ES256),
				Use:       "sig",
			},
		},
	}
}
