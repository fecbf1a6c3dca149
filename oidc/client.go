// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	sdkHttp "github.com/hashicorp/carrierauth/sdk/http"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
)

// ScopeOpenID is the mandatory scope for all OpenID Connect OAuth2 requests.
const ScopeOpenID = oidc.ScopeOpenID

// DefaultDiscoveryTTL is how long a carrier's discovered ProviderConfig is
// cached by the Client.
const DefaultDiscoveryTTL = 1 * time.Hour

// maxDiscoveryResponseSize limits how much of a provider configuration
// response is read.
const maxDiscoveryResponseSize = 1 << 20

// discoveryTimeout bounds a provider configuration request
const discoveryTimeout = 30 * time.Second

// Client provides integration with carrier OIDC providers.  It discovers a
// carrier's provider, generates carrier discovery and auth URLs, exchanges
// authorization codes for tokens and makes user info requests.
//
// A Client is safe for concurrent use.  See Client.Done() which must be called
// to release the Client's resources.
type Client struct {
	config       *Config
	client       *http.Client
	logger       hclog.Logger
	discoveryTTL time.Duration
	nowFunc      func() time.Time

	mu        sync.Mutex
	carriers  map[string]*ProviderConfig
	discovery singleflight.Group

	// backgroundCtx is the context used by discovered providers for
	// background activities like: refreshing JWKs key sets.
	backgroundCtx context.Context

	// backgroundCtxCancel is used to cancel any background activities.
	backgroundCtxCancel context.CancelFunc
}

// NewClient creates a new Client.  Discovery is deferred until a carrier is
// known, so no requests are made.  Supported options: WithLogger,
// WithDiscoveryTTL, WithNow
func NewClient(c *Config, opt ...Option) (*Client, error) {
	const op = "oidc.NewClient"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: config is invalid: %w", op, err)
	}
	opts := getClientOpts(opt...)
	client, err := c.HTTPClient()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		config:              c,
		client:              client,
		logger:              opts.withLogger,
		discoveryTTL:        opts.withDiscoveryTTL,
		nowFunc:             opts.withNowFunc,
		carriers:            map[string]*ProviderConfig{},
		backgroundCtx:       HttpClientContext(ctx, client),
		backgroundCtxCancel: cancel,
	}, nil
}

// Done with the client's background resources and must be called for every
// Client created
func (c *Client) Done() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backgroundCtxCancel != nil {
		c.backgroundCtxCancel()
		c.backgroundCtxCancel = nil
	}
	c.carriers = map[string]*ProviderConfig{}
}

// CarrierDiscoveryURL returns the carrier discovery UI URL for the State.  The
// discovery UI resolves the user's carrier and redirects back to the
// configured redirect URL with the carrier's mccmnc and the State's id.
func (c *Client) CarrierDiscoveryURL(s *State) (string, error) {
	const op = "Client.CarrierDiscoveryURL"
	if err := s.Validate(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	u, err := url.Parse(c.config.CarrierDiscoveryURL)
	if err != nil {
		return "", fmt.Errorf("%s: unable to parse carrier discovery url: %w", op, err)
	}
	q := u.Query()
	q.Set("client_id", c.config.ClientID)
	q.Set("redirect_uri", c.config.RedirectURL)
	q.Set("state", s.ID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Discover returns the carrier's ProviderConfig, making a request to the
// configured provider configuration URL when the carrier hasn't been
// discovered yet (or its cached configuration has expired).
func (c *Client) Discover(ctx context.Context, carrierID string) (*ProviderConfig, error) {
	const op = "Client.Discover"
	if carrierID == "" {
		return nil, fmt.Errorf("%s: carrier id is empty: %w: %w", op, ErrDiscoveryFailed, ErrInvalidParameter)
	}
	now := c.now()
	if pc := c.cached(carrierID, now); pc != nil {
		return pc, nil
	}

	// concurrent discoveries of the same carrier share one request
	v, err, _ := c.discovery.Do(carrierID, func() (interface{}, error) {
		// a flight may have finished since the cache was checked
		if pc := c.cached(carrierID, now); pc != nil {
			return pc, nil
		}
		// the fetch outlives any single caller in the flight
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discoveryTimeout)
		defer cancel()
		doc, err := c.fetchProviderConfig(fetchCtx, carrierID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.backgroundCtxCancel == nil {
			return nil, fmt.Errorf("client is done: %w", ErrDiscoveryFailed)
		}
		pc := newProviderConfig(c.backgroundCtx, carrierID, doc, now.Add(c.discoveryTTL))
		c.carriers[carrierID] = pc
		c.logger.Debug("discovered carrier provider", "op", op, "carrier", carrierID, "issuer", doc.Issuer)
		return pc, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v.(*ProviderConfig), nil
}

func (c *Client) cached(carrierID string, now time.Time) *ProviderConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pc, ok := c.carriers[carrierID]; ok && !pc.isExpired(now) {
		return pc
	}
	return nil
}

func (c *Client) fetchProviderConfig(ctx context.Context, carrierID string) (*discoveryDocument, error) {
	u, err := url.Parse(c.config.ProviderConfigURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse provider config url: %w: %w", ErrDiscoveryFailed, err)
	}
	q := u.Query()
	q.Set("client_id", c.config.ClientID)
	q.Set("mccmnc", carrierID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %w: %w", ErrDiscoveryFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider config request failed: %w: %w", ErrDiscoveryFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("carrier %s: %w: %w", carrierID, ErrDiscoveryFailed, ErrUnknownCarrier)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected provider config response status %d: %w", resp.StatusCode, ErrDiscoveryFailed)
	}
	var doc discoveryDocument
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDiscoveryResponseSize)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("unable to decode provider config: %w: %w", ErrDiscoveryFailed, err)
	}
	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("invalid provider config: %w: %w", ErrDiscoveryFailed, err)
	}
	return &doc, nil
}

// AuthOptions are the authorization request options that vary between a
// login and a step-up re-authentication.
type AuthOptions struct {
	// Scopes requested.  The "openid" scope is always requested.
	Scopes []string

	// ACRValues are the space separated requested acr values
	ACRValues string

	// Context is an opaque value displayed to the user by the carrier during
	// a step-up re-authentication
	Context string

	// UILocales are the user's preferred languages for the carrier's pages,
	// in order of preference
	UILocales []language.Tag
}

// AuthURL will generate a URL the caller can use to kick off an OIDC
// authorization code flow with the carrier's provider. The State's id, nonce
// and PKCE challenge are always included.  The optional loginHintToken is the
// token returned by the carrier discovery UI.
func (c *Client) AuthURL(ctx context.Context, pc *ProviderConfig, s *State, loginHintToken string, ao AuthOptions) (string, error) {
	const op = "Client.AuthURL"
	if err := pc.validate(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.Validate(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if s.IsExpired(WithNow(c.now)) {
		return "", fmt.Errorf("%s: state is expired: %w", op, ErrExpiredState)
	}
	challenge, err := CreateCodeChallenge(S256, s.CodeVerifier)
	if err != nil {
		return "", fmt.Errorf("%s: unable to create code challenge: %w", op, err)
	}
	authCodeOpts := []oauth2.AuthCodeOption{
		oidc.Nonce(s.Nonce),
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", string(S256)),
	}
	if ao.ACRValues != "" {
		authCodeOpts = append(authCodeOpts, oauth2.SetAuthURLParam("acr_values", ao.ACRValues))
	}
	if ao.Context != "" {
		authCodeOpts = append(authCodeOpts, oauth2.SetAuthURLParam("context", ao.Context))
	}
	if loginHintToken != "" {
		authCodeOpts = append(authCodeOpts, oauth2.SetAuthURLParam("login_hint_token", loginHintToken))
	}
	if len(ao.UILocales) > 0 {
		locales := make([]string, 0, len(ao.UILocales))
		for _, l := range ao.UILocales {
			locales = append(locales, l.String())
		}
		authCodeOpts = append(authCodeOpts, oauth2.SetAuthURLParam("ui_locales", strings.Join(locales, " ")))
	}
	return c.oauth2Config(pc, ao.Scopes).AuthCodeURL(s.ID, authCodeOpts...), nil
}

// Exchange will request a token from the carrier's token endpoint, using the
// authorizationCode and authorizationState it received in an earlier
// successful authentication response.
//
// It will validate the authorizationState against the State for the user's
// authentication attempt, verify the returned id_token and then verify the
// Bindings.  Failures are ErrTokenExchangeFailed, except for Bindings
// violations which are ErrBindingMismatch.
//
// The exchange is never retried: codes are single use.
func (c *Client) Exchange(ctx context.Context, pc *ProviderConfig, s *State, authorizationState, authorizationCode string, b Bindings) (*Token, error) {
	const op = "Client.Exchange"
	if err := pc.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTokenExchangeFailed, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTokenExchangeFailed, err)
	}
	if !s.Matches(authorizationState) {
		return nil, fmt.Errorf("%s: authentication state and authorization state are not equal: %w: %w", op, ErrTokenExchangeFailed, ErrResponseStateInvalid)
	}
	if s.IsExpired(WithNow(c.now)) {
		return nil, fmt.Errorf("%s: authentication state is expired: %w: %w", op, ErrTokenExchangeFailed, ErrExpiredState)
	}
	if authorizationCode == "" {
		return nil, fmt.Errorf("%s: authorization code is empty: %w: %w", op, ErrTokenExchangeFailed, ErrInvalidParameter)
	}

	oidcCtx := HttpClientContext(ctx, c.client)
	oauth2Token, err := c.oauth2Config(pc, nil).Exchange(oidcCtx, authorizationCode, oauth2.SetAuthURLParam("code_verifier", s.CodeVerifier))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to exchange auth code with provider: %w: %w", op, ErrTokenExchangeFailed, err)
	}
	rawIdToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok || rawIdToken == "" {
		return nil, fmt.Errorf("%s: id_token is missing from auth code exchange: %w: %w", op, ErrTokenExchangeFailed, ErrMissingIdToken)
	}
	idToken, err := c.verifyIdToken(oidcCtx, pc, rawIdToken, s.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%s: id_token failed verification: %w: %w", op, ErrTokenExchangeFailed, err)
	}
	var claims bindingClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%s: unable to read id_token claims: %w: %w", op, ErrTokenExchangeFailed, err)
	}
	if err := b.verify(idToken.Subject, claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Token{
		IdToken:      IdToken(rawIdToken),
		AccessToken:  AccessToken(oauth2Token.AccessToken),
		RefreshToken: RefreshToken(oauth2Token.RefreshToken),
		Expiry:       oauth2Token.Expiry,
		Subject:      idToken.Subject,
		ACR:          claims.ACR,
	}, nil
}

// UserInfo gets the UserInfo claims from the carrier's provider using the
// Token's access_token.  The user info "sub" must match the Token's Subject.
func (c *Client) UserInfo(ctx context.Context, pc *ProviderConfig, t *Token) (map[string]interface{}, error) {
	const op = "Client.UserInfo"
	if err := pc.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUserInfoFailed, err)
	}
	if t == nil || t.AccessToken == "" {
		return nil, fmt.Errorf("%s: access_token is missing: %w: %w", op, ErrUserInfoFailed, ErrInvalidParameter)
	}
	oidcCtx := HttpClientContext(ctx, c.client)
	userinfo, err := pc.provider.UserInfo(oidcCtx, t.StaticTokenSource())
	if err != nil {
		return nil, fmt.Errorf("%s: provider UserInfo request failed: %w: %w", op, ErrUserInfoFailed, err)
	}
	if t.Subject != "" && subtle.ConstantTimeCompare([]byte(t.Subject), []byte(userinfo.Subject)) != 1 {
		return nil, fmt.Errorf("%s: userinfo sub does not match id_token sub: %w", op, ErrUserInfoFailed)
	}
	claims := map[string]interface{}{}
	if err := userinfo.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%s: failed to get UserInfo claims: %w: %w", op, ErrUserInfoFailed, err)
	}
	return claims, nil
}

// verifyIdToken will verify the inbound id_token.  It verifies it's been
// signed by the provider, it validates the nonce, and performs any additional
// checks depending on the config (audiences, etc).
//
// See: https://openid.net/specs/openid-connect-core-1_0.html#IDTokenValidation
func (c *Client) verifyIdToken(ctx context.Context, pc *ProviderConfig, raw string, nonce string) (*oidc.IDToken, error) {
	const op = "Client.verifyIdToken"
	if nonce == "" {
		return nil, fmt.Errorf("%s: nonce is empty: %w", op, ErrInvalidParameter)
	}
	algs := make([]string, 0, len(c.config.SupportedSigningAlgs))
	for _, a := range c.config.SupportedSigningAlgs {
		algs = append(algs, string(a))
	}
	oidcConfig := &oidc.Config{
		ClientID:             c.config.ClientID,
		SupportedSigningAlgs: algs,
		Now:                  c.now,
		// audiences are checked below when they're configured
		SkipClientIDCheck: len(c.config.Audiences) > 0,
	}
	idToken, err := pc.provider.Verifier(oidcConfig).Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrIdTokenVerificationFailed, err)
	}
	if subtle.ConstantTimeCompare([]byte(idToken.Nonce), []byte(nonce)) != 1 {
		return nil, fmt.Errorf("%s: invalid id_token nonce: %w", op, ErrInvalidNonce)
	}
	if len(c.config.Audiences) > 0 && !audiencesIntersect(idToken.Audience, append([]string{c.config.ClientID}, c.config.Audiences...)) {
		return nil, fmt.Errorf("%s: invalid id_token audiences: %w", op, ErrIdTokenVerificationFailed)
	}
	return idToken, nil
}

func (c *Client) oauth2Config(pc *ProviderConfig, scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.config.ClientID,
		ClientSecret: string(c.config.ClientSecret),
		RedirectURL:  c.config.RedirectURL,
		Endpoint:     pc.provider.Endpoint(),
		Scopes:       withOpenIDScope(scopes),
	}
}

func (c *Client) now() time.Time {
	if c.nowFunc != nil {
		return c.nowFunc()
	}
	return time.Now() // fallback to this default
}

// withOpenIDScope makes sure the "openid" scope is first and not repeated
func withOpenIDScope(scopes []string) []string {
	out := []string{oidc.ScopeOpenID}
	for _, s := range scopes {
		if s != oidc.ScopeOpenID && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func audiencesIntersect(got, allowed []string) bool {
	for _, a := range allowed {
		for _, g := range got {
			if a == g {
				return true
			}
		}
	}
	return false
}

// HttpClientContext is a helper function that returns a new Context that
// carries the provided HTTP client. This method sets the same context key used
// by the github.com/coreos/go-oidc and golang.org/x/oauth2 packages, so the
// returned context works for those packages as well.
func HttpClientContext(ctx context.Context, client *http.Client) context.Context {
	return sdkHttp.ClientContext(ctx, client)
}

// clientOptions is the set of available options for the Client
type clientOptions struct {
	withLogger       hclog.Logger
	withDiscoveryTTL time.Duration
	withNowFunc      func() time.Time
}

// clientDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func clientDefaults() clientOptions {
	return clientOptions{
		withLogger:       hclog.NewNullLogger(),
		withDiscoveryTTL: DefaultDiscoveryTTL,
	}
}

// getClientOpts gets the client defaults and applies the opt overrides passed
// in
func getClientOpts(opt ...Option) clientOptions {
	opts := clientDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger for the Client
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithDiscoveryTTL provides an optional duration to cache discovered carrier
// provider configurations
func WithDiscoveryTTL(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok && d > 0 {
			o.withDiscoveryTTL = d
		}
	}
}
