// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/carrierauth/oidc"
)

type testExchange struct {
	state    *oidc.State
	authzSt  string
	code     string
	bindings oidc.Bindings
}

type testAuthURL struct {
	carrierID string
	state     *oidc.State
	loginHint string
	ao        oidc.AuthOptions
}

// testProvider is an IdentityProvider which records its calls.  Codes are
// single use like a real provider's.
type testProvider struct {
	mu sync.Mutex

	discoverErr    error
	authURLErr     error
	discoveryURLEr error
	exchangeErr    error
	userInfoErr    error
	subject        string
	acr            string
	claims         map[string]interface{}

	discovered []string
	authURLs   []testAuthURL
	exchanges  []testExchange
	userInfos  int
	usedCodes  map[string]bool
}

func newTestProvider() *testProvider {
	return &testProvider{
		subject: "u1",
		acr:     "a1",
		claims: map[string]interface{}{
			"sub":   "u1",
			"name":  "Alice Doe",
			"email": "alice@example.com",
		},
		usedCodes: map[string]bool{},
	}
}

func (p *testProvider) CarrierDiscoveryURL(s *oidc.State) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.discoveryURLEr != nil {
		return "", p.discoveryURLEr
	}
	return "https://discover.example.com/ui?state=" + s.ID, nil
}

func (p *testProvider) Discover(_ context.Context, carrierID string) (*oidc.ProviderConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discovered = append(p.discovered, carrierID)
	if p.discoverErr != nil {
		return nil, p.discoverErr
	}
	return &oidc.ProviderConfig{CarrierID: carrierID, AuthURL: "https://carrier.example.com/auth"}, nil
}

func (p *testProvider) AuthURL(_ context.Context, pc *oidc.ProviderConfig, s *oidc.State, loginHintToken string, ao oidc.AuthOptions) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authURLs = append(p.authURLs, testAuthURL{carrierID: pc.CarrierID, state: s, loginHint: loginHintToken, ao: ao})
	if p.authURLErr != nil {
		return "", p.authURLErr
	}
	return fmt.Sprintf("%s?state=%s", pc.AuthURL, s.ID), nil
}

func (p *testProvider) Exchange(_ context.Context, _ *oidc.ProviderConfig, s *oidc.State, authorizationState, code string, b oidc.Bindings) (*oidc.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exchanges = append(p.exchanges, testExchange{state: s, authzSt: authorizationState, code: code, bindings: b})
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	if p.usedCodes[code] {
		return nil, fmt.Errorf("code already used: %w", oidc.ErrTokenExchangeFailed)
	}
	p.usedCodes[code] = true
	if b.Subject != "" && b.Subject != p.subject {
		return nil, fmt.Errorf("sub: %w", oidc.ErrBindingMismatch)
	}
	if b.ACRValues != "" && b.ACRValues != p.acr {
		return nil, fmt.Errorf("acr: %w", oidc.ErrBindingMismatch)
	}
	return &oidc.Token{
		IdToken:     "id-token",
		AccessToken: "access-token",
		Expiry:      time.Now().Add(time.Hour),
		Subject:     p.subject,
		ACR:         p.acr,
	}, nil
}

func (p *testProvider) UserInfo(context.Context, *oidc.ProviderConfig, *oidc.Token) (map[string]interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userInfos++
	if p.userInfoErr != nil {
		return nil, p.userInfoErr
	}
	return p.claims, nil
}

func (p *testProvider) exchangeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.exchanges)
}

func (p *testProvider) lastAuthURL() testAuthURL {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.authURLs[len(p.authURLs)-1]
}

func (p *testProvider) lastExchange() testExchange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exchanges[len(p.exchanges)-1]
}
