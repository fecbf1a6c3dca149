// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

// ProviderConfig is a carrier's discovered OpenID provider configuration. See
// Client.Discover.
type ProviderConfig struct {
	// CarrierID is the mccmnc the configuration was discovered for
	CarrierID string

	Issuer      string
	AuthURL     string
	TokenURL    string
	UserInfoURL string
	JWKSURL     string

	// Algorithms are the id_token signing algs the provider advertised
	Algorithms []string

	provider   *oidc.Provider
	expiration time.Time
}

// discoveryDocument is the subset of the OpenID provider metadata returned by
// the carrier's provider configuration endpoint that's used by the Client.
// See: https://openid.net/specs/openid-connect-discovery-1_0.html#ProviderMetadata
type discoveryDocument struct {
	Issuer      string   `json:"issuer"`
	AuthURL     string   `json:"authorization_endpoint"`
	TokenURL    string   `json:"token_endpoint"`
	UserInfoURL string   `json:"userinfo_endpoint"`
	JWKSURL     string   `json:"jwks_uri"`
	Algorithms  []string `json:"id_token_signing_alg_values_supported"`
}

func (d *discoveryDocument) validate() error {
	const op = "discoveryDocument.validate"
	if err := validateURL(d.Issuer); err != nil {
		return fmt.Errorf("%s: issuer %w: %w", op, err, ErrInvalidIssuer)
	}
	for name, u := range map[string]string{
		"authorization_endpoint": d.AuthURL,
		"token_endpoint":         d.TokenURL,
		"jwks_uri":               d.JWKSURL,
	} {
		if err := validateURL(u); err != nil {
			return fmt.Errorf("%s: %s %w", op, name, err)
		}
	}
	if d.UserInfoURL != "" {
		if err := validateURL(d.UserInfoURL); err != nil {
			return fmt.Errorf("%s: userinfo_endpoint %w", op, err)
		}
	}
	return nil
}

// newProviderConfig creates a ProviderConfig from a discovery document.  The
// ctx must carry the http client (see HttpClientContext) since it's used by
// the provider to fetch the JWKS for the lifetime of the ProviderConfig.
func newProviderConfig(ctx context.Context, carrierID string, d *discoveryDocument, expiration time.Time) *ProviderConfig {
	pc := &ProviderConfig{
		CarrierID:   carrierID,
		Issuer:      d.Issuer,
		AuthURL:     d.AuthURL,
		TokenURL:    d.TokenURL,
		UserInfoURL: d.UserInfoURL,
		JWKSURL:     d.JWKSURL,
		Algorithms:  d.Algorithms,
		expiration:  expiration,
	}
	oc := &oidc.ProviderConfig{
		IssuerURL:   d.Issuer,
		AuthURL:     d.AuthURL,
		TokenURL:    d.TokenURL,
		UserInfoURL: d.UserInfoURL,
		JWKSURL:     d.JWKSURL,
		Algorithms:  d.Algorithms,
	}
	pc.provider = oc.NewProvider(ctx)
	return pc
}

func (pc *ProviderConfig) validate() error {
	const op = "ProviderConfig.validate"
	switch {
	case pc == nil:
		return fmt.Errorf("%s: provider config is nil: %w", op, ErrNilParameter)
	case pc.provider == nil:
		return fmt.Errorf("%s: provider config was not discovered: %w", op, ErrInvalidParameter)
	}
	return nil
}

func (pc *ProviderConfig) isExpired(now time.Time) bool {
	return !pc.expiration.IsZero() && pc.expiration.Before(now)
}
