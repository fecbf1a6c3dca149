// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	sdkHttp "github.com/hashicorp/carrierauth/sdk/http"
	"github.com/hashicorp/go-multierror"
)

// ClientSecret is an oauth client Secret
type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// Config represents the relying party configuration for carrier mediated
// logins.
type Config struct {
	// ClientID is the relying party id
	ClientID string

	// ClientSecret is the relying party secret
	ClientSecret ClientSecret

	// RedirectURL is the relying party's callback.  Both the carrier discovery
	// UI and the carrier's authorization endpoint redirect the user back to
	// it.
	RedirectURL string

	// CarrierDiscoveryURL is the discovery UI the user is sent to when the
	// relying party doesn't know the user's carrier.  It redirects back to the
	// RedirectURL with the carrier's mccmnc and an optional login_hint_token.
	CarrierDiscoveryURL string

	// ProviderConfigURL is queried with the client_id and mccmnc to get a
	// carrier's OpenID provider configuration.
	ProviderConfigURL string

	// SupportedSigningAlgs is a list of supported signing algorithms. List of
	// currently supported algs: RS256, RS384, RS512, ES256, ES384, ES512,
	// PS256, PS384, PS512
	SupportedSigningAlgs []Alg

	// Audiences is a list optional case-sensitive strings used when verifying
	// an id_token's "aud" claim.  The ClientID is always an allowed audience.
	Audiences []string

	// ProviderCA is an optional CA cert to use when sending requests to the
	// discovery service and the carrier's provider.
	ProviderCA string
}

// NewConfig composes a new config for a relying party.
// Supported options:
//
//	WithAudiences
//	WithProviderCA
func NewConfig(clientID string, clientSecret ClientSecret, redirectURL, carrierDiscoveryURL, providerConfigURL string, supported []Alg, opt ...Option) (*Config, error) {
	const op = "oidc.NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		ClientID:             clientID,
		ClientSecret:         clientSecret,
		RedirectURL:          redirectURL,
		CarrierDiscoveryURL:  carrierDiscoveryURL,
		ProviderConfigURL:    providerConfigURL,
		SupportedSigningAlgs: supported,
		Audiences:            opts.withAudiences,
		ProviderCA:           opts.withProviderCA,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid provider config: %w", op, err)
	}
	return c, nil
}

// Validate the configuration.  All problems are reported, not just the first
// one found.  It doesn't verify the discovery URLs are reachable.
func (c *Config) Validate() error {
	const op = "Config.Validate"
	if c == nil {
		return fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	var result *multierror.Error
	if c.ClientID == "" {
		result = multierror.Append(result, fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter))
	}
	if c.ClientSecret == "" {
		result = multierror.Append(result, fmt.Errorf("%s: client secret is empty: %w", op, ErrInvalidParameter))
	}
	for name, u := range map[string]string{
		"redirect URL":          c.RedirectURL,
		"carrier discovery URL": c.CarrierDiscoveryURL,
		"provider config URL":   c.ProviderConfigURL,
	} {
		if err := validateURL(u); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %s %w", op, name, err))
		}
	}
	if len(c.SupportedSigningAlgs) == 0 {
		result = multierror.Append(result, fmt.Errorf("%s: supported algorithms is empty: %w", op, ErrInvalidParameter))
	}
	for _, a := range c.SupportedSigningAlgs {
		if !supportedAlgorithms[a] {
			result = multierror.Append(result, fmt.Errorf("%s: unsupported algorithm %s: %w", op, a, ErrInvalidParameter))
		}
	}
	if c.ProviderCA != "" {
		if _, err := c.HTTPClient(); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", op, err))
		}
	}
	return result.ErrorOrNil()
}

func validateURL(u string) error {
	if u == "" {
		return fmt.Errorf("is empty: %w", ErrInvalidParameter)
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return fmt.Errorf("%q is invalid: %w: %w", u, ErrInvalidParameter, err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("%q scheme is not http or https: %w", u, ErrInvalidParameter)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%q has no host: %w", u, ErrInvalidParameter)
	}
	return nil
}

// HTTPClient is a helper function that creates a new http client for the
// configured provider CA
func (c *Config) HTTPClient() (*http.Client, error) {
	const op = "Config.HTTPClient"
	client, err := sdkHttp.NewClient(c.ProviderCA)
	if err != nil {
		if errors.Is(err, sdkHttp.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: could not parse CA PEM value successfully: %w", op, ErrInvalidCACert)
		}
		return nil, fmt.Errorf("%s: could not get an http client: %w", op, err)
	}
	return client, nil
}

// configOptions is the set of available options
type configOptions struct {
	withAudiences  []string
	withProviderCA string
}

// configDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func configDefaults() configOptions {
	return configOptions{}
}

// getConfigOpts gets the defaults and applies the opt overrides passed
// in.
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithAudiences provides an optional list of audiences for the config
func WithAudiences(auds ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withAudiences = auds
		}
	}
}

// WithProviderCA provides an optional CA cert for the config
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withProviderCA = cert
		}
	}
}
