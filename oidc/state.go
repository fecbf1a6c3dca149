// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"crypto/subtle"
	"fmt"
	"time"
)

// State represents one authentication attempt for a user.  It contains the
// data needed to uniquely represent that one-time flow across the multiple
// redirects needed to complete it: carrier discovery, the provider's
// authorization endpoint and finally the code exchange.
//
// The ID is passed throughout the flow as the "state" parameter.  The ID and
// Nonce cannot be equal, and are used to prevent CSRF and replay attacks.
// States are persisted in the user's session, so the fields are exported for
// serialization.  The CodeVerifier must never leave the relying party.
type State struct {
	// ID is a unique identifier and an opaque value used to maintain state
	// between the oidc request and the callback.
	ID string `json:"id"`

	// Nonce is a unique nonce used to associate the session with an id_token
	Nonce string `json:"nonce"`

	// CodeVerifier is the PKCE verifier for the attempt's code exchange.
	CodeVerifier string `json:"code_verifier"`

	// Expiration is the expiration time for the State
	Expiration time.Time `json:"expiration"`

	nowFunc func() time.Time
}

// NewState creates a new State.  Supports the WithNow option.
func NewState(expireIn time.Duration, opt ...Option) (*State, error) {
	const op = "oidc.NewState"
	if expireIn <= 0 {
		return nil, fmt.Errorf("%s: expireIn not greater than zero: %w", op, ErrInvalidParameter)
	}
	opts := getStOpts(opt...)
	nonce, err := NewID(NoncePrefix)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to generate a state's nonce: %w", op, err)
	}
	id, err := NewID(StatePrefix)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to generate a state's id: %w", op, err)
	}
	verifier, err := NewCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to generate a state's code verifier: %w", op, err)
	}
	s := &State{
		ID:           id,
		Nonce:        nonce,
		CodeVerifier: verifier,
		nowFunc:      opts.withNowFunc,
	}
	s.Expiration = s.now().Add(expireIn)
	return s, nil
}

// DefaultStateExpirySkew defines a default time skew when checking a State's
// expiration.
const DefaultStateExpirySkew = 1 * time.Second

// IsExpired returns true if the state has expired. Supports the
// WithExpirySkew and WithNow options.  If no skew is provided it will use the
// DefaultStateExpirySkew.
func (s *State) IsExpired(opt ...Option) bool {
	opts := getStOpts(opt...)
	now := s.now()
	if opts.withNowFunc != nil {
		now = opts.withNowFunc()
	}
	return s.Expiration.Before(now.Add(opts.withExpirySkew))
}

// Matches returns true if the state's ID equals the inbound "state" parameter.
// The comparison is constant time.
func (s *State) Matches(authorizationState string) bool {
	if s == nil || s.ID == "" || authorizationState == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.ID), []byte(authorizationState)) == 1
}

// Validate the state before it's used in an auth URL or code exchange.
func (s *State) Validate() error {
	const op = "State.Validate"
	switch {
	case s == nil:
		return fmt.Errorf("%s: state is nil: %w", op, ErrNilParameter)
	case s.ID == "":
		return fmt.Errorf("%s: state id is empty: %w", op, ErrInvalidParameter)
	case s.Nonce == "":
		return fmt.Errorf("%s: state nonce is empty: %w", op, ErrInvalidParameter)
	case s.ID == s.Nonce:
		return fmt.Errorf("%s: state id and nonce cannot be equal: %w", op, ErrInvalidParameter)
	case s.CodeVerifier == "":
		return fmt.Errorf("%s: state code verifier is empty: %w", op, ErrInvalidParameter)
	}
	return nil
}

func (s *State) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now() // fallback to this default
}

// stOptions is the set of available options for State functions
type stOptions struct {
	withExpirySkew time.Duration
	withNowFunc    func() time.Time
}

// stDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func stDefaults() stOptions {
	return stOptions{
		withExpirySkew: DefaultStateExpirySkew,
	}
}

// getStOpts gets the state defaults and applies the opt overrides passed in
func getStOpts(opt ...Option) stOptions {
	opts := stDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
