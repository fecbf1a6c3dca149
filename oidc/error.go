// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"errors"
)

var (
	ErrInvalidParameter           = errors.New("invalid parameter")
	ErrNilParameter               = errors.New("nil parameter")
	ErrInvalidCACert              = errors.New("invalid CA certificate")
	ErrInvalidIssuer              = errors.New("invalid issuer")
	ErrIdGeneratorFailed          = errors.New("id generation failed")
	ErrExpiredState               = errors.New("state is expired")
	ErrResponseStateInvalid       = errors.New("oidc response state")
	ErrMissingIdToken             = errors.New("id_token is missing")
	ErrIdTokenVerificationFailed  = errors.New("id_token verification failed")
	ErrInvalidNonce               = errors.New("invalid nonce")
	ErrUnsupportedChallengeMethod = errors.New("unsupported PKCE challenge method")
	ErrNotFound                   = errors.New("not found")
	ErrUnknownCarrier             = errors.New("unknown carrier")
	ErrDiscoveryFailed            = errors.New("carrier discovery failed")
	ErrTokenExchangeFailed        = errors.New("token exchange failed")
	ErrBindingMismatch            = errors.New("token binding mismatch")
	ErrUserInfoFailed             = errors.New("user info failed")
)
