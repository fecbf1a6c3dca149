// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// ChallengeMethod represents PKCE code challenge methods as defined by RFC
// 7636.
type ChallengeMethod string

const (
	// S256 is the only challenge method supported.  See:
	// https://datatracker.ietf.org/doc/html/rfc7636#section-4.2
	S256 ChallengeMethod = "S256"
)

// verifierLen is the length of an encoded verifier: 32 random bytes, base64url
// encoded without padding.
const verifierLen = 43

// NewCodeVerifier creates a new PKCE code verifier.
func NewCodeVerifier() (string, error) {
	const op = "oidc.NewCodeVerifier"
	data := make([]byte, 32)
	if _, err := rand.Read(data); err != nil {
		return "", fmt.Errorf("%s: unable to read random bytes: %w", op, err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// CreateCodeChallenge creates a code challenge from the verifier. Supported
// ChallengeMethods: S256
func CreateCodeChallenge(method ChallengeMethod, verifier string) (string, error) {
	const op = "oidc.CreateCodeChallenge"
	if verifier == "" {
		return "", fmt.Errorf("%s: verifier is empty: %w", op, ErrInvalidParameter)
	}
	switch method {
	case S256:
		sum := sha256.Sum256([]byte(verifier))
		return base64.RawURLEncoding.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("%s: %s is invalid: %w", op, method, ErrUnsupportedChallengeMethod)
	}
}
