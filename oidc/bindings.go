// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
)

// Bindings are the values a code exchange's id_token must be bound to.  They
// are used to finish a step-up re-authentication, where the response must
// belong to the already authenticated user (Subject) and must have been
// performed at the requested assurance level (ACRValues).  Empty values are
// not checked.
type Bindings struct {
	// ACRValues are the space separated acr values that were requested.  The
	// id_token's "acr" claim must be one of them.
	ACRValues string

	// Subject must equal the id_token's "sub" claim
	Subject string

	// Context is the step-up context that was sent with the authorization
	// request.  Carriers are inconsistent about echoing it (some return it
	// base64 encoded, some omit it) so it's only checked when set.
	Context string
}

// IsZero returns true if there's nothing to verify
func (b Bindings) IsZero() bool {
	return b == Bindings{}
}

// bindingClaims are the id_token claims used when verifying Bindings
type bindingClaims struct {
	ACR     string `json:"acr"`
	Context string `json:"context"`
}

func (b Bindings) verify(sub string, claims bindingClaims) error {
	const op = "Bindings.verify"
	if b.ACRValues != "" {
		if claims.ACR == "" {
			return fmt.Errorf("%s: id_token acr is missing: %w", op, ErrBindingMismatch)
		}
		found := false
		for _, v := range strings.Fields(b.ACRValues) {
			if v == claims.ACR {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: id_token acr %q was not requested: %w", op, claims.ACR, ErrBindingMismatch)
		}
	}
	if b.Subject != "" && subtle.ConstantTimeCompare([]byte(b.Subject), []byte(sub)) != 1 {
		return fmt.Errorf("%s: id_token sub does not match the bound subject: %w", op, ErrBindingMismatch)
	}
	if b.Context != "" && !contextMatches(b.Context, claims.Context) {
		return fmt.Errorf("%s: id_token context does not match: %w", op, ErrBindingMismatch)
	}
	return nil
}

// contextMatches compares the requested context with the returned claim,
// accepting the base64 encoded forms carriers are known to return.
func contextMatches(want, got string) bool {
	if got == "" {
		return false
	}
	if got == want {
		return true
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if decoded, err := enc.DecodeString(got); err == nil && string(decoded) == want {
			return true
		}
	}
	return false
}
