// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBindings_verify(t *testing.T) {
	t.Parallel()
	const sub = "alice-sub"
	tests := []struct {
		name    string
		b       Bindings
		sub     string
		claims  bindingClaims
		wantErr bool
	}{
		{"zero-bindings", Bindings{}, sub, bindingClaims{}, false},
		{"acr-match", Bindings{ACRValues: "a3"}, sub, bindingClaims{ACR: "a3"}, false},
		{"acr-one-of", Bindings{ACRValues: "a2 a3"}, sub, bindingClaims{ACR: "a3"}, false},
		{"acr-lower", Bindings{ACRValues: "a3"}, sub, bindingClaims{ACR: "a1"}, true},
		{"acr-missing", Bindings{ACRValues: "a3"}, sub, bindingClaims{}, true},
		{"sub-match", Bindings{Subject: sub}, sub, bindingClaims{}, false},
		{"sub-mismatch", Bindings{Subject: sub}, "mallory-sub", bindingClaims{}, true},
		{"context-raw", Bindings{Context: "transfer $100"}, sub, bindingClaims{Context: "transfer $100"}, false},
		{"context-b64", Bindings{Context: "transfer $100"}, sub, bindingClaims{Context: base64.StdEncoding.EncodeToString([]byte("transfer $100"))}, false},
		{"context-b64url", Bindings{Context: "transfer $100?"}, sub, bindingClaims{Context: base64.RawURLEncoding.EncodeToString([]byte("transfer $100?"))}, false},
		{"context-missing", Bindings{Context: "transfer $100"}, sub, bindingClaims{}, true},
		{"context-different", Bindings{Context: "transfer $100"}, sub, bindingClaims{Context: "transfer $999"}, true},
		{
			name:   "all",
			b:      Bindings{ACRValues: "a3", Subject: sub, Context: "ctx"},
			sub:    sub,
			claims: bindingClaims{ACR: "a3", Context: "ctx"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.b.verify(tt.sub, tt.claims)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBindingMismatch)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBindings_IsZero(t *testing.T) {
	t.Parallel()
	assert.True(t, Bindings{}.IsZero())
	assert.False(t, Bindings{Subject: "alice"}.IsZero())
}
