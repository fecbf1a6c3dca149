// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2/jwt"
)

func TestToken_Valid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		tk          *Token
		wantValid   bool
		wantExpired bool
	}{
		{"nil", nil, false, false},
		{"no-access-token", &Token{Expiry: time.Now().Add(time.Hour)}, false, false},
		{"valid", &Token{AccessToken: "at", Expiry: time.Now().Add(time.Hour)}, true, false},
		{"no-expiry", &Token{AccessToken: "at"}, true, false},
		{"expired", &Token{AccessToken: "at", Expiry: time.Now().Add(-time.Minute)}, false, true},
		{"within-skew", &Token{AccessToken: "at", Expiry: time.Now().Add(expirySkew / 2)}, false, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert := assert.New(t)
			assert.Equal(tt.wantValid, tt.tk.Valid())
			if tt.tk != nil {
				assert.Equal(tt.wantExpired, tt.tk.Expired())
			}
		})
	}
}

func TestToken_StaticTokenSource(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	exp := time.Now().Add(time.Hour)
	tk := &Token{AccessToken: "test-access-token", Expiry: exp}
	got, err := tk.StaticTokenSource().Token()
	require.NoError(err)
	assert.Equal("test-access-token", got.AccessToken)
	assert.Equal(exp, got.Expiry)
}

func TestToken_Redacted(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	tk := Token{
		IdToken:      "raw-id-token",
		AccessToken:  "raw-access-token",
		RefreshToken: "raw-refresh-token",
		Subject:      "alice",
	}
	b, err := json.Marshal(tk)
	require.NoError(err)
	for _, raw := range []string{"raw-id-token", "raw-access-token", "raw-refresh-token"} {
		assert.NotContains(string(b), raw)
		assert.NotContains(fmt.Sprintf("%s %s %s", tk.IdToken, tk.AccessToken, tk.RefreshToken), raw)
	}
	assert.Contains(string(b), RedactedIdToken)
	assert.Contains(string(b), RedactedAccessToken)
	assert.Contains(string(b), RedactedRefreshToken)
}

func TestIdToken_Claims(t *testing.T) {
	t.Parallel()
	_, priv := TestGenerateKeys(t)
	raw := TestSignJWT(t, priv, jwt.Claims{Subject: "alice", Issuer: "https://carrier.example.com"}, map[string]interface{}{"acr": "a3"})

	tests := []struct {
		name      string
		tk        IdToken
		claims    interface{}
		wantIsErr error
	}{
		{"valid", IdToken(raw), &map[string]interface{}{}, nil},
		{"empty", "", &map[string]interface{}{}, ErrInvalidParameter},
		{"nil-claims", IdToken(raw), nil, ErrNilParameter},
		{"not-a-jwt", "not.a-jwt", &map[string]interface{}{}, ErrInvalidParameter},
		{"bad-payload", "aaa.!!!.ccc", &map[string]interface{}{}, ErrInvalidParameter},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			err := tt.tk.Claims(tt.claims)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			got := *(tt.claims.(*map[string]interface{}))
			assert.Equal("alice", got["sub"])
			assert.Equal("a3", got["acr"])
		})
	}
}
