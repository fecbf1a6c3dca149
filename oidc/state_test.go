// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	t.Parallel()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name      string
		expireIn  time.Duration
		opt       []Option
		wantExp   time.Time
		wantErr   bool
		wantIsErr error
	}{
		{
			name:     "valid",
			expireIn: time.Minute,
			opt:      []Option{WithNow(func() time.Time { return fixed })},
			wantExp:  fixed.Add(time.Minute),
		},
		{
			name:      "zero-expire",
			expireIn:  0,
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name:      "negative-expire",
			expireIn:  -time.Second,
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			got, err := NewState(tt.expireIn, tt.opt...)
			if tt.wantErr {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			assert.True(strings.HasPrefix(got.ID, StatePrefix+"_"))
			assert.True(strings.HasPrefix(got.Nonce, NoncePrefix+"_"))
			assert.Len(got.CodeVerifier, verifierLen)
			assert.Equal(tt.wantExp, got.Expiration)
			assert.NoError(got.Validate())
		})
	}
	t.Run("unique", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		s1, err := NewState(time.Minute)
		require.NoError(err)
		s2, err := NewState(time.Minute)
		require.NoError(err)
		assert.NotEqual(s1.ID, s2.ID)
		assert.NotEqual(s1.Nonce, s2.Nonce)
		assert.NotEqual(s1.CodeVerifier, s2.CodeVerifier)
	})
}

func TestState_IsExpired(t *testing.T) {
	t.Parallel()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	at := func(d time.Duration) func() time.Time {
		return func() time.Time { return fixed.Add(d) }
	}
	s, err := NewState(time.Minute, WithNow(at(0)))
	require.NoError(t, err)

	tests := []struct {
		name string
		opt  []Option
		want bool
	}{
		{"now", nil, false},
		{"before-expiry", []Option{WithNow(at(30 * time.Second))}, false},
		{"within-default-skew", []Option{WithNow(at(time.Minute - 500*time.Millisecond))}, true},
		{"after-expiry", []Option{WithNow(at(2 * time.Minute))}, true},
		{"with-larger-skew", []Option{WithNow(at(30 * time.Second)), WithExpirySkew(45 * time.Second)}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, s.IsExpired(tt.opt...))
		})
	}
}

func TestState_Matches(t *testing.T) {
	t.Parallel()
	s, err := NewState(time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name  string
		s     *State
		param string
		want  bool
	}{
		{"match", s, s.ID, true},
		{"mismatch", s, s.ID + "x", false},
		{"empty-param", s, "", false},
		{"nil-state", nil, s.ID, false},
		{"empty-id", &State{}, "", false},
		{"nonce-is-not-the-state", s, s.Nonce, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.s.Matches(tt.param))
		})
	}
}

func TestState_Validate(t *testing.T) {
	t.Parallel()
	valid := func() *State {
		return &State{ID: "st_1", Nonce: "n_1", CodeVerifier: "verifier", Expiration: time.Now().Add(time.Minute)}
	}
	tests := []struct {
		name      string
		s         func() *State
		wantIsErr error
	}{
		{"valid", valid, nil},
		{"nil", func() *State { return nil }, ErrNilParameter},
		{"missing-id", func() *State { s := valid(); s.ID = ""; return s }, ErrInvalidParameter},
		{"missing-nonce", func() *State { s := valid(); s.Nonce = ""; return s }, ErrInvalidParameter},
		{"id-equals-nonce", func() *State { s := valid(); s.Nonce = s.ID; return s }, ErrInvalidParameter},
		{"missing-verifier", func() *State { s := valid(); s.CodeVerifier = ""; return s }, ErrInvalidParameter},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.s().Validate()
			if tt.wantIsErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantIsErr)
		})
	}
}

func TestState_JSON(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	s, err := NewState(time.Minute)
	require.NoError(err)

	b, err := json.Marshal(s)
	require.NoError(err)
	var got State
	require.NoError(json.Unmarshal(b, &got))
	assert.Equal(s.ID, got.ID)
	assert.Equal(s.Nonce, got.Nonce)
	assert.Equal(s.CodeVerifier, got.CodeVerifier)
	assert.True(s.Expiration.Equal(got.Expiration))
	assert.False(got.IsExpired())
}
