// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		prefix  string
		wantLen int
	}{
		{
			name:    "valid",
			prefix:  "st",
			wantLen: Len + len("st_"),
		},
		{
			name:    "no-prefix",
			prefix:  "",
			wantLen: Len,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := New(tt.prefix)
			require.NoError(err)
			if tt.prefix != "" {
				assert.True(strings.HasPrefix(got, tt.prefix+"_"))
			}
			assert.Len(got, tt.wantLen)
			assert.True(Valid(tt.prefix, got))
		})
	}
	t.Run("unique", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		first, err := New("n")
		require.NoError(err)
		second, err := New("n")
		require.NoError(err)
		assert.NotEqual(first, second)
	})
}

func TestValid(t *testing.T) {
	t.Parallel()
	good, err := New("sess")
	require.NoError(t, err)
	tests := []struct {
		name   string
		prefix string
		s      string
		want   bool
	}{
		{"valid", "sess", good, true},
		{"wrong-prefix", "st", good, false},
		{"prefix-only", "sess", "sess_", false},
		{"empty", "", "", false},
		{"garbage", "sess", "sess_../../etc/passwd", false},
		{"uppercase", "", strings.ToUpper(good[len("sess_"):]), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.prefix, tt.s))
		})
	}
}
