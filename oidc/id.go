// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"

	"github.com/hashicorp/carrierauth/sdk/id"
)

// Prefixes used for generated ids
const (
	StatePrefix = "st"
	NoncePrefix = "n"
)

// NewID generates a ID with an optional prefix.   The ID generated is suitable
// for a State's ID or Nonce
func NewID(optionalPrefix string) (string, error) {
	const op = "oidc.NewID"
	id, err := id.New(optionalPrefix)
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate id: %w: %w", op, ErrIdGeneratorFailed, err)
	}
	return id, nil
}
