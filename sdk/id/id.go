// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package id

import (
	"fmt"
	"regexp"

	"github.com/hashicorp/go-uuid"
)

// Len is the length of an id generated by New without a prefix.
const Len = 36

var idPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// New generates an ID with an optional prefix.  The random portion is a
// version 4 UUID, so it is suitable for state ids, nonces and session ids.
func New(optionalPrefix string) (string, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return "", fmt.Errorf("unable to generate id: %w", err)
	}
	switch {
	case optionalPrefix != "":
		return fmt.Sprintf("%s_%s", optionalPrefix, id), nil
	default:
		return id, nil
	}
}

// Valid reports whether s could have been produced by New with the given
// prefix.  It's used to reject malformed ids (from cookies, etc) before they
// are used as storage keys.
func Valid(optionalPrefix, s string) bool {
	if optionalPrefix != "" {
		p := optionalPrefix + "_"
		if len(s) <= len(p) || s[:len(p)] != p {
			return false
		}
		s = s[len(p):]
	}
	return idPattern.MatchString(s)
}
