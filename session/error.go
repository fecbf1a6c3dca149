// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import "errors"

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNilParameter     = errors.New("nil parameter")
	ErrMissingSubject   = errors.New("profile is missing a subject")
	ErrStoreUnavailable = errors.New("session store unavailable")
	ErrCorruptSession   = errors.New("corrupt session")
)
