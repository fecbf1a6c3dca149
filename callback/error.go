// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import "errors"

var (
	ErrNilParameter   = errors.New("nil parameter")
	ErrInvalidRequest = errors.New("invalid request")
)
