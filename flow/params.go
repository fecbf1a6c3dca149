// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flow

// CallbackParams are the parameters of a request to the relying party's
// callback.  They come from the browser and are untrusted.
type CallbackParams struct {
	// CarrierID is the "mccmnc" returned by carrier discovery
	CarrierID string

	// Error and ErrorDescription are an authorization error response
	Error            string
	ErrorDescription string

	State          string
	Code           string
	LoginHintToken string
}
