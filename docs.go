// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// carrierauth signs users in to a relying party through their mobile carrier
// (carrier discovery followed by an OIDC authorization code flow with PKCE)
// and supports step-up re-authentication of an already signed in user.
//
// The packages are:
//
//	oidc      carrier discovery and the carrier's OIDC endpoints
//	flow      the login and step-up decisions
//	session   the browser's session and its stores (memory, redis)
//	callback  the http.HandlerFuncs
//
// See examples/webapp for a complete relying party.
package carrierauth
