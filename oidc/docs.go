// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Primary types provided by the package

* State: represents one authentication attempt for a user.  It contains the
state id, nonce and PKCE code verifier needed to uniquely represent that one-time
flow across the redirects through carrier discovery, the authorization endpoint
and back to the relying party's callback.  All States contain an expiration.

* Config: provides the relying party configuration (client id/secret, redirect
URL, the carrier discovery UI URL and the provider configuration URL used to
discover a carrier's OIDC provider).

* Client: provides integration with carrier providers.  It discovers a
carrier's ProviderConfig, generates carrier discovery and auth URLs, exchanges
codes for tokens (verifying the id_token and any step-up Bindings) and makes
user info requests.

* Bindings: the values a step-up re-authentication response must be bound to
(acr, sub and optionally the context).

* Token: represents an OIDC id_token, as well as an Oauth2 access_token and
refresh_token (including the the access_token expiry)

* Alg: represents asymmetric signing algorithms

* TestProvider: an in-process carrier (discovery UI, provider configuration and
OIDC endpoints) which makes writing tests much easier.
*/
package oidc
