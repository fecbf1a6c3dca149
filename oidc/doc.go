// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package oidc provides a relying party client for carrier mediated OpenID
// Connect logins.  A carrier (mobile network operator) is identified by its
// mccmnc and each carrier publishes its own OIDC provider configuration, so the
// client discovers a provider per carrier before it can build authorization
// requests or exchange codes.
package oidc
