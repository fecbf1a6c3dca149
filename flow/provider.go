// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flow

import (
	"context"

	"github.com/hashicorp/carrierauth/oidc"
)

// IdentityProvider is the carrier facing client used by a Controller.
// *oidc.Client implements it.
type IdentityProvider interface {
	CarrierDiscoveryURL(s *oidc.State) (string, error)
	Discover(ctx context.Context, carrierID string) (*oidc.ProviderConfig, error)
	AuthURL(ctx context.Context, pc *oidc.ProviderConfig, s *oidc.State, loginHintToken string, ao oidc.AuthOptions) (string, error)
	Exchange(ctx context.Context, pc *oidc.ProviderConfig, s *oidc.State, authorizationState, code string, b oidc.Bindings) (*oidc.Token, error)
	UserInfo(ctx context.Context, pc *oidc.ProviderConfig, t *oidc.Token) (map[string]interface{}, error)
}

var _ IdentityProvider = (*oidc.Client)(nil)
