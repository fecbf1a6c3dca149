// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/carrierauth/oidc"
)

// Session is the state kept for one browser session.  The zero value is an
// empty (unauthenticated) session.
type Session struct {
	// CurrentUser is set once a login completes.  A step-up
	// re-authentication never replaces it.
	CurrentUser *UserProfile `json:"current_user,omitempty"`

	// ReAuth exists only while a step-up round trip is outstanding.
	ReAuth *ReAuthContext `json:"reauth,omitempty"`

	// CarrierID is the last carrier (mccmnc) used.  It's advisory: a carrier
	// id received with a callback always takes precedence.
	CarrierID string `json:"carrier_id,omitempty"`

	// State is the pending authentication attempt.  It's single use.
	State *oidc.State `json:"state,omitempty"`
}

// IsAuthenticated returns true when the session has a current user.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.CurrentUser != nil
}

// IsEmpty returns true when nothing is stored in the session.
func (s *Session) IsEmpty() bool {
	return s == nil || (s.CurrentUser == nil && s.ReAuth == nil && s.CarrierID == "" && s.State == nil)
}

// Clone returns a deep copy of the session.  Cloning a nil session returns an
// empty one.
func (s *Session) Clone() *Session {
	if s == nil {
		return &Session{}
	}
	c := &Session{
		CarrierID:   s.CarrierID,
		CurrentUser: s.CurrentUser.Clone(),
	}
	if s.ReAuth != nil {
		r := *s.ReAuth
		c.ReAuth = &r
	}
	if s.State != nil {
		st := *s.State
		c.State = &st
	}
	return c
}

// ReAuthContext describes an outstanding step-up re-authentication.
type ReAuthContext struct {
	// Context is the opaque, user visible description of what is being
	// approved.
	Context string `json:"context"`

	// ExpectedACR is the authentication context class the response's
	// id_token must carry.
	ExpectedACR string `json:"expected_acr"`

	// BoundSubject is the "sub" of the user that started the step-up.  The
	// response must be for the same user.
	BoundSubject string `json:"bound_subject"`
}

// UserProfile is the authenticated user's profile, built from the provider's
// user info claims.  It is immutable: Claims returns a copy.
type UserProfile struct {
	Subject     string
	Name        string
	Email       string
	PhoneNumber string
	PostalCode  string

	claims map[string]interface{}
}

// NewUserProfile creates a profile from user info claims.  The "sub" claim is
// required.  Carriers return some claims as plain strings and some as objects
// with a "value" member, both are supported.
func NewUserProfile(claims map[string]interface{}) (*UserProfile, error) {
	const op = "session.NewUserProfile"
	if claims == nil {
		return nil, fmt.Errorf("%s: claims are nil: %w", op, ErrNilParameter)
	}
	sub := claimString(claims, "sub")
	if sub == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingSubject)
	}
	return &UserProfile{
		Subject:     sub,
		Name:        claimString(claims, "name"),
		Email:       claimString(claims, "email"),
		PhoneNumber: claimString(claims, "phone_number", "phone"),
		PostalCode:  claimString(claims, "postal_code"),
		claims:      copyClaims(claims),
	}, nil
}

// Claims returns a copy of all the profile's claims.
func (p *UserProfile) Claims() map[string]interface{} {
	if p == nil {
		return nil
	}
	return copyClaims(p.claims)
}

// Clone returns a deep copy of the profile.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.claims = copyClaims(p.claims)
	return &c
}

type userProfileJSON struct {
	Subject     string                 `json:"sub"`
	Name        string                 `json:"name,omitempty"`
	Email       string                 `json:"email,omitempty"`
	PhoneNumber string                 `json:"phone_number,omitempty"`
	PostalCode  string                 `json:"postal_code,omitempty"`
	Claims      map[string]interface{} `json:"claims,omitempty"`
}

// MarshalJSON encodes the profile, including its claims.
func (p UserProfile) MarshalJSON() ([]byte, error) {
	return json.Marshal(userProfileJSON{
		Subject:     p.Subject,
		Name:        p.Name,
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
		PostalCode:  p.PostalCode,
		Claims:      p.claims,
	})
}

// UnmarshalJSON decodes a profile encoded by MarshalJSON.
func (p *UserProfile) UnmarshalJSON(b []byte) error {
	var v userProfileJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = UserProfile{
		Subject:     v.Subject,
		Name:        v.Name,
		Email:       v.Email,
		PhoneNumber: v.PhoneNumber,
		PostalCode:  v.PostalCode,
		claims:      v.Claims,
	}
	return nil
}

// claimString returns the first of the named claims that's a non-empty string
// or an object with a string "value".
func claimString(claims map[string]interface{}, names ...string) string {
	for _, n := range names {
		switch v := claims[n].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]interface{}:
			if s, ok := v["value"].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func copyClaims(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		return copyClaims(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i := range v {
			out[i] = copyValue(v[i])
		}
		return out
	default:
		return v
	}
}
